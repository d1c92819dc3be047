package useragent

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/config"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/httpclient"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
)

// DefaultTimeout bounds the remote lookup.
const DefaultTimeout = 3 * time.Second

// Source tells where a user agent came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Result is a resolved user agent.
type Result struct {
	UserAgent string `json:"user_agent"`
	Source    Source `json:"source"`
}

var errEmptyList = errors.New("user agent list is empty")

// Resolver picks the user agent presented to the web application.
type Resolver struct {
	cfg     config.UserAgentConfig
	client  *httpclient.Client
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewResolver creates a resolver. A zero timeout means DefaultTimeout and an
// empty fallback means config.FallbackUserAgent.
func NewResolver(cfg config.UserAgentConfig, logger *logging.Logger, metrics *monitoring.Metrics) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.Fallback) == "" {
		cfg.Fallback = config.FallbackUserAgent
	}

	return &Resolver{
		cfg:     cfg,
		client:  httpclient.New(httpclient.Config{Timeout: cfg.Timeout}),
		logger:  logger,
		metrics: metrics,
	}
}

// Resolve fetches the current list and returns its first entry. Any failure
// yields the fallback string; Resolve never returns later than the timeout.
func (r *Resolver) Resolve(ctx context.Context) Result {
	timer := monitoring.NewTimer()
	result := r.resolve(ctx)
	r.metrics.RecordUserAgent(string(result.Source), timer.Elapsed())
	return result
}

func (r *Resolver) resolve(ctx context.Context) Result {
	if !r.cfg.Remote || r.cfg.ListURL == "" {
		r.logger.Info("Remote user agent lookup disabled, using fallback")
		return r.fallback()
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	ua, err := r.fetch(ctx)
	if err != nil {
		r.logger.Warn("Failed to fetch user agent", zap.String("url", r.cfg.ListURL), zap.Error(err))
		return r.fallback()
	}

	r.logger.Info("Using user agent", zap.String("user_agent", ua), zap.String("source", string(SourceRemote)))
	return Result{UserAgent: ua, Source: SourceRemote}
}

func (r *Resolver) fetch(ctx context.Context) (string, error) {
	var list []string
	if err := r.client.GetJSON(ctx, r.cfg.ListURL, &list); err != nil {
		return "", err
	}

	for _, ua := range list {
		if ua = strings.TrimSpace(ua); ua != "" {
			return ua, nil
		}
	}
	return "", errEmptyList
}

func (r *Resolver) fallback() Result {
	return Result{UserAgent: r.cfg.Fallback, Source: SourceFallback}
}
