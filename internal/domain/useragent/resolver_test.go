package useragent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/config"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"

func newTestResolver(t *testing.T, url string) (*Resolver, *monitoring.Metrics) {
	t.Helper()
	metrics := monitoring.NewMetrics()
	cfg := config.Default().UserAgent
	cfg.ListURL = url
	return NewResolver(cfg, logging.NewNop(), metrics), metrics
}

func serve(body string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestResolveRemote(t *testing.T) {
	srv := serve(`["`+chromeUA+`", "Mozilla/5.0 (X11; Linux x86_64) Firefox/140.0"]`, http.StatusOK)
	defer srv.Close()

	resolver, metrics := newTestResolver(t, srv.URL)
	result := resolver.Resolve(context.Background())

	assert.Equal(t, Result{UserAgent: chromeUA, Source: SourceRemote}, result)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UserAgentResolutions.WithLabelValues("remote")))
}

func TestResolveSkipsBlankEntries(t *testing.T) {
	srv := serve(`["", "  ", "`+chromeUA+`"]`, http.StatusOK)
	defer srv.Close()

	resolver, _ := newTestResolver(t, srv.URL)
	assert.Equal(t, chromeUA, resolver.Resolve(context.Background()).UserAgent)
}

func TestResolveFallback(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "empty list", body: `[]`, status: http.StatusOK},
		{name: "only blank entries", body: `[""]`, status: http.StatusOK},
		{name: "malformed json", body: `["unterminated`, status: http.StatusOK},
		{name: "object instead of list", body: `{"ua": "x"}`, status: http.StatusOK},
		{name: "list of numbers", body: `[1, 2, 3]`, status: http.StatusOK},
		{name: "server error", body: `["` + chromeUA + `"]`, status: http.StatusInternalServerError},
		{name: "not found", body: ``, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(tt.body, tt.status)
			defer srv.Close()

			resolver, metrics := newTestResolver(t, srv.URL)
			result := resolver.Resolve(context.Background())

			assert.Equal(t, Result{UserAgent: config.FallbackUserAgent, Source: SourceFallback}, result)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UserAgentResolutions.WithLabelValues("fallback")))
		})
	}
}

func TestResolveUnreachable(t *testing.T) {
	srv := serve(`[]`, http.StatusOK)
	url := srv.URL
	srv.Close()

	resolver, _ := newTestResolver(t, url)
	assert.Equal(t, config.FallbackUserAgent, resolver.Resolve(context.Background()).UserAgent)
}

func TestResolveTimeoutBound(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	resolver, _ := newTestResolver(t, srv.URL)

	start := time.Now()
	result := resolver.Resolve(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, SourceFallback, result.Source)
	assert.Equal(t, config.FallbackUserAgent, result.UserAgent)
	assert.GreaterOrEqual(t, elapsed, 2500*time.Millisecond)
	assert.Less(t, elapsed, 3500*time.Millisecond)
}

func TestResolveFallbackLogsWarning(t *testing.T) {
	srv := serve(`[]`, http.StatusOK)
	defer srv.Close()

	logger, logs := logging.NewObserved(zapcore.DebugLevel)
	cfg := config.Default().UserAgent
	cfg.ListURL = srv.URL
	resolver := NewResolver(cfg, logger, monitoring.NewMetrics())

	resolver.Resolve(context.Background())

	warnings := logs.FilterMessage("Failed to fetch user agent").FilterLevelExact(zapcore.WarnLevel)
	require.Equal(t, 1, warnings.Len())
}

func TestResolveRemoteDisabled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`["` + chromeUA + `"]`))
	}))
	defer srv.Close()

	cfg := config.Default().UserAgent
	cfg.ListURL = srv.URL
	cfg.Remote = false
	cfg.Fallback = "custom-agent/1.0"
	resolver := NewResolver(cfg, logging.NewNop(), monitoring.NewMetrics())

	assert.Equal(t, Result{UserAgent: "custom-agent/1.0", Source: SourceFallback}, resolver.Resolve(context.Background()))
	assert.Zero(t, hits.Load())
}

func TestNewResolverDefaults(t *testing.T) {
	resolver := NewResolver(config.UserAgentConfig{}, logging.NewNop(), monitoring.NewMetrics())

	assert.Equal(t, DefaultTimeout, resolver.cfg.Timeout)
	assert.Equal(t, config.FallbackUserAgent, resolver.cfg.Fallback)
	assert.Equal(t, Result{UserAgent: config.FallbackUserAgent, Source: SourceFallback}, resolver.Resolve(context.Background()))
}
