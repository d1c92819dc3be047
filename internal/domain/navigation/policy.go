package navigation

import (
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/config"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/resilience"
)

// ErrRateLimited is returned when external opens arrive too fast.
var ErrRateLimited = errors.New("external open rate limit exceeded")

// scriptScheme is the in-page scheme the web application navigates to itself.
const scriptScheme = "javascript"

// Policy confines the embedded view to the application domains.
type Policy struct {
	domains []string
	opener  Opener
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewPolicy creates a navigation policy. A non-positive open rate disables
// limiting. Repeated opener failures stop external opens for a cooldown.
func NewPolicy(app config.AppConfig, nav config.NavigationConfig, opener Opener, logger *logging.Logger, metrics *monitoring.Metrics) *Policy {
	domains := make([]string, 0, len(app.Domains))
	for _, d := range app.Domains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			domains = append(domains, d)
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if nav.OpenRate > 0 {
		burst := nav.OpenBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(nav.OpenRate), burst)
	}

	breaker := resilience.New(resilience.Settings{
		Threshold: nav.OpenFailures,
		Cooldown:  nav.OpenCooldown,
		OnStateChange: func(from, to resilience.State) {
			logger.Warn("External browser breaker changed state",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return &Policy{
		domains: domains,
		opener:  opener,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
		metrics: metrics,
	}
}

// IsInternal reports whether uri may load inside the embedded view: the
// script scheme, or a host equal to or below one of the application domains.
// blob: URIs are judged by the origin they wrap.
func (p *Policy) IsInternal(uri string) bool {
	uri = strings.TrimSpace(uri)

	scheme, rest, host := splitURI(uri)
	if u, err := url.Parse(uri); err == nil {
		scheme, host = u.Scheme, u.Hostname()
		if u.Opaque != "" {
			rest = u.Opaque
		}
	}

	switch strings.ToLower(scheme) {
	case scriptScheme:
		return true
	case "blob":
		return p.IsInternal(rest)
	}

	return p.matchHost(host)
}

// splitURI cuts an absolute URI into scheme, the remainder after the colon
// and the authority host, without decoding anything. Engines still load
// URIs that url.Parse rejects over a bad escape, so those are judged by
// their raw authority.
func splitURI(uri string) (scheme, rest, host string) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok {
		return "", "", ""
	}
	if !strings.HasPrefix(rest, "//") {
		return scheme, rest, ""
	}

	authority := rest[2:]
	if i := strings.IndexAny(authority, "/?#"); i >= 0 {
		authority = authority[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		authority = authority[i+1:]
	}

	host = authority
	if strings.HasPrefix(host, "[") {
		if i := strings.Index(host, "]"); i >= 0 {
			host = host[1:i]
		}
	} else if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return scheme, rest, host
}

func (p *Policy) matchHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, d := range p.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// DecideNavigation decides an in-place navigation. Off-domain URIs are sent
// to the system browser and suppressed; if that hand-off fails the engine
// keeps its default handling.
func (p *Policy) DecideNavigation(ev Event) Decision {
	decision := p.decideNavigation(ev)
	p.metrics.RecordNavigation(decision.String())
	return decision
}

func (p *Policy) decideNavigation(ev Event) Decision {
	if strings.TrimSpace(ev.URI) == "" {
		return None
	}
	if p.IsInternal(ev.URI) {
		return Allow
	}

	p.logger.Info("Opening external link in browser", zap.String("uri", ev.URI))
	if err := p.openExternal(ev.URI); err != nil {
		if errors.Is(err, ErrRateLimited) {
			// Still suppressed: the page does not get to load it either
			return RedirectExternal
		}
		return None
	}
	return RedirectExternal
}

// DecidePopup decides a new-window request. No embedded view is ever created.
func (p *Policy) DecidePopup(ev Event) Decision {
	if strings.TrimSpace(ev.URI) != "" {
		p.logger.Info("Opening popup in browser", zap.String("uri", ev.URI))
		_ = p.openExternal(ev.URI)
	}
	p.metrics.RecordNavigation(PopupExternal.String())
	return PopupExternal
}

func (p *Policy) openExternal(uri string) error {
	if !p.limiter.Allow() {
		p.logger.Warn("Dropped external link, too many opens", zap.String("uri", uri))
		p.metrics.RecordExternalOpen("rate_limited")
		return ErrRateLimited
	}

	err := p.breaker.Do(func() error {
		return p.opener.Open(uri)
	})
	if errors.Is(err, resilience.ErrOpen) {
		p.logger.Warn("Skipped external browser, it keeps failing", zap.String("uri", uri))
		p.metrics.RecordExternalOpen("circuit_open")
		return err
	}
	if err != nil {
		p.logger.Warn("Failed to open link in external browser", zap.String("uri", uri), zap.Error(err))
		p.metrics.RecordExternalOpen("error")
		return err
	}
	p.metrics.RecordExternalOpen("ok")
	return nil
}
