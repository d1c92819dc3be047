package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "whatsapp_shell"

// Metrics holds all Prometheus metrics
type Metrics struct {
	Registry *prometheus.Registry

	// Diagnostics HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Navigation metrics
	NavigationDecisions *prometheus.CounterVec
	ExternalOpens       *prometheus.CounterVec

	// Permission metrics
	PermissionRequests *prometheus.CounterVec

	// Load failure metrics
	LoadFailures     prometheus.Counter
	ReloadsScheduled prometheus.Counter
	ReloadsExecuted  *prometheus.CounterVec
	ReloadsPending   prometheus.Gauge

	// User agent metrics
	UserAgentResolutions *prometheus.CounterVec
	UserAgentDuration    prometheus.Histogram

	// Window state metrics
	WindowStateSaves *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector on its own registry, so tests and
// multiple shells in one process never collide on the default registerer.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of diagnostics HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Diagnostics HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		NavigationDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "navigation_decisions_total",
				Help:      "Navigation and popup decisions by outcome",
			},
			[]string{"decision"},
		),
		ExternalOpens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "external_opens_total",
				Help:      "Attempts to hand a URI to the system browser",
			},
			[]string{"result"},
		),

		PermissionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_requests_total",
				Help:      "Media permission requests by kind and verdict",
			},
			[]string{"kind", "verdict"},
		),

		LoadFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_failures_total",
				Help:      "Main frame load failures",
			},
		),
		ReloadsScheduled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_scheduled_total",
				Help:      "Automatic reloads scheduled after a load failure",
			},
		),
		ReloadsExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_executed_total",
				Help:      "Reloads performed, by trigger",
			},
			[]string{"trigger"},
		),
		ReloadsPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reloads_pending",
				Help:      "Scheduled reloads not yet fired",
			},
		),

		UserAgentResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "user_agent_resolutions_total",
				Help:      "User agent resolutions by source",
			},
			[]string{"source"},
		),
		UserAgentDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "user_agent_resolution_seconds",
				Help:      "Time spent resolving the user agent",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 3, 5},
			},
		),

		WindowStateSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "window_state_saves_total",
				Help:      "Window state persistence attempts",
			},
			[]string{"result"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "uptime_seconds",
				Help:      "Shell uptime in seconds",
			},
		),
	}
}

// Run updates the uptime gauge until ctx is done
func (m *Metrics) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		}
	}
}

// RecordHTTPRequest records a diagnostics HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordNavigation records a navigation or popup decision
func (m *Metrics) RecordNavigation(decision string) {
	m.NavigationDecisions.WithLabelValues(decision).Inc()
}

// RecordExternalOpen records a system browser hand-off
func (m *Metrics) RecordExternalOpen(result string) {
	m.ExternalOpens.WithLabelValues(result).Inc()
}

// RecordPermission records a permission verdict
func (m *Metrics) RecordPermission(kind, verdict string) {
	m.PermissionRequests.WithLabelValues(kind, verdict).Inc()
}

// RecordLoadFailure records a main frame load failure
func (m *Metrics) RecordLoadFailure() {
	m.LoadFailures.Inc()
}

// RecordReloadScheduled records a reload timer being armed
func (m *Metrics) RecordReloadScheduled() {
	m.ReloadsScheduled.Inc()
	m.ReloadsPending.Inc()
}

// RecordReloadCancelled records a pending reload that will never fire
func (m *Metrics) RecordReloadCancelled() {
	m.ReloadsPending.Dec()
}

// RecordReload records a reload, trigger is "timer" or "manual"
func (m *Metrics) RecordReload(trigger string) {
	if trigger == "timer" {
		m.ReloadsPending.Dec()
	}
	m.ReloadsExecuted.WithLabelValues(trigger).Inc()
}

// RecordUserAgent records a user agent resolution
func (m *Metrics) RecordUserAgent(source string, duration time.Duration) {
	m.UserAgentResolutions.WithLabelValues(source).Inc()
	m.UserAgentDuration.Observe(duration.Seconds())
}

// RecordWindowStateSave records a window state save
func (m *Metrics) RecordWindowStateSave(result string) {
	m.WindowStateSaves.WithLabelValues(result).Inc()
}
