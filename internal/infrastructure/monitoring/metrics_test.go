package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsUsesPrivateRegistry(t *testing.T) {
	// Two collectors in one process must not collide
	first := NewMetrics()
	second := NewMetrics()

	first.RecordNavigation("allow")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.NavigationDecisions.WithLabelValues("allow")))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.NavigationDecisions.WithLabelValues("allow")))
}

func TestRecordDecisions(t *testing.T) {
	m := NewMetrics()

	m.RecordNavigation("redirect_external")
	m.RecordNavigation("redirect_external")
	m.RecordExternalOpen("ok")
	m.RecordPermission("camera", "allow")
	m.RecordPermission("microphone", "deny")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NavigationDecisions.WithLabelValues("redirect_external")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExternalOpens.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermissionRequests.WithLabelValues("camera", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermissionRequests.WithLabelValues("microphone", "deny")))
}

func TestReloadGaugeTracksPending(t *testing.T) {
	m := NewMetrics()

	m.RecordLoadFailure()
	m.RecordReloadScheduled()
	m.RecordReloadScheduled()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReloadsPending))

	m.RecordReload("timer")
	m.RecordReloadCancelled()
	m.RecordReload("manual")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ReloadsPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReloadsScheduled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReloadsExecuted.WithLabelValues("timer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReloadsExecuted.WithLabelValues("manual")))
}

func TestRecordUserAgent(t *testing.T) {
	m := NewMetrics()
	m.RecordUserAgent("fallback", 3*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UserAgentResolutions.WithLabelValues("fallback")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UserAgentDuration))
}

func TestRunStopsWithContext(t *testing.T) {
	m := NewMetrics()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	count, err := testutil.GatherAndCount(m.Registry, "whatsapp_shell_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
