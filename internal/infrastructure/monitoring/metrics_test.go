package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}

func TestRecordPublish(t *testing.T) {
	m := NewMetrics()

	m.RecordPublish("", 5*time.Millisecond, 3)
	m.RecordPublish("weaker_policy", time.Millisecond, 0)
	m.RecordPublish("weaker_policy", time.Millisecond, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishTotal.WithLabelValues("committed", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublishTotal.WithLabelValues("aborted", "weaker_policy")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Publishes)
	assert.Equal(t, int64(2), snap.PublishFailures)
}

func TestSetRegistryState(t *testing.T) {
	m := NewMetrics()
	m.SetRegistryState(2, 5, 11, map[string]int{"compatible": 4, "immutable": 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Accounts))
	assert.Equal(t, 11.0, testutil.ToFloat64(m.Modules))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.PackagesByPolicy.WithLabelValues("compatible")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/registry/accounts/:address", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/registry/accounts/0x1", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/registry/accounts/:address", "404")))
	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coderegistry_http_requests_total")
	assert.Contains(t, w.Body.String(), "coderegistry_uptime_seconds")
}

func TestTimer(t *testing.T) {
	m := NewMetrics()
	NewTimer(m, "memory").Stop("ok")
	NewTimer(nil, "memory").Stop("ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderCalls.WithLabelValues("memory", "ok")))
}
