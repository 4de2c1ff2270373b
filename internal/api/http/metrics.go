package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/coderegistry/internal/domain/code"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// MetricsAggregator combines request totals with registry state
type MetricsAggregator struct {
	metrics *monitoring.Metrics
	manager *code.Manager
}

// NewMetricsAggregator creates a metrics aggregator
func NewMetricsAggregator(metrics *monitoring.Metrics, manager *code.Manager) *MetricsAggregator {
	return &MetricsAggregator{metrics: metrics, manager: manager}
}

// MetricsSnapshot is the body of GET /metrics/json
type MetricsSnapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	Requests  monitoring.Snapshot `json:"requests"`
	Registry  types.RegistryStats `json:"registry"`
	Summary   MetricsSummary      `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	ErrorRate          float64 `json:"error_rate"`
	PublishFailureRate float64 `json:"publish_failure_rate"`
}

// GetAggregatedMetrics returns request totals and registry state. Registry
// gauges are refreshed as a side effect.
func (ma *MetricsAggregator) GetAggregatedMetrics(c *gin.Context) {
	stats, err := ma.manager.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	snap := ma.metrics.Snapshot()
	summary := MetricsSummary{}
	if snap.TotalRequests > 0 {
		summary.ErrorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}
	if snap.Publishes > 0 {
		summary.PublishFailureRate = float64(snap.PublishFailures) / float64(snap.Publishes)
	}

	c.JSON(http.StatusOK, MetricsSnapshot{
		Timestamp: time.Now(),
		Requests:  snap,
		Registry:  stats,
		Summary:   summary,
	})
}
