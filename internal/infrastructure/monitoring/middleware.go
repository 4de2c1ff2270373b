package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request count and latency per route
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route templates keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures a loader hand-off
type Timer struct {
	start   time.Time
	metrics *Metrics
	backend string
}

// NewTimer starts a timer for a loader backend
func NewTimer(metrics *Metrics, backend string) *Timer {
	return &Timer{start: time.Now(), metrics: metrics, backend: backend}
}

// Stop records the elapsed time under status
func (t *Timer) Stop(status string) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordLoaderCall(t.backend, status, time.Since(t.start))
}
