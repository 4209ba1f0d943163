package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for API request metrics.
// Paths are recorded by route template so frame IDs do not explode label
// cardinality.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures a content load
type Timer struct {
	start   time.Time
	metrics *Metrics
	scheme  string
}

// NewTimer starts timing a load for scheme and marks it in flight
func NewTimer(metrics *Metrics, scheme string) *Timer {
	metrics.LoadStarted()
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		scheme:  scheme,
	}
}

// Stop records the load duration with the given outcome
func (t *Timer) Stop(outcome string) time.Duration {
	duration := time.Since(t.start)
	t.metrics.LoadFinished(t.scheme, outcome, duration)
	return duration
}
