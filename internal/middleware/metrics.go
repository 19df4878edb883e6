package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retroline/retroline/pkg/metrics"
)

// unmatchedPath collapses requests that hit no route. Recording the raw
// URL of every bad request would let callers mint label values at will.
const unmatchedPath = "unmatched"

// Metrics records request latency for each HTTP request. Terminal socket
// upgrades are not measured: a hijacked connection stays open for the
// length of a caller's visit, so its duration is session time, not
// request latency.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.IsWebsocket() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}
