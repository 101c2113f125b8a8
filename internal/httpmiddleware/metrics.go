package httpmiddleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fingerattend/internal/metrics"
)

// Instrument records request latency by route template.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
