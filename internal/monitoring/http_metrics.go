package monitoring

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// In-flight and lifetime request counters feeding the monitoring reports.
var activeHTTPRequests atomic.Int64
var totalHTTPRequests atomic.Uint64

// RequestMetricsMiddleware counts every request passing through the router,
// including the static uploads mount.
func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		activeHTTPRequests.Add(1)
		totalHTTPRequests.Add(1)
		defer activeHTTPRequests.Add(-1)
		c.Next()
	}
}

func getHTTPStats() (active int64, total uint64) {
	return activeHTTPRequests.Load(), totalHTTPRequests.Load()
}
