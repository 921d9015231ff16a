package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"p4-dashboard/pkg/metrics"
)

// Metrics 请求计数与耗时；按路由模板统计，未匹配路由归入 "unmatched"
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
