package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/response"
)

const responseCodeKey = response.CodeKey

// Metrics 记录HTTP请求指标
// path使用路由模板(/api/v1/books/:id),避免标签基数爆炸
// code为业务码(HTTP状态恒为200)
func Metrics() gin.HandlerFunc {
	metrics.InitMetrics()
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestsInProgress.Inc()
		start := time.Now()
		c.Next()
		metrics.HTTPRequestsInProgress.Dec()

		code := strconv.Itoa(c.Writer.Status())
		if v, ok := c.Get(responseCodeKey); ok {
			if n, ok := v.(int); ok {
				code = strconv.Itoa(n)
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, code).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
