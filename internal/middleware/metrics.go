package middleware

import (
	"strconv"
	"time"

	"nft-marketplace-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware tracks request counts, outcomes and latency, and adds
// response-time headers
func MetricsMiddleware(metricsCollector *metrics.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		metricsCollector.RecordRequest()

		c.Next()

		duration := time.Since(startTime)
		success := c.Writer.Status() < 400

		metricsCollector.RecordRequestComplete(duration, success)

		c.Header("X-Response-Time", duration.String())
		c.Header("X-Response-Time-Ms", strconv.FormatInt(duration.Milliseconds(), 10))
	}
}
