package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karthik1704/rsr-v1/internal/shared/metrics"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

// Context keys handlers set so the request log can correlate entities.
const (
	ResumeIDKey  = "resumeId"
	PaymentIDKey = "paymentId"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		metrics.ObserveRequestDuration(latency)

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"resume_id":   c.GetString(ResumeIDKey),
			"payment_id":  c.GetString(PaymentIDKey),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
