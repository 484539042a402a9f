package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/karthik1704/rsr-v1/internal/shared/server/respond"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

// Recovery turns a panic into a 500 envelope. The log line carries the same
// resume and payment ids as request.complete so both can be joined.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("request.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"user_id":    UserIDFromContext(c),
				"resume_id":  c.GetString(ResumeIDKey),
				"payment_id": c.GetString(PaymentIDKey),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
				"panic":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		}()
		c.Next()
	}
}
