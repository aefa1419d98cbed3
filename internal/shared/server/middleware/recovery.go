package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"lens-backend/internal/shared/metrics"
	"lens-backend/internal/shared/server/respond"
	"lens-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope and a logged stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			metrics.IncHTTPPanic()
			telemetry.Error("request.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"panic":      rec,
				"stack":      string(debug.Stack()),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Failure(c, http.StatusInternalServerError, "internal_error", "unexpected server error")
			c.Abort()
		}()
		c.Next()
	}
}
