package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lens-backend/internal/shared/telemetry"
)

// quietPaths are polled by load balancers and scrapers.
var quietPaths = map[string]struct{}{
	"/metrics":       {},
	"/api/v1/health": {},
}

// Logging emits one "request.complete" line per request. 5xx responses log at
// error level; preflights and quiet paths are skipped unless they fail.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		_, quiet := quietPaths[c.Request.URL.Path]
		if (quiet || c.Request.Method == http.MethodOptions) && status < http.StatusInternalServerError {
			return
		}

		fields := map[string]any{
			"request_id":   RequestIDFromContext(c),
			"method":       c.Request.Method,
			"path":         c.Request.URL.Path,
			"route":        c.FullPath(),
			"status":       status,
			"bytes":        c.Writer.Size(),
			"duration_ms":  float64(time.Since(start).Microseconds()) / 1000.0,
			"candidate_id": c.GetString("candidateId"),
			"project_id":   c.GetString("projectId"),
			"client_ip":    c.ClientIP(),
		}
		if status >= http.StatusInternalServerError {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
