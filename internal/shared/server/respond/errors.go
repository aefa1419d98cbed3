package respond

import (
	"github.com/gin-gonic/gin"

	"lens-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	logError(c, status, code, message)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// ResultResponse is the envelope used by pipeline entry points.
type ResultResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Success writes {success:true, data}.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, ResultResponse{Success: true, Data: data})
}

// Failure writes {success:false, error} and aborts the request.
func Failure(c *gin.Context, status int, code, message string) {
	logError(c, status, code, message)
	c.AbortWithStatusJSON(status, ResultResponse{Success: false, Error: message, Code: code})
}

func logError(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if projectID := c.GetString("projectId"); projectID != "" {
		fields["project_id"] = projectID
	}
	if candidateID := c.GetString("candidateId"); candidateID != "" {
		fields["candidate_id"] = candidateID
	}
	telemetry.Error("http.error", fields)
}
