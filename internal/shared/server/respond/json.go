package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload as-is. Resource endpoints use it; pipeline endpoints
// use Success and Failure.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func Created(c *gin.Context, payload any) {
	JSON(c, http.StatusCreated, payload)
}
