package summaries

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lens-backend/internal/shared/server/respond"
)

// Handler serves summary reads.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches summary routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/candidates/:id/summary", h.get)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("candidateId", id)

	view, err := h.Svc.GetForCandidate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "summary not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch summary", nil)
		return
	}
	respond.JSON(c, http.StatusOK, view)
}
