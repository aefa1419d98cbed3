package positions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lens-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches position routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:projectId/positions", h.create)
	rg.GET("/projects/:projectId/positions", h.list)
}

func (h *Handler) create(c *gin.Context) {
	projectID := c.Param("projectId")
	c.Set("projectId", projectID)

	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	in.ProjectID = projectID

	p, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create position", nil)
		return
	}
	respond.Created(c, p)
}

func (h *Handler) list(c *gin.Context) {
	projectID := c.Param("projectId")
	c.Set("projectId", projectID)

	list, err := h.Svc.List(c.Request.Context(), projectID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list positions", nil)
		return
	}
	if list == nil {
		list = []Position{}
	}
	respond.JSON(c, http.StatusOK, list)
}
