package requirements

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

// RegisterRoutes attaches requirement group routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:projectId/requirement-groups", h.create)
	rg.GET("/projects/:projectId/requirement-groups", h.list)
	rg.PATCH("/requirement-groups/:id", h.patch)
}

func (h *Handler) create(c *gin.Context) {
	projectID := c.Param("projectId")
	c.Set("projectId", projectID)

	var in CreateGroupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	in.ProjectID = projectID

	g, err := h.Svc.CreateGroup(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create requirement group", nil)
		return
	}
	respond.Created(c, g)
}

func (h *Handler) list(c *gin.Context) {
	projectID := c.Param("projectId")
	c.Set("projectId", projectID)

	groups, err := h.Svc.List(c.Request.Context(), projectID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list requirement groups", nil)
		return
	}
	if groups == nil {
		groups = []Group{}
	}
	respond.JSON(c, http.StatusOK, groups)
}

type patchRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handler) patch(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "enabled is required", nil)
		return
	}

	g, err := h.Svc.SetEnabled(c.Request.Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "filter group not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update requirement group", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, g)
}
