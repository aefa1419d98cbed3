package matching

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lens-backend/internal/ratings"
	"lens-backend/internal/shared/server/middleware"
	"lens-backend/internal/shared/server/respond"
)

// Handler exposes candidate matching over HTTP.
type Handler struct {
	Engine *Engine
	// Throttle, when set, runs before the LLM-backed route.
	Throttle gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(e *Engine) *Handler {
	return &Handler{Engine: e}
}

// RegisterRoutes attaches matching routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/match", middleware.Chain(h.Throttle, h.match)...)
	rg.GET("/projects/:projectId/ratings", h.list)
}

func (h *Handler) match(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		status, code, msg := StatusFor(ErrInvalidInput)
		respond.Failure(c, status, code, msg)
		return
	}
	c.Set("candidateId", req.CandidateID)
	c.Set("projectId", req.ProjectID)

	res, err := h.Engine.MatchCandidate(c.Request.Context(), req)
	if err != nil {
		status, code, msg := StatusFor(err)
		respond.Failure(c, status, code, msg)
		return
	}
	respond.Success(c, http.StatusOK, res)
}

func (h *Handler) list(c *gin.Context) {
	projectID := c.Param("projectId")
	c.Set("projectId", projectID)

	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	limit, offset = ratings.ClampPage(limit, offset)

	list, err := h.Engine.Ratings.ListByProject(c.Request.Context(), projectID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list ratings", nil)
		return
	}
	respond.JSON(c, http.StatusOK, list)
}

// StatusFor maps a matching error to an HTTP status, error code and the
// message shown to clients. Unknown errors never leak their text.
func StatusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "validation_error", "Candidate ID and Project ID are required"
	case errors.Is(err, ErrCandidateNotFound):
		return http.StatusNotFound, "candidate_not_found", "CV file not found"
	case errors.Is(err, ErrNoRawText):
		return http.StatusBadRequest, "no_raw_text", "No raw text found for this candidate"
	case errors.Is(err, ErrGroupNotFound):
		return http.StatusNotFound, "filter_group_not_found", "Filter group not found or not associated with this project"
	case errors.Is(err, ErrPositionNotFound):
		return http.StatusNotFound, "position_not_found", "Position not found or not associated with this project"
	case errors.Is(err, ErrNoRequirements):
		return http.StatusUnprocessableEntity, "no_requirements", "No requirements found for this project"
	case errors.Is(err, ErrParse):
		return http.StatusBadGateway, "invalid_llm_response", "Failed to parse LLM response as JSON"
	case errors.Is(err, ErrInvalidRating):
		return http.StatusBadGateway, "invalid_llm_response", "Invalid rating in LLM response"
	default:
		return http.StatusInternalServerError, "internal_error", "failed to match candidate"
	}
}
