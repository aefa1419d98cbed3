package ingest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lens-backend/internal/shared/server/middleware"
	"lens-backend/internal/shared/server/respond"
)

// Handler exposes document processing over HTTP.
type Handler struct {
	Processor *Processor
	// Throttle, when set, runs before the LLM-backed route.
	Throttle gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(p *Processor) *Handler {
	return &Handler{Processor: p}
}

// RegisterRoutes attaches ingestion routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/candidates/:id/process", middleware.Chain(h.Throttle, h.process)...)
}

func (h *Handler) process(c *gin.Context) {
	id := c.Param("id")
	c.Set("candidateId", id)

	res := h.Processor.ProcessDocument(c.Request.Context(), id)
	if !res.Success {
		respond.Failure(c, StatusFor(res.Kind), string(res.Kind), res.Error)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StatusFor maps a failure kind to an HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnsupported:
		return http.StatusUnsupportedMediaType
	case KindCorrupt, KindEmpty, KindDecoder:
		return http.StatusUnprocessableEntity
	case KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
