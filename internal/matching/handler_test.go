package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"lens-backend/internal/ratings"
)

func TestMatchHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t, `{"rating": "B", "reason": "good fit"}`)
	router := gin.New()
	NewHandler(f.engine).RegisterRoutes(router.Group("/api/v1"))

	body := `{"candidate_id":"cv-1","project_id":"proj-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			Rating struct {
				Bucket string `json:"rating"`
				Reason string `json:"rating_reason"`
			} `json:"rating"`
			Existing bool `json:"existing"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Success || payload.Data.Rating.Bucket != "B" || payload.Data.Rating.Reason != "good fit" {
		t.Fatalf("unexpected payload: %s", resp.Body.String())
	}

	list := httptest.NewRecorder()
	router.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/api/v1/projects/proj-1/ratings", nil))
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), `"rating":"B"`) {
		t.Fatalf("unexpected list response %d: %s", list.Code, list.Body.String())
	}
}

func TestMatchHandlerFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name       string
		body       string
		content    string
		wantStatus int
		wantError  string
	}{
		{name: "missing ids", body: `{"candidate_id":"cv-1"}`, wantStatus: http.StatusBadRequest, wantError: "Candidate ID and Project ID are required"},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest, wantError: "Candidate ID and Project ID are required"},
		{name: "unknown candidate", body: `{"candidate_id":"x","project_id":"proj-1"}`, wantStatus: http.StatusNotFound, wantError: "CV file not found"},
		{name: "no text", body: `{"candidate_id":"cv-empty","project_id":"proj-1"}`, wantStatus: http.StatusBadRequest, wantError: "No raw text found for this candidate"},
		{name: "invalid rating", body: `{"candidate_id":"cv-1","project_id":"proj-1"}`, content: `{"rating":"E"}`, wantStatus: http.StatusBadGateway, wantError: "Invalid rating in LLM response"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.content)
			router := gin.New()
			NewHandler(f.engine).RegisterRoutes(router.Group("/api/v1"))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/match", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			var payload struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload.Success || !strings.HasPrefix(payload.Error, tt.wantError) {
				t.Fatalf("unexpected payload: %s", resp.Body.String())
			}
		})
	}
}

func TestStatusForHidesInternalErrors(t *testing.T) {
	status, code, msg := StatusFor(fmt.Errorf("store rating: %w", errors.New("connection refused")))
	if status != http.StatusInternalServerError || code != "internal_error" {
		t.Fatalf("unexpected mapping %d %s", status, code)
	}
	if strings.Contains(msg, "connection refused") {
		t.Fatalf("internal error leaked: %q", msg)
	}
}

func TestStatusForWrappedSentinels(t *testing.T) {
	tests := []struct {
		err      error
		status   int
		code     string
		wantText string
	}{
		{err: fmt.Errorf("resolve: %w", ErrGroupNotFound), status: http.StatusNotFound, code: "filter_group_not_found", wantText: "Filter group not found or not associated with this project"},
		{err: fmt.Errorf("%w: unexpected token", ErrParse), status: http.StatusBadGateway, code: "invalid_llm_response", wantText: "Failed to parse LLM response as JSON"},
		{err: ErrNoRequirements, status: http.StatusUnprocessableEntity, code: "no_requirements", wantText: "No requirements found for this project"},
	}
	for _, tt := range tests {
		status, code, msg := StatusFor(tt.err)
		if status != tt.status || code != tt.code || msg != tt.wantText {
			t.Fatalf("StatusFor(%v) = %d %s %q", tt.err, status, code, msg)
		}
	}
}

type pageRecorder struct {
	*ratings.MemoryRepo
	limit, offset int
}

func (p *pageRecorder) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]ratings.Rating, error) {
	p.limit, p.offset = limit, offset
	return p.MemoryRepo.ListByProject(ctx, projectID, limit, offset)
}

func TestListRatingsUsesSharedPageBound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t, "")
	rec := &pageRecorder{MemoryRepo: f.ratings}
	f.engine.Ratings = rec
	router := gin.New()
	NewHandler(f.engine).RegisterRoutes(router.Group("/api/v1"))

	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: 50, wantOffset: 0},
		{query: "?limit=150&offset=-2", wantLimit: ratings.MaxPageSize, wantOffset: 0},
		{query: "?limit=10&offset=20", wantLimit: 10, wantOffset: 20},
	}
	for _, tt := range tests {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/projects/proj-1/ratings"+tt.query, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tt.query, resp.Code)
		}
		if rec.limit != tt.wantLimit || rec.offset != tt.wantOffset {
			t.Fatalf("%q: got limit=%d offset=%d", tt.query, rec.limit, rec.offset)
		}
	}
}
