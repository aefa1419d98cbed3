package structuring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lens-backend/internal/candidates"
	"lens-backend/internal/llm"
	"lens-backend/internal/positions"
	"lens-backend/internal/shared/telemetry"
	"lens-backend/internal/summaries"
)

// Extraction call parameters.
const (
	Temperature = 0.3
	MaxTokens   = 1000
)

// PositionLister lists the positions offered as suggestion targets.
type PositionLister interface {
	ListByProject(ctx context.Context, projectID string) ([]positions.Position, error)
	FindByTitle(ctx context.Context, projectID, title string) (positions.Position, error)
}

// Service converts raw resume text into a persisted Summary.
type Service struct {
	LLM       llm.ChatClient
	Positions PositionLister
	Summaries summaries.Repo
	Now       func() time.Time
}

// Structure runs extraction for file and stores the summary plus candidate_positions.
// A summary that already exists for the file is returned as is.
func (s *Service) Structure(ctx context.Context, file candidates.CandidateFile) (summaries.Summary, error) {
	if file.ID == "" || !file.HasRawText() {
		return summaries.Summary{}, ErrNoRawText
	}
	if existing, err := s.Summaries.GetByCandidate(ctx, file.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, summaries.ErrNotFound) {
		return summaries.Summary{}, err
	}

	available := s.listPositions(ctx, file.ProjectID)
	client := llm.NewRetrying(s.LLM, map[string]any{"candidate_id": file.ID, "stage": "structuring"})
	content, err := client.Complete(ctx, llm.Request{
		Messages:    BuildMessages(file.RawText, available),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return summaries.Summary{}, fmt.Errorf("structured extraction: %w", err)
	}

	jsonText, err := llm.ExtractJSONObject(content)
	if err != nil {
		telemetry.Error("structuring.parse_failed", map[string]any{
			"candidate_id": file.ID,
			"content":      telemetry.Truncate(content, 500),
		})
		return summaries.Summary{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	rec, raw, err := ParseRecord(jsonText)
	if err != nil {
		return summaries.Summary{}, err
	}

	summary := rec.toSummary()
	summary.ID = uuid.NewString()
	summary.CandidateFileID = file.ID
	summary.ExtractedData = raw
	summary.RawText = file.RawText
	summary.CreatedAt = s.now()

	if err := s.Summaries.Create(ctx, summary); err != nil {
		if errors.Is(err, summaries.ErrAlreadyExists) {
			return s.Summaries.GetByCandidate(ctx, file.ID)
		}
		return summaries.Summary{}, fmt.Errorf("store summary: %w", err)
	}

	s.linkPositions(ctx, file, summary)
	telemetry.Info("structuring.completed", map[string]any{
		"candidate_id":    file.ID,
		"summary_id":      summary.ID,
		"skills":          len(summary.Skills),
		"suggested_count": len(summary.SuggestedPositions),
	})
	return summary, nil
}

// listPositions is best effort: extraction proceeds without position context on error.
func (s *Service) listPositions(ctx context.Context, projectID string) []positions.Position {
	if s.Positions == nil || projectID == "" {
		return nil
	}
	list, err := s.Positions.ListByProject(ctx, projectID)
	if err != nil {
		telemetry.Warn("structuring.positions_unavailable", map[string]any{"project_id": projectID, "error": err})
		return nil
	}
	return list
}

// linkPositions stores suggested positions. Failures are logged, never returned.
func (s *Service) linkPositions(ctx context.Context, file candidates.CandidateFile, summary summaries.Summary) {
	if len(summary.SuggestedPositions) == 0 {
		return
	}
	links := make([]summaries.CandidatePosition, 0, len(summary.SuggestedPositions))
	for _, sp := range summary.SuggestedPositions {
		link := summaries.CandidatePosition{
			ID:              uuid.NewString(),
			CandidateFileID: file.ID,
			Position:        sp.Position,
			Confidence:      sp.Confidence,
			Reason:          sp.Reason,
			CreatedAt:       summary.CreatedAt,
		}
		if s.Positions != nil && file.ProjectID != "" {
			if p, err := s.Positions.FindByTitle(ctx, file.ProjectID, sp.Position); err == nil {
				link.PositionID = p.ID
			}
		}
		links = append(links, link)
	}
	if err := s.Summaries.AddCandidatePositions(ctx, links); err != nil {
		telemetry.Error("structuring.candidate_positions_failed", map[string]any{
			"candidate_id": file.ID,
			"error":        err,
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
