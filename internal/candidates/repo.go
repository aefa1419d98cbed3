package candidates

import (
	"context"
	"time"
)

// Repo defines persistence operations for candidate files.
type Repo interface {
	Create(ctx context.Context, f CandidateFile) error
	GetByID(ctx context.Context, id string) (CandidateFile, error)
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]CandidateFile, error)
	// UpdateProgress moves the file to status at the given progress checkpoint.
	UpdateProgress(ctx context.Context, id, status string, progress int) error
	// SaveText stores decoded text and the heuristic parse result.
	SaveText(ctx context.Context, id, rawText string, parsed map[string]any, at time.Time) error
	// MarkCompleted finishes processing. extractionErr is non-fatal metadata.
	MarkCompleted(ctx context.Context, id string, parsed map[string]any, summaryID, extractionErr string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
}
