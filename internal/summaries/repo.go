package summaries

import "context"

// Repo persists summaries and candidate-position links.
type Repo interface {
	// Create inserts a summary. A second summary for the same file returns ErrAlreadyExists.
	Create(ctx context.Context, s Summary) error
	GetByCandidate(ctx context.Context, candidateFileID string) (Summary, error)
	AddCandidatePositions(ctx context.Context, links []CandidatePosition) error
	// ListCandidatePositions returns links ordered by confidence, highest first.
	ListCandidatePositions(ctx context.Context, candidateFileID string) ([]CandidatePosition, error)
}
