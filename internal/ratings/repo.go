package ratings

import "context"

// Repo persists ratings. Implementations enforce one rating per (candidate, project).
type Repo interface {
	GetByCandidateProject(ctx context.Context, candidateFileID, projectID string) (Rating, error)
	// Create returns ErrAlreadyRated when the pair is already rated.
	Create(ctx context.Context, r Rating) error
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Rating, error)
}

// MaxPageSize bounds every ListByProject page.
const MaxPageSize = 100

// ClampPage applies the shared paging bounds. A non-positive limit means a
// full page.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
