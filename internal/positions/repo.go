package positions

import "context"

// Repo defines persistence operations for positions.
type Repo interface {
	Create(ctx context.Context, p Position) error
	GetByID(ctx context.Context, id string) (Position, error)
	ListByProject(ctx context.Context, projectID string) ([]Position, error)
	// FindByTitle matches a title case-insensitively within a project.
	FindByTitle(ctx context.Context, projectID, title string) (Position, error)
}
