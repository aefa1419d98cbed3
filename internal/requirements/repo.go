package requirements

import "context"

// Repo persists requirement groups (filter_groups) and their requirements (filters).
// Groups are returned with Requirements populated, oldest first.
type Repo interface {
	CreateGroup(ctx context.Context, g Group) error
	GetGroup(ctx context.Context, id string) (Group, error)
	ListByProject(ctx context.Context, projectID string) ([]Group, error)
	// ListEnabled returns every enabled group in the project regardless of position scope.
	ListEnabled(ctx context.Context, projectID string) ([]Group, error)
	ListEnabledByPosition(ctx context.Context, projectID, positionID string) ([]Group, error)
	// ListEnabledProjectLevel returns enabled groups with no position scope.
	ListEnabledProjectLevel(ctx context.Context, projectID string) ([]Group, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (Group, error)
}
