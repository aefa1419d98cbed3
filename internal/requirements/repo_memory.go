package requirements

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Group
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Group)}
}

func (r *MemoryRepo) CreateGroup(ctx context.Context, g Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g.Requirements = append([]Requirement(nil), g.Requirements...)
	r.data[g.ID] = g
	return nil
}

func (r *MemoryRepo) GetGroup(ctx context.Context, id string) (Group, error) {
	if err := ctx.Err(); err != nil {
		return Group{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.data[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	return g, nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string) ([]Group, error) {
	return r.filter(ctx, func(g Group) bool { return g.ProjectID == projectID })
}

func (r *MemoryRepo) ListEnabled(ctx context.Context, projectID string) ([]Group, error) {
	return r.filter(ctx, func(g Group) bool { return g.ProjectID == projectID && g.Enabled })
}

func (r *MemoryRepo) ListEnabledByPosition(ctx context.Context, projectID, positionID string) ([]Group, error) {
	return r.filter(ctx, func(g Group) bool {
		return g.ProjectID == projectID && g.Enabled && g.PositionID == positionID && positionID != ""
	})
}

func (r *MemoryRepo) ListEnabledProjectLevel(ctx context.Context, projectID string) ([]Group, error) {
	return r.filter(ctx, func(g Group) bool { return g.ProjectID == projectID && g.Enabled && g.ProjectLevel() })
}

func (r *MemoryRepo) SetEnabled(ctx context.Context, id string, enabled bool) (Group, error) {
	if err := ctx.Err(); err != nil {
		return Group{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.data[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	g.Enabled = enabled
	g.UpdatedAt = time.Now().UTC()
	r.data[id] = g
	return g, nil
}

func (r *MemoryRepo) filter(ctx context.Context, keep func(Group) bool) ([]Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Group
	for _, g := range r.data {
		if keep(g) {
			out = append(out, g)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
