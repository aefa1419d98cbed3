package positions

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Position
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Position)}
}

func (r *MemoryRepo) Create(ctx context.Context, p Position) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[id]
	if !ok {
		return Position{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string) ([]Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Position
	for _, p := range r.data {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *MemoryRepo) FindByTitle(ctx context.Context, projectID, title string) (Position, error) {
	list, err := r.ListByProject(ctx, projectID)
	if err != nil {
		return Position{}, err
	}
	for _, p := range list {
		if strings.EqualFold(strings.TrimSpace(p.Title), strings.TrimSpace(title)) {
			return p, nil
		}
	}
	return Position{}, ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
