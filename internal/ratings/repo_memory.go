package ratings

import (
	"context"
	"sort"
	"sync"
)

type pairKey struct {
	candidateFileID string
	projectID       string
}

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	byPair map[pairKey]Rating
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byPair: make(map[pairKey]Rating)}
}

func (r *MemoryRepo) GetByCandidateProject(ctx context.Context, candidateFileID, projectID string) (Rating, error) {
	if err := ctx.Err(); err != nil {
		return Rating{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rating, ok := r.byPair[pairKey{candidateFileID, projectID}]
	if !ok {
		return Rating{}, ErrNotFound
	}
	return rating, nil
}

func (r *MemoryRepo) Create(ctx context.Context, rating Rating) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := pairKey{rating.CandidateFileID, rating.ProjectID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPair[key]; ok {
		return ErrAlreadyRated
	}
	r.byPair[key] = rating
	return nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Rating
	for key, rating := range r.byPair {
		if key.projectID == projectID {
			out = append(out, rating)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	limit, offset = ClampPage(limit, offset)
	if offset >= len(out) {
		return []Rating{}, nil
	}
	end := len(out)
	if offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// Len returns the number of stored ratings.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPair)
}

var _ Repo = (*MemoryRepo)(nil)
