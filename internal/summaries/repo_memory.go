package summaries

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	byFile    map[string]Summary
	positions map[string][]CandidatePosition
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byFile:    make(map[string]Summary),
		positions: make(map[string][]CandidatePosition),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, s Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byFile[s.CandidateFileID]; ok {
		return ErrAlreadyExists
	}
	r.byFile[s.CandidateFileID] = s
	return nil
}

func (r *MemoryRepo) GetByCandidate(ctx context.Context, candidateFileID string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byFile[candidateFileID]
	if !ok {
		return Summary{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) AddCandidatePositions(ctx context.Context, links []CandidatePosition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range links {
		r.positions[l.CandidateFileID] = append(r.positions[l.CandidateFileID], l)
	}
	return nil
}

func (r *MemoryRepo) ListCandidatePositions(ctx context.Context, candidateFileID string) ([]CandidatePosition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := append([]CandidatePosition(nil), r.positions[candidateFileID]...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
