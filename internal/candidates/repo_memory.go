package candidates

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]CandidateFile
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]CandidateFile)}
}

// Create stores a candidate file.
func (r *MemoryRepo) Create(ctx context.Context, f CandidateFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Status == "" {
		f.Status = StatusUploaded
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.UploadedAt
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[f.ID] = f
	return nil
}

// GetByID returns a candidate file by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (CandidateFile, error) {
	if err := ctx.Err(); err != nil {
		return CandidateFile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.data[id]
	if !ok {
		return CandidateFile{}, ErrNotFound
	}
	return f, nil
}

// ListByProject returns files for a project, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]CandidateFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var files []CandidateFile
	for _, f := range r.data {
		if f.ProjectID == projectID {
			files = append(files, f)
		}
	}
	r.mu.RUnlock()

	if offset >= len(files) {
		return []CandidateFile{}, nil
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
	end := len(files)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return files[offset:end], nil
}

// UpdateProgress sets the status and progress checkpoint.
func (r *MemoryRepo) UpdateProgress(ctx context.Context, id, status string, progress int) error {
	return r.update(ctx, id, func(f *CandidateFile) {
		f.Status = status
		f.Progress = progress
	})
}

// SaveText stores the decoded text and heuristic parse.
func (r *MemoryRepo) SaveText(ctx context.Context, id, rawText string, parsed map[string]any, at time.Time) error {
	return r.update(ctx, id, func(f *CandidateFile) {
		f.RawText = rawText
		f.TextExtracted = true
		f.TextExtractedAt = &at
		f.ParsedData = parsed
	})
}

// MarkCompleted marks processing done and links the summary, if any.
func (r *MemoryRepo) MarkCompleted(ctx context.Context, id string, parsed map[string]any, summaryID, extractionErr string) error {
	return r.update(ctx, id, func(f *CandidateFile) {
		f.Status = StatusCompleted
		f.Progress = 100
		if parsed != nil {
			f.ParsedData = parsed
		}
		f.SummaryID = summaryID
		f.ExtractionError = extractionErr
		f.Error = ""
	})
}

// MarkFailed records a terminal processing failure.
func (r *MemoryRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	return r.update(ctx, id, func(f *CandidateFile) {
		f.Status = StatusFailed
		f.Error = errMsg
	})
}

func (r *MemoryRepo) update(ctx context.Context, id string, fn func(f *CandidateFile)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	fn(&f)
	f.UpdatedAt = time.Now().UTC()
	r.data[id] = f
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
