package candidates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"lens-backend/internal/shared/storage/object"
	"lens-backend/internal/shared/telemetry"
)

// TypeChecker rejects files that cannot be ingested.
type TypeChecker interface {
	CheckSupported(mimeType, fileName string) error
}

// Dispatcher hands a freshly uploaded file to ingestion.
type Dispatcher interface {
	DispatchIngest(ctx context.Context, fileID, projectID string) error
}

// Service contains business logic for candidate files.
type Service struct {
	Store           object.ObjectStore
	Repo            Repo
	StorageProvider string
	Types           TypeChecker
	Dispatcher      Dispatcher
}

// Upload validates the file type, stores the object, and records the candidate file.
func (s *Service) Upload(ctx context.Context, projectID, fileName, contentType string, r io.Reader) (CandidateFile, error) {
	projectID = strings.TrimSpace(projectID)
	fileName = strings.TrimSpace(fileName)
	if projectID == "" || fileName == "" {
		return CandidateFile{}, ErrInvalidInput
	}
	declared := declaredType(contentType)
	if s.Types != nil {
		if err := s.Types.CheckSupported(declared, fileName); err != nil {
			return CandidateFile{}, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
		}
	}

	storageKey, size, sniffed, err := s.Store.Save(ctx, projectID, fileName, r)
	if err != nil {
		return CandidateFile{}, fmt.Errorf("store upload: %w", err)
	}
	mimeType := declared
	if mimeType == "" {
		mimeType = sniffed
	}

	now := time.Now().UTC()
	f := CandidateFile{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		FileName:        fileName,
		MimeType:        mimeType,
		SizeBytes:       size,
		StorageProvider: s.StorageProvider,
		StorageKey:      storageKey,
		Status:          StatusUploaded,
		UploadedAt:      now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, f); err != nil {
		if delErr := s.Store.Delete(context.WithoutCancel(ctx), storageKey); delErr != nil {
			telemetry.Warn("candidates.orphan_cleanup_failed", map[string]any{
				"project_id":  projectID,
				"storage_key": storageKey,
				"error":       delErr,
			})
		}
		return CandidateFile{}, err
	}

	if s.Dispatcher != nil {
		if err := s.Dispatcher.DispatchIngest(ctx, f.ID, f.ProjectID); err != nil {
			telemetry.Error("candidates.dispatch_failed", map[string]any{
				"candidate_id": f.ID,
				"project_id":   f.ProjectID,
				"error":        err,
			})
		}
	}
	return f, nil
}

// Get returns a candidate file.
func (s *Service) Get(ctx context.Context, id string) (CandidateFile, error) {
	if strings.TrimSpace(id) == "" {
		return CandidateFile{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns a page of candidate files for a project.
func (s *Service) List(ctx context.Context, projectID string, limit, offset int) ([]CandidateFile, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByProject(ctx, projectID, limit, offset)
}

func declaredType(contentType string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if clean == "application/octet-stream" {
		return ""
	}
	return clean
}
