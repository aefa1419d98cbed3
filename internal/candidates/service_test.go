package candidates

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	localstore "lens-backend/internal/shared/storage/object/local"
)

type stubTypes struct{}

func (stubTypes) CheckSupported(mimeType, fileName string) error {
	if strings.HasSuffix(fileName, ".pdf") || mimeType == "application/pdf" {
		return nil
	}
	return errors.New("unsupported file type: " + fileName)
}

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDispatcher) DispatchIngest(ctx context.Context, fileID, projectID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, fileID)
	return nil
}

func TestUploadStoresAndDispatches(t *testing.T) {
	repo := NewMemoryRepo()
	dispatcher := &recordingDispatcher{}
	svc := &Service{
		Store:           localstore.New(t.TempDir()),
		Repo:            repo,
		StorageProvider: "local",
		Types:           stubTypes{},
		Dispatcher:      dispatcher,
	}

	f, err := svc.Upload(context.Background(), "proj-1", "resume.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if f.Status != StatusUploaded || f.Progress != 0 {
		t.Fatalf("unexpected initial state: %+v", f)
	}
	stored, err := repo.GetByID(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.MimeType != "application/pdf" {
		t.Fatalf("unexpected mime %q", stored.MimeType)
	}
	if len(dispatcher.ids) != 1 || dispatcher.ids[0] != f.ID {
		t.Fatalf("expected dispatch for %s, got %v", f.ID, dispatcher.ids)
	}
}

func TestUploadRejectsUnsupportedWithoutSideEffects(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{
		Store: localstore.New(t.TempDir()),
		Repo:  repo,
		Types: stubTypes{},
	}

	_, err := svc.Upload(context.Background(), "proj-1", "photo.png", "image/png", strings.NewReader("png"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	files, _ := repo.ListByProject(context.Background(), "proj-1", 10, 0)
	if len(files) != 0 {
		t.Fatalf("expected no records, got %d", len(files))
	}
}

func TestMemoryRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	if err := repo.Create(ctx, CandidateFile{ID: "cv-1", ProjectID: "p"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpdateProgress(ctx, "cv-1", StatusProcessing, 50); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := repo.MarkFailed(ctx, "cv-1", "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	f, _ := repo.GetByID(ctx, "cv-1")
	if f.Status != StatusFailed || f.Progress != 50 || f.Error != "boom" {
		t.Fatalf("unexpected state: %+v", f)
	}
	if err := repo.MarkFailed(ctx, "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type failingRepo struct {
	*MemoryRepo
}

func (failingRepo) Create(ctx context.Context, f CandidateFile) error {
	return errors.New("insert failed")
}

func TestUploadRemovesObjectWhenRecordFails(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{
		Store: localstore.New(dir),
		Repo:  failingRepo{NewMemoryRepo()},
		Types: stubTypes{},
	}

	if _, err := svc.Upload(context.Background(), "proj-1", "resume.pdf", "application/pdf", strings.NewReader("%PDF-1.4")); err == nil {
		t.Fatalf("expected upload to fail")
	}
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if len(files) != 0 {
		t.Fatalf("expected stored object to be removed, found %v", files)
	}
}
