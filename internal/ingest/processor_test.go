package ingest

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lens-backend/internal/candidates"
	"lens-backend/internal/shared/storage/object"
	localstore "lens-backend/internal/shared/storage/object/local"
	"lens-backend/internal/summaries"
)

const sampleResume = `Jane Doe
jane.doe@example.com | +1 555-123-4567
Skills
Go, PostgreSQL, Kubernetes
Experience
Backend Engineer at Acme 2019-2024
Education
BSc Computer Science`

type stubStructurer struct {
	calls   atomic.Int32
	summary summaries.Summary
	err     error
}

func (s *stubStructurer) Structure(ctx context.Context, file candidates.CandidateFile) (summaries.Summary, error) {
	s.calls.Add(1)
	if s.err != nil {
		return summaries.Summary{}, s.err
	}
	out := s.summary
	out.CandidateFileID = file.ID
	return out, nil
}

// progressRepo records every progress checkpoint written through it.
type progressRepo struct {
	*candidates.MemoryRepo
	checkpoints []int
}

func (r *progressRepo) UpdateProgress(ctx context.Context, id, status string, progress int) error {
	r.checkpoints = append(r.checkpoints, progress)
	return r.MemoryRepo.UpdateProgress(ctx, id, status, progress)
}

type fixture struct {
	repo       *progressRepo
	store      object.ObjectStore
	structurer *stubStructurer
	decodes    atomic.Int32
	proc       *Processor
}

func newFixture(t *testing.T, decoded string, decodeErr error) *fixture {
	t.Helper()
	f := &fixture{
		repo:       &progressRepo{MemoryRepo: candidates.NewMemoryRepo()},
		store:      localstore.New(t.TempDir()),
		structurer: &stubStructurer{summary: summaries.Summary{ID: "sum-1", ExtractedData: map[string]any{"email": "jane.doe@example.com"}}},
	}
	decoder := DecoderFunc(func(ctx context.Context, data []byte) (string, error) {
		f.decodes.Add(1)
		return decoded, decodeErr
	})
	f.proc = &Processor{
		Files:      f.repo,
		Store:      f.store,
		Decoders:   map[FileType]Decoder{TypePDF: decoder, TypeDOCX: decoder, TypeDOC: decoder},
		Structurer: f.structurer,
		Now:        func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return f
}

func (f *fixture) addFile(t *testing.T, id, name, mime string) {
	t.Helper()
	key, size, _, err := f.store.Save(context.Background(), "proj-1", name, strings.NewReader("binary"))
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(context.Background(), candidates.CandidateFile{
		ID:         id,
		ProjectID:  "proj-1",
		FileName:   name,
		MimeType:   mime,
		SizeBytes:  size,
		StorageKey: key,
		Status:     candidates.StatusUploaded,
		UploadedAt: time.Now().UTC(),
	}))
}

func TestProcessDocumentSuccess(t *testing.T) {
	f := newFixture(t, sampleResume, nil)
	f.addFile(t, "cv-1", "resume.pdf", "application/pdf")

	res := f.proc.ProcessDocument(context.Background(), "cv-1")
	require.True(t, res.Success, res.Error)

	got, err := f.repo.GetByID(context.Background(), "cv-1")
	require.NoError(t, err)
	assert.Equal(t, candidates.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.True(t, got.TextExtracted)
	assert.Equal(t, "sum-1", got.SummaryID)
	assert.Empty(t, got.ExtractionError)
	assert.Equal(t, "jane.doe@example.com", got.ParsedData["email"])
	assert.Contains(t, got.RawText, "Backend Engineer at Acme")
	assert.Equal(t, []int{ProgressStarted, ProgressDownloaded, ProgressDecoded, ProgressParsed}, f.repo.checkpoints)
}

func TestProcessDocumentUnsupportedHasNoSideEffects(t *testing.T) {
	f := newFixture(t, sampleResume, nil)
	f.addFile(t, "cv-1", "photo.png", "image/png")

	res := f.proc.ProcessDocument(context.Background(), "cv-1")
	require.False(t, res.Success)
	assert.Equal(t, KindUnsupported, res.Kind)
	assert.Contains(t, res.Error, "image/png")
	assert.Zero(t, f.decodes.Load())
	assert.Empty(t, f.repo.checkpoints)

	got, err := f.repo.GetByID(context.Background(), "cv-1")
	require.NoError(t, err)
	assert.Equal(t, candidates.StatusUploaded, got.Status)
	assert.Equal(t, 0, got.Progress)
}

func TestProcessDocumentMissingFile(t *testing.T) {
	f := newFixture(t, sampleResume, nil)

	res := f.proc.ProcessDocument(context.Background(), "nope")
	require.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)

	res = f.proc.ProcessDocument(context.Background(), "  ")
	require.False(t, res.Success)
	assert.Equal(t, KindInvalidInput, res.Kind)
}

func TestProcessDocumentExtractionFailureStillCompletes(t *testing.T) {
	f := newFixture(t, sampleResume, nil)
	f.structurer.err = errors.New("llm http status 503:\nupstream down")
	f.addFile(t, "cv-1", "resume.docx", mimeDOCX)

	res := f.proc.ProcessDocument(context.Background(), "cv-1")
	require.True(t, res.Success)

	got, err := f.repo.GetByID(context.Background(), "cv-1")
	require.NoError(t, err)
	assert.Equal(t, candidates.StatusCompleted, got.Status)
	assert.Equal(t, "llm http status 503: upstream down", got.ExtractionError)
	assert.Empty(t, got.SummaryID)
	assert.Equal(t, "heuristic", got.ParsedData["source"])
	assert.NotEmpty(t, got.RawText)
}

func TestProcessDocumentDecoderFailureMarksFailed(t *testing.T) {
	f := newFixture(t, "", newError(KindCorrupt, string(TypePDF), errors.New("bad xref")))
	f.addFile(t, "cv-1", "resume.pdf", "application/pdf")

	res := f.proc.ProcessDocument(context.Background(), "cv-1")
	require.False(t, res.Success)
	assert.Equal(t, KindCorrupt, res.Kind)

	got, err := f.repo.GetByID(context.Background(), "cv-1")
	require.NoError(t, err)
	assert.Equal(t, candidates.StatusFailed, got.Status)
	assert.Equal(t, res.Error, got.Error)
	assert.Zero(t, f.structurer.calls.Load())
}

func TestProcessDocumentEmptyText(t *testing.T) {
	t.Run("pdf completes without structuring", func(t *testing.T) {
		f := newFixture(t, "  \n\n ", nil)
		f.addFile(t, "cv-1", "scan.pdf", "application/pdf")

		res := f.proc.ProcessDocument(context.Background(), "cv-1")
		require.True(t, res.Success)
		assert.Zero(t, f.structurer.calls.Load())

		got, _ := f.repo.GetByID(context.Background(), "cv-1")
		assert.Equal(t, candidates.StatusCompleted, got.Status)
		assert.NotEmpty(t, got.ExtractionError)
	})

	t.Run("doc fails", func(t *testing.T) {
		f := newFixture(t, "", nil)
		f.addFile(t, "cv-2", "legacy.doc", "application/msword")

		res := f.proc.ProcessDocument(context.Background(), "cv-2")
		require.False(t, res.Success)
		assert.Equal(t, KindEmpty, res.Kind)

		got, _ := f.repo.GetByID(context.Background(), "cv-2")
		assert.Equal(t, candidates.StatusFailed, got.Status)
	})
}

func TestProcessDocumentMissingObjectIsStorageError(t *testing.T) {
	f := newFixture(t, sampleResume, nil)
	require.NoError(t, f.repo.Create(context.Background(), candidates.CandidateFile{
		ID:         "cv-1",
		ProjectID:  "proj-1",
		FileName:   "resume.pdf",
		MimeType:   "application/pdf",
		StorageKey: "proj/missing.pdf",
		UploadedAt: time.Now().UTC(),
	}))

	res := f.proc.ProcessDocument(context.Background(), "cv-1")
	require.False(t, res.Success)
	assert.Equal(t, KindStorage, res.Kind)
	assert.True(t, AsError(f.proc.Process(context.Background(), "cv-1")).Retryable())
}
