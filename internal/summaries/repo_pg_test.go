package summaries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO summaries").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	repo := &PGRepo{DB: db}
	err = repo.Create(context.Background(), Summary{ID: "s1", CandidateFileID: "cv-1", CreatedAt: time.Now().UTC()})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByCandidateDecodesLists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "cv_file_id", "name", "email", "phone", "skills", "experience",
		"education", "projects", "awards", "certifications", "languages", "publications", "volunteer",
		"suggested_positions", "extracted_data", "raw_text", "created_at"}).
		AddRow("s1", "cv-1", "Ada Lovelace", "ada@example.com", nil, []byte(`["Go","SQL"]`), []byte(`[]`),
			[]byte(`["BSc Mathematics"]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`),
			[]byte(`[{"position":"Backend Engineer","confidence":88,"reason":"Go services"}]`),
			[]byte(`{"name":"Ada Lovelace"}`), "raw", created)
	mock.ExpectQuery("SELECT (.+) FROM summaries").WithArgs("cv-1").WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	got, err := repo.GetByCandidate(context.Background(), "cv-1")
	if err != nil {
		t.Fatalf("GetByCandidate: %v", err)
	}
	if len(got.Skills) != 2 || got.Skills[0] != "Go" {
		t.Fatalf("unexpected skills: %v", got.Skills)
	}
	if got.Phone != "" {
		t.Fatalf("expected empty phone, got %q", got.Phone)
	}
	if len(got.SuggestedPositions) != 1 || got.SuggestedPositions[0].Confidence != 88 {
		t.Fatalf("unexpected suggested positions: %+v", got.SuggestedPositions)
	}
	if got.ExtractedData["name"] != "Ada Lovelace" {
		t.Fatalf("unexpected extracted data: %v", got.ExtractedData)
	}
}
