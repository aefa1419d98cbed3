package candidates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, project_id, name, size, mime_type, storage_provider, storage_key, status, progress,
raw_text, text_extracted, text_extraction_date, parsed_data, summary_id, error, extraction_error, uploaded_at, updated_at`

// Create inserts a new candidate file.
func (r *PGRepo) Create(ctx context.Context, f CandidateFile) error {
	const query = `
INSERT INTO cv_files (
    id,
    project_id,
    name,
    size,
    mime_type,
    storage_provider,
    storage_key,
    status,
    progress,
    uploaded_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	status := f.Status
	if status == "" {
		status = StatusUploaded
	}
	provider := f.StorageProvider
	if provider == "" {
		provider = "local"
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		f.ID,
		f.ProjectID,
		f.FileName,
		f.SizeBytes,
		f.MimeType,
		provider,
		f.StorageKey,
		status,
		f.Progress,
		f.UploadedAt,
	)
	return err
}

// GetByID fetches a candidate file.
func (r *PGRepo) GetByID(ctx context.Context, id string) (CandidateFile, error) {
	query := `SELECT ` + selectColumns + ` FROM cv_files WHERE id = $1`
	f, err := scanFile(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CandidateFile{}, ErrNotFound
		}
		return CandidateFile{}, err
	}
	return f, nil
}

// ListByProject lists candidate files newest-first.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]CandidateFile, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + selectColumns + `
FROM cv_files
WHERE project_id = $1
ORDER BY uploaded_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CandidateFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateProgress sets the status and progress checkpoint.
func (r *PGRepo) UpdateProgress(ctx context.Context, id, status string, progress int) error {
	const query = `
UPDATE cv_files
SET status = $1, progress = $2, updated_at = NOW()
WHERE id = $3`
	return r.exec(ctx, query, status, progress, id)
}

// SaveText stores the decoded text and heuristic parse.
func (r *PGRepo) SaveText(ctx context.Context, id, rawText string, parsed map[string]any, at time.Time) error {
	payload, err := marshalParsed(parsed)
	if err != nil {
		return err
	}
	const query = `
UPDATE cv_files
SET raw_text = $1, text_extracted = TRUE, text_extraction_date = $2, parsed_data = $3, updated_at = NOW()
WHERE id = $4`
	return r.exec(ctx, query, rawText, at, payload, id)
}

// MarkCompleted marks processing done and links the summary, if any.
func (r *PGRepo) MarkCompleted(ctx context.Context, id string, parsed map[string]any, summaryID, extractionErr string) error {
	payload, err := marshalParsed(parsed)
	if err != nil {
		return err
	}
	const query = `
UPDATE cv_files
SET status = $1, progress = 100, parsed_data = COALESCE($2, parsed_data), summary_id = $3,
    extraction_error = $4, error = NULL, updated_at = NOW()
WHERE id = $5`
	return r.exec(ctx, query, StatusCompleted, payload, nullString(summaryID), nullString(extractionErr), id)
}

// MarkFailed records a terminal processing failure.
func (r *PGRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	const query = `
UPDATE cv_files
SET status = $1, error = $2, updated_at = NOW()
WHERE id = $3`
	return r.exec(ctx, query, StatusFailed, errMsg, id)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (CandidateFile, error) {
	var f CandidateFile
	var mimeType sql.NullString
	var provider sql.NullString
	var storageKey sql.NullString
	var rawText sql.NullString
	var extractedAt sql.NullTime
	var parsed []byte
	var summaryID sql.NullString
	var errMsg sql.NullString
	var extractionErr sql.NullString
	if err := row.Scan(
		&f.ID,
		&f.ProjectID,
		&f.FileName,
		&f.SizeBytes,
		&mimeType,
		&provider,
		&storageKey,
		&f.Status,
		&f.Progress,
		&rawText,
		&f.TextExtracted,
		&extractedAt,
		&parsed,
		&summaryID,
		&errMsg,
		&extractionErr,
		&f.UploadedAt,
		&f.UpdatedAt,
	); err != nil {
		return CandidateFile{}, err
	}
	f.MimeType = mimeType.String
	f.StorageProvider = provider.String
	f.StorageKey = storageKey.String
	f.RawText = rawText.String
	f.SummaryID = summaryID.String
	f.Error = errMsg.String
	f.ExtractionError = extractionErr.String
	if extractedAt.Valid {
		f.TextExtractedAt = &extractedAt.Time
	}
	if len(parsed) > 0 {
		if err := json.Unmarshal(parsed, &f.ParsedData); err != nil {
			return CandidateFile{}, fmt.Errorf("decode parsed_data: %w", err)
		}
	}
	return f, nil
}

func marshalParsed(parsed map[string]any) (any, error) {
	if parsed == nil {
		return nil, nil
	}
	payload, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("encode parsed_data: %w", err)
	}
	return payload, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
