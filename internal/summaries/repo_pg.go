package summaries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a summary row. List fields are stored as JSONB arrays.
func (r *PGRepo) Create(ctx context.Context, s Summary) error {
	const query = `
INSERT INTO summaries (
    id,
    cv_file_id,
    name,
    email,
    phone,
    skills,
    experience,
    education,
    projects,
    awards,
    certifications,
    languages,
    publications,
    volunteer,
    suggested_positions,
    extracted_data,
    raw_text,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	lists := [][]string{s.Skills, s.Experience, s.Education, s.Projects, s.Awards,
		s.Certifications, s.Languages, s.Publications, s.Volunteer}
	args := []any{s.ID, s.CandidateFileID, nullString(s.Name), nullString(s.Email), nullString(s.Phone)}
	for _, l := range lists {
		payload, err := encodeList(l)
		if err != nil {
			return err
		}
		args = append(args, payload)
	}
	suggested, err := json.Marshal(nonNilPositions(s.SuggestedPositions))
	if err != nil {
		return fmt.Errorf("encode suggested_positions: %w", err)
	}
	extracted, err := json.Marshal(s.ExtractedData)
	if err != nil {
		return fmt.Errorf("encode extracted_data: %w", err)
	}
	args = append(args, suggested, extracted, nullString(s.RawText), s.CreatedAt)

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetByCandidate returns the summary for a candidate file.
func (r *PGRepo) GetByCandidate(ctx context.Context, candidateFileID string) (Summary, error) {
	const query = `
SELECT id, cv_file_id, name, email, phone, skills, experience, education, projects, awards,
       certifications, languages, publications, volunteer, suggested_positions, extracted_data,
       raw_text, created_at
FROM summaries
WHERE cv_file_id = $1`

	var s Summary
	var name, email, phone, rawText sql.NullString
	lists := make([][]byte, 9)
	var suggested, extracted []byte
	err := r.DB.QueryRowContext(ctx, query, candidateFileID).Scan(
		&s.ID,
		&s.CandidateFileID,
		&name,
		&email,
		&phone,
		&lists[0],
		&lists[1],
		&lists[2],
		&lists[3],
		&lists[4],
		&lists[5],
		&lists[6],
		&lists[7],
		&lists[8],
		&suggested,
		&extracted,
		&rawText,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, ErrNotFound
		}
		return Summary{}, err
	}
	s.Name = name.String
	s.Email = email.String
	s.Phone = phone.String
	s.RawText = rawText.String

	targets := []*[]string{&s.Skills, &s.Experience, &s.Education, &s.Projects, &s.Awards,
		&s.Certifications, &s.Languages, &s.Publications, &s.Volunteer}
	for i, target := range targets {
		if err := decodeJSON(lists[i], target); err != nil {
			return Summary{}, err
		}
	}
	if err := decodeJSON(suggested, &s.SuggestedPositions); err != nil {
		return Summary{}, err
	}
	if err := decodeJSON(extracted, &s.ExtractedData); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// AddCandidatePositions inserts position links in one transaction.
func (r *PGRepo) AddCandidatePositions(ctx context.Context, links []CandidatePosition) error {
	if len(links) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
INSERT INTO candidate_positions (id, cv_file_id, position, position_id, confidence, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range links {
		if _, err := tx.ExecContext(ctx, query, l.ID, l.CandidateFileID, l.Position, nullString(l.PositionID), l.Confidence, nullString(l.Reason), l.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListCandidatePositions returns links ordered by confidence, highest first.
func (r *PGRepo) ListCandidatePositions(ctx context.Context, candidateFileID string) ([]CandidatePosition, error) {
	const query = `
SELECT id, cv_file_id, position, position_id, confidence, reason, created_at
FROM candidate_positions
WHERE cv_file_id = $1
ORDER BY confidence DESC`

	rows, err := r.DB.QueryContext(ctx, query, candidateFileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CandidatePosition
	for rows.Next() {
		var l CandidatePosition
		var positionID, reason sql.NullString
		if err := rows.Scan(&l.ID, &l.CandidateFileID, &l.Position, &positionID, &l.Confidence, &reason, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.PositionID = positionID.String
		l.Reason = reason.String
		out = append(out, l)
	}
	return out, rows.Err()
}

func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return payload, nil
}

func nonNilPositions(p []SuggestedPosition) []SuggestedPosition {
	if p == nil {
		return []SuggestedPosition{}
	}
	return p
}

func decodeJSON(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode summary column: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
