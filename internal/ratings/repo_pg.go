package ratings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PGRepo implements Repo using Postgres. Uniqueness is enforced by the
// candidate_ratings (cv_file_id, project_id) unique index.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, cv_file_id, project_id, filter_group_id, position_id, rating, rating_reason, requirement_scores, created_at`

// GetByCandidateProject returns the rating for the pair.
func (r *PGRepo) GetByCandidateProject(ctx context.Context, candidateFileID, projectID string) (Rating, error) {
	query := `SELECT ` + selectColumns + ` FROM candidate_ratings WHERE cv_file_id = $1 AND project_id = $2`
	rating, err := scanRating(r.DB.QueryRowContext(ctx, query, candidateFileID, projectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rating{}, ErrNotFound
		}
		return Rating{}, err
	}
	return rating, nil
}

// Create inserts a rating, mapping unique violations to ErrAlreadyRated.
func (r *PGRepo) Create(ctx context.Context, rating Rating) error {
	const query = `
INSERT INTO candidate_ratings (
    id,
    cv_file_id,
    project_id,
    filter_group_id,
    position_id,
    rating,
    rating_reason,
    requirement_scores,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	scores, err := json.Marshal(rating.RequirementScores)
	if err != nil {
		return fmt.Errorf("encode requirement_scores: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		rating.ID,
		rating.CandidateFileID,
		rating.ProjectID,
		nullString(rating.FilterGroupID),
		nullString(rating.PositionID),
		rating.Bucket,
		rating.Reason,
		scores,
		rating.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyRated
		}
		return err
	}
	return nil
}

// ListByProject lists ratings newest-first.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Rating, error) {
	limit, offset = ClampPage(limit, offset)
	query := `SELECT ` + selectColumns + `
FROM candidate_ratings
WHERE project_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rating)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRating(row rowScanner) (Rating, error) {
	var rating Rating
	var groupID, positionID, reason sql.NullString
	var scores []byte
	if err := row.Scan(&rating.ID, &rating.CandidateFileID, &rating.ProjectID, &groupID, &positionID,
		&rating.Bucket, &reason, &scores, &rating.CreatedAt); err != nil {
		return Rating{}, err
	}
	rating.FilterGroupID = groupID.String
	rating.PositionID = positionID.String
	rating.Reason = reason.String
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &rating.RequirementScores); err != nil {
			return Rating{}, fmt.Errorf("decode requirement_scores: %w", err)
		}
	}
	return rating, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
