package positions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, project_id, title, description, key_skills, qualifications, created_at, updated_at`

// Create inserts a position.
func (r *PGRepo) Create(ctx context.Context, p Position) error {
	const query = `
INSERT INTO positions (id, project_id, title, description, key_skills, qualifications, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	skills, err := encodeList(p.KeySkills)
	if err != nil {
		return err
	}
	quals, err := encodeList(p.Qualifications)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, p.ID, p.ProjectID, p.Title, nullString(p.Description), skills, quals, p.CreatedAt)
	return err
}

// GetByID fetches a position.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Position, error) {
	query := `SELECT ` + selectColumns + ` FROM positions WHERE id = $1`
	return r.one(ctx, query, id)
}

// ListByProject lists positions ordered by title.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string) ([]Position, error) {
	query := `SELECT ` + selectColumns + ` FROM positions WHERE project_id = $1 ORDER BY title`
	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindByTitle matches a title case-insensitively within a project.
func (r *PGRepo) FindByTitle(ctx context.Context, projectID, title string) (Position, error) {
	query := `SELECT ` + selectColumns + `
FROM positions
WHERE project_id = $1 AND LOWER(title) = LOWER($2)
ORDER BY created_at
LIMIT 1`
	return r.one(ctx, query, projectID, strings.TrimSpace(title))
}

func (r *PGRepo) one(ctx context.Context, query string, args ...any) (Position, error) {
	p, err := scanPosition(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Position{}, ErrNotFound
		}
		return Position{}, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (Position, error) {
	var p Position
	var description sql.NullString
	var skills, quals []byte
	if err := row.Scan(&p.ID, &p.ProjectID, &p.Title, &description, &skills, &quals, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Position{}, err
	}
	p.Description = description.String
	if err := decodeList(skills, &p.KeySkills); err != nil {
		return Position{}, err
	}
	if err := decodeList(quals, &p.Qualifications); err != nil {
		return Position{}, err
	}
	return p, nil
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

func decodeList(raw []byte, target *[]string) error {
	if len(raw) == 0 {
		*target = []string{}
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode list: %w", err)
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
