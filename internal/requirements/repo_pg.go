package requirements

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const groupQuery = `
SELECT g.id, g.project_id, g.position_id, g.name, g.description, g.enabled, g.created_at, g.updated_at,
       f.id, f.type, f.value, f.required
FROM filter_groups g
LEFT JOIN filters f ON f.filter_group_id = g.id
WHERE `

const groupOrder = `
ORDER BY g.created_at, g.id, f.created_at, f.id`

// CreateGroup inserts the group and its requirements in one transaction.
func (r *PGRepo) CreateGroup(ctx context.Context, g Group) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const insertGroup = `
INSERT INTO filter_groups (id, project_id, position_id, name, description, enabled, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	if _, err := tx.ExecContext(ctx, insertGroup, g.ID, g.ProjectID, nullString(g.PositionID), g.Name,
		nullString(g.Description), g.Enabled, g.CreatedAt); err != nil {
		return err
	}

	const insertFilter = `
INSERT INTO filters (id, filter_group_id, type, value, required, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, req := range g.Requirements {
		if _, err := tx.ExecContext(ctx, insertFilter, req.ID, g.ID, req.Type, req.Value, req.Required, g.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetGroup returns a group with its requirements.
func (r *PGRepo) GetGroup(ctx context.Context, id string) (Group, error) {
	groups, err := r.query(ctx, groupQuery+`g.id = $1`+groupOrder, id)
	if err != nil {
		return Group{}, err
	}
	if len(groups) == 0 {
		return Group{}, ErrNotFound
	}
	return groups[0], nil
}

func (r *PGRepo) ListByProject(ctx context.Context, projectID string) ([]Group, error) {
	return r.query(ctx, groupQuery+`g.project_id = $1`+groupOrder, projectID)
}

func (r *PGRepo) ListEnabled(ctx context.Context, projectID string) ([]Group, error) {
	return r.query(ctx, groupQuery+`g.project_id = $1 AND g.enabled`+groupOrder, projectID)
}

func (r *PGRepo) ListEnabledByPosition(ctx context.Context, projectID, positionID string) ([]Group, error) {
	return r.query(ctx, groupQuery+`g.project_id = $1 AND g.position_id = $2 AND g.enabled`+groupOrder, projectID, positionID)
}

func (r *PGRepo) ListEnabledProjectLevel(ctx context.Context, projectID string) ([]Group, error) {
	return r.query(ctx, groupQuery+`g.project_id = $1 AND g.position_id IS NULL AND g.enabled`+groupOrder, projectID)
}

// SetEnabled toggles a group and returns its new state.
func (r *PGRepo) SetEnabled(ctx context.Context, id string, enabled bool) (Group, error) {
	const query = `UPDATE filter_groups SET enabled = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, enabled, id)
	if err != nil {
		return Group{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Group{}, ErrNotFound
	}
	return r.GetGroup(ctx, id)
}

// query folds the joined rows back into groups, preserving row order.
func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Group, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Group
	index := make(map[string]int)
	for rows.Next() {
		var g Group
		var positionID, description sql.NullString
		var reqID, reqType, reqValue sql.NullString
		var reqRequired sql.NullBool
		if err := rows.Scan(&g.ID, &g.ProjectID, &positionID, &g.Name, &description, &g.Enabled,
			&g.CreatedAt, &g.UpdatedAt, &reqID, &reqType, &reqValue, &reqRequired); err != nil {
			return nil, err
		}
		i, ok := index[g.ID]
		if !ok {
			g.PositionID = positionID.String
			g.Description = description.String
			g.Requirements = []Requirement{}
			out = append(out, g)
			i = len(out) - 1
			index[g.ID] = i
		}
		if reqID.Valid {
			out[i].Requirements = append(out[i].Requirements, Requirement{
				ID:       reqID.String,
				GroupID:  g.ID,
				Type:     reqType.String,
				Value:    reqValue.String,
				Required: reqRequired.Bool,
			})
		}
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
