package requirements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"lens-backend/internal/positions"
)

// PositionLookup resolves positions referenced by scoped groups.
type PositionLookup interface {
	GetByID(ctx context.Context, id string) (positions.Position, error)
}

// CreateGroupInput is the payload for creating a requirement group.
type CreateGroupInput struct {
	ProjectID    string        `json:"-" validate:"required"`
	PositionID   string        `json:"position_id"`
	Name         string        `json:"name" validate:"required,max=200"`
	Description  string        `json:"description" validate:"max=2000"`
	Enabled      *bool         `json:"enabled"`
	Requirements []Requirement `json:"requirements" validate:"required,min=1,dive"`
}

// Service manages requirement groups.
type Service struct {
	Repo      Repo
	Positions PositionLookup
	Validate  *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repo, lookup PositionLookup) *Service {
	return &Service{Repo: repo, Positions: lookup, Validate: validator.New()}
}

// CreateGroup validates and stores a group with its requirements. Groups are
// enabled unless the input says otherwise.
func (s *Service) CreateGroup(ctx context.Context, in CreateGroupInput) (Group, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.PositionID = strings.TrimSpace(in.PositionID)
	in.Name = strings.TrimSpace(in.Name)
	for i := range in.Requirements {
		in.Requirements[i].Type = strings.ToLower(strings.TrimSpace(in.Requirements[i].Type))
		in.Requirements[i].Value = strings.TrimSpace(in.Requirements[i].Value)
	}
	if s.Validate == nil {
		s.Validate = validator.New()
	}
	if err := s.Validate.Struct(in); err != nil {
		return Group{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if in.PositionID != "" && s.Positions != nil {
		p, err := s.Positions.GetByID(ctx, in.PositionID)
		if err != nil {
			if errors.Is(err, positions.ErrNotFound) {
				return Group{}, fmt.Errorf("%w: position not found", ErrInvalidInput)
			}
			return Group{}, err
		}
		if p.ProjectID != in.ProjectID {
			return Group{}, fmt.Errorf("%w: position belongs to another project", ErrInvalidInput)
		}
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	now := time.Now().UTC()
	g := Group{
		ID:          uuid.NewString(),
		ProjectID:   in.ProjectID,
		PositionID:  in.PositionID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Enabled:     enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, req := range in.Requirements {
		req.ID = uuid.NewString()
		req.GroupID = g.ID
		g.Requirements = append(g.Requirements, req)
	}
	if err := s.Repo.CreateGroup(ctx, g); err != nil {
		return Group{}, err
	}
	return g, nil
}

// List returns all groups in the project.
func (s *Service) List(ctx context.Context, projectID string) ([]Group, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByProject(ctx, projectID)
}

// SetEnabled enables or disables a group.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (Group, error) {
	if strings.TrimSpace(id) == "" {
		return Group{}, ErrInvalidInput
	}
	return s.Repo.SetEnabled(ctx, id, enabled)
}
