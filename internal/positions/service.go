package positions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateInput is the payload for creating a position.
type CreateInput struct {
	ProjectID      string   `json:"-" validate:"required"`
	Title          string   `json:"title" validate:"required,max=200"`
	Description    string   `json:"description" validate:"max=10000"`
	KeySkills      []string `json:"key_skills" validate:"dive,required"`
	Qualifications []string `json:"qualifications" validate:"dive,required"`
}

// Service manages positions.
type Service struct {
	Repo     Repo
	Validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Validate: validator.New()}
}

// Create validates and stores a new position.
func (s *Service) Create(ctx context.Context, in CreateInput) (Position, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Title = strings.TrimSpace(in.Title)
	in.KeySkills = trimAll(in.KeySkills)
	in.Qualifications = trimAll(in.Qualifications)
	if err := s.validator().Struct(in); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	p := Position{
		ID:             uuid.NewString(),
		ProjectID:      in.ProjectID,
		Title:          in.Title,
		Description:    strings.TrimSpace(in.Description),
		KeySkills:      in.KeySkills,
		Qualifications: in.Qualifications,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return Position{}, err
	}
	return p, nil
}

// Get returns a position by ID.
func (s *Service) Get(ctx context.Context, id string) (Position, error) {
	if strings.TrimSpace(id) == "" {
		return Position{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns the project's positions.
func (s *Service) List(ctx context.Context, projectID string) ([]Position, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByProject(ctx, projectID)
}

func (s *Service) validator() *validator.Validate {
	if s.Validate == nil {
		s.Validate = validator.New()
	}
	return s.Validate
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}
