package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lens-backend/internal/positions"
	"lens-backend/internal/requirements"
)

// Requirement sources, reported with each result.
const (
	SourceFilterGroup     = "filter_group"
	SourcePosition        = "position"
	SourceProjectFallback = "project_fallback"
	SourceProject         = "project"
)

// Resolution is the requirement set chosen for a match.
type Resolution struct {
	Source       string
	Groups       []requirements.Group
	Requirements []requirements.Requirement
	Position     *positions.Position
}

// GroupIDs returns the IDs of the groups used.
func (r Resolution) GroupIDs() []string {
	ids := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		ids = append(ids, g.ID)
	}
	return ids
}

// RequirementIDs returns the IDs of the resolved requirements.
func (r Resolution) RequirementIDs() []string {
	ids := make([]string, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		ids = append(ids, req.ID)
	}
	return ids
}

// PositionRepo is the position access the resolver needs.
type PositionRepo interface {
	GetByID(ctx context.Context, id string) (positions.Position, error)
	FindByTitle(ctx context.Context, projectID, title string) (positions.Position, error)
}

// Resolver picks requirements by precedence: explicit group, then the resolved
// position's groups (falling back to project-level groups), then every enabled
// group in the project.
type Resolver struct {
	Groups    requirements.Repo
	Positions PositionRepo
}

// ResolveInput carries the identifiers a resolution may use. SuggestedTitle is
// the candidate's top suggested position, used when PositionID is empty.
type ResolveInput struct {
	ProjectID      string
	FilterGroupID  string
	PositionID     string
	SuggestedTitle string
}

// Resolve returns the requirement set or ErrNoRequirements.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (Resolution, error) {
	if in.FilterGroupID != "" {
		g, err := r.Groups.GetGroup(ctx, in.FilterGroupID)
		if err != nil {
			if errors.Is(err, requirements.ErrNotFound) {
				return Resolution{}, ErrGroupNotFound
			}
			return Resolution{}, fmt.Errorf("fetch filter group: %w", err)
		}
		if g.ProjectID != in.ProjectID {
			return Resolution{}, ErrGroupNotFound
		}
		res := Resolution{Source: SourceFilterGroup, Groups: []requirements.Group{g}, Requirements: g.Requirements}
		if g.PositionID != "" {
			if p, err := r.Positions.GetByID(ctx, g.PositionID); err == nil {
				res.Position = &p
			}
		}
		return nonEmpty(res)
	}

	position, err := r.position(ctx, in)
	if err != nil {
		return Resolution{}, err
	}
	if position != nil {
		groups, err := r.Groups.ListEnabledByPosition(ctx, in.ProjectID, position.ID)
		if err != nil {
			return Resolution{}, fmt.Errorf("fetch position filter groups: %w", err)
		}
		if reqs := requirements.Flatten(groups); len(reqs) > 0 {
			return Resolution{Source: SourcePosition, Groups: groups, Requirements: reqs, Position: position}, nil
		}
		groups, err = r.Groups.ListEnabledProjectLevel(ctx, in.ProjectID)
		if err != nil {
			return Resolution{}, fmt.Errorf("fetch project filter groups: %w", err)
		}
		return nonEmpty(Resolution{Source: SourceProjectFallback, Groups: groups, Requirements: requirements.Flatten(groups), Position: position})
	}

	groups, err := r.Groups.ListEnabled(ctx, in.ProjectID)
	if err != nil {
		return Resolution{}, fmt.Errorf("fetch filter groups: %w", err)
	}
	return nonEmpty(Resolution{Source: SourceProject, Groups: groups, Requirements: requirements.Flatten(groups)})
}

// position resolves an explicit position, or infers one from the suggested title.
// An unknown explicit position is an error; an unmatched suggestion is not.
func (r *Resolver) position(ctx context.Context, in ResolveInput) (*positions.Position, error) {
	if r.Positions == nil {
		return nil, nil
	}
	if in.PositionID != "" {
		p, err := r.Positions.GetByID(ctx, in.PositionID)
		if err != nil {
			if errors.Is(err, positions.ErrNotFound) {
				return nil, ErrPositionNotFound
			}
			return nil, fmt.Errorf("fetch position: %w", err)
		}
		if p.ProjectID != in.ProjectID {
			return nil, ErrPositionNotFound
		}
		return &p, nil
	}
	if title := strings.TrimSpace(in.SuggestedTitle); title != "" {
		p, err := r.Positions.FindByTitle(ctx, in.ProjectID, title)
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, positions.ErrNotFound) {
			return nil, fmt.Errorf("find position by title: %w", err)
		}
	}
	return nil, nil
}

func nonEmpty(res Resolution) (Resolution, error) {
	if len(res.Requirements) == 0 {
		return Resolution{}, ErrNoRequirements
	}
	return res, nil
}
