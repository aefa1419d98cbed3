package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"lens-backend/internal/candidates"
	"lens-backend/internal/llm"
	"lens-backend/internal/ratings"
	"lens-backend/internal/shared/metrics"
	"lens-backend/internal/shared/telemetry"
	"lens-backend/internal/shared/util"
	"lens-backend/internal/summaries"
)

// Request identifies the candidate and project to rate.
type Request struct {
	CandidateID   string `json:"candidate_id" validate:"required,max=128"`
	ProjectID     string `json:"project_id" validate:"required,max=128"`
	FilterGroupID string `json:"filter_group_id,omitempty" validate:"omitempty,max=128"`
	PositionID    string `json:"position_id,omitempty" validate:"omitempty,max=128"`
}

// Result is a rating plus how it was reached. Existing is true when no
// model call was made on behalf of this caller.
type Result struct {
	Rating         ratings.Rating `json:"rating"`
	Existing       bool           `json:"existing"`
	Source         string         `json:"requirement_source,omitempty"`
	PositionID     string         `json:"position_id,omitempty"`
	FilterGroupIDs []string       `json:"filter_group_ids,omitempty"`
	Requirements   []string       `json:"requirements,omitempty"`
}

// Engine rates candidates against resolved requirements.
type Engine struct {
	Files     candidates.Repo
	Summaries summaries.Repo
	Ratings   ratings.Repo
	Resolver  *Resolver
	LLM       llm.ChatClient
	Validate  *validator.Validate
	Now       func() time.Time

	inflight singleflight.Group
}

// MatchCandidate returns the rating for the pair, creating it at most once.
// Concurrent calls for the same pair share one evaluation.
func (e *Engine) MatchCandidate(ctx context.Context, req Request) (Result, error) {
	req.CandidateID = strings.TrimSpace(req.CandidateID)
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	req.FilterGroupID = strings.TrimSpace(req.FilterGroupID)
	req.PositionID = strings.TrimSpace(req.PositionID)
	if err := e.validator().Struct(req); err != nil {
		return Result{}, ErrInvalidInput
	}

	metrics.IncMatchRequests()
	start := time.Now()
	key := req.CandidateID + "\x00" + req.ProjectID
	// The shared evaluation outlives any single caller so a cancelled
	// request does not fail the others waiting on the same pair.
	ran := false
	ch := e.inflight.DoChan(key, func() (any, error) {
		ran = true
		return e.match(context.WithoutCancel(ctx), req)
	})

	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		metrics.ObserveMatchDurationMs(float64(time.Since(start).Milliseconds()))
		return Result{}, ctx.Err()
	}
	metrics.ObserveMatchDurationMs(float64(time.Since(start).Milliseconds()))
	if out.Err != nil {
		metrics.IncMatchFailed()
		telemetry.Error("match.failed", map[string]any{
			"candidate_id": req.CandidateID,
			"project_id":   req.ProjectID,
			"error":        util.SanitizeError(out.Err),
		})
		return Result{}, out.Err
	}
	res := out.Val.(Result)
	if !ran {
		// Another caller ran the evaluation.
		res.Existing = true
	}
	if res.Existing {
		metrics.IncMatchExisting()
	} else {
		metrics.IncMatchCreated()
	}
	return res, nil
}

func (e *Engine) match(ctx context.Context, req Request) (Result, error) {
	if existing, err := e.Ratings.GetByCandidateProject(ctx, req.CandidateID, req.ProjectID); err == nil {
		return Result{Rating: existing, Existing: true, PositionID: existing.PositionID}, nil
	} else if !errors.Is(err, ratings.ErrNotFound) {
		return Result{}, fmt.Errorf("check existing rating: %w", err)
	}

	file, err := e.Files.GetByID(ctx, req.CandidateID)
	if err != nil {
		if errors.Is(err, candidates.ErrNotFound) {
			return Result{}, ErrCandidateNotFound
		}
		return Result{}, fmt.Errorf("fetch candidate file: %w", err)
	}
	if !file.HasRawText() {
		return Result{}, ErrNoRawText
	}

	skills, suggested := e.candidateContext(ctx, file.ID)
	res, err := e.Resolver.Resolve(ctx, ResolveInput{
		ProjectID:      req.ProjectID,
		FilterGroupID:  req.FilterGroupID,
		PositionID:     req.PositionID,
		SuggestedTitle: suggested,
	})
	if err != nil {
		return Result{}, err
	}

	client := llm.NewRetrying(e.LLM, map[string]any{"candidate_id": file.ID, "project_id": req.ProjectID, "stage": "matching"})
	content, err := client.Complete(ctx, llm.Request{
		Messages: BuildMessages(PromptInput{
			Requirements: res.Requirements,
			Position:     res.Position,
			Skills:       skills,
			ResumeText:   file.RawText,
		}),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("rating request: %w", err)
	}
	verdict, err := ParseVerdict(content)
	if err != nil {
		telemetry.Error("match.response_rejected", map[string]any{
			"candidate_id": file.ID,
			"content":      telemetry.Truncate(content, 500),
		})
		return Result{}, err
	}

	rating := ratings.Rating{
		ID:                uuid.NewString(),
		CandidateFileID:   req.CandidateID,
		ProjectID:         req.ProjectID,
		Bucket:            string(verdict.Bucket),
		Reason:            verdict.Reason,
		RequirementScores: ScoreRequirements(verdict.Bucket, res.RequirementIDs()),
		CreatedAt:         e.now(),
	}
	if len(res.Groups) == 1 {
		rating.FilterGroupID = res.Groups[0].ID
	}
	if res.Position != nil {
		rating.PositionID = res.Position.ID
	}

	out := Result{
		Rating:         rating,
		Source:         res.Source,
		PositionID:     rating.PositionID,
		FilterGroupIDs: res.GroupIDs(),
		Requirements:   describe(res),
	}
	if err := e.Ratings.Create(ctx, rating); err != nil {
		if errors.Is(err, ratings.ErrAlreadyRated) {
			stored, getErr := e.Ratings.GetByCandidateProject(ctx, req.CandidateID, req.ProjectID)
			if getErr != nil {
				return Result{}, fmt.Errorf("refetch rating: %w", getErr)
			}
			return Result{Rating: stored, Existing: true, PositionID: stored.PositionID}, nil
		}
		return Result{}, fmt.Errorf("store rating: %w", err)
	}

	telemetry.Info("match.completed", map[string]any{
		"candidate_id": req.CandidateID,
		"project_id":   req.ProjectID,
		"rating":       rating.Bucket,
		"source":       res.Source,
		"requirements": len(res.Requirements),
	})
	return out, nil
}

// candidateContext loads extracted skills and the top suggested position title.
// Missing summaries are normal for candidates whose extraction failed.
func (e *Engine) candidateContext(ctx context.Context, fileID string) (skills []string, suggestedTitle string) {
	if e.Summaries == nil {
		return nil, ""
	}
	summary, err := e.Summaries.GetByCandidate(ctx, fileID)
	if err == nil {
		skills = summary.Skills
		if top := topSuggestion(summary.SuggestedPositions); top != "" {
			return skills, top
		}
	} else if !errors.Is(err, summaries.ErrNotFound) {
		telemetry.Warn("match.summary_unavailable", map[string]any{"candidate_id": fileID, "error": err})
	}

	links, err := e.Summaries.ListCandidatePositions(ctx, fileID)
	if err != nil {
		telemetry.Warn("match.candidate_positions_unavailable", map[string]any{"candidate_id": fileID, "error": err})
		return skills, ""
	}
	if len(links) > 0 {
		return skills, links[0].Position
	}
	return skills, ""
}

func describe(res Resolution) []string {
	out := make([]string, 0, len(res.Requirements))
	for _, r := range res.Requirements {
		out = append(out, r.String())
	}
	return out
}

func topSuggestion(list []summaries.SuggestedPosition) string {
	best := -1
	title := ""
	for _, s := range list {
		if s.Confidence > best && strings.TrimSpace(s.Position) != "" {
			best = s.Confidence
			title = s.Position
		}
	}
	return title
}

func (e *Engine) validator() *validator.Validate {
	if e.Validate == nil {
		e.Validate = validator.New()
	}
	return e.Validate
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}
