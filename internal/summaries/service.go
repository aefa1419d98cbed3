package summaries

import (
	"context"
	"fmt"
	"strings"
)

// Service exposes read access to summaries.
type Service struct {
	Repo Repo
}

// View is a summary together with its linked positions.
type View struct {
	Summary
	Positions []CandidatePosition `json:"candidate_positions"`
}

// GetForCandidate returns the summary for a candidate file and its position links.
func (s *Service) GetForCandidate(ctx context.Context, candidateFileID string) (View, error) {
	candidateFileID = strings.TrimSpace(candidateFileID)
	if candidateFileID == "" {
		return View{}, fmt.Errorf("%w: candidate id is required", ErrNotFound)
	}
	summary, err := s.Repo.GetByCandidate(ctx, candidateFileID)
	if err != nil {
		return View{}, err
	}
	links, err := s.Repo.ListCandidatePositions(ctx, candidateFileID)
	if err != nil {
		return View{}, err
	}
	if links == nil {
		links = []CandidatePosition{}
	}
	return View{Summary: summary, Positions: links}, nil
}
