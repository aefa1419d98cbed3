package summaries

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoRejectsSecondSummary(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, Summary{ID: "s1", CandidateFileID: "cv-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, Summary{ID: "s2", CandidateFileID: "cv-1"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	got, err := repo.GetByCandidate(ctx, "cv-1")
	if err != nil {
		t.Fatalf("GetByCandidate: %v", err)
	}
	if got.ID != "s1" {
		t.Fatalf("expected first summary to win, got %s", got.ID)
	}
}

func TestMemoryRepoListsPositionsByConfidence(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()
	links := []CandidatePosition{
		{ID: "l1", CandidateFileID: "cv-1", Position: "Role 1", PositionID: "p1", Confidence: 72, CreatedAt: now},
		{ID: "l2", CandidateFileID: "cv-1", Position: "Role 2", PositionID: "p2", Confidence: 95, CreatedAt: now},
		{ID: "l3", CandidateFileID: "cv-2", Position: "Role 1", PositionID: "p1", Confidence: 80, CreatedAt: now},
	}
	if err := repo.AddCandidatePositions(ctx, links); err != nil {
		t.Fatalf("AddCandidatePositions: %v", err)
	}
	got, err := repo.ListCandidatePositions(ctx, "cv-1")
	if err != nil {
		t.Fatalf("ListCandidatePositions: %v", err)
	}
	if len(got) != 2 || got[0].PositionID != "p2" || got[1].PositionID != "p1" {
		t.Fatalf("unexpected order: %+v", got)
	}
}
