package matching

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lens-backend/internal/candidates"
	"lens-backend/internal/llm"
	"lens-backend/internal/llm/openai"
	"lens-backend/internal/positions"
	"lens-backend/internal/ratings"
	"lens-backend/internal/requirements"
	"lens-backend/internal/summaries"
)

type stubLLM struct {
	mu       sync.Mutex
	content  string
	err      error
	gate     chan struct{}
	requests []llm.Request
}

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	if s.gate != nil {
		<-s.gate
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.content, s.err
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type fixture struct {
	engine    *Engine
	llm       *stubLLM
	files     *candidates.MemoryRepo
	groups    *requirements.MemoryRepo
	positions *positions.MemoryRepo
	summaries *summaries.MemoryRepo
	ratings   *ratings.MemoryRepo
}

const resumeText = "Jane Doe\njane@example.com\nSkills: Go, PostgreSQL, Kubernetes\nExperience: 6 years backend"

func newFixture(t *testing.T, content string) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		llm:       &stubLLM{content: content},
		files:     candidates.NewMemoryRepo(),
		groups:    requirements.NewMemoryRepo(),
		positions: positions.NewMemoryRepo(),
		summaries: summaries.NewMemoryRepo(),
		ratings:   ratings.NewMemoryRepo(),
	}
	require.NoError(t, f.files.Create(ctx, candidates.CandidateFile{
		ID: "cv-1", ProjectID: "proj-1", FileName: "jane.pdf", Status: candidates.StatusCompleted,
		RawText: resumeText, TextExtracted: true,
	}))
	require.NoError(t, f.files.Create(ctx, candidates.CandidateFile{
		ID: "cv-empty", ProjectID: "proj-1", FileName: "blank.pdf", Status: candidates.StatusCompleted, RawText: "  \n",
	}))
	require.NoError(t, f.positions.Create(ctx, positions.Position{
		ID: "pos-1", ProjectID: "proj-1", Title: "Backend Engineer", KeySkills: []string{"Go"},
	}))
	require.NoError(t, f.groups.CreateGroup(ctx, requirements.Group{
		ID: "grp-project", ProjectID: "proj-1", Name: "Baseline", Enabled: true,
		Requirements: []requirements.Requirement{
			{ID: "req-1", GroupID: "grp-project", Type: "skill", Value: "Go", Required: true},
			{ID: "req-2", GroupID: "grp-project", Type: "experience", Value: "5+ years"},
		},
	}))
	f.engine = &Engine{
		Files:     f.files,
		Summaries: f.summaries,
		Ratings:   f.ratings,
		Resolver:  &Resolver{Groups: f.groups, Positions: f.positions},
		LLM:       f.llm,
		Now:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	return f
}

func (f *fixture) addPositionGroup(t *testing.T) {
	t.Helper()
	require.NoError(t, f.groups.CreateGroup(context.Background(), requirements.Group{
		ID: "grp-pos", ProjectID: "proj-1", PositionID: "pos-1", Name: "Backend", Enabled: true,
		Requirements: []requirements.Requirement{
			{ID: "req-3", GroupID: "grp-pos", Type: "skill", Value: "PostgreSQL", Required: true},
		},
	}))
}

func TestMatchCandidateCreatesRating(t *testing.T) {
	f := newFixture(t, `Sure. {"rating": "C", "reason": "Meets Go, lacks seniority"}`)

	res, err := f.engine.MatchCandidate(context.Background(), Request{CandidateID: "cv-1", ProjectID: "proj-1"})
	require.NoError(t, err)

	assert.False(t, res.Existing)
	assert.Equal(t, SourceProject, res.Source)
	assert.Equal(t, "C", res.Rating.Bucket)
	assert.Equal(t, "Meets Go, lacks seniority", res.Rating.Reason)
	assert.Equal(t, "grp-project", res.Rating.FilterGroupID)
	assert.Equal(t, map[string]float64{"req-1": 0.5, "req-2": 0.5}, res.Rating.RequirementScores)
	assert.Equal(t, []string{"skill: Go (REQUIRED)", "experience: 5+ years"}, res.Requirements)

	stored, err := f.ratings.GetByCandidateProject(context.Background(), "cv-1", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, res.Rating.ID, stored.ID)

	require.Equal(t, 1, f.llm.calls())
	req := f.llm.requests[0]
	assert.InDelta(t, 0.2, req.Temperature, 0.0001)
	assert.Equal(t, 1000, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "REQUIREMENTS:\nskill: Go (REQUIRED)\nexperience: 5+ years")
	assert.Contains(t, req.Messages[1].Content, "RESUME:\n"+resumeText)
}

func TestMatchCandidateIsIdempotent(t *testing.T) {
	f := newFixture(t, `{"rating": "A", "reason": "strong"}`)
	ctx := context.Background()

	first, err := f.engine.MatchCandidate(ctx, Request{CandidateID: "cv-1", ProjectID: "proj-1"})
	require.NoError(t, err)
	second, err := f.engine.MatchCandidate(ctx, Request{CandidateID: "cv-1", ProjectID: "proj-1", PositionID: "pos-1"})
	require.NoError(t, err)

	assert.True(t, second.Existing)
	assert.Equal(t, first.Rating.ID, second.Rating.ID)
	assert.Equal(t, 1, f.llm.calls())
	assert.Equal(t, 1, f.ratings.Len())
}

func TestMatchCandidateCoalescesConcurrentCalls(t *testing.T) {
	f := newFixture(t, `{"rating": "B", "reason": "good"}`)
	f.llm.gate = make(chan struct{})

	const n = 5
	var wg sync.WaitGroup
	results := make([]Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.engine.MatchCandidate(context.Background(), Request{CandidateID: "cv-1", ProjectID: "proj-1"})
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(f.llm.gate)
	wg.Wait()

	created := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Rating.ID, results[i].Rating.ID)
		if !results[i].Existing {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.ratings.Len())
	assert.LessOrEqual(t, f.llm.calls(), 2)
}

func TestMatchCandidateSurvivesFirstCallerCancel(t *testing.T) {
	f := newFixture(t, `{"rating": "A", "reason": "strong"}`)
	f.llm.gate = make(chan struct{})
	req := Request{CandidateID: "cv-1", ProjectID: "proj-1"}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.engine.MatchCandidate(firstCtx, req)
		firstErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	type outcome struct {
		res Result
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := f.engine.MatchCandidate(context.Background(), req)
		second <- outcome{res, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled caller did not return")
	}
	close(f.llm.gate)

	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, "A", got.res.Rating.Bucket)
		assert.True(t, got.res.Existing)
	case <-time.After(2 * time.Second):
		t.Fatalf("second caller did not return")
	}
	assert.Equal(t, 1, f.ratings.Len())
	assert.Equal(t, 1, f.llm.calls())
}

func TestMatchCandidateRejectsInvalidRatings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "out of range", content: `{"rating": "E", "reason": "x"}`, want: ErrInvalidRating},
		{name: "lowercase", content: `{"rating": "a", "reason": "x"}`, want: ErrInvalidRating},
		{name: "missing rating", content: `{"reason": "x"}`, want: ErrInvalidRating},
		{name: "no json", content: "I cannot rate this candidate.", want: ErrParse},
		{name: "broken json", content: `{"rating": "A", "reason": }`, want: ErrParse},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.content)
			_, err := f.engine.MatchCandidate(context.Background(), Request{CandidateID: "cv-1", ProjectID: "proj-1"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 0, f.ratings.Len())
		})
	}
}

func TestMatchCandidateValidation(t *testing.T) {
	f := newFixture(t, `{"rating": "A"}`)
	ctx := context.Background()

	_, err := f.engine.MatchCandidate(ctx, Request{ProjectID: "proj-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.engine.MatchCandidate(ctx, Request{CandidateID: "cv-1", ProjectID: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.engine.MatchCandidate(ctx, Request{CandidateID: "missing", ProjectID: "proj-1"})
	assert.ErrorIs(t, err, ErrCandidateNotFound)
	_, err = f.engine.MatchCandidate(ctx, Request{CandidateID: "cv-empty", ProjectID: "proj-1"})
	assert.ErrorIs(t, err, ErrNoRawText)
	_, err = f.engine.MatchCandidate(ctx, Request{CandidateID: "cv-1", ProjectID: "proj-2"})
	assert.ErrorIs(t, err, ErrNoRequirements)
	assert.Equal(t, 0, f.llm.calls())
}

func TestMatchCandidateUsesSuggestedPosition(t *testing.T) {
	f := newFixture(t, `{"rating": "B", "reason": "solid"}`)
	f.addPositionGroup(t)
	require.NoError(t, f.summaries.Create(context.Background(), summaries.Summary{
		ID: "sum-1", CandidateFileID: "cv-1", Skills: []string{"Go", "SQL"},
		SuggestedPositions: []summaries.SuggestedPosition{
			{Position: "Data Engineer", Confidence: 71},
			{Position: "backend engineer", Confidence: 90},
		},
	}))

	res, err := f.engine.MatchCandidate(context.Background(), Request{CandidateID: "cv-1", ProjectID: "proj-1"})
	require.NoError(t, err)

	assert.Equal(t, SourcePosition, res.Source)
	assert.Equal(t, "pos-1", res.Rating.PositionID)
	assert.Equal(t, "grp-pos", res.Rating.FilterGroupID)
	assert.Equal(t, map[string]float64{"req-3": 0.75}, res.Rating.RequirementScores)
	prompt := f.llm.requests[0].Messages[1].Content
	assert.Contains(t, prompt, "POSITION:\nTitle: Backend Engineer")
	assert.Contains(t, prompt, "CANDIDATE SKILLS:\nGo, SQL")
}

func TestMatchCandidateExplicitGroupWins(t *testing.T) {
	f := newFixture(t, `{"rating": "D", "reason": "weak"}`)
	f.addPositionGroup(t)

	res, err := f.engine.MatchCandidate(context.Background(), Request{
		CandidateID: "cv-1", ProjectID: "proj-1", FilterGroupID: "grp-project", PositionID: "pos-1",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceFilterGroup, res.Source)
	assert.Equal(t, map[string]float64{"req-1": 0.25, "req-2": 0.25}, res.Rating.RequirementScores)
}

func TestMatchCandidateNoGroupIDWhenSeveralGroups(t *testing.T) {
	f := newFixture(t, `{"rating": "A", "reason": "great"}`)
	require.NoError(t, f.groups.CreateGroup(context.Background(), requirements.Group{
		ID: "grp-lang", ProjectID: "proj-1", Name: "Languages", Enabled: true,
		Requirements: []requirements.Requirement{{ID: "req-9", GroupID: "grp-lang", Type: "language", Value: "English"}},
	}))

	res, err := f.engine.MatchCandidate(context.Background(), Request{CandidateID: "cv-1", ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.Empty(t, res.Rating.FilterGroupID)
	assert.Len(t, res.FilterGroupIDs, 2)
	assert.Len(t, res.Rating.RequirementScores, 3)
	for _, score := range res.Rating.RequirementScores {
		assert.Equal(t, 1.0, score)
	}
}

type racingRatings struct {
	*ratings.MemoryRepo
	winner ratings.Rating
}

func (r *racingRatings) Create(ctx context.Context, rating ratings.Rating) error {
	if err := r.MemoryRepo.Create(ctx, r.winner); err != nil {
		return err
	}
	return r.MemoryRepo.Create(ctx, rating)
}

func TestMatchCandidateReturnsConcurrentWinner(t *testing.T) {
	f := newFixture(t, `{"rating": "C", "reason": "ok"}`)
	racing := &racingRatings{
		MemoryRepo: f.ratings,
		winner:     ratings.Rating{ID: "rating-winner", CandidateFileID: "cv-1", ProjectID: "proj-1", Bucket: "B"},
	}
	f.engine.Ratings = racing

	res, err := f.engine.MatchCandidate(context.Background(), Request{CandidateID: "cv-1", ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.True(t, res.Existing)
	assert.Equal(t, "rating-winner", res.Rating.ID)
	assert.Equal(t, 1, f.ratings.Len())
}

func TestMatchCandidateProviderFailureStoresNothing(t *testing.T) {
	prev := llm.RetryBaseDelay
	llm.RetryBaseDelay = 0
	t.Cleanup(func() { llm.RetryBaseDelay = prev })

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	}))
	defer srv.Close()

	client, err := openai.NewClient(openai.Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})
	require.NoError(t, err)

	f := newFixture(t, "")
	f.engine.LLM = client

	_, err = f.engine.MatchCandidate(context.Background(), Request{CandidateID: "cv-1", ProjectID: "proj-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm http status 500")
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, f.ratings.Len())
}
