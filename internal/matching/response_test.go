package matching

import (
	"errors"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantBucket Bucket
		wantReason string
		wantErr    error
	}{
		{name: "plain", content: `{"rating":"A","reason":"excellent"}`, wantBucket: BucketA, wantReason: "excellent"},
		{name: "fenced", content: "```json\n{\"rating\": \"D\", \"reason\": \"missing Go\"}\n```", wantBucket: BucketD, wantReason: "missing Go"},
		{name: "structured reason", content: `{"rating":"B","reason":{"summary":"good"}}`, wantBucket: BucketB, wantReason: `{"summary":"good"}`},
		{name: "padded rating", content: `{"rating":" A","reason":"x"}`, wantErr: ErrInvalidRating},
		{name: "numeric rating", content: `{"rating":1}`, wantErr: ErrParse},
		{name: "empty", content: "", wantErr: ErrParse},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Bucket != tt.wantBucket {
				t.Fatalf("expected bucket %s, got %s", tt.wantBucket, v.Bucket)
			}
			if v.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, v.Reason)
			}
		})
	}
}

func TestScoreRequirements(t *testing.T) {
	want := map[Bucket]float64{BucketA: 1.0, BucketB: 0.75, BucketC: 0.5, BucketD: 0.25}
	for b, score := range want {
		scores := ScoreRequirements(b, []string{"r1", "r2"})
		if len(scores) != 2 || scores["r1"] != score || scores["r2"] != score {
			t.Fatalf("bucket %s: unexpected scores %v", b, scores)
		}
	}
	if got := ScoreRequirements(BucketA, nil); len(got) != 0 {
		t.Fatalf("expected empty scores, got %v", got)
	}
}
