package matching

import (
	"encoding/json"
	"fmt"
	"strings"

	"lens-backend/internal/llm"
)

// Verdict is the parsed model decision.
type Verdict struct {
	Bucket Bucket
	Reason string
}

// ParseVerdict extracts the JSON object from content and validates its rating.
func ParseVerdict(content string) (Verdict, error) {
	jsonText, err := llm.ExtractJSONObject(content)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	var payload struct {
		Rating *string `json:"rating"`
		Reason any     `json:"reason"`
	}
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if payload.Rating == nil {
		return Verdict{}, fmt.Errorf("%w: missing rating", ErrInvalidRating)
	}
	bucket, err := ParseBucket(*payload.Rating)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Bucket: bucket, Reason: reasonText(payload.Reason)}, nil
}

func reasonText(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(r)
	default:
		b, _ := json.Marshal(r)
		return string(b)
	}
}
