package matching

import "fmt"

// Bucket is an ordinal match category, A best through D worst.
type Bucket string

const (
	BucketA Bucket = "A"
	BucketB Bucket = "B"
	BucketC Bucket = "C"
	BucketD Bucket = "D"
)

// ParseBucket accepts exactly "A", "B", "C", or "D". Anything else is rejected
// rather than coerced.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case BucketA, BucketB, BucketC, BucketD:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRating, s)
}

// Score is the proxy score every requirement receives for a bucket. The model
// only rates overall, so scores never vary per requirement.
func (b Bucket) Score() float64 {
	switch b {
	case BucketA:
		return 1.0
	case BucketB:
		return 0.75
	case BucketC:
		return 0.5
	case BucketD:
		return 0.25
	}
	return 0
}

// ScoreRequirements assigns the bucket's score to every requirement ID.
func ScoreRequirements(b Bucket, requirementIDs []string) map[string]float64 {
	scores := make(map[string]float64, len(requirementIDs))
	for _, id := range requirementIDs {
		scores[id] = b.Score()
	}
	return scores
}
