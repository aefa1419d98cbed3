package ratings

import "time"

// Rating is the match outcome for one candidate within one project.
type Rating struct {
	ID                string             `json:"id"`
	CandidateFileID   string             `json:"cv_file_id"`
	ProjectID         string             `json:"project_id"`
	FilterGroupID     string             `json:"filter_group_id,omitempty"`
	PositionID        string             `json:"position_id,omitempty"`
	Bucket            string             `json:"rating"`
	Reason            string             `json:"rating_reason"`
	RequirementScores map[string]float64 `json:"requirement_scores"`
	CreatedAt         time.Time          `json:"created_at"`
}
