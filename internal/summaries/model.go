package summaries

import "time"

// SuggestedPosition is a position the extractor inferred from a resume.
type SuggestedPosition struct {
	Position   string `json:"position" mapstructure:"position"`
	Confidence int    `json:"confidence" mapstructure:"confidence"`
	Reason     string `json:"reason" mapstructure:"reason"`
}

// Summary is the structured profile extracted from a candidate file.
type Summary struct {
	ID                 string              `json:"id"`
	CandidateFileID    string              `json:"cv_file_id"`
	Name               string              `json:"name,omitempty"`
	Email              string              `json:"email,omitempty"`
	Phone              string              `json:"phone,omitempty"`
	Skills             []string            `json:"skills,omitempty"`
	Experience         []string            `json:"experience,omitempty"`
	Education          []string            `json:"education,omitempty"`
	Projects           []string            `json:"projects,omitempty"`
	Awards             []string            `json:"awards,omitempty"`
	Certifications     []string            `json:"certifications,omitempty"`
	Languages          []string            `json:"languages,omitempty"`
	Publications       []string            `json:"publications,omitempty"`
	Volunteer          []string            `json:"volunteer,omitempty"`
	SuggestedPositions []SuggestedPosition `json:"suggested_positions,omitempty"`
	ExtractedData      map[string]any      `json:"extracted_data,omitempty"`
	RawText            string              `json:"-"`
	CreatedAt          time.Time           `json:"created_at"`
}

// CandidatePosition records a suggested position for a candidate file. PositionID
// is set when the title matched a position in the project.
type CandidatePosition struct {
	ID              string    `json:"id"`
	CandidateFileID string    `json:"cv_file_id"`
	Position        string    `json:"position"`
	PositionID      string    `json:"position_id,omitempty"`
	Confidence      int       `json:"confidence"`
	Reason          string    `json:"reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
