package positions

import "time"

// Position is an open role within a project.
type Position struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	KeySkills      []string  `json:"key_skills"`
	Qualifications []string  `json:"qualifications"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
