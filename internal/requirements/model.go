package requirements

import (
	"fmt"
	"time"
)

// Requirement is a single matching criterion, for example {skill, Go, required}.
type Requirement struct {
	ID       string `json:"id"`
	GroupID  string `json:"filter_group_id"`
	Type     string `json:"type" validate:"required,max=100"`
	Value    string `json:"value" validate:"required,max=1000"`
	Required bool   `json:"required"`
}

// String formats the requirement as a prompt line.
func (r Requirement) String() string {
	line := fmt.Sprintf("%s: %s", r.Type, r.Value)
	if r.Required {
		line += " (REQUIRED)"
	}
	return line
}

// Group is a named set of requirements. A group without a PositionID applies
// to the whole project.
type Group struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"project_id"`
	PositionID   string        `json:"position_id,omitempty"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Enabled      bool          `json:"enabled"`
	Requirements []Requirement `json:"requirements"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ProjectLevel reports whether the group has no position scope.
func (g Group) ProjectLevel() bool {
	return g.PositionID == ""
}

// Flatten concatenates the requirements of groups in order.
func Flatten(groups []Group) []Requirement {
	var out []Requirement
	for _, g := range groups {
		out = append(out, g.Requirements...)
	}
	return out
}
