package matching

import (
	_ "embed"
	"fmt"
	"strings"

	"lens-backend/internal/llm"
	"lens-backend/internal/positions"
	"lens-backend/internal/requirements"
)

//go:embed prompts/rating_system.txt
var systemPrompt string

// Rating call parameters.
const (
	Temperature = 0.2
	MaxTokens   = 1000
)

// PromptInput is the context sent to the model for one rating.
type PromptInput struct {
	Requirements []requirements.Requirement
	Position     *positions.Position
	Skills       []string
	ResumeText   string
}

// FormatRequirements renders one requirement per line.
func FormatRequirements(reqs []requirements.Requirement) string {
	lines := make([]string, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

// BuildMessages assembles the system rubric and the user context.
func BuildMessages(in PromptInput) []llm.Message {
	var b strings.Builder
	b.WriteString("Please evaluate this candidate's resume against the following job requirements:\n\n")
	if p := in.Position; p != nil {
		b.WriteString("POSITION:\n")
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
		if p.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", p.Description)
		}
		if len(p.KeySkills) > 0 {
			fmt.Fprintf(&b, "Key Skills: %s\n", strings.Join(p.KeySkills, ", "))
		}
		if len(p.Qualifications) > 0 {
			fmt.Fprintf(&b, "Qualifications: %s\n", strings.Join(p.Qualifications, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("REQUIREMENTS:\n")
	b.WriteString(FormatRequirements(in.Requirements))
	b.WriteString("\n\n")
	if len(in.Skills) > 0 {
		b.WriteString("CANDIDATE SKILLS:\n")
		b.WriteString(strings.Join(in.Skills, ", "))
		b.WriteString("\n\n")
	}
	b.WriteString("RESUME:\n")
	b.WriteString(in.ResumeText)

	return []llm.Message{
		llm.System(strings.TrimSpace(systemPrompt)),
		llm.User(b.String()),
	}
}
