package structuring

import (
	_ "embed"
	"fmt"
	"strings"

	"lens-backend/internal/llm"
	"lens-backend/internal/positions"
)

//go:embed prompts/extract_system.txt
var systemPrompt string

//go:embed prompts/record_schema.json
var recordSchema string

// BuildMessages assembles the extraction exchange for a resume.
func BuildMessages(rawText string, available []positions.Position) []llm.Message {
	user := fmt.Sprintf("Extract information from this resume and suggest potential positions:\n\n%s\n\nRESUME:\n%s",
		PositionsContext(available), rawText)
	return []llm.Message{
		llm.System(strings.TrimSpace(systemPrompt)),
		llm.User(user),
	}
}

// PositionsContext lists the project's positions so the model can suggest among them.
func PositionsContext(available []positions.Position) string {
	if len(available) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Available positions with key skills and qualifications:\n")
	for _, p := range available {
		fmt.Fprintf(&b, "Position: %s\n", p.Title)
		fmt.Fprintf(&b, "Key Skills: %s\n", strings.Join(p.KeySkills, ", "))
		fmt.Fprintf(&b, "Qualifications: %s\n\n", strings.Join(p.Qualifications, ", "))
	}
	return b.String()
}
