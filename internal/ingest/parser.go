package ingest

import (
	"regexp"
	"strings"
)

// ParsedText is the light structure recovered from raw text without an LLM.
type ParsedText struct {
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Skills     []string `json:"skills"`
	Experience []string `json:"experience"`
	Education  []string `json:"education"`
}

// AsMap returns the parse result in the shape stored as parsed_data.
func (p ParsedText) AsMap() map[string]any {
	out := map[string]any{
		"source":     "heuristic",
		"skills":     nonNil(p.Skills),
		"experience": nonNil(p.Experience),
		"education":  nonNil(p.Education),
	}
	if p.Name != "" {
		out["name"] = p.Name
	}
	if p.Email != "" {
		out["email"] = p.Email
	}
	if p.Phone != "" {
		out["phone"] = p.Phone
	}
	return out
}

// TextParser recovers contact details and sections from extracted text.
type TextParser interface {
	Parse(text string) ParsedText
}

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
)

type section int

const (
	sectionNone section = iota
	sectionSkills
	sectionExperience
	sectionEducation
)

// sectionKeywords is checked in order; the first matching group wins.
var sectionKeywords = []struct {
	section  section
	keywords []string
}{
	{sectionSkills, []string{"skill", "technologies", "tools"}},
	{sectionExperience, []string{"experience", "employment", "work"}},
	{sectionEducation, []string{"education", "degree", "university"}},
}

// HeuristicParser treats the first line as the name and splits the rest into
// sections on keyword headers. Header lines themselves are not collected.
type HeuristicParser struct{}

// Parse implements TextParser.
func (HeuristicParser) Parse(text string) ParsedText {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	out := ParsedText{
		Email: emailPattern.FindString(text),
		Phone: strings.TrimSpace(phonePattern.FindString(text)),
	}
	if len(lines) > 0 {
		out.Name = lines[0]
	}

	current := sectionNone
	for _, line := range lines {
		if s, ok := headerSection(line); ok {
			current = s
			continue
		}
		switch current {
		case sectionSkills:
			for _, skill := range strings.Split(line, ",") {
				if skill = strings.TrimSpace(skill); skill != "" {
					out.Skills = append(out.Skills, skill)
				}
			}
		case sectionExperience:
			out.Experience = append(out.Experience, line)
		case sectionEducation:
			out.Education = append(out.Education, line)
		}
	}
	return out
}

func headerSection(line string) (section, bool) {
	lower := strings.ToLower(line)
	for _, group := range sectionKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.section, true
			}
		}
	}
	return sectionNone, false
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
