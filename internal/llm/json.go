package llm

import (
	"errors"
	"strings"
)

// ErrNoJSON is returned when a response holds no brace-delimited object.
var ErrNoJSON = errors.New("no JSON object in LLM response")

// ExtractJSONObject returns the span from the first '{' to the last '}'.
// Models often wrap the object in prose or code fences; the greedy span
// keeps nested objects intact.
func ExtractJSONObject(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return content[start : end+1], nil
}
