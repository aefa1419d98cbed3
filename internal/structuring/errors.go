package structuring

import "errors"

var (
	ErrNoRawText = errors.New("resume id and raw text are required")
	// ErrParse covers responses that hold no parseable JSON object.
	ErrParse = errors.New("parse llm response as json")
	// ErrInvalidRecord covers JSON that does not match the extraction record shape.
	ErrInvalidRecord = errors.New("extraction record failed validation")
)
