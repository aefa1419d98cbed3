package candidates

import "errors"

var (
	ErrNotFound     = errors.New("candidate file not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ErrUnsupportedType is returned when an upload is not a pdf, docx, or doc file.
var ErrUnsupportedType = errors.New("unsupported file type")
