package summaries

import "errors"

var (
	ErrNotFound      = errors.New("summary not found")
	ErrAlreadyExists = errors.New("summary already exists for candidate file")
)
