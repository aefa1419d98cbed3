package requirements

import "errors"

var (
	ErrNotFound     = errors.New("filter group not found")
	ErrInvalidInput = errors.New("invalid input")
)
