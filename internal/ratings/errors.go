package ratings

import "errors"

var (
	ErrNotFound = errors.New("rating not found")
	// ErrAlreadyRated is returned when a rating for the (candidate, project) pair already exists.
	ErrAlreadyRated = errors.New("candidate already rated for project")
)
