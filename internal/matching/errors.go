package matching

import "errors"

// Sentinel failures. StatusFor supplies the wording sent to HTTP clients.
var (
	ErrInvalidInput      = errors.New("candidate id and project id are required")
	ErrCandidateNotFound = errors.New("candidate file not found")
	ErrNoRawText         = errors.New("no raw text found for candidate")
	ErrGroupNotFound     = errors.New("filter group not found in project")
	ErrPositionNotFound  = errors.New("position not found in project")
	ErrNoRequirements    = errors.New("no requirements found for project")
	ErrParse             = errors.New("parse llm response as json")
	ErrInvalidRating     = errors.New("invalid rating in llm response")
)
