package candidates

import "time"

// Processing statuses of a candidate file.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// CandidateFile is an uploaded resume and its processing state.
type CandidateFile struct {
	ID              string
	ProjectID       string
	FileName        string
	MimeType        string
	SizeBytes       int64
	StorageProvider string
	StorageKey      string
	Status          string
	Progress        int
	RawText         string
	TextExtracted   bool
	TextExtractedAt *time.Time
	ParsedData      map[string]any
	SummaryID       string
	Error           string
	ExtractionError string
	UploadedAt      time.Time
	UpdatedAt       time.Time
}

// HasRawText reports whether extracted text is available for matching.
func (f CandidateFile) HasRawText() bool {
	for _, r := range f.RawText {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return true
		}
	}
	return false
}
