package ingest

import (
	"errors"
	"fmt"
)

// Kind classifies ingestion failures.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindUnsupported  Kind = "unsupported_type"
	KindCorrupt      Kind = "corrupt"
	KindEmpty        Kind = "empty_text"
	KindDecoder      Kind = "decoder"
	KindStorage      Kind = "storage"
	KindInternal     Kind = "internal"
)

// Error is a classified ingestion failure.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the human-readable message for the failure kind.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidInput:
		return "A candidate file id is required."
	case KindNotFound:
		return "Candidate file not found."
	case KindUnsupported:
		return fmt.Sprintf("Unsupported file type: %s. Upload a PDF, DOCX, or DOC file.", e.Detail)
	case KindCorrupt:
		return fmt.Sprintf("The file appears to be corrupted or is not a valid %s document.", e.Detail)
	case KindEmpty:
		return "No text could be extracted from the document."
	case KindDecoder:
		return fmt.Sprintf("The %s document could not be read; text extraction failed.", e.Detail)
	case KindStorage:
		return "The document could not be read from or saved to storage."
	default:
		return "Document processing failed unexpectedly."
	}
}

func newError(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// AsError classifies err, treating unknown errors as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(KindInternal, "", err)
}

// Retryable reports whether the failure came from an external dependency.
func (e *Error) Retryable() bool {
	return e.Kind == KindStorage || e.Kind == KindInternal
}
