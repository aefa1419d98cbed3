package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"lens-backend/internal/ingest"
	"lens-backend/internal/matching"
	"lens-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrInvalidMessage indicates a decoded message that cannot be processed.
type ErrInvalidMessage struct {
	Meta      MessageMeta
	RequestID string
	Err       error
}

func (e ErrInvalidMessage) Error() string { return "invalid message: " + e.Err.Error() }

// ErrProcess indicates processing failed after successful parsing. Retryable
// failures should be left on the queue for redelivery.
type ErrProcess struct {
	Kind      string
	FileID    string
	RequestID string
	Retryable bool
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process " + e.Kind
	}
	return "process " + e.Kind + ": " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	msg.FileID = strings.TrimSpace(msg.FileID)
	msg.ProjectID = strings.TrimSpace(msg.ProjectID)
	if err := msg.Validate(); err != nil {
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Err: err}
	}
	return msg, meta, nil
}

// Ingester processes uploaded documents.
type Ingester interface {
	Process(ctx context.Context, fileID string) error
}

// Matcher rates candidates.
type Matcher interface {
	MatchCandidate(ctx context.Context, req matching.Request) (matching.Result, error)
}

// Handler routes queue messages to the ingestion and matching pipelines.
type Handler struct {
	Ingest Ingester
	Match  Matcher
}

// HandleBody parses, validates, and processes a raw message payload.
func (h *Handler) HandleBody(ctx context.Context, body string) error {
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	return h.Handle(ctx, msg)
}

// Handle processes a decoded message.
func (h *Handler) Handle(ctx context.Context, msg queue.Message) error {
	ctx = queue.WithRequestID(ctx, msg.RequestID)
	switch msg.Kind {
	case queue.KindIngest:
		if h.Ingest == nil {
			return errors.New("ingest processor not configured")
		}
		if err := h.Ingest.Process(ctx, msg.FileID); err != nil {
			return ErrProcess{
				Kind:      msg.Kind,
				FileID:    msg.FileID,
				RequestID: msg.RequestID,
				Retryable: ingest.AsError(err).Retryable(),
				Err:       err,
			}
		}
		return nil
	case queue.KindMatch:
		if h.Match == nil {
			return errors.New("matching engine not configured")
		}
		_, err := h.Match.MatchCandidate(ctx, matching.Request{
			CandidateID:   msg.FileID,
			ProjectID:     msg.ProjectID,
			FilterGroupID: msg.FilterGroupID,
			PositionID:    msg.PositionID,
		})
		if err != nil {
			status, _, _ := matching.StatusFor(err)
			return ErrProcess{
				Kind:      msg.Kind,
				FileID:    msg.FileID,
				RequestID: msg.RequestID,
				Retryable: status == http.StatusInternalServerError,
				Err:       err,
			}
		}
		return nil
	default:
		return ErrInvalidMessage{RequestID: msg.RequestID, Err: errors.New("unknown kind " + msg.Kind)}
	}
}

// ShouldDelete reports whether a message that failed with err should be
// removed from the queue instead of redelivered.
func ShouldDelete(err error) bool {
	if err == nil {
		return true
	}
	var procErr ErrProcess
	if errors.As(err, &procErr) {
		return !procErr.Retryable
	}
	switch err.(type) {
	case ErrEmptyBody, ErrDecode, ErrInvalidMessage:
		return true
	}
	return false
}
