package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lens-backend/internal/shared/telemetry"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher turns domain events into queue messages.
type Dispatcher struct {
	Client Client
	Now    func() time.Time
}

// DispatchIngest enqueues document processing for an uploaded file.
func (d *Dispatcher) DispatchIngest(ctx context.Context, fileID, projectID string) error {
	return d.Client.Send(ctx, d.message(ctx, Message{Kind: KindIngest, FileID: fileID, ProjectID: projectID}))
}

// DispatchMatch enqueues a rating request.
func (d *Dispatcher) DispatchMatch(ctx context.Context, fileID, projectID, filterGroupID, positionID string) error {
	return d.Client.Send(ctx, d.message(ctx, Message{
		Kind:          KindMatch,
		FileID:        fileID,
		ProjectID:     projectID,
		FilterGroupID: filterGroupID,
		PositionID:    positionID,
	}))
}

func (d *Dispatcher) message(ctx context.Context, msg Message) Message {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	msg.RequestID = RequestIDFromContext(ctx)
	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}
	msg.EnqueuedAt = now().UTC().Format(time.RFC3339)
	msg.Version = MessageVersion
	return msg
}

// WithRequestID stores the request id used to correlate queued work.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return telemetry.WithRequestID(ctx, requestID)
}

// RequestIDFromContext returns the stored request id, if any.
func RequestIDFromContext(ctx context.Context) string {
	return telemetry.RequestID(ctx)
}
