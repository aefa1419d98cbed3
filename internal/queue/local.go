package queue

import (
	"context"
	"errors"
	"sync"

	"lens-backend/internal/shared/telemetry"
)

// ErrQueueFull is returned when the local buffer has no room.
var ErrQueueFull = errors.New("queue full")

// ErrQueueClosed is returned after Close.
var ErrQueueClosed = errors.New("queue closed")

// HandlerFunc processes one message.
type HandlerFunc func(ctx context.Context, msg Message) error

// Local is an in-process queue drained by a fixed pool of workers. Delivery
// is unordered and messages are lost on exit.
type Local struct {
	handler HandlerFunc
	workers int

	mu     sync.RWMutex
	ch     chan Message
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewLocal constructs a Local queue with the given buffer size and worker count.
func NewLocal(handler HandlerFunc, buffer, workers int) *Local {
	if buffer <= 0 {
		buffer = 100
	}
	if workers <= 0 {
		workers = 1
	}
	return &Local{handler: handler, workers: workers, ch: make(chan Message, buffer)}
}

// Start launches the workers. They stop when ctx is cancelled or Close is called.
func (q *Local) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(ctx)
	}
}

// Send enqueues msg without blocking.
func (q *Local) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued work to finish.
func (q *Local) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	q.wg.Wait()
	if q.cancel != nil {
		q.cancel()
	}
}

func (q *Local) run(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-q.ch:
			if !ok {
				return
			}
			q.handle(ctx, msg)
		}
	}
}

func (q *Local) handle(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("queue.local.panic", map[string]any{"kind": msg.Kind, "file_id": msg.FileID, "panic": r})
		}
	}()
	if err := q.handler(WithRequestID(ctx, msg.RequestID), msg); err != nil {
		telemetry.Error("queue.local.failed", map[string]any{
			"kind":       msg.Kind,
			"file_id":    msg.FileID,
			"request_id": msg.RequestID,
			"error":      err,
		})
	}
}

var _ Client = (*Local)(nil)
