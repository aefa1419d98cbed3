package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"google.golang.org/genai"

	"lens-backend/internal/shared/telemetry"
)

// RetryBaseDelay is the pause before the single retry.
var RetryBaseDelay = 300 * time.Millisecond

type retrying struct {
	base   ChatClient
	fields map[string]any
}

// NewRetrying wraps base so that transient failures are retried once.
// fields are attached to the retry log line.
func NewRetrying(base ChatClient, fields map[string]any) ChatClient {
	if base == nil {
		return nil
	}
	return retrying{base: base, fields: fields}
}

func (r retrying) Complete(ctx context.Context, req Request) (string, error) {
	out, err := r.base.Complete(ctx, req)
	if err == nil || !ShouldRetry(err) {
		return out, err
	}

	fields := map[string]any{"attempt": 1, "error": err}
	for k, v := range r.fields {
		fields[k] = v
	}
	telemetry.Warn("llm.retry", fields)
	select {
	case <-time.After(RetryBaseDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return r.base.Complete(ctx, req)
}

// ShouldRetry reports whether err looks like a transient provider or network failure.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// genai returns APIError by value from HTTP failures but callers may wrap a pointer.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return transientStatus(apiErrPtr.Code)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}

func transientStatus(code int) bool {
	return code >= 500 || code == 429
}
