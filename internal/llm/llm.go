package llm

import (
	"context"
	"errors"
)

// Chat roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    string
	Content string
}

// Request is a single chat completion call.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// ChatClient abstracts chat completion providers. Complete returns the
// assistant's message content.
type ChatClient interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not configured")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotImplemented
}

// System and User build messages for the two-message exchanges used by callers.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }
