package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"lens-backend/internal/llm"
)

const defaultModel = "gemini-2.5-flash"

// Client implements llm.ChatClient on the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient constructs a Gemini-backed chat client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Complete sends system messages as the system instruction and the rest as user content.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	system, prompt := splitMessages(req.Messages)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	temp := req.Temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("llm generate content: %w", err)
	}
	if resp == nil {
		return "", errors.New("llm response missing content")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("llm response missing content")
	}
	return text, nil
}

func splitMessages(messages []llm.Message) (system, prompt string) {
	var sys, user []string
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if m.Role == llm.RoleSystem {
			sys = append(sys, content)
			continue
		}
		user = append(user, content)
	}
	return strings.Join(sys, "\n\n"), strings.Join(user, "\n\n")
}

var _ llm.ChatClient = (*Client)(nil)
