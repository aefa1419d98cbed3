package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"lens-backend/internal/llm"
	"lens-backend/internal/shared/telemetry"
)

// DefaultBaseURL is the OpenAI-compatible endpoint used when none is configured.
var DefaultBaseURL = "https://api.cerebras.ai/v1"

const defaultTimeout = 120 * time.Second

// Config configures a chat-completions client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client implements llm.ChatClient against an OpenAI-compatible chat completions API.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewClient constructs a client. The API key is sent as a bearer token by the transport.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: base + "/chat/completions",
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey}),
				Base:   http.DefaultTransport,
			},
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// Complete sends req and returns the first choice's content. If the provider
// rejects the temperature for this model, the call is repeated once without it.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	temp := req.Temperature
	content, err := c.completeOnce(ctx, req, &temp)
	if err != nil && isUnsupportedTemperature(err) {
		telemetry.Warn("llm.temperature_dropped", map[string]any{"model": c.model})
		content, err = c.completeOnce(ctx, req, nil)
	}
	return content, err
}

func (c *Client) completeOnce(ctx context.Context, req llm.Request, temp *float32) (string, error) {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temp,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("llm request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() || resp.StatusCode >= http.StatusBadRequest {
		detail := msg.String()
		if detail == "" {
			detail = telemetry.Truncate(string(body), 200)
		}
		return "", fmt.Errorf("llm http status %d: %s", resp.StatusCode, detail)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("llm response parse: invalid JSON body")
	}

	content := strings.TrimSpace(gjson.GetBytes(body, "choices.0.message.content").String())
	if content == "" {
		return "", fmt.Errorf("llm response missing content")
	}

	usage := gjson.GetBytes(body, "usage")
	telemetry.Info("llm.response", map[string]any{
		"model":             c.model,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     usage.Get("prompt_tokens").Int(),
		"completion_tokens": usage.Get("completion_tokens").Int(),
	})
	return content, nil
}

func isUnsupportedTemperature(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "temperature") && (strings.Contains(msg, "unsupported") || strings.Contains(msg, "does not support"))
}

var _ llm.ChatClient = (*Client)(nil)
