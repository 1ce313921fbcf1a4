package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reqforge/reqforge/internal/apperrors"
	"github.com/reqforge/reqforge/internal/config"
)

// Client talks to an OpenAI-compatible chat completions endpoint. One
// request per operation; failures surface to the caller, nothing is retried.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTP        *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:     cfg.LLM.APIURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		HTTP: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Complete sends a system+user prompt pair and returns the first choice's
// content. ConfigurationError when no credential is set; UpstreamError when
// the call fails or returns no candidate output.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.APIKey == "" {
		return "", apperrors.Configuration("missing OpenAI API key")
	}

	body, err := json.Marshal(ChatRequest{
		Model: c.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", apperrors.Upstream("completion request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Upstream("read completion response", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return "", apperrors.Upstream("decode completion response", err)
	}
	if chatResp.Error != nil {
		return "", apperrors.Upstream("completion API error", fmt.Errorf("%s", chatResp.Error.Message))
	}
	if len(chatResp.Choices) == 0 {
		return "", apperrors.Upstream("no choices returned from completion API", nil)
	}

	return chatResp.Choices[0].Message.Content, nil
}
