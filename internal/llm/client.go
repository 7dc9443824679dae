// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"weather-agent/internal/common/config"
	"weather-agent/internal/common/logger"
)

var (
	ErrUnconfigured     = errors.New("BACKEND_UNAVAILABLE")
	ErrTimeout          = errors.New("BACKEND_TIMEOUT")
	ErrCompletionFailed = errors.New("COMPLETION_FAILED")
)

// Client is a chat-completions client for the reasoning backend.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg *config.Config, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIs.OpenAI.BaseURL, "/"),
		apiKey:  cfg.APIs.OpenAI.APIKey,
		model:   cfg.APIs.OpenAI.Model,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.APIs.OpenAI.Timeout),
		},
		logger: log.With(map[string]interface{}{
			"component": "llm-client",
		}),
	}
}

// Configured reports whether an API key is present. Without one every
// Complete call returns ErrUnconfigured and callers fall back.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a system+user message pair and returns the raw assistant
// text. Temperature and token budget are per-call because the pipeline
// stages tune them differently.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrUnconfigured
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		// Client-level timeout surfaces as a url.Error with Timeout() true.
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("backend returned non-OK status", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(raw),
		})
		return "", fmt.Errorf("%w: status %d", ErrCompletionFailed, resp.StatusCode)
	}

	var apiResponse chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrCompletionFailed, err)
	}

	if apiResponse.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrCompletionFailed, apiResponse.Error.Message)
	}

	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrCompletionFailed)
	}

	content := strings.TrimSpace(apiResponse.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrCompletionFailed)
	}

	return content, nil
}

// Healthy reports whether the backend is usable: configured counts as
// healthy without a live probe (the original pinged lazily too).
func (c *Client) Healthy(ctx context.Context) bool {
	return c.Configured()
}
