// Package providers implements the TextCompletion collaborator against
// OpenAI-compatible chat completion APIs (Groq by default).
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBase   = "https://api.groq.com/openai/v1"
	defaultModel     = "llama-3.1-8b-instant"
	defaultMaxTokens = 100
)

// GroqProvider talks to an OpenAI-compatible /chat/completions endpoint.
type GroqProvider struct {
	apiKey    string
	apiBase   string
	model     string
	maxTokens int
	client    *http.Client
}

// NewGroq builds a provider. Empty apiBase/model pick the Groq defaults.
func NewGroq(apiKey, apiBase, model string) *GroqProvider {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if model == "" {
		model = defaultModel
	}
	return &GroqProvider{
		apiKey:    apiKey,
		apiBase:   strings.TrimRight(apiBase, "/"),
		model:     model,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a system+user pair and returns the assistant text.
func (p *GroqProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("groq: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("groq: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("groq: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("groq: api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq: empty response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
