// File: internal/infra/adapters/ai/openrouter_adapter.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"voicebridge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIProvider = (*OpenRouterProvider)(nil)

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible gateway.
// Chat completions path is the same as OpenAI: /chat/completions
// Authorization: Bearer <OPENROUTER_API_KEY>
type OpenRouterProvider struct {
	apiKey string
	base   string
	model  string
	client *http.Client
}

func NewOpenRouterProvider(apiKey, model string) *OpenRouterProvider {
	if model == "" {
		model = "meta-llama/llama-3.3-70b-instruct"
	}
	return &OpenRouterProvider{
		apiKey: apiKey,
		base:   "https://openrouter.ai/api/v1",
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OpenRouterProvider) Name() string     { return "openrouter" }
func (o *OpenRouterProvider) Configured() bool { return o.apiKey != "" }

func (o *OpenRouterProvider) Complete(ctx context.Context, req adapter.CompletionRequest) (string, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	reqBody := struct {
		Model       string    `json:"model"`
		Messages    []message `json:"messages"`
		MaxTokens   int       `json:"max_tokens,omitempty"`
		Temperature float64   `json:"temperature,omitempty"`
	}{
		Model:       o.model,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	b, _ := json.Marshal(reqBody)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", adapter.ErrRateLimited
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openrouter http %d", resp.StatusCode)
	}
	var payload struct {
		Choices []struct {
			Message message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("openrouter: no choice content")
}

func (o *OpenRouterProvider) CountTokens(_ context.Context, prompt string) (int, error) {
	return utf8.RuneCountInString(prompt) / 4, nil
}
