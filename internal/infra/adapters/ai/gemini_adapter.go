// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"voicebridge/internal/domain/ports/adapter"
)

var _ adapter.AIProvider = (*GeminiProvider)(nil)

type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider using the official SDK.
// A nil client (missing key) yields an unconfigured provider that the
// dispatcher skips.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if apiKey == "" {
		return &GeminiProvider{model: model}, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: c, model: model}, nil
}

func (g *GeminiProvider) Name() string     { return "gemini" }
func (g *GeminiProvider) Configured() bool { return g.client != nil }

func (g *GeminiProvider) Complete(ctx context.Context, req adapter.CompletionRequest) (string, error) {
	if g.client == nil {
		return "", errors.New("gemini: not configured")
	}
	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		cfg.Temperature = &t
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == 429 {
			return "", adapter.ErrRateLimited
		}
		if strings.Contains(err.Error(), "429") {
			return "", adapter.ErrRateLimited
		}
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// CountTokens asks the API when possible and falls back to a rough
// rune-based estimate.
func (g *GeminiProvider) CountTokens(ctx context.Context, prompt string) (int, error) {
	if g.client != nil {
		resp, err := g.client.Models.CountTokens(ctx, g.model, genai.Text(prompt), nil)
		if err == nil {
			return int(resp.TotalTokens), nil
		}
	}
	return utf8.RuneCountInString(prompt) / 4, nil
}
