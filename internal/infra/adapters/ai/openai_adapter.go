// File: internal/infra/adapters/ai/openai_adapter.go
package ai

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"voicebridge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIProvider = (*OpenAICompatProvider)(nil)

// OpenAICompatProvider serves OpenAI itself and any chat-completions
// compatible gateway (Groq exposes the same surface under its own base
// URL), through the official SDK.
type OpenAICompatProvider struct {
	name   string
	model  string
	client openai.Client
	ok     bool
}

func NewOpenAIProvider(apiKey, model string) *OpenAICompatProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAICompatProvider{
		name:   "openai",
		model:  model,
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		ok:     apiKey != "",
	}
}

func NewGroqProvider(apiKey, model string) *OpenAICompatProvider {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &OpenAICompatProvider{
		name:  "groq",
		model: model,
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL("https://api.groq.com/openai/v1"),
		),
		ok: apiKey != "",
	}
}

func (p *OpenAICompatProvider) Name() string     { return p.name }
func (p *OpenAICompatProvider) Configured() bool { return p.ok }

func (p *OpenAICompatProvider) Complete(ctx context.Context, req adapter.CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", adapter.ErrRateLimited
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(p.name + ": no choice content")
	}
	return resp.Choices[0].Message.Content, nil
}

// CountTokens estimates prompt tokens locally; good enough for budget
// prechecks without an extra round trip.
func (p *OpenAICompatProvider) CountTokens(_ context.Context, prompt string) (int, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(prompt, nil, nil)), nil
}
