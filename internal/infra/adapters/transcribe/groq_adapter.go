// File: internal/infra/adapters/transcribe/groq_adapter.go
package transcribe

import (
	"bytes"
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"voicebridge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Transcriber = (*GroqTranscriber)(nil)

// GroqTranscriber uses Groq's Whisper deployment through the
// OpenAI-compatible audio endpoint.
type GroqTranscriber struct {
	client openai.Client
	model  string
	ok     bool
}

func NewGroqTranscriber(apiKey, model string) *GroqTranscriber {
	if model == "" {
		model = "whisper-large-v3"
	}
	return &GroqTranscriber{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL("https://api.groq.com/openai/v1"),
		),
		model: model,
		ok:    apiKey != "",
	}
}

func (g *GroqTranscriber) Name() string     { return "groq" }
func (g *GroqTranscriber) Configured() bool { return g.ok }

func (g *GroqTranscriber) Transcribe(ctx context.Context, audio adapter.Audio) (string, error) {
	mime := audio.MimeType
	if mime == "" {
		mime = "audio/ogg"
	}
	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(g.model),
		File:  openai.File(bytes.NewReader(audio.Data), "voice.ogg", mime),
	}
	if audio.Language != "" {
		params.Language = openai.String(audio.Language)
	}
	resp, err := g.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if resp.Text == "" {
		return "", errors.New("groq: empty transcription")
	}
	return resp.Text, nil
}
