// File: internal/infra/adapters/transcribe/wit_adapter.go
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"voicebridge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Transcriber = (*WitTranscriber)(nil)

// WitTranscriber calls the Wit.ai speech endpoint. Each language uses a
// separate Wit app with its own token (and its own free-tier quota).
type WitTranscriber struct {
	tokens map[string]string // language -> app token
	base   string
	client *http.Client
}

func NewWitTranscriber(tokens map[string]string) *WitTranscriber {
	return &WitTranscriber{
		tokens: tokens,
		base:   "https://api.wit.ai",
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (w *WitTranscriber) Name() string     { return "wit" }
func (w *WitTranscriber) Configured() bool { return len(w.tokens) > 0 }

func (w *WitTranscriber) Transcribe(ctx context.Context, audio adapter.Audio) (string, error) {
	token := w.tokens[audio.Language]
	if token == "" {
		return "", fmt.Errorf("wit: no app token for language %q", audio.Language)
	}
	mime := audio.MimeType
	if mime == "" {
		mime = "audio/ogg"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.base+"/speech?v=20240304", bytes.NewReader(audio.Data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mime)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("wit http %d", resp.StatusCode)
	}

	// Wit streams partial results as concatenated JSON objects; the last
	// final chunk carries the full transcription.
	dec := json.NewDecoder(resp.Body)
	var text string
	for {
		var chunk struct {
			Text    string `json:"text"`
			IsFinal bool   `json:"is_final"`
		}
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		if chunk.IsFinal || chunk.Text != "" {
			text = chunk.Text
		}
	}
	if text == "" {
		return "", errors.New("wit: empty transcription")
	}
	return text, nil
}
