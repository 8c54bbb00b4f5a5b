package adapter

import "context"

// Audio is a decoded voice message ready for transcription.
type Audio struct {
	Data     []byte
	MimeType string
	Seconds  int
	Language string
}

// Transcriber is the port for one speech-to-text backend.
type Transcriber interface {
	Name() string
	Configured() bool
	Transcribe(ctx context.Context, audio Audio) (string, error)
}
