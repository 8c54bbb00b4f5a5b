package repository

import "context"

// CommandLimiter throttles per-user commands across bot surfaces.
// false means the fixed window is exhausted and the command is dropped.
type CommandLimiter interface {
	Allow(ctx context.Context, userID, command string) (bool, error)
}

// TranscriptCache holds the most recent transcription per user for
// follow-up AI features (categorization, cleanup). Entries expire on
// their own after a fixed TTL; a missing entry is not an error.
type TranscriptCache interface {
	Store(ctx context.Context, userID, text string) error
	Get(ctx context.Context, userID string) (string, error)
	Clear(ctx context.Context, userID string) error
}
