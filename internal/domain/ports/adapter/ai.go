package adapter

import (
	"context"
	"errors"
)

// ErrRateLimited marks an upstream 429. The dispatcher retries these
// with backoff; any other failure short-circuits to the next provider.
var ErrRateLimited = errors.New("provider rate limited")

// CompletionRequest is the uniform generative call shape.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// CompletionService is the caller-facing port over the fallback chain.
// An empty string with a nil error means every provider was exhausted.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AIProvider is the port for a single generative backend.
type AIProvider interface {
	Name() string
	// Configured reports whether a credential is present; unconfigured
	// providers are skipped by the fallback chain.
	Configured() bool
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// CountTokens estimates prompt tokens (best-effort when the backend
	// offers no exact counter).
	CountTokens(ctx context.Context, prompt string) (int, error)
}
