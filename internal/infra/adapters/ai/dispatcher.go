// File: internal/infra/adapters/ai/dispatcher.go
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voicebridge/internal/domain/ports/adapter"
	"voicebridge/internal/infra/metrics"
)

// maxAttempts bounds upstream-429 retries per provider: 3 calls total,
// with backoff sleeps of 2s and 4s between them.
const maxAttempts = 3

// Dispatcher fans a completion request across the configured providers
// in priority order. Throttled providers are retried with exponential
// backoff; any other failure short-circuits to the next provider. When
// the whole chain is exhausted the result is empty, not an error — the
// feature degrades, the caller informs the user.
type Dispatcher struct {
	chain   []adapter.AIProvider
	limiter *RateLimiter
	log     *zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(chain []adapter.AIProvider, limiter *RateLimiter, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		chain:   chain,
		limiter: limiter,
		log:     logger,
		sleep:   sleepCtx,
	}
}

func (d *Dispatcher) Complete(ctx context.Context, req adapter.CompletionRequest) (string, error) {
	for _, p := range d.chain {
		if !p.Configured() {
			continue
		}
		if d.limiter != nil {
			if err := d.limiter.Acquire(ctx, p.Name()); err != nil {
				return "", err
			}
		}
		text, err := d.tryProvider(ctx, p, req)
		if err == nil {
			return StripCodeFence(text), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		d.log.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed, trying next")
	}
	d.log.Warn().Msg("ai fallback chain exhausted")
	return "", nil
}

func (d *Dispatcher) tryProvider(ctx context.Context, p adapter.AIProvider, req adapter.CompletionRequest) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		text, err := p.Complete(ctx, req)
		metrics.ObserveAICall(p.Name(), time.Since(start), err == nil)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !errors.Is(err, adapter.ErrRateLimited) {
			// Hard failures are not retried at this layer.
			return "", err
		}
		if attempt == maxAttempts {
			break
		}
		delay := time.Duration(1<<uint(attempt)) * time.Second
		d.log.Debug().Str("provider", p.Name()).Int("attempt", attempt).Dur("backoff", delay).Msg("rate limited, backing off")
		if err := d.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

// StripCodeFence removes a single enclosing triple-backtick wrapper,
// with or without a language tag, from a provider response.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return s
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	// Drop the language tag on the opening fence, if any.
	if i := strings.IndexByte(inner, '\n'); i >= 0 && !strings.ContainsAny(inner[:i], " \t") {
		inner = inner[i+1:]
	}
	return strings.TrimSpace(inner)
}
