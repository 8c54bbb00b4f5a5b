package redis

import (
	"context"
	"fmt"
	"time"

	"voicebridge/internal/domain/ports/repository"
)

var _ repository.TranscriptCache = (*TranscriptCache)(nil)

// TranscriptCache keeps the latest transcription per user for follow-up
// AI features. Entries carry a TTL so stale context expires on its own.
type TranscriptCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewTranscriptCache(client RedisClient, ttl time.Duration) *TranscriptCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TranscriptCache{client: client, ttl: ttl}
}

func (c *TranscriptCache) key(userID string) string {
	return fmt.Sprintf("transcript:%s", userID)
}

func (c *TranscriptCache) Store(ctx context.Context, userID, text string) error {
	return c.client.Set(ctx, c.key(userID), text, c.ttl)
}

// Get returns "" for an expired or absent entry; that is not an error.
func (c *TranscriptCache) Get(ctx context.Context, userID string) (string, error) {
	text, err := c.client.Get(ctx, c.key(userID))
	if err != nil {
		if IsNil(err) {
			return "", nil
		}
		return "", err
	}
	return text, nil
}

func (c *TranscriptCache) Clear(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID))
}
