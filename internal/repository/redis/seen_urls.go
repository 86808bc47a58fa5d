package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"marketpulse/internal/domain/news"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ news.SeenCache = (*SeenURLCache)(nil)

const seenKeyPrefix = "news:seen:"

// SeenURLCache remembers article URLs already stored so repeated feed polls
// skip the database round trip.
type SeenURLCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeenURLCache creates a cache whose entries expire after ttl
func NewSeenURLCache(client *redis.Client, ttl time.Duration) *SeenURLCache {
	return &SeenURLCache{
		client: client,
		ttl:    ttl,
	}
}

// Seen reports whether url was marked within the TTL
func (c *SeenURLCache) Seen(ctx context.Context, url string) (bool, error) {
	n, err := c.client.Exists(ctx, c.getKey(url)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to check seen url: %s", url)
	}
	return n > 0, nil
}

// MarkSeen records url
func (c *SeenURLCache) MarkSeen(ctx context.Context, url string) error {
	if err := c.client.Set(ctx, c.getKey(url), 1, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to mark url seen: %s", url)
	}
	return nil
}

func (c *SeenURLCache) getKey(url string) string {
	return seenKeyPrefix + url
}
