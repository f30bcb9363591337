package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "screening:resume-text:"

// CachedFetcher keeps extracted resume text in redis. Cache errors are
// logged and never fail a fetch.
type CachedFetcher struct {
	next   Fetcher
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewCachedFetcher(next Fetcher, client redis.UniversalClient, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    zap.S().Named("content_cache"),
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, ref string) (string, error) {
	key := cacheKey(ref)

	text, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil && text != "":
		return text, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.log.Warnw("failed to read resume text from cache", "ref", ref, "error", err)
	}

	text, err = c.next.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, text, c.ttl).Err(); err != nil {
		c.log.Warnw("failed to cache resume text", "ref", ref, "error", err)
	}
	return text, nil
}

// Invalidate drops the cached text of ref.
func (c *CachedFetcher) Invalidate(ctx context.Context, ref string) error {
	return c.client.Del(ctx, cacheKey(ref)).Err()
}

func cacheKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
