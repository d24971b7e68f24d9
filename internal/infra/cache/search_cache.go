// Package cache decorates the request query side with a short-lived Redis
// cache. Search results tolerate a few seconds of staleness; single-request
// reads do not and always pass through.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bloodconnect/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const searchKeyPrefix = "bloodconnect:search:"

// RedisClient is the slice of the go-redis client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type SearchCache struct {
	inner queries.RequestQueries
	rdb   RedisClient
	ttl   time.Duration
}

func NewSearchCache(inner queries.RequestQueries, rdb RedisClient, ttl time.Duration) queries.RequestQueries {
	return &SearchCache{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *SearchCache) GetByID(ctx context.Context, id uuid.UUID) (*queries.RequestView, error) {
	return c.inner.GetByID(ctx, id)
}

func (c *SearchCache) Search(ctx context.Context, filter queries.SearchFilter, afterCursor string, limit int) (*queries.SearchPage, error) {
	key := searchCacheKey(filter, afterCursor, limit)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var page queries.SearchPage
		if err := json.Unmarshal(raw, &page); err == nil {
			return &page, nil
		}
		// Corrupt entry: fall through and overwrite
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("search cache read failed", "error", err.Error())
	}

	page, err := c.inner.Search(ctx, filter, afterCursor, limit)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(page); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			slog.Warn("search cache write failed", "error", err.Error())
		}
	}
	return page, nil
}

func searchCacheKey(filter queries.SearchFilter, afterCursor string, limit int) string {
	deref := func(p *string) string {
		if p == nil {
			return "\x00"
		}
		return *p
	}
	payload := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d",
		deref(filter.BloodType), deref(filter.City), deref(filter.State),
		deref(filter.Urgency), deref(filter.Status), afterCursor, limit)
	sum := sha256.Sum256([]byte(payload))
	return searchKeyPrefix + hex.EncodeToString(sum[:])
}
