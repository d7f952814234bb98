// Package cache is a Redis-backed cache for search results, keyed on the
// normalised query plus result limit. Concurrent misses for the same key
// are collapsed with singleflight so the engine computes each result once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/docsift/docsift/internal/engine/query"
	"github.com/docsift/docsift/internal/engine/tokenizer"
	"github.com/docsift/docsift/pkg/config"
	pkgredis "github.com/docsift/docsift/pkg/redis"
)

const keyPrefix = "search:"

// QueryCache caches ranked search results in Redis with a configurable TTL.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache over an open Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached results for a query, if present.
func (c *QueryCache) Get(ctx context.Context, q string, limit int) ([]query.Result, bool) {
	key := c.buildKey(q, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var results []query.Result
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return results, true
}

// Set stores results for a query with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, q string, limit int, results []query.Result) {
	key := c.buildKey(q, limit)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results or computes and caches them,
// collapsing concurrent computations of the same key. The boolean reports
// whether the call was served from cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	q string,
	limit int,
	computeFn func() ([]query.Result, error),
) ([]query.Result, bool, error) {
	if results, ok := c.Get(ctx, q, limit); ok {
		return results, true, nil
	}
	key := c.buildKey(q, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.Get(ctx, q, limit); ok {
			return results, nil
		}
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, q, limit, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]query.Result), false, nil
}

// Invalidate drops every cached search result. Called after the active
// snapshot is swapped.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns lifetime hit and miss counts.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the tokenised query and limit. Tokenising first means
// queries differing only in case or punctuation share a cache entry, since
// they produce identical results anyway. Token order and repetition are
// kept: both affect scoring.
func (c *QueryCache) buildKey(q string, limit int) string {
	terms := tokenizer.Tokenize(q)
	raw := fmt.Sprintf("%s|limit=%d", strings.Join(terms, " "), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
