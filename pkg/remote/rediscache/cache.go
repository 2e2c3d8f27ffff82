// Package rediscache wraps remote searchers with a Redis read-through
// cache. Search-as-you-type fires the same remote queries over and over
// across sessions, and the result sets tolerate short staleness, so a TTL
// cache cuts most of the backend load.
//
// Cache failures never fail a search: on any Redis error the wrapper falls
// through to the inner searcher.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/commercekit/chrome/pkg/search"
)

const defaultTTL = 5 * time.Minute

// Config holds Redis connection settings.
type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// NewClient creates a Redis client from config.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// MerchantCache is a read-through cache in front of a MerchantSearcher.
type MerchantCache struct {
	inner  search.MerchantSearcher
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewMerchantCache wraps inner with a TTL cache. A zero ttl uses the
// default.
func NewMerchantCache(inner search.MerchantSearcher, client *redis.Client, ttl time.Duration, logger *zap.Logger) *MerchantCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MerchantCache{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *MerchantCache) SearchMerchants(ctx context.Context, query string) ([]search.Result, error) {
	key := cacheKey("merchants", query)
	if cached, ok := c.lookup(ctx, key); ok {
		return cached, nil
	}
	results, err := c.inner.SearchMerchants(ctx, query)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, results)
	return results, nil
}

func (c *MerchantCache) lookup(ctx context.Context, key string) ([]search.Result, bool) {
	return lookup(ctx, c.client, key, c.logger)
}

func (c *MerchantCache) store(ctx context.Context, key string, results []search.Result) {
	store(ctx, c.client, key, results, c.ttl, c.logger)
}

// HelpCenterCache is a read-through cache in front of a
// HelpCenterSearcher. The locale is part of the key.
type HelpCenterCache struct {
	inner  search.HelpCenterSearcher
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewHelpCenterCache wraps inner with a TTL cache. A zero ttl uses the
// default.
func NewHelpCenterCache(inner search.HelpCenterSearcher, client *redis.Client, ttl time.Duration, logger *zap.Logger) *HelpCenterCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HelpCenterCache{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *HelpCenterCache) SearchArticles(ctx context.Context, query, locale string) ([]search.Result, error) {
	key := cacheKey("articles", locale, query)
	if cached, ok := lookup(ctx, c.client, key, c.logger); ok {
		return cached, nil
	}
	results, err := c.inner.SearchArticles(ctx, query, locale)
	if err != nil {
		return nil, err
	}
	store(ctx, c.client, key, results, c.ttl, c.logger)
	return results, nil
}

func cacheKey(parts ...string) string {
	return "chrome:search:" + strings.Join(parts, ":")
}

func lookup(ctx context.Context, client *redis.Client, key string, logger *zap.Logger) ([]search.Result, bool) {
	raw, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	var results []search.Result
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return results, true
}

func store(ctx context.Context, client *redis.Client, key string, results []search.Result, ttl time.Duration, logger *zap.Logger) {
	raw, err := json.Marshal(results)
	if err != nil {
		logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := client.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Warn(fmt.Sprintf("cache store failed for %s", key), zap.Error(err))
	}
}
