// Package cache provides a Redis read-through cache for aggregate audit
// views such as per-agent activity and the dashboard summary.
//
// A nil *Cache is valid and disables caching. Redis failures never fail a
// read: they are logged and the loader is called directly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 15 * time.Second

// DefaultPrefix namespaces every key.
const DefaultPrefix = "agentguard:"

// Config configures the Redis connection.
type Config struct {
	URL    string        `yaml:"redis_url"`
	TTL    time.Duration `yaml:"ttl"`
	Prefix string        `yaml:"prefix"`
}

// Observer is told the outcome of every Fetch lookup.
type Observer interface {
	ObserveCache(name string, hit bool)
}

// Cache stores JSON-encoded values in Redis with a fixed TTL.
type Cache struct {
	client   redis.Cmdable
	closer   func() error
	ttl      time.Duration
	prefix   string
	observer Observer
	logger   *slog.Logger
}

// New connects to the Redis server at cfg.URL and verifies it with PING.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := NewWithClient(client, cfg.TTL, cfg.Prefix)
	c.closer = client.Close
	return c, nil
}

// NewWithClient wraps an existing client. The caller keeps ownership of it.
func NewWithClient(client redis.Cmdable, ttl time.Duration, prefix string) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: slog.Default().With("component", "cache"),
	}
}

// SetObserver installs o. Call before the cache is shared.
func (c *Cache) SetObserver(o Observer) {
	if c != nil {
		c.observer = o
	}
}

// Get decodes the cached value for key into dst. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

// Invalidate removes keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client when the cache created it.
func (c *Cache) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer()
}

// Fetch returns the cached value for key, calling load and caching its
// result on a miss.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if c.observer != nil {
		c.observer.ObserveCache(cacheName(key), hit)
	}
	if hit {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// cacheName is the key up to its first ':', which keeps metric labels
// bounded when keys embed agent IDs.
func cacheName(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
