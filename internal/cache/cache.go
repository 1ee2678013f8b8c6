package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/rs/zerolog"
)

const (
	QuoteTTL      = 300 * time.Second
	HistoricalTTL = 3600 * time.Second
)

// Backend is the raw key/value store behind the Cache.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	FlushAll(ctx context.Context) error
	Close() error
}

// PriceKey is the cache key for a current quote.
func PriceKey(ref domain.AssetRef) string {
	n := ref.Normalize()
	return fmt.Sprintf("price:%s:%s", n.Type, n.Symbol)
}

// HistoricalKey is the cache key for a historical series over days.
func HistoricalKey(ref domain.AssetRef, days int) string {
	n := ref.Normalize()
	return fmt.Sprintf("historical:%s:%s:%dd", n.Type, n.Symbol, days)
}

// Cache fronts a Backend. Backend failures are logged and reported as a miss
// or a no-op; they never reach the caller.
type Cache struct {
	backend Backend
	log     zerolog.Logger
}

func New(backend Backend, log zerolog.Logger) *Cache {
	if backend == nil {
		backend = NopBackend{}
	}
	return &Cache{backend: backend, log: log.With().Str("component", "cache").Logger()}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	v, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get error")
		return "", false
	}
	return v, ok
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = QuoteTTL
	}
	if err := c.backend.SetWithTTL(ctx, key, value, ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set error")
	}
}

func (c *Cache) Invalidate(ctx context.Context, key string) {
	if err := c.backend.Delete(ctx, key); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache delete error")
	}
}

func (c *Cache) Flush(ctx context.Context) {
	if err := c.backend.FlushAll(ctx); err != nil {
		c.log.Warn().Err(err).Msg("cache flush error")
	}
}

// GetJSON decodes a cached value into dst. An undecodable entry is a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable, treating as miss")
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode error")
		return
	}
	c.Set(ctx, key, string(data), ttl)
}

func (c *Cache) Close() error {
	return c.backend.Close()
}

// NopBackend never stores anything.
type NopBackend struct{}

func (NopBackend) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopBackend) SetWithTTL(context.Context, string, string, time.Duration) error { return nil }
func (NopBackend) Delete(context.Context, string) error { return nil }
func (NopBackend) FlushAll(context.Context) error { return nil }
func (NopBackend) Close() error { return nil }
