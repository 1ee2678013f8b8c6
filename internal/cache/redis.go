package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisRetryInterval throttles reconnect attempts while Redis is down.
const redisRetryInterval = 30 * time.Second

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

var errRedisUnavailable = errors.New("redis unavailable")

// redisCmdable is the subset of *redis.Client the backend uses.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	FlushAll(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisBackend talks to a Redis server. It connects on first use and, while
// the server is unreachable, reports every call as unavailable.
type RedisBackend struct {
	addr string
	log  zerolog.Logger

	mu          sync.Mutex
	client      redisCmdable
	dialing     bool
	closed      bool
	lastAttempt time.Time
}

func NewRedisBackend(addr string, log zerolog.Logger) *RedisBackend {
	if addr == "" {
		addr = "localhost:6379"
	}
	return &RedisBackend{addr: addr, log: log.With().Str("component", "redis").Logger()}
}

func redisOptions(addr string) (*redis.Options, error) {
	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}
	return opts, nil
}

// conn returns the live client or dials one. Only one caller dials at a
// time; the others see the backend as unavailable until the dial succeeds.
func (b *RedisBackend) conn(ctx context.Context) (redisCmdable, error) {
	b.mu.Lock()
	if b.client != nil {
		c := b.client
		b.mu.Unlock()
		return c, nil
	}
	if b.closed || b.dialing || (!b.lastAttempt.IsZero() && time.Since(b.lastAttempt) < redisRetryInterval) {
		b.mu.Unlock()
		return nil, errRedisUnavailable
	}
	b.dialing = true
	b.lastAttempt = time.Now()
	b.mu.Unlock()

	client, err := b.dial(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialing = false
	if err != nil {
		return nil, err
	}
	if b.closed {
		_ = client.Close()
		return nil, errRedisUnavailable
	}
	b.client = client
	return client, nil
}

func (b *RedisBackend) dial(ctx context.Context) (*redis.Client, error) {
	opts, err := redisOptions(b.addr)
	if err != nil {
		return nil, err
	}
	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	b.log.Info().Str("addr", opts.Addr).Msg("connected to Redis")
	return client, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	c, err := b.conn(ctx)
	if err != nil {
		return "", false, err
	}
	v, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *RedisBackend) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	c, err := b.conn(ctx)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	c, err := b.conn(ctx)
	if err != nil {
		return err
	}
	return c.Del(ctx, key).Err()
}

func (b *RedisBackend) FlushAll(ctx context.Context) error {
	c, err := b.conn(ctx)
	if err != nil {
		return err
	}
	return c.FlushAll(ctx).Err()
}

func (b *RedisBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}
