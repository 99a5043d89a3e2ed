package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/docent/logging"
)

// RedisConfig configures the shared Redis cache backend.
type RedisConfig struct {
	URL          string `split_words:"true"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"3"`
	DialTimeout  int    `split_words:"true" default:"5"`
}

// NewClient builds a Redis client from the config and verifies connectivity.
func (r *RedisConfig) NewClient() (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, err
	}

	opts.ReadTimeout = time.Duration(r.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(r.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(r.DialTimeout) * time.Second

	client := redis.NewClient(opts)

	if cmd := client.Ping(context.Background()); cmd.Err() != nil {
		return nil, cmd.Err()
	}

	return client, nil
}

// Redis is a cache backed by a shared Redis instance so multiple docent
// processes can deduplicate work. Errors degrade to misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// RedisOption customizes a Redis cache.
type RedisOption func(*Redis)

// WithRedisLogger sets the logger used for degraded operations.
func WithRedisLogger(logger logging.Logger) RedisOption {
	return func(r *Redis) { r.logger = logger }
}

// NewRedis wraps an existing client as a Cache with per-entry ttl.
func NewRedis(client *redis.Client, ttl time.Duration, optFns ...RedisOption) *Redis {
	r := &Redis{client: client, ttl: ttl, logger: logging.NewNoOpLogger()}
	for _, fn := range optFns {
		fn(r)
	}
	return r
}

// Get returns the cached value for key. Connectivity errors are logged and
// reported as misses.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Put stores value under key. Write errors are logged and dropped.
func (r *Redis) Put(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		r.logger.Warn("redis cache write failed", "key", key, "error", err)
	}
}
