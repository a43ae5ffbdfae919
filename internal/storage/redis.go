package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const flushScanBatch = 256

// RedisStore implements KeyValueStore on a Redis server.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix namespaces every key under prefix. FlushAll then only removes
// keys carrying the prefix instead of the whole database.
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// NewRedisStore parses redisURL, connects and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, opts ...RedisOption) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(options)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", classify(err))
	}

	return NewRedisStoreFromClient(client, opts...), nil
}

// NewRedisStoreFromClient wraps an existing client. The store takes ownership
// and closes the client on Close.
func NewRedisStoreFromClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	r := &RedisStore{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// key applies the configured namespace prefix
func (r *RedisStore) key(key string) string {
	return r.prefix + key
}

// Get retrieves the raw value at key
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, classify(err))
	}
	return data, true, nil
}

// Set stores value without expiration
func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, classify(err))
	}
	return nil
}

// SetEX stores value with TTL
func (r *RedisStore) SetEX(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if err := r.client.SetEx(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to setex %s: %w", key, classify(err))
	}
	return nil
}

// Incr increments the counter at key
func (r *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, r.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to incr %s: %w", key, classify(err))
	}
	return n, nil
}

// RPush appends value to the list at key
func (r *RedisStore) RPush(ctx context.Context, key string, value []byte) error {
	if err := r.client.RPush(ctx, r.key(key), value).Err(); err != nil {
		return fmt.Errorf("failed to rpush %s: %w", key, classify(err))
	}
	return nil
}

// LRange reads a slice of the list at key
func (r *RedisStore) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	items, err := r.client.LRange(ctx, r.key(key), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lrange %s: %w", key, classify(err))
	}

	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = []byte(item)
	}
	return out, nil
}

// FlushAll clears the selected database, or only the prefixed keys when a
// prefix is configured.
func (r *RedisStore) FlushAll(ctx context.Context) error {
	if r.prefix == "" {
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			return fmt.Errorf("failed to flush database: %w", classify(err))
		}
		return nil
	}

	iter := r.client.Scan(ctx, 0, r.prefix+"*", flushScanBatch).Iterator()
	batch := make([]string, 0, flushScanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == flushScanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to flush prefix %s: %w", r.prefix, classify(err))
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan prefix %s: %w", r.prefix, classify(err))
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to flush prefix %s: %w", r.prefix, classify(err))
		}
	}
	return nil
}

// Ping tests Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return classify(err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// classify maps server replies onto the storage sentinels and marks every
// other failure, apart from context cancellation, as the store being
// unreachable. The underlying error stays in the chain.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var reply redis.Error
	if errors.As(err, &reply) {
		msg := reply.Error()
		switch {
		case strings.HasPrefix(msg, "WRONGTYPE"):
			return fmt.Errorf("%w: %w", ErrWrongType, err)
		case strings.Contains(msg, "not an integer"):
			return fmt.Errorf("%w: %w", ErrNotInteger, err)
		}
		return err
	}

	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
