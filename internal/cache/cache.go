// Package cache stores arbitrary values under random keys in a key-value
// store. Every Store call is counted and recorded in the call history.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"

	"redis_basic/internal/instrument"
	"redis_basic/internal/logger"
	"redis_basic/internal/storage"
)

// StoreIdentity names the Store operation in counters and history logs.
const StoreIdentity = "Cache.store"

// ErrDecode wraps failures of a decode function applied by Get.
var ErrDecode = errors.New("decode failed")

// Cache writes values under fresh UUID keys.
type Cache struct {
	store storage.KeyValueStore
	put   instrument.Op[any, string]
	flush bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithoutFlush keeps existing data when the Cache is created.
func WithoutFlush() Option {
	return func(c *Cache) {
		c.flush = false
	}
}

// New creates a Cache over store. The store is flushed unless WithoutFlush
// is given.
func New(ctx context.Context, store storage.KeyValueStore, opts ...Option) (*Cache, error) {
	c := &Cache{store: store, flush: true}
	for _, opt := range opts {
		opt(c)
	}

	if c.flush {
		if err := store.FlushAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to flush store: %w", err)
		}
	}

	c.put = instrument.Chain(c.write,
		instrument.Counted[any, string](store, StoreIdentity),
		instrument.Recorded[any, string](store, StoreIdentity),
	)

	return c, nil
}

// Store writes data under a new random key and returns the key. data must
// be a string, []byte, integer or float.
func (c *Cache) Store(ctx context.Context, data any) (string, error) {
	return c.put(ctx, data)
}

// write is the uninstrumented Store.
func (c *Cache) write(ctx context.Context, data any) (string, error) {
	value, err := storage.EncodeValue(data)
	if err != nil {
		return "", err
	}

	key := uuid.New().String()
	if err := c.store.Set(ctx, key, value); err != nil {
		return "", err
	}

	logger.Debug().Str("key", key).Int("bytes", len(value)).Msg("value stored")
	return key, nil
}

// Retrieve returns the raw bytes at key. ok is false when the key is absent;
// absence is not an error.
func (c *Cache) Retrieve(ctx context.Context, key string) ([]byte, bool, error) {
	return c.store.Get(ctx, key)
}

// Get retrieves key and converts it with decode. decode is only called when
// a value is present. A nil decode returns the raw bytes, which requires T
// to be []byte.
func Get[T any](ctx context.Context, c *Cache, key string, decode func([]byte) (T, error)) (T, bool, error) {
	var zero T

	raw, ok, err := c.Retrieve(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	if decode == nil {
		v, ok := any(raw).(T)
		if !ok {
			return zero, true, fmt.Errorf("%w: no decode function for %T", ErrDecode, zero)
		}
		return v, true, nil
	}

	v, err := decode(raw)
	if err != nil {
		if !errors.Is(err, ErrDecode) {
			err = fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return zero, true, err
	}
	return v, true, nil
}

// GetStr retrieves key as UTF-8 text.
func (c *Cache) GetStr(ctx context.Context, key string) (string, bool, error) {
	return Get(ctx, c, key, DecodeText)
}

// GetInt retrieves key as a base-10 integer.
func (c *Cache) GetInt(ctx context.Context, key string) (int, bool, error) {
	return Get(ctx, c, key, DecodeInt)
}

// Calls reports how many times Store has been invoked.
func (c *Cache) Calls(ctx context.Context) (int64, error) {
	n, ok, err := Get(ctx, c, StoreIdentity, DecodeInt64)
	if err != nil || !ok {
		return 0, err
	}
	return n, nil
}

// DecodeText interprets raw as UTF-8.
func DecodeText(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrDecode)
	}
	return string(raw), nil
}

// DecodeInt parses raw as a base-10 int.
func DecodeInt(raw []byte) (int, error) {
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return n, nil
}

// DecodeInt64 parses raw as a base-10 int64.
func DecodeInt64(raw []byte) (int64, error) {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return n, nil
}

// DecodeFloat parses raw as a float64.
func DecodeFloat(raw []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return f, nil
}
