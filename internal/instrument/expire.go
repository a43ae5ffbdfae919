package instrument

import (
	"context"
	"fmt"
	"time"

	"redis_basic/internal/logger"
)

// ExpiringStore is the part of the key-value store a read-through cache needs.
type ExpiringStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetEX(ctx context.Context, key string, ttl time.Duration, value []byte) error
}

// ExpiringOption configures Expiring.
type ExpiringOption func(*expiringHooks)

type expiringHooks struct {
	onHit  func(key string)
	onMiss func(key string)
}

// OnHit registers a callback run when a cached value is served.
func OnHit(fn func(key string)) ExpiringOption {
	return func(h *expiringHooks) {
		h.onHit = fn
	}
}

// OnMiss registers a callback run before op is invoked on a cache miss.
func OnMiss(fn func(key string)) ExpiringOption {
	return func(h *expiringHooks) {
		h.onMiss = fn
	}
}

// Expiring serves results from the store at key(arg) while they are live.
// On a miss it calls op and stores the result with the given ttl. Hits do
// not refresh the ttl, and failures from op are returned without caching
// anything.
func Expiring[A any](store ExpiringStore, key func(A) string, ttl time.Duration, op Op[A, string], opts ...ExpiringOption) Op[A, string] {
	hooks := &expiringHooks{}
	for _, opt := range opts {
		opt(hooks)
	}

	return func(ctx context.Context, arg A) (string, error) {
		k := key(arg)

		cached, ok, err := store.Get(ctx, k)
		if err != nil {
			return "", fmt.Errorf("lookup %s: %w", k, err)
		}
		if ok {
			logger.Debug().Str("key", k).Msg("cache hit")
			if hooks.onHit != nil {
				hooks.onHit(k)
			}
			return string(cached), nil
		}

		logger.Debug().Str("key", k).Msg("cache miss")
		if hooks.onMiss != nil {
			hooks.onMiss(k)
		}

		content, err := op(ctx, arg)
		if err != nil {
			return "", err
		}

		if err := store.SetEX(ctx, k, ttl, []byte(content)); err != nil {
			return "", fmt.Errorf("store %s: %w", k, err)
		}
		return content, nil
	}
}
