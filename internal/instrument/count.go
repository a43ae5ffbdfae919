package instrument

import (
	"context"
	"fmt"

	"redis_basic/internal/logger"
	"redis_basic/internal/storage"
)

// CountInvocations increments the counter at identity before every call to op.
// Failed calls are counted too: the counter reflects attempts. When the
// increment itself fails op is not invoked and the store error is returned.
func CountInvocations[A, R any](store storage.Counter, identity string, op Op[A, R]) Op[A, R] {
	return CountBy(store, func(A) string { return identity }, op)
}

// CountBy is CountInvocations with the counter key derived from the argument,
// e.g. one counter per requested URL.
func CountBy[A, R any](store storage.Counter, key func(A) string, op Op[A, R]) Op[A, R] {
	return func(ctx context.Context, arg A) (R, error) {
		k := key(arg)
		n, err := store.Incr(ctx, k)
		if err != nil {
			var zero R
			return zero, fmt.Errorf("count %s: %w", k, err)
		}

		logger.Debug().Str("key", k).Int64("count", n).Msg("invocation counted")

		return op(ctx, arg)
	}
}

// Counted returns CountInvocations as a Wrapper for use with Chain.
func Counted[A, R any](store storage.Counter, identity string) Wrapper[A, R] {
	return func(op Op[A, R]) Op[A, R] {
		return CountInvocations(store, identity, op)
	}
}
