// Package storage provides the key-value store that every cache component
// persists into. Backends perform I/O on each call and keep no state of
// their own beyond the connection or the in-memory keyspace.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// KeyValueStore is the storage contract shared by the instrumentation layer,
// the object cache and the web cache. Every operation is atomic per key;
// no multi-key transactions are offered.
type KeyValueStore interface {
	// Get returns the value at key. A missing or expired key yields ok == false
	// and a nil error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set writes value at key without expiration.
	Set(ctx context.Context, key string, value []byte) error
	// SetEX writes value at key and expires it after ttl.
	SetEX(ctx context.Context, key string, ttl time.Duration, value []byte) error
	// Incr increments the integer at key, creating it at 0 first if absent.
	Incr(ctx context.Context, key string) (int64, error)
	// RPush appends value to the list at key.
	RPush(ctx context.Context, key string, value []byte) error
	// LRange returns list entries between start and stop inclusive. Negative
	// indexes count from the end, so LRange(ctx, key, 0, -1) is the whole list.
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	// FlushAll removes every key in the store's namespace.
	FlushAll(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Counter is the subset of KeyValueStore used for invocation counting.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// Appender is the subset of KeyValueStore used for history logs.
type Appender interface {
	RPush(ctx context.Context, key string, value []byte) error
}

// ListReader reads history logs back.
type ListReader interface {
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}

// EncodeValue converts supported data into the bytes written to the store.
// Integers are written in base 10 and floats in their shortest exact form,
// matching how Redis clients format numeric arguments.
func EncodeValue(data any) ([]byte, error) {
	switch v := data.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case int:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int64:
		return strconv.AppendInt(nil, v, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint64:
		return strconv.AppendUint(nil, v, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, data)
	}
}
