package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redis_basic/internal/instrument"
	"redis_basic/internal/storage"
)

// backends runs fn against every KeyValueStore implementation.
func backends(t *testing.T, fn func(t *testing.T, store storage.KeyValueStore)) {
	t.Run("memory", func(t *testing.T) {
		store := storage.NewMemoryStore()
		t.Cleanup(func() { _ = store.Close() })
		fn(t, store)
	})
	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store := storage.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		t.Cleanup(func() { _ = store.Close() })
		fn(t, store)
	})
}

func newCache(t *testing.T, store storage.KeyValueStore) *Cache {
	t.Helper()
	c, err := New(context.Background(), store)
	require.NoError(t, err)
	return c
}

func TestNew_FlushesStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "stale", []byte("x")))

	newCache(t, store)

	_, ok, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_WithoutFlushKeepsData(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "kept", []byte("x")))

	_, err := New(ctx, store, WithoutFlush())
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_RoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, store storage.KeyValueStore) {
		ctx := context.Background()
		c := newCache(t, store)

		tests := []struct {
			name string
			data any
			want []byte
		}{
			{"text", "hello", []byte("hello")},
			{"bytes", []byte{0x00, 0x7f, 0xff}, []byte{0x00, 0x7f, 0xff}},
			{"integer", 42, []byte("42")},
			{"float", 3.14, []byte("3.14")},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				key, err := c.Store(ctx, tt.data)
				require.NoError(t, err)

				_, err = uuid.Parse(key)
				assert.NoError(t, err, "key should be a UUID")

				got, ok, err := c.Retrieve(ctx, key)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, tt.want, got)
			})
		}
	})
}

func TestStore_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, storage.NewMemoryStore())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := c.Store(ctx, i)
		require.NoError(t, err)
		require.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestStore_UnsupportedType(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := newCache(t, store)

	_, err := c.Store(ctx, map[string]int{"a": 1})
	assert.ErrorIs(t, err, storage.ErrUnsupportedValue)

	// the attempt is still counted and its input logged
	calls, err := c.Calls(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls)

	outputs, err := store.LRange(ctx, instrument.OutputsKey(StoreIdentity), 0, -1)
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestStore_CountsAndHistory(t *testing.T) {
	backends(t, func(t *testing.T, store storage.KeyValueStore) {
		ctx := context.Background()
		c := newCache(t, store)

		inputs := []any{"first", []byte("second"), 3}
		keys := make([]string, len(inputs))
		for i, data := range inputs {
			key, err := c.Store(ctx, data)
			require.NoError(t, err)
			keys[i] = key
		}

		calls, err := c.Calls(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(len(inputs)), calls)

		loggedInputs, err := store.LRange(ctx, instrument.InputsKey(StoreIdentity), 0, -1)
		require.NoError(t, err)
		loggedOutputs, err := store.LRange(ctx, instrument.OutputsKey(StoreIdentity), 0, -1)
		require.NoError(t, err)

		require.Len(t, loggedInputs, len(inputs))
		require.Len(t, loggedOutputs, len(inputs))

		assert.Equal(t, `["first"]`, string(loggedInputs[0]))
		assert.Equal(t, `["second"]`, string(loggedInputs[1]))
		assert.Equal(t, `[3]`, string(loggedInputs[2]))
		for i, key := range keys {
			assert.Equal(t, fmt.Sprintf("%q", key), string(loggedOutputs[i]))
		}
	})
}

func TestCalls_ZeroBeforeFirstStore(t *testing.T) {
	c := newCache(t, storage.NewMemoryStore())
	calls, err := c.Calls(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), calls)
}

func TestRetrieve_Missing(t *testing.T) {
	backends(t, func(t *testing.T, store storage.KeyValueStore) {
		ctx := context.Background()
		c := newCache(t, store)

		raw, ok, err := c.Retrieve(ctx, "never-stored")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, raw)

		called := false
		v, ok, err := Get(ctx, c, "never-stored", func(b []byte) (int, error) {
			called = true
			return len(b), nil
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, v)
		assert.False(t, called, "decode must not run on an absent value")
	})
}

func TestGetStrAndGetInt(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, storage.NewMemoryStore())

	textKey, err := c.Store(ctx, "hello")
	require.NoError(t, err)
	intKey, err := c.Store(ctx, "42")
	require.NoError(t, err)

	s, ok, err := c.GetStr(ctx, textKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	n, ok, err := c.GetInt(ctx, intKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok, err = c.GetInt(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_CustomDecode(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, storage.NewMemoryStore())

	key, err := c.Store(ctx, 2.5)
	require.NoError(t, err)

	f, ok, err := Get(ctx, c, key, DecodeFloat)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.5, f)

	raw, ok, err := Get[[]byte](ctx, c, key, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("2.5"), raw)
}

func TestGet_DecodeFailurePropagates(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, storage.NewMemoryStore())

	textKey, err := c.Store(ctx, "not a number")
	require.NoError(t, err)
	binKey, err := c.Store(ctx, []byte{0xff, 0xfe})
	require.NoError(t, err)

	_, ok, err := c.GetInt(ctx, textKey)
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrDecode)

	_, ok, err = c.GetStr(ctx, binKey)
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrDecode)

	_, _, err = Get(ctx, c, textKey, func([]byte) (bool, error) {
		return false, fmt.Errorf("custom failure")
	})
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "custom failure")
}

func TestStore_UnavailableStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := storage.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	defer store.Close()

	c := newCache(t, store)
	mr.Close()

	_, err := c.Store(ctx, "x")
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)

	_, _, err = c.Retrieve(ctx, "x")
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
}
