package storage

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

/*
MemoryStore is an in-process KeyValueStore with Redis-like semantics.

Expiration is handled two ways:

 1. Lazily: every read checks the entry deadline and drops expired entries.
 2. Actively: when a cleanup interval is configured, a janitor goroutine
    periodically removes expired entries that are never read again.

A single mutex serializes all operations, which gives the per-key atomicity
the cache components rely on.
*/
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*entry
	clock    clockwork.Clock
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// entry holds either a plain value or a list, never both.
type entry struct {
	value      []byte
	list       [][]byte
	isList     bool
	expiration time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiration.IsZero() && !now.Before(e.expiration)
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the time source used for expiry.
func WithClock(clock clockwork.Clock) MemoryOption {
	return func(m *MemoryStore) {
		m.clock = clock
	}
}

// WithCleanupInterval starts a janitor that removes expired entries every d.
// With d <= 0 expiry is purely lazy.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		m.interval = d
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries:  make(map[string]*entry),
		clock:    clockwork.NewRealClock(),
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.startJanitor()

	return m
}

// lookup returns the live entry at key, dropping it if expired. Caller holds mu.
func (m *MemoryStore) lookup(key string) (*entry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(m.clock.Now()) {
		delete(m.entries, key)
		return nil, false
	}
	return e, true
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.isList {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, ErrWrongType)
	}
	return slices.Clone(e.value), true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	return m.set(ctx, key, value, 0)
}

func (m *MemoryStore) SetEX(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return fmt.Errorf("failed to setex %s: invalid expire time %s", key, ttl)
	}
	return m.set(ctx, key, value, ttl)
}

func (m *MemoryStore) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expiration = m.clock.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Incr keeps the remaining TTL of an existing key, as Redis does.
func (m *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		m.entries[key] = &entry{value: []byte("1")}
		return 1, nil
	}
	if e.isList {
		return 0, fmt.Errorf("failed to incr %s: %w", key, ErrWrongType)
	}

	n, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to incr %s: %w", key, ErrNotInteger)
	}
	if n == math.MaxInt64 {
		return 0, fmt.Errorf("failed to incr %s: %w", key, ErrNotInteger)
	}
	n++
	e.value = strconv.AppendInt(nil, n, 10)
	return n, nil
}

func (m *MemoryStore) RPush(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		e = &entry{isList: true}
		m.entries[key] = e
	}
	if !e.isList {
		return fmt.Errorf("failed to rpush %s: %w", key, ErrWrongType)
	}
	e.list = append(e.list, slices.Clone(value))
	return nil
}

func (m *MemoryStore) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return [][]byte{}, nil
	}
	if !e.isList {
		return nil, fmt.Errorf("failed to lrange %s: %w", key, ErrWrongType)
	}

	lo, hi, ok := listBounds(int64(len(e.list)), start, stop)
	if !ok {
		return [][]byte{}, nil
	}

	out := make([][]byte, 0, hi-lo+1)
	for _, item := range e.list[lo : hi+1] {
		out = append(out, slices.Clone(item))
	}
	return out, nil
}

// listBounds resolves Redis-style inclusive indexes against a list of length n.
func listBounds(n, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

func (m *MemoryStore) FlushAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.entries = make(map[string]*entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close stops the janitor. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	return nil
}

// Len reports the number of live entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	n := 0
	for _, e := range m.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (m *MemoryStore) startJanitor() {
	if m.interval <= 0 {
		return
	}

	ticker := m.clock.NewTicker(m.interval)

	go func() {
		for {
			select {
			case <-ticker.Chan():
				m.deleteExpired()
			case <-m.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

func (m *MemoryStore) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}

// rawLen counts entries including expired ones not yet collected.
func (m *MemoryStore) rawLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
