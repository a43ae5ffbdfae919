package storage

import "errors"

// Sentinel errors for store operations. A missing key is not an error.
var (
	// ErrStoreUnavailable marks failures to reach the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrWrongType is returned when a list operation hits a plain value or
	// the other way round.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
	// ErrNotInteger is returned by Incr when the stored value is not an integer.
	ErrNotInteger = errors.New("value is not an integer or out of range")
	// ErrUnsupportedValue is returned when data cannot be encoded for storage.
	ErrUnsupportedValue = errors.New("unsupported value type")
)
