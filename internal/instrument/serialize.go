package instrument

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// canonical encodes with sorted map keys and without HTML escaping so the
// same value always produces the same log entry.
var canonical = sonic.Config{
	SortMapKeys:    true,
	ValidateString: true,
}.Froze()

// SerializeArgs renders positional arguments as a JSON array, e.g. ["hello",42].
func SerializeArgs(args ...any) (string, error) {
	normalized := make([]any, len(args))
	for i, arg := range args {
		normalized[i] = normalize(arg)
	}

	data, err := canonical.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("serialize arguments: %w", err)
	}
	return string(data), nil
}

// SerializeResult renders a single result as a JSON value.
func SerializeResult(v any) (string, error) {
	data, err := canonical.Marshal(normalize(v))
	if err != nil {
		return "", fmt.Errorf("serialize result: %w", err)
	}
	return string(data), nil
}

// normalize shows byte slices as text instead of base64.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
