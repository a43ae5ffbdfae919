// Package replay renders the call history recorded by instrument.RecordHistory.
package replay

import (
	"context"
	"fmt"
	"io"
	"strings"

	"redis_basic/internal/instrument"
	"redis_basic/internal/storage"
)

// Call pairs one recorded input with its output.
type Call struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Report is the history of one operation.
type Report struct {
	Identity string `json:"identity"`
	// Calls is the number of recorded inputs, which includes failed attempts.
	Calls   int    `json:"calls"`
	Entries []Call `json:"entries"`
}

// Replay reads the input and output logs for identity. Logs of different
// lengths are paired up to the shorter one.
func Replay(ctx context.Context, store storage.ListReader, identity string) (*Report, error) {
	inputs, err := store.LRange(ctx, instrument.InputsKey(identity), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs of %s: %w", identity, err)
	}
	outputs, err := store.LRange(ctx, instrument.OutputsKey(identity), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to read outputs of %s: %w", identity, err)
	}

	n := min(len(inputs), len(outputs))
	report := &Report{
		Identity: identity,
		Calls:    len(inputs),
		Entries:  make([]Call, n),
	}
	for i := 0; i < n; i++ {
		report.Entries[i] = Call{
			Input:  string(inputs[i]),
			Output: string(outputs[i]),
		}
	}

	return report, nil
}

// Render writes the report in the human-readable form:
//
//	Cache.store was called 2 times:
//	Cache.store("foo") -> "2d1f..."
func (r *Report) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s was called %d times:\n", r.Identity, r.Calls); err != nil {
		return err
	}
	for _, call := range r.Entries {
		if _, err := fmt.Fprintf(w, "%s(%s) -> %s\n", r.Identity, argList(call.Input), call.Output); err != nil {
			return err
		}
	}
	return nil
}

// String returns the rendered report.
func (r *Report) String() string {
	var b strings.Builder
	_ = r.Render(&b)
	return b.String()
}

// argList strips the brackets of a serialized argument array.
func argList(input string) string {
	if len(input) >= 2 && input[0] == '[' && input[len(input)-1] == ']' {
		return input[1 : len(input)-1]
	}
	return input
}
