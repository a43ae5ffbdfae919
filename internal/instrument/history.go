package instrument

import (
	"context"
	"fmt"

	"redis_basic/internal/logger"
	"redis_basic/internal/storage"
)

// RecordHistory appends the serialized argument to <identity>:inputs before
// calling op and the serialized result to <identity>:outputs after op
// returns successfully. A failed call leaves its input entry in place and
// appends no output, so the two logs only stay index-aligned across
// successful calls.
func RecordHistory[A, R any](store storage.Appender, identity string, op Op[A, R]) Op[A, R] {
	inputsKey := InputsKey(identity)
	outputsKey := OutputsKey(identity)

	return func(ctx context.Context, arg A) (R, error) {
		var zero R

		input, err := SerializeArgs(arg)
		if err != nil {
			return zero, fmt.Errorf("%s: %w", identity, err)
		}
		if err := store.RPush(ctx, inputsKey, []byte(input)); err != nil {
			return zero, fmt.Errorf("record %s: %w", inputsKey, err)
		}

		result, err := op(ctx, arg)
		if err != nil {
			logger.Debug().Str("identity", identity).Err(err).Msg("call failed, output not recorded")
			return zero, err
		}

		output, err := SerializeResult(result)
		if err != nil {
			return zero, fmt.Errorf("%s: %w", identity, err)
		}
		if err := store.RPush(ctx, outputsKey, []byte(output)); err != nil {
			return zero, fmt.Errorf("record %s: %w", outputsKey, err)
		}

		return result, nil
	}
}

// Recorded returns RecordHistory as a Wrapper for use with Chain.
func Recorded[A, R any](store storage.Appender, identity string) Wrapper[A, R] {
	return func(op Op[A, R]) Op[A, R] {
		return RecordHistory(store, identity, op)
	}
}
