package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"redis_basic/internal/cache"
)

// StoreOptions holds flags for the store command.
type StoreOptions struct {
	*RootOptions
	Type string // "string" | "bytes" | "int" | "float"
}

// StoreResult is the outcome of a store command.
type StoreResult struct {
	Key   string `json:"key"`
	Calls int64  `json:"calls"`
}

// NewStoreCommand creates the store command.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "store <value>",
		Short: "Store a value under a new random key",
		Long: `Store a value under a new random key and print the key.

The call is counted under Cache.store and its input and output are appended
to the call history. Existing data is kept.

Examples:
  redis_basic store hello
  redis_basic store 42 --type int`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "string", "value type (string|bytes|int|float)")

	return cmd
}

func runStore(ctx context.Context, opts *StoreOptions, raw string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	value, err := parseValue(raw, opts.Type)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid value", err)
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := cache.New(ctx, st, cache.WithoutFlush())
	if err != nil {
		return err
	}

	key, err := c.Store(ctx, value)
	if err != nil {
		return fmt.Errorf("store failed: %w", err)
	}

	calls, err := c.Calls(ctx)
	if err != nil {
		return err
	}

	result := StoreResult{Key: key, Calls: calls}
	return writeResult(cmd.OutOrStdout(), opts.Format, result, func(w io.Writer) error {
		fmt.Fprintln(w, key)
		if opts.Verbose {
			fmt.Fprintf(w, "%s called %d times\n", cache.StoreIdentity, calls)
		}
		return nil
	})
}

// parseValue converts the command-line value to the Go type named by typ.
func parseValue(raw, typ string) (any, error) {
	switch typ {
	case "string", "":
		return raw, nil
	case "bytes":
		return []byte(raw), nil
	case "int":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", raw)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("not a float: %q", raw)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown type %q: must be one of string, bytes, int, float", typ)
	}
}
