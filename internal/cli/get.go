package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"redis_basic/internal/cache"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	As string // "raw" | "text" | "int"
}

// GetResult is the outcome of a get command.
type GetResult struct {
	Key   string `json:"key"`
	Found bool   `json:"found"`
	Value any    `json:"value,omitempty"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a stored value",
		Long: `Read the value stored under key, optionally decoding it.

Missing keys print (nil) and are not an error. A value that cannot be decoded
as requested exits with status 1.

Examples:
  redis_basic get 0b6f3c1e-... --as text
  redis_basic get 0b6f3c1e-... --as int`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "raw", "decoding (raw|text|int)")

	return cmd
}

func runGet(ctx context.Context, opts *GetOptions, key string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
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

	var (
		value any
		found bool
	)
	switch opts.As {
	case "raw":
		var raw []byte
		raw, found, err = c.Retrieve(ctx, key)
		value = string(raw)
	case "text":
		value, found, err = c.GetStr(ctx, key)
	case "int":
		value, found, err = c.GetInt(ctx, key)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown decoding %q: must be one of raw, text, int", opts.As))
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}

	result := GetResult{Key: key, Found: found}
	if found {
		result.Value = value
	}

	return writeResult(cmd.OutOrStdout(), opts.Format, result, func(w io.Writer) error {
		if !found {
			fmt.Fprintln(w, "(nil)")
			return nil
		}
		if opts.As == "raw" {
			fmt.Fprintf(w, "%q\n", value)
			return nil
		}
		fmt.Fprintln(w, value)
		return nil
	})
}
