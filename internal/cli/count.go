package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// CountResult is the outcome of a count command.
type CountResult struct {
	URL   string `json:"url"`
	Count int64  `json:"count"`
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <url>",
		Short: "Print how many times a URL was requested",
		Long: `Print the access counter of a URL. Every fetch counts, whether it
was served from the cache or not. A URL never fetched reports 0.

Example:
  redis_basic count http://example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd.Context(), rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCount(ctx context.Context, opts *RootOptions, url string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	pages, err := newWebCache(st, opts)
	if err != nil {
		return err
	}

	count, err := pages.Count(ctx, url)
	if err != nil {
		return err
	}

	result := CountResult{URL: url, Count: count}
	return writeResult(cmd.OutOrStdout(), opts.Format, result, func(w io.Writer) error {
		fmt.Fprintln(w, count)
		return nil
	})
}
