package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"redis_basic/internal/storage"
	"redis_basic/internal/web"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Repeat int
	Body   bool
}

// FetchAttempt is one Fetch through the web cache.
type FetchAttempt struct {
	Bytes int    `json:"bytes"`
	Count int64  `json:"count"`
	Body  string `json:"body,omitempty"`
}

// FetchResult is the outcome of a fetch command.
type FetchResult struct {
	URL      string         `json:"url"`
	Attempts []FetchAttempt `json:"attempts"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a page through the TTL cache",
		Long: `Fetch a page through the TTL web cache and print its size and
access count. The page is cached under cache:<url> for the configured TTL
(10s by default); every request increments count:<url>.

Examples:
  redis_basic fetch http://example.com
  redis_basic fetch http://example.com --repeat 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Repeat, "repeat", "n", 1, "number of requests to make")
	cmd.Flags().BoolVar(&opts.Body, "body", false, "print the page content")

	return cmd
}

func runFetch(ctx context.Context, opts *FetchOptions, url string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Repeat < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--repeat must be at least 1, got %d", opts.Repeat))
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	pages, err := newWebCache(st, opts.RootOptions)
	if err != nil {
		return err
	}

	result := FetchResult{URL: url}
	for i := 0; i < opts.Repeat; i++ {
		content, err := pages.Fetch(ctx, url)
		if err != nil {
			return WrapExitError(ExitFailure, "fetch failed", err)
		}

		count, err := pages.Count(ctx, url)
		if err != nil {
			return err
		}

		attempt := FetchAttempt{Bytes: len(content), Count: count}
		if opts.Body {
			attempt.Body = content
		}
		result.Attempts = append(result.Attempts, attempt)
	}

	return writeResult(cmd.OutOrStdout(), opts.Format, result, func(w io.Writer) error {
		for _, a := range result.Attempts {
			fmt.Fprintf(w, "%s: %d bytes, accessed %d times\n", url, a.Bytes, a.Count)
			if opts.Body {
				fmt.Fprintln(w, a.Body)
			}
		}
		return nil
	})
}

// newWebCache builds the web cache from the resolved configuration.
func newWebCache(st storage.KeyValueStore, opts *RootOptions) (*web.Cache, error) {
	cfg := opts.config()
	fetcher := web.NewHTTPFetcher(cfg.Web.Timeout, cfg.Web.UserAgent)
	return web.New(st, fetcher, web.WithTTL(cfg.Web.TTL))
}
