package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"redis_basic/internal/cache"
	"redis_basic/internal/replay"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	URL string
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the cache walkthrough end to end",
		Long: `Flush the store, store a string, bytes, an integer and a float,
read each back with the matching decoding and replay the Cache.store history.
With --url the page is also fetched twice through the web cache.

WARNING: the selected database is flushed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "also fetch this page through the web cache")

	return cmd
}

type demoValue struct {
	data any
	show func(ctx context.Context, c *cache.Cache, key string) (any, bool, error)
}

func runDemo(ctx context.Context, opts *DemoOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := cache.New(ctx, st)
	if err != nil {
		return err
	}

	asText := func(ctx context.Context, c *cache.Cache, key string) (any, bool, error) {
		s, ok, err := c.GetStr(ctx, key)
		return s, ok, err
	}
	asInt := func(ctx context.Context, c *cache.Cache, key string) (any, bool, error) {
		n, ok, err := c.GetInt(ctx, key)
		return n, ok, err
	}
	asFloat := func(ctx context.Context, c *cache.Cache, key string) (any, bool, error) {
		f, ok, err := cache.Get(ctx, c, key, cache.DecodeFloat)
		return f, ok, err
	}

	values := []demoValue{
		{data: "foo", show: asText},
		{data: []byte("bar"), show: asText},
		{data: 123, show: asInt},
		{data: 3.14, show: asFloat},
	}

	for _, v := range values {
		key, err := c.Store(ctx, v.data)
		if err != nil {
			return fmt.Errorf("store %v: %w", v.data, err)
		}

		got, _, err := v.show(ctx, c, key)
		if err != nil {
			return fmt.Errorf("read back %s: %w", key, err)
		}
		fmt.Fprintf(w, "%s -> %v\n", key, got)
	}

	if _, ok, err := c.Retrieve(ctx, "missing"); err != nil {
		return err
	} else if !ok {
		fmt.Fprintln(w, "missing -> (nil)")
	}

	fmt.Fprintln(w)
	report, err := replay.Replay(ctx, st, cache.StoreIdentity)
	if err != nil {
		return err
	}
	if err := report.Render(w); err != nil {
		return err
	}

	if opts.URL == "" {
		return nil
	}

	pages, err := newWebCache(st, opts.RootOptions)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	for i := 0; i < 2; i++ {
		content, err := pages.Fetch(ctx, opts.URL)
		if err != nil {
			return WrapExitError(ExitFailure, "fetch failed", err)
		}
		count, err := pages.Count(ctx, opts.URL)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d bytes, accessed %d times\n", opts.URL, len(content), count)
	}

	return nil
}
