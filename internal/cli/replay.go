package cli

import (
	"context"

	"github.com/spf13/cobra"

	"redis_basic/internal/cache"
	"redis_basic/internal/replay"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [identity]",
		Short: "Print the recorded call history of an operation",
		Long: `Print how many times an operation was called and each recorded
input with its output. identity defaults to Cache.store.

Examples:
  redis_basic replay
  redis_basic replay Cache.store --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity := cache.StoreIdentity
			if len(args) == 1 {
				identity = args[0]
			}
			return runReplay(cmd.Context(), rootOpts, identity, cmd)
		},
	}

	return cmd
}

func runReplay(ctx context.Context, opts *RootOptions, identity string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := replay.Replay(ctx, st, identity)
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), opts.Format, report, report.Render)
}
