package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"redis_basic/internal/config"
	"redis_basic/internal/logger"
	"redis_basic/internal/model"
	"redis_basic/internal/storage"
)

// StoreOpener builds the key-value store a command runs against.
type StoreOpener func(ctx context.Context, config *model.Config) (storage.KeyValueStore, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Backend    string
	RedisURL   string
	ConfigPath string

	// Config is resolved in PersistentPreRunE from defaults, the config
	// file, the environment and the flags above.
	Config *model.Config
	// OpenStore defaults to OpenStore; tests swap in a shared store.
	OpenStore StoreOpener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the redis_basic CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{OpenStore: OpenStore})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redis_basic",
		Short: "redis_basic - Redis caching and call history",
		Long: `Store values under random keys, read them back with typed decoding,
replay the recorded call history and fetch web pages through a TTL cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend (redis|memory)")
	cmd.PersistentFlags().StringVar(&opts.RedisURL, "redis-url", "", "redis connection URL")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")

	// Add subcommands
	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewDemoCommand(opts))

	return cmd
}

// resolve loads the configuration, applies flag overrides and starts the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	if cmd.Flags().Changed("backend") {
		cfg.Store.Backend = o.Backend
	}
	if cmd.Flags().Changed("redis-url") {
		cfg.Redis.URL = o.RedisURL
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}

	o.Config = cfg
	return nil
}

// config returns the resolved configuration, falling back to defaults when a
// subcommand is executed on its own.
func (o *RootOptions) config() *model.Config {
	if o.Config == nil {
		cfg := model.DefaultConfig()
		if o.Backend != "" {
			cfg.Store.Backend = o.Backend
		}
		if o.RedisURL != "" {
			cfg.Redis.URL = o.RedisURL
		}
		o.Config = &cfg
	}
	return o.Config
}

// openStore opens the configured store.
func (o *RootOptions) openStore(ctx context.Context) (storage.KeyValueStore, error) {
	open := o.OpenStore
	if open == nil {
		open = OpenStore
	}

	st, err := open(ctx, o.config())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return st, nil
}

// OpenStore creates the backend selected by config.Store.Backend.
func OpenStore(ctx context.Context, config *model.Config) (storage.KeyValueStore, error) {
	switch config.Store.Backend {
	case model.BackendMemory:
		return storage.NewMemoryStore(storage.WithCleanupInterval(config.Store.CleanupInterval)), nil
	case model.BackendRedis, "":
		var opts []storage.RedisOption
		if config.Redis.Prefix != "" {
			opts = append(opts, storage.WithPrefix(config.Redis.Prefix))
		}
		return storage.NewRedisStore(ctx, config.Redis.URL, opts...)
	default:
		return nil, fmt.Errorf("unknown store backend '%s'", config.Store.Backend)
	}
}
