package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// Config is the full runtime configuration. DefaultConfig supplies the base
// values, an optional YAML file overrides them and environment variables
// override both.
type Config struct {
	Log   LogConfig   `yaml:"log" envconfig:""`
	Store StoreConfig `yaml:"store" envconfig:""`
	Redis RedisConfig `yaml:"redis" envconfig:""`
	Web   WebConfig   `yaml:"web" envconfig:""`
}

// LogConfig controls the global zerolog logger
type LogConfig struct {
	Level      string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format     string `yaml:"format" envconfig:"LOG_FORMAT"` // console | json
	Output     string `yaml:"output" envconfig:"LOG_OUTPUT"` // stdout | stderr | file
	FilePath   string `yaml:"file_path" envconfig:"LOG_FILE_PATH"`
	TimeFormat string `yaml:"time_format" envconfig:"LOG_TIME_FORMAT"` // rfc3339 | unix | iso8601
}

// StoreConfig selects the key-value backend
type StoreConfig struct {
	Backend         string        `yaml:"backend" envconfig:"STORE_BACKEND"` // redis | memory
	CleanupInterval time.Duration `yaml:"cleanup_interval" envconfig:"STORE_CLEANUP_INTERVAL"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL    string `yaml:"url" envconfig:"REDIS_URL"`
	Prefix string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// WebConfig configures the TTL web cache and its HTTP fetcher
type WebConfig struct {
	TTL       time.Duration `yaml:"ttl" envconfig:"WEB_CACHE_TTL"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"WEB_FETCH_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" envconfig:"WEB_USER_AGENT"`
}

// Store backends
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			FilePath:   "logs/redis_basic.log",
			TimeFormat: "rfc3339",
		},
		Store: StoreConfig{
			Backend:         BackendRedis,
			CleanupInterval: time.Minute,
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/0",
		},
		Web: WebConfig{
			TTL:       10 * time.Second,
			Timeout:   30 * time.Second,
			UserAgent: "redis_basic/1.0",
		},
	}
}
