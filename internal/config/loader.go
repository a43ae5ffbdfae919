package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"redis_basic/internal/model"
)

// Load builds the runtime configuration. Values come from model.DefaultConfig,
// then the YAML file at path (skipped when path is empty), then environment
// variables. A .env file in the working directory is loaded first if present.
func Load(path string) (*model.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %v", err)
	}

	config := model.DefaultConfig()

	if path != "" {
		if err := loadYAML(path, &config); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// loadYAML overlays the YAML file at path onto config.
func loadYAML(path string, config *model.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("error parsing YAML: %v", err)
	}

	return nil
}

// Validate rejects configurations the store and web cache cannot run with.
func Validate(config *model.Config) error {
	switch strings.ToLower(config.Store.Backend) {
	case model.BackendRedis:
		if config.Redis.URL == "" {
			return errors.New("redis backend requires a redis url")
		}
	case model.BackendMemory:
	default:
		return fmt.Errorf("unknown store backend '%s'", config.Store.Backend)
	}

	if config.Web.TTL <= 0 {
		return fmt.Errorf("web cache ttl must be positive, got %s", config.Web.TTL)
	}
	if config.Web.Timeout < 0 {
		return fmt.Errorf("web fetch timeout must not be negative, got %s", config.Web.Timeout)
	}

	return nil
}
