package cli

import (
	"context"
	"fmt"

	"github.com/santif/openid/config"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/store"
)

// EnvPrefix prefixes every environment variable read by the CLI,
// e.g. OPENID_OBSERVABILITY__LOGGER__LEVEL=debug
const EnvPrefix = "OPENID_"

// Config is the CLI configuration
type Config struct {
	Observability observability.ObservabilityConfig `yaml:"observability"`
	Message       MessageConfig                     `yaml:"message"`
	Store         store.Config                      `yaml:"store"`
}

// MessageConfig holds the options applied to every message the CLI builds
type MessageConfig struct {
	// StrictMode rejects extension resolution on messages without a mode
	StrictMode bool `yaml:"strict_mode"`

	// RequiredFields must be present for a message to be valid
	RequiredFields []string `yaml:"required_fields" validate:"dive,required"`

	// DisabledExtensions are removed from the built-in registry
	DisabledExtensions []string `yaml:"disabled_extensions" validate:"dive,required"`
}

// DefaultConfig returns the default CLI configuration
func DefaultConfig() Config {
	obs := observability.DefaultObservabilityConfig()
	obs.Logger.Level = observability.LogLevelWarn
	obs.Logger.Format = observability.LogFormatText

	return Config{
		Observability: obs,
		Store:         store.DefaultConfig(),
	}
}

// loadConfig merges defaults, an optional file, the environment and flags
func loadConfig(ctx context.Context, path string, flags *config.FlagSource, logger observability.Logger) (Config, error) {
	cfg := DefaultConfig()

	opts := []config.ManagerOption{
		config.WithLogger(logger),
		config.WithSource(config.NewEnvSource(EnvPrefix)),
		config.WithSource(flags),
	}
	if path != "" {
		// an explicit file must load; the manager would only skip it
		file := config.NewFileSource(path, "")
		if _, err := file.Load(ctx); err != nil {
			return cfg, err
		}
		opts = append(opts, config.WithSource(file))
	}

	if err := config.NewManager(opts...).Load(&cfg); err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
