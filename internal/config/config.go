// Package config provides the configuration structure for the sinsy CLI and service.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/book-expert/sinsy-service/internal/options"
)

// EnvConfigPath names the environment variable holding an explicit config file for the CLI.
const EnvConfigPath = "SINSY_CONFIG"

// Engine kinds.
const (
	EngineKindHTTP    = "http"
	EngineKindCommand = "command"
)

// Default values.
const (
	defaultServiceURL      = "http://127.0.0.1:8090"
	defaultTimeoutSeconds  = 600
	defaultBinaryPath      = "sinsy"
	defaultNATSURL         = "nats://127.0.0.1:4222"
	defaultRequestSubject  = "synthesis.requested"
	defaultArtifactBucket  = "SINSY_ARTIFACTS"
	defaultJobTimeoutSecs  = 900
	defaultCLILogFileName  = "sinsy.log"
	defaultServiceLogsName = "sinsy-service.log"
)

var (
	// ErrUnknownEngineKind is returned for an engine kind other than http or command.
	ErrUnknownEngineKind = errors.New("unknown engine kind")
	// ErrServiceURLEmpty is returned when the http engine has no service URL.
	ErrServiceURLEmpty = errors.New("engine service_url cannot be empty")
	// ErrBinaryPathEmpty is returned when the command engine has no binary path.
	ErrBinaryPathEmpty = errors.New("engine binary_path cannot be empty")
	// ErrTimeoutNotPositive is returned for a non-positive timeout.
	ErrTimeoutNotPositive = errors.New("timeout_seconds must be positive")
)

// EngineConfig selects and configures the synthesis engine adapter.
type EngineConfig struct {
	Kind           string `toml:"kind" env:"SINSY_ENGINE_KIND"`
	ServiceURL     string `toml:"service_url" env:"SINSY_ENGINE_SERVICE_URL"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"SINSY_ENGINE_TIMEOUT_SECONDS"`
	BinaryPath     string `toml:"binary_path" env:"SINSY_ENGINE_BINARY_PATH"`
}

// DefaultsConfig overrides the built-in option defaults.
type DefaultsConfig struct {
	Languages     string `toml:"languages" env:"SINSY_DEFAULT_LANGUAGES"`
	DictionaryDir string `toml:"dictionary_dir" env:"SINSY_DEFAULT_DICTIONARY_DIR"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                       string `toml:"url" env:"SINSY_NATS_URL"`
	SynthesisRequestedSubject string `toml:"synthesis_requested_subject" env:"SINSY_NATS_SUBJECT"`
	ArtifactBucket            string `toml:"artifact_bucket" env:"SINSY_NATS_BUCKET"`
	JobTimeoutSeconds         int    `toml:"job_timeout_seconds" env:"SINSY_NATS_JOB_TIMEOUT_SECONDS"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir" env:"SINSY_LOGS_DIR"`
	WorkDir     string `toml:"work_dir" env:"SINSY_WORK_DIR"`
}

// Config is the root configuration structure.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Defaults DefaultsConfig `toml:"defaults"`
	NATS     NATSConfig     `toml:"nats"`
	Paths    PathsConfig    `toml:"paths"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Kind:           EngineKindHTTP,
			ServiceURL:     defaultServiceURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			BinaryPath:     defaultBinaryPath,
		},
		Defaults: DefaultsConfig{
			Languages:     options.DefaultLanguages,
			DictionaryDir: options.DefaultDictionaryDir,
		},
		NATS: NATSConfig{
			URL:                       defaultNATSURL,
			SynthesisRequestedSubject: defaultRequestSubject,
			ArtifactBucket:            defaultArtifactBucket,
			JobTimeoutSeconds:         defaultJobTimeoutSecs,
		},
		Paths: PathsConfig{
			BaseLogsDir: os.TempDir(),
			WorkDir:     os.TempDir(),
		},
	}
}

// Load loads the service configuration through the central configurator and applies
// environment overrides.
func Load(log *logger.Logger) (*Config, error) {
	cfg := Default()

	err := configurator.Load(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return finish(cfg)
}

// LoadCLI loads the optional file named by SINSY_CONFIG, falling back to defaults,
// and applies environment overrides.
func LoadCLI() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return finish(Default())
	}

	return LoadFile(path)
}

// LoadFile decodes a TOML file over the defaults and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the engine section.
func (c *Config) Validate() error {
	switch c.Engine.Kind {
	case EngineKindHTTP:
		if c.Engine.ServiceURL == "" {
			return ErrServiceURLEmpty
		}
	case EngineKindCommand:
		if c.Engine.BinaryPath == "" {
			return ErrBinaryPathEmpty
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngineKind, c.Engine.Kind)
	}

	if c.Engine.TimeoutSeconds <= 0 {
		return fmt.Errorf("engine %w: got %d", ErrTimeoutNotPositive, c.Engine.TimeoutSeconds)
	}

	return nil
}

// OptionDefaults returns the defaults the option resolver should apply.
func (c *Config) OptionDefaults() options.Defaults {
	return options.Defaults{
		Languages:     c.Defaults.Languages,
		DictionaryDir: c.Defaults.DictionaryDir,
	}
}

// EngineTimeout returns the engine request timeout.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}

// JobTimeout returns the per-request timeout for the service worker.
func (c *Config) JobTimeout() time.Duration {
	if c.NATS.JobTimeoutSeconds <= 0 {
		return defaultJobTimeoutSecs * time.Second
	}

	return time.Duration(c.NATS.JobTimeoutSeconds) * time.Second
}

// CLILogFileName is the log file written by the CLI inside BaseLogsDir.
func (c *Config) CLILogFileName() string {
	return defaultCLILogFileName
}

// ServiceLogFileName is the log file written by the service inside BaseLogsDir.
func (c *Config) ServiceLogFileName() string {
	return defaultServiceLogsName
}
