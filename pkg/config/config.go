// Package config loads hornbeam settings from .hornbeam.yaml and HORNBEAM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
	"github.com/Sumatoshi-tech/hornbeam/pkg/transform"
)

// Sentinel validation errors.
var (
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidMaxFileSize = errors.New("invalid max file size")
)

// Config holds all configuration.
type Config struct {
	Logging       LoggingConfig       `mapstructure:"logging"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig holds rewrite engine configuration.
type EngineConfig struct {
	PlaceholderMode string `mapstructure:"placeholder_mode"`
	MaxFileSize     string `mapstructure:"max_file_size"`
	ValidateOutput  bool   `mapstructure:"validate_output"`
}

// ObservabilityConfig holds tracing and metrics export configuration.
type ObservabilityConfig struct {
	Environment     string  `mapstructure:"environment"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string  `mapstructure:"otlp_headers"`
	MetricsAddr     string  `mapstructure:"metrics_addr"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
	ShutdownTimeout int     `mapstructure:"shutdown_timeout_sec"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
	DebugTrace      bool    `mapstructure:"debug_trace"`
}

// LoadConfig loads configuration from configPath, or from .hornbeam.yaml in
// the working or home directory when configPath is empty. A missing file is
// not an error; defaults and environment variables still apply.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(".hornbeam")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix("HORNBEAM")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("engine.placeholder_mode", DefaultPlaceholderMode)
	viperCfg.SetDefault("engine.validate_output", DefaultValidateOutput)
	viperCfg.SetDefault("engine.max_file_size", DefaultMaxFileSize)

	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.metrics_addr", DefaultMetricsAddr)
	viperCfg.SetDefault("observability.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("observability.debug_trace", false)
	viperCfg.SetDefault("observability.shutdown_timeout_sec", DefaultShutdownTimeout)
}

// Validate checks every section.
func (c *Config) Validate() error {
	_, err := observability.ParseLevel(c.Logging.Level)
	if err != nil {
		return err
	}

	if c.Logging.Format != FormatText && c.Logging.Format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	_, err = transform.ParsePlaceholderMode(c.Engine.PlaceholderMode)
	if err != nil {
		return err
	}

	_, err = c.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Observability.SampleRatio)
	}

	return nil
}

// MaxFileSizeBytes parses engine.max_file_size ("4MB", "512KiB").
func (c *Config) MaxFileSizeBytes() (uint64, error) {
	size, err := humanize.ParseBytes(c.Engine.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxFileSize, err)
	}

	return size, nil
}

// ObservabilityConfig builds the telemetry setup for the given mode.
func (c *Config) ObservabilityConfig(mode observability.AppMode, version string) observability.Config {
	level, err := observability.ParseLevel(c.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Environment = c.Observability.Environment
	cfg.Mode = mode
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.Prometheus = c.Observability.MetricsAddr != ""
	cfg.DebugTrace = c.Observability.DebugTrace
	cfg.SampleRatio = c.Observability.SampleRatio
	cfg.LogLevel = level
	cfg.LogJSON = c.Logging.Format == FormatJSON

	if c.Observability.ShutdownTimeout > 0 {
		cfg.ShutdownTimeoutSec = c.Observability.ShutdownTimeout
	}

	return cfg
}

// TransformOptions returns the engine options the configuration selects.
func (c *Config) TransformOptions() []transform.Option {
	mode, err := transform.ParsePlaceholderMode(c.Engine.PlaceholderMode)
	if err != nil {
		mode = transform.PlaceholderSubstring
	}

	return []transform.Option{
		transform.WithPlaceholderMode(mode),
		transform.WithOutputValidation(c.Engine.ValidateOutput),
	}
}
