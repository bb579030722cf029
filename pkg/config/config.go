// Package config loads engine defaults for seqflow pipelines from a YAML file
// and SEQFLOW_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/metrics"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

// DefaultEnvPrefix prefixes environment overrides, e.g. SEQFLOW_WORKERS.
const DefaultEnvPrefix = "SEQFLOW"

// Settings are the loadable evaluation defaults.
type Settings struct {
	Name      string      `mapstructure:"name"`
	Workers   int         `mapstructure:"workers"`
	ChunkSize int         `mapstructure:"chunk_size"`
	Log       LogSettings `mapstructure:"log"`
	Metrics   Metrics     `mapstructure:"metrics"`
}

// LogSettings configure the zap logger handed to pipelines.
type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Metrics toggles recording into metrics.DefaultRegistry.
type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

// Defaults returns the settings used for keys absent from file and environment.
func Defaults() Settings {
	d := stream.DefaultConfig()
	return Settings{
		Name:      d.Name,
		Workers:   d.Workers,
		ChunkSize: d.ChunkSize,
		Log:       LogSettings{Level: "info"},
	}
}

// Validate checks sizes and the log level.
func (s Settings) Validate() error {
	if err := validation.ValidatePositive("config", "workers", s.Workers); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", "chunk_size", s.ChunkSize); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("config: log.level %q: %w", s.Log.Level, sferrors.ErrInvalidConfiguration)
	}
	return nil
}

// Logger builds the zap logger described by the settings.
func (s Settings) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(s.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log.level %q: %w", s.Log.Level, sferrors.ErrInvalidConfiguration)
	}

	zc := zap.NewProductionConfig()
	if s.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// StreamConfig converts the settings into a stream.Config.
func (s Settings) StreamConfig() (stream.Config, error) {
	if err := s.Validate(); err != nil {
		return stream.Config{}, err
	}
	logger, err := s.Logger()
	if err != nil {
		return stream.Config{}, err
	}

	cfg := stream.Config{
		Name:      s.Name,
		Workers:   s.Workers,
		ChunkSize: s.ChunkSize,
		Logger:    logger,
	}
	if s.Metrics.Enabled {
		cfg.Metrics = metrics.DefaultRegistry
	}
	return cfg, nil
}

type loader struct {
	envPrefix string
}

// Option customizes Load.
type Option func(*loader)

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *loader) { l.envPrefix = prefix }
}

// Load reads settings from the YAML file at path, if path is not empty, and
// applies environment overrides on top. Nested keys map to variables with
// underscores: log.level is SEQFLOW_LOG_LEVEL.
func Load(path string, opts ...Option) (Settings, error) {
	l := loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&l)
	}

	v := viper.New()
	d := Defaults()
	v.SetDefault("name", d.Name)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode: %v: %w", err, sferrors.ErrInvalidConfiguration)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
