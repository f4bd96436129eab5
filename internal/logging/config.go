package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/ohmymkt/internal/config"
)

// Config selects the level, encoding and sinks of a Logger.
type Config struct {
	Level zapcore.Level

	// Format is "console" or "json".
	Format string

	// Stderr enables the local sink. Writer, when set, takes the place of
	// stderr so tests can capture output.
	Stderr bool
	Writer io.Writer

	// OTEL mirrors every entry to the OpenTelemetry log bridge. It has no
	// effect unless NewLogger is given a provider.
	OTEL bool

	// Fields are attached to every entry.
	Fields map[string]string
}

// NewDefaultConfig logs info and above to stderr in console format.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "console",
		Stderr: true,
		Fields: map[string]string{"service": "ohmymkt"},
	}
}

// FromSettings maps the logging section of the application config. The
// OTEL sink follows observability.enable_telemetry.
func FromSettings(s config.LoggingConfig, obs config.ObservabilityConfig) (*Config, error) {
	cfg := NewDefaultConfig()
	lvl, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	if s.Format != "" {
		cfg.Format = s.Format
	}
	cfg.OTEL = obs.EnableTelemetry
	if obs.ServiceName != "" {
		cfg.Fields["service"] = obs.ServiceName
	}
	return cfg, cfg.Validate()
}

// ParseLevel accepts debug, info, warn or error in any case. An empty
// string is info.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	switch s {
	case "debug", "info", "warn", "error":
		return zapcore.ParseLevel(s)
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
}

// Validate checks that the format is known and some sink is enabled.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Format)
	}
	if !c.Stderr && !c.OTEL {
		return fmt.Errorf("no log sink enabled")
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			return fmt.Errorf("log field %q=%q must have a key and a value", k, v)
		}
	}
	return nil
}
