package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/logtest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/ohmymkt/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{" DEBUG ", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
		{"panic", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad format", func(c *Config) { c.Format = "xml" }, "log format"},
		{"no sinks", func(c *Config) { c.Stderr = false }, "no log sink"},
		{"otel only", func(c *Config) { c.Stderr = false; c.OTEL = true }, ""},
		{"empty field value", func(c *Config) { c.Fields["env"] = "" }, `"env"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg, err := FromSettings(config.LoggingConfig{Level: "debug", Format: "json"}, config.ObservabilityConfig{})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.False(t, cfg.OTEL)

	cfg, err = FromSettings(config.LoggingConfig{Level: "info"}, config.ObservabilityConfig{EnableTelemetry: true, ServiceName: "mkt-staging"})
	require.NoError(t, err)
	assert.True(t, cfg.OTEL)
	assert.Equal(t, "mkt-staging", cfg.Fields["service"])

	_, err = FromSettings(config.LoggingConfig{Level: "shouty"}, config.ObservabilityConfig{})
	assert.Error(t, err)

	_, err = FromSettings(config.LoggingConfig{Level: "info", Format: "yaml"}, config.ObservabilityConfig{})
	assert.Error(t, err)
}

func TestNewLogger_WritesJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Writer = &buf

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	ctx := WithTool(WithRequestID(context.Background(), "req-1"), "ohmymkt_check_gates")
	logger.Info(ctx, "gates evaluated", zap.Bool("all_passed", false))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "gates evaluated", entry["msg"])
	assert.Equal(t, "ohmymkt", entry["service"])
	assert.Equal(t, "req-1", entry["request.id"])
	assert.Equal(t, "ohmymkt_check_gates", entry["tool.name"])
	assert.Equal(t, false, entry["all_passed"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = zapcore.WarnLevel
	cfg.Writer = &buf

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	logger.Info(context.Background(), "quiet")
	logger.Debug(context.Background(), "quieter")
	logger.Warn(context.Background(), "loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewLogger_OTELOnlyWithoutProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Stderr = false
	cfg.OTEL = true

	_, err := NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestNewLogger_MirrorsToOTEL(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Writer = &buf
	cfg.OTEL = true
	rec := logtest.NewRecorder()

	logger, err := NewLogger(cfg, rec)
	require.NoError(t, err)

	ctx := WithProject(context.Background(), "/work/site")
	logger.Debug(ctx, "below level")
	logger.Warn(ctx, "weekly cycle overdue", zap.Int("days", 9))

	var bodies []string
	for _, records := range rec.Result() {
		for _, r := range records {
			bodies = append(bodies, r.Body.AsString())
		}
	}
	assert.Equal(t, []string{"weekly cycle overdue"}, bodies)
	assert.Contains(t, buf.String(), "weekly cycle overdue")
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithProject(ctx, "/work/site")
	ctx = WithRequestID(ctx, "")

	keys := map[string]string{}
	for _, f := range ContextFields(ctx) {
		keys[f.Key] = f.String
	}
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", keys["trace_id"])
	assert.Equal(t, "0102030405060708", keys["span_id"])
	assert.Equal(t, "/work/site", keys["project.root"])
	assert.NotContains(t, keys, "request.id")
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Named("cycle").Debug(ctx, "from context")

	tl.AssertLogged(t, zapcore.DebugLevel, "from context")
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithTool(context.Background(), "ohmymkt_run_cycle")

	tl.Debug(ctx, "detail")
	tl.With(zap.String("cadence", "weekly")).Warn(ctx, "weekly cycle overdue", zap.Int("days", 9))

	tl.AssertLogged(t, zapcore.DebugLevel, "detail")
	tl.AssertLogged(t, zapcore.WarnLevel, "overdue")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "overdue")
	tl.AssertField(t, "overdue", "days", int64(9))
	tl.AssertField(t, "overdue", "cadence", "weekly")
	tl.AssertField(t, "overdue", "tool.name", "ohmymkt_run_cycle")
	assert.Equal(t, []string{"detail", "weekly cycle overdue"}, tl.Messages())

	tl.Reset()
	assert.Empty(t, tl.All())
}
