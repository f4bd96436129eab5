package logging

import (
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// scopeName is the instrumentation scope of bridged log records.
const scopeName = "github.com/fyrsmithlabs/ohmymkt"

// buildCore assembles the enabled sinks. The OTEL sink is skipped when lp
// is nil, so a config asking only for OTEL fails without a provider.
func buildCore(cfg *Config, lp log.LoggerProvider) (zapcore.Core, error) {
	var cores []zapcore.Core

	if cfg.Stderr {
		out := zapcore.Lock(os.Stderr)
		if cfg.Writer != nil {
			out = zapcore.AddSync(cfg.Writer)
		}
		cores = append(cores, zapcore.NewCore(encoderFor(cfg.Format), out, cfg.Level))
	}

	if cfg.OTEL && lp != nil {
		bridge := otelzap.NewCore(scopeName, otelzap.WithLoggerProvider(lp))
		leveled, err := zapcore.NewIncreaseLevelCore(bridge, cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("otel log sink: %w", err)
		}
		cores = append(cores, leveled)
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("no log sink available")
	}
	return zapcore.NewTee(cores...), nil
}

func encoderFor(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}
