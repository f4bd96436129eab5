package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the trace, metric and log providers of one process.
type Telemetry struct {
	config *Config

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider

	// degraded lists the signals whose exporter could not be built.
	degraded []string
	stopped  atomic.Bool
}

// New builds the providers cfg asks for. When telemetry is disabled Tracer
// and Meter hand out the global no-op implementations and LoggerProvider is
// nil. A signal whose exporter cannot be built is left out and listed by
// Degraded; the engine keeps running without it.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	t := &Telemetry{config: cfg}
	if !cfg.Enabled {
		return t, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	res := newResource(cfg)

	tp, err := newTracerProvider(ctx, cfg, res, o.spanExporter)
	if err != nil {
		t.degrade("traces", err)
	} else {
		t.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}

	mp, err := newMeterProvider(ctx, cfg, res, o.metricExporter)
	switch {
	case err != nil:
		t.degrade("metrics", err)
	case mp != nil:
		t.meterProvider = mp
		otel.SetMeterProvider(mp)
	}

	lp, err := newLoggerProvider(ctx, cfg, res, o.logExporter)
	if err != nil {
		t.degrade("logs", err)
	} else {
		t.loggerProvider = lp
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

func (t *Telemetry) degrade(signal string, err error) {
	t.degraded = append(t.degraded, fmt.Sprintf("%s: %v", signal, err))
}

// Degraded describes each signal that was requested but is not exported.
func (t *Telemetry) Degraded() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.degraded...)
}

// IsEnabled reports whether telemetry was enabled and has not been shut down.
func (t *Telemetry) IsEnabled() bool {
	return t != nil && t.config != nil && t.config.Enabled && !t.stopped.Load()
}

// Tracer returns a tracer for an instrumentation scope.
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if t == nil || t.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter for an instrumentation scope.
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.meterProvider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return t.meterProvider.Meter(name, opts...)
}

// LoggerProvider feeds the zap bridge in internal/logging. It is nil when
// log export is off.
func (t *Telemetry) LoggerProvider() log.LoggerProvider {
	if t == nil || t.loggerProvider == nil {
		return nil
	}
	return t.loggerProvider
}

type signalProvider interface {
	ForceFlush(context.Context) error
	Shutdown(context.Context) error
}

func (t *Telemetry) each(fn func(name string, p signalProvider) error) error {
	var errs []error
	if t.tracerProvider != nil {
		errs = append(errs, fn("traces", t.tracerProvider))
	}
	if t.meterProvider != nil {
		errs = append(errs, fn("metrics", t.meterProvider))
	}
	if t.loggerProvider != nil {
		errs = append(errs, fn("logs", t.loggerProvider))
	}
	return errors.Join(errs...)
}

// ForceFlush exports everything pending on every provider.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.each(func(name string, p signalProvider) error {
		if err := p.ForceFlush(ctx); err != nil {
			return fmt.Errorf("flush %s: %w", name, err)
		}
		return nil
	})
}

// Shutdown flushes and stops every provider. Without a deadline on ctx the
// configured shutdown timeout applies.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || !t.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && t.config != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Shutdown.Timeout.Duration())
		defer cancel()
	}
	return t.each(func(name string, p signalProvider) error {
		if err := p.Shutdown(ctx); err != nil {
			return fmt.Errorf("shut down %s: %w", name, err)
		}
		return nil
	})
}
