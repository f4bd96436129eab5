// Package telemetry sets up OpenTelemetry tracing and metrics for ohmymkt.
//
// Telemetry is off by default. When enabled it exports over OTLP (gRPC or
// HTTP/protobuf) to a collector. Exporter failures never stop the engine:
// the instance reports itself as degraded and hands out no-op providers.
//
//	tel, err := telemetry.New(ctx, telemetry.NewDefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("ohmymkt/cycle").Start(ctx, "cycle.run")
//	defer span.End()
//
// Tests use NewTestTelemetry, which records spans and metrics in memory.
package telemetry
