// Package logging provides context-aware structured logging on zap.
//
// Every method takes a context and prepends the correlation fields found
// in it: trace and span ids, request id, tool name and project root.
// Entries go to stderr, keeping stdout free for the MCP stdio transport,
// and are mirrored to the OpenTelemetry log bridge when telemetry is on.
//
//	cfg, err := logging.FromSettings(appCfg.Logging, appCfg.Observability)
//	logger, err := logging.NewLogger(cfg, tel.LoggerProvider())
//	defer logger.Sync()
//
//	ctx = logging.WithTool(ctx, "ohmymkt_run_cycle")
//	logger.Info(ctx, "cycle complete", zap.String("decision", "continue"))
//
// Tests use NewTestLogger, which records entries in memory:
//
//	tl := logging.NewTestLogger()
//	tl.Warn(ctx, "weekly cycle overdue", zap.Int("days", 9))
//	tl.AssertField(t, "weekly cycle overdue", "days", int64(9))
package logging
