package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ohmymkt/internal/config"
	"github.com/fyrsmithlabs/ohmymkt/internal/hooks"
	"github.com/fyrsmithlabs/ohmymkt/internal/logging"
	"github.com/fyrsmithlabs/ohmymkt/internal/project"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
	"github.com/fyrsmithlabs/ohmymkt/internal/telemetry"
)

// app holds everything a command needs, resolved once per invocation.
type app struct {
	cfg     *config.Config
	project *project.Project
	store   *store.Store
	logger  *logging.Logger
	tel     *telemetry.Telemetry
}

// newApp loads configuration and resolves the project. Telemetry is only
// started for long-running commands.
func newApp(ctx context.Context, opts *rootOptions, withTelemetry bool) (*app, error) {
	cfg, err := config.LoadWithFile(opts.configPath)
	if err != nil {
		return nil, err
	}

	dir := opts.project
	if dir == "" {
		dir = cfg.Engine.ProjectRoot
	}
	proj, err := project.Resolve(dir)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		project: proj,
		store: store.New(proj.Root,
			store.WithRuntimeDir(cfg.Engine.RuntimeDir),
			store.WithTemplateDir(cfg.Engine.TemplateDir),
		),
	}

	if withTelemetry {
		a.tel, err = telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	logCfg, err := logging.FromSettings(cfg.Logging, cfg.Observability)
	if err != nil {
		return nil, err
	}
	a.logger, err = logging.NewLogger(logCfg, a.tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	for _, reason := range a.tel.Degraded() {
		a.logger.Warn(ctx, "telemetry signal disabled", zap.String("reason", reason))
	}
	return a, nil
}

// hooks loads the hook configuration and registers the built-in handlers.
func (a *app) hooks() (*hooks.HookManager, error) {
	path := a.cfg.Engine.HooksFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.project.Root, path)
	}
	hookCfg, err := hooks.LoadConfigWithEnvOverride(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load hooks config: %w", err)
	}
	h := hooks.NewHookManager(hookCfg)
	hooks.RegisterBuiltins(h, a.store, a.logger)
	return h, nil
}

// close flushes telemetry and the logger.
func (a *app) close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := a.tel.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
