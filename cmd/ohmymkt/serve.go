package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ohttp "github.com/fyrsmithlabs/ohmymkt/internal/http"
	"github.com/fyrsmithlabs/ohmymkt/internal/mcp"
	"github.com/fyrsmithlabs/ohmymkt/internal/watch"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the engine as MCP tools over stdio",
		Long: `Serve the gate, metric, cycle, incident and report operations as MCP
tools over stdin/stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			h, err := a.hooks()
			if err != nil {
				return err
			}
			cfg := mcp.DefaultConfig()
			cfg.Version = version
			cfg.Logger = a.logger
			cfg.Telemetry = a.tel
			srv, err := mcp.NewServer(cfg, a.store, h)
			if err != nil {
				return err
			}

			a.logger.Info(ctx, "starting mcp server",
				zap.String("project", a.project.Root),
				zap.Bool("git", a.project.Git))
			if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP",
		Long: `Serve the HTTP API, the Prometheus /metrics endpoint and rendered
cycle reports. Host and port default to server.http_host and
server.http_port from the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			h, err := a.hooks()
			if err != nil {
				return err
			}
			cfg := &ohttp.Config{Host: a.cfg.Server.Host, Port: a.cfg.Server.Port}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			srv, err := ohttp.NewServer(cfg, a.store, h, a.logger, a.tel)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(ctx)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout.Duration())
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http shutdown: %w", err)
			}
			a.logger.Info(ctx, "server shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.http_host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.http_port)")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow state changes and report gate transitions",
		Long: `Watch .ohmymkt/state and .ohmymkt/incidents. Gate transitions are
printed as they happen and every change is emitted to the event hooks,
so an overdue weekly cycle is reported while the watch runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			h, err := a.hooks()
			if err != nil {
				return err
			}
			if err := h.Emit(ctx, "startup"); err != nil {
				a.logger.Warn(ctx, "startup hooks failed", zap.Error(err))
			}

			w, err := watch.New(a.store, h, a.logger)
			if err != nil {
				return err
			}
			defer w.Stop()
			if err := w.Start(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for ev := range w.Events() {
				if ev.Kind != watch.KindGates {
					fmt.Fprintf(out, "%s changed: %s\n", ev.Kind, ev.Path)
					continue
				}
				for _, t := range ev.Transitions {
					fmt.Fprintf(out, "%s: %s -> %s\n", t.Key.Meta().Label, t.From, t.To)
				}
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ohmymkt %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}
