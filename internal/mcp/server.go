package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ohmymkt/internal/hooks"
	"github.com/fyrsmithlabs/ohmymkt/internal/logging"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
	"github.com/fyrsmithlabs/ohmymkt/internal/telemetry"
)

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "ohmymkt").
	Name string

	// Version is the server version (default: "dev").
	Version string

	// ReportWindow is the growth report window used when a call omits one.
	ReportWindow string

	Logger    *logging.Logger
	Telemetry *telemetry.Telemetry
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:         "ohmymkt",
		Version:      "dev",
		ReportWindow: "7d",
		Logger:       logging.NewNop(),
	}
}

// BlockedError is returned when a before_tool hook refuses a call.
type BlockedError struct {
	Tool    string
	Message string
}

func (e *BlockedError) Error() string {
	return e.Message
}

// Server wires the engine to an MCP server.
type Server struct {
	mcp     *mcp.Server
	store   *store.Store
	hooks   *hooks.HookManager
	metrics *Metrics
	tracer  trace.Tracer
	logger  *logging.Logger
	window  string
}

// NewServer creates a server over s. A nil hook manager runs no hooks.
func NewServer(cfg *Config, s *store.Store, h *hooks.HookManager) (*Server, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.ReportWindow == "" {
		cfg.ReportWindow = "7d"
	}
	if h == nil {
		h = hooks.NewHookManager(nil)
	}

	logger := cfg.Logger.Named("mcp")
	srv := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		store:   s,
		hooks:   h,
		metrics: NewMetrics(cfg.Telemetry.Meter(instrumentationName), logger),
		tracer:  cfg.Telemetry.Tracer(instrumentationName),
		logger:  logger,
		window:  cfg.ReportWindow,
	}
	srv.registerTools()
	return srv, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run emits the startup event and serves on the stdio transport until ctx
// is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	ctx = logging.WithProject(ctx, s.store.Root())
	if err := s.hooks.Emit(ctx, "startup"); err != nil {
		s.logger.Warn(ctx, "startup hooks failed", zap.Error(err))
	}
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// toolFunc runs one engine operation and returns its structured result
// plus the text shown to the caller.
type toolFunc[In, Out any] func(ctx context.Context, in In) (Out, string, error)

// addTool registers fn with hooks, tracing and metrics around it.
func addTool[In, Out any](s *Server, tool *mcp.Tool, fn toolFunc[In, Out]) {
	name := tool.Name
	mcp.AddTool(s.mcp, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		var zero Out
		start := time.Now()
		ctx = logging.WithTool(ctx, name)
		ctx, span := s.tracer.Start(ctx, "mcp."+name, trace.WithAttributes(attribute.String("tool", name)))
		defer span.End()

		s.metrics.IncrementActive(ctx, name)
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, name)
			s.metrics.RecordInvocation(ctx, name, time.Since(start), toolErr)
			if toolErr != nil {
				span.RecordError(toolErr)
				span.SetStatus(codes.Error, toolErr.Error())
			}
		}()

		blocked, err := s.hooks.Before(ctx, name, toArgs(in))
		if err != nil {
			toolErr = err
			return nil, zero, err
		}
		if blocked != "" {
			toolErr = &BlockedError{Tool: name, Message: blocked}
			s.logger.Warn(ctx, "tool call blocked")
			return nil, zero, toolErr
		}

		out, text, err := fn(ctx, in)
		if err != nil {
			toolErr = err
			if store.IsValidation(err) {
				s.logger.Debug(ctx, "tool call rejected", zap.Error(err))
			} else {
				s.logger.Error(ctx, "tool call failed", zap.Error(err))
			}
			return nil, zero, err
		}

		text, err = s.hooks.After(ctx, name, text)
		if err != nil {
			s.logger.Warn(ctx, "after_tool hooks failed", zap.Error(err))
		}
		s.logger.Debug(ctx, "tool call complete", zap.Duration("duration", time.Since(start)))

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, out, nil
	})
}

// toArgs flattens a typed input into the map hooks inspect.
func toArgs(in any) map[string]any {
	args := map[string]any{}
	raw, err := json.Marshal(in)
	if err != nil {
		return args
	}
	_ = json.Unmarshal(raw, &args)
	return args
}
