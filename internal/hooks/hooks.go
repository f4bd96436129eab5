package hooks

import (
	"context"
	"fmt"
)

// HookType represents the point at which a handler runs.
type HookType string

const (
	// HookBeforeTool runs before a tool executes and may block it.
	HookBeforeTool HookType = "before_tool"

	// HookAfterTool runs after a tool executes and may amend its output.
	HookAfterTool HookType = "after_tool"

	// HookEvent runs on lifecycle events such as server start or a state
	// file change.
	HookEvent HookType = "event"
)

// Invocation carries the data a handler inspects and amends.
type Invocation struct {
	Tool   string
	Args   map[string]any
	Output string

	// Blocked, when set by a before handler, replaces the tool's result.
	Blocked string

	// Event names the lifecycle event for HookEvent handlers.
	Event string
}

// HookHandler handles one hook invocation.
type HookHandler func(ctx context.Context, inv *Invocation) error

// HookManager manages registered handlers per hook type.
type HookManager struct {
	config   *Config
	handlers map[HookType][]HookHandler
}

// NewHookManager creates a manager with no handlers.
func NewHookManager(config *Config) *HookManager {
	if config == nil {
		config = DefaultConfig()
	}
	return &HookManager{
		config:   config,
		handlers: make(map[HookType][]HookHandler),
	}
}

// RegisterHandler registers a handler for a hook type. Handlers run in
// registration order. Register everything before serving.
func (h *HookManager) RegisterHandler(hookType HookType, handler HookHandler) {
	h.handlers[hookType] = append(h.handlers[hookType], handler)
}

// Execute runs all handlers for hookType. Before handlers stop at the first
// one that blocks.
func (h *HookManager) Execute(ctx context.Context, hookType HookType, inv *Invocation) error {
	for _, handler := range h.handlers[hookType] {
		if err := handler(ctx, inv); err != nil {
			return fmt.Errorf("hook %s failed: %w", hookType, err)
		}
		if hookType == HookBeforeTool && inv.Blocked != "" {
			return nil
		}
	}
	return nil
}

// Before runs before_tool handlers and returns the block message, if any.
func (h *HookManager) Before(ctx context.Context, tool string, args map[string]any) (string, error) {
	inv := &Invocation{Tool: tool, Args: args}
	if err := h.Execute(ctx, HookBeforeTool, inv); err != nil {
		return "", err
	}
	return inv.Blocked, nil
}

// After runs after_tool handlers and returns the possibly amended output.
func (h *HookManager) After(ctx context.Context, tool, output string) (string, error) {
	inv := &Invocation{Tool: tool, Output: output}
	if err := h.Execute(ctx, HookAfterTool, inv); err != nil {
		return output, err
	}
	return inv.Output, nil
}

// Emit runs event handlers for the named event.
func (h *HookManager) Emit(ctx context.Context, event string) error {
	return h.Execute(ctx, HookEvent, &Invocation{Event: event})
}

// Config returns the hook configuration.
func (h *HookManager) Config() *Config {
	return h.config
}
