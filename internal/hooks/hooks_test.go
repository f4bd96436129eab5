package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/ohmymkt/internal/logging"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

var fixedNow = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(t.TempDir(), store.WithClock(func() time.Time { return fixedNow }))
}

func passingGates() map[string]any {
	return map[string]any{
		"strategy_gate":   map[string]any{"kpi_tree_bound": true, "approved": true},
		"compliance_gate": map[string]any{"documented": true, "accepted_by_all": true},
		"capacity_gate":   map[string]any{"rolling_weeks_feasible": 8},
		"data_gate":       map[string]any{"dashboard_stable": true, "reconcilable": true},
		"ownership_gate":  map[string]any{"priority_query_coverage": 0.9},
	}
}

func TestHookManager_ExecuteOrder(t *testing.T) {
	m := NewHookManager(nil)
	var calls []string
	m.RegisterHandler(HookAfterTool, func(_ context.Context, inv *Invocation) error {
		calls = append(calls, "first")
		inv.Output += "+1"
		return nil
	})
	m.RegisterHandler(HookAfterTool, func(_ context.Context, inv *Invocation) error {
		calls = append(calls, "second")
		inv.Output += "+2"
		return nil
	})

	out, err := m.After(context.Background(), "any", "base")
	require.NoError(t, err)
	assert.Equal(t, "base+1+2", out)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestHookManager_NoHandlers(t *testing.T) {
	m := NewHookManager(DefaultConfig())

	blocked, err := m.Before(context.Background(), "ohmymkt_check_gates", nil)
	require.NoError(t, err)
	assert.Empty(t, blocked)
	assert.NoError(t, m.Emit(context.Background(), "startup"))
}

func TestHookManager_BlockStopsChain(t *testing.T) {
	m := NewHookManager(nil)
	m.RegisterHandler(HookBeforeTool, func(_ context.Context, inv *Invocation) error {
		inv.Blocked = "no"
		return nil
	})
	m.RegisterHandler(HookBeforeTool, func(context.Context, *Invocation) error {
		t.Fatal("second before handler must not run")
		return nil
	})

	blocked, err := m.Before(context.Background(), "tool", nil)
	require.NoError(t, err)
	assert.Equal(t, "no", blocked)
}

func TestHookManager_HandlerError(t *testing.T) {
	m := NewHookManager(nil)
	m.RegisterHandler(HookEvent, func(context.Context, *Invocation) error {
		return errors.New("boom")
	})

	err := m.Emit(context.Background(), "startup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook event failed")
}

func TestGateEnforcer(t *testing.T) {
	s := newTestStore(t)
	cfg := DefaultConfig()
	handler := GateEnforcer(s, cfg)

	t.Run("ungated tool passes", func(t *testing.T) {
		inv := &Invocation{Tool: "ohmymkt_check_gates"}
		require.NoError(t, handler(context.Background(), inv))
		assert.Empty(t, inv.Blocked)
	})

	t.Run("gated tool blocked while gates fail", func(t *testing.T) {
		inv := &Invocation{Tool: "ohmymkt_start_campaign"}
		require.NoError(t, handler(context.Background(), inv))
		assert.Contains(t, inv.Blocked, "[BLOCKED] Cannot run ohmymkt_start_campaign: not all gates pass.")
		assert.Contains(t, inv.Blocked, "Gate Status")
		assert.Contains(t, inv.Blocked, "- Strategy Gate: FAIL (SEO Lead)")
		assert.Contains(t, inv.Blocked, "Resolve failing gates before launching.")
	})

	t.Run("gated tool allowed once gates pass", func(t *testing.T) {
		require.NoError(t, store.WriteJSON(s.Paths().GatesFile, passingGates()))
		inv := &Invocation{Tool: "ohmymkt_start_campaign"}
		require.NoError(t, handler(context.Background(), inv))
		assert.Empty(t, inv.Blocked)
	})
}

func TestP0Escalation(t *testing.T) {
	handler := P0Escalation()

	inv := &Invocation{Tool: ToolIncident, Output: "Registered INC-x-P0"}
	require.NoError(t, handler(context.Background(), inv))
	assert.Contains(t, inv.Output, "[P0 AUTO-ESCALATION] Critical incident detected.")
	assert.Contains(t, inv.Output, "3. Open postmortem within 24 hours")

	p1 := &Invocation{Tool: ToolIncident, Output: "Registered INC-x-P1"}
	require.NoError(t, handler(context.Background(), p1))
	assert.Equal(t, "Registered INC-x-P1", p1.Output)

	other := &Invocation{Tool: ToolRunCycle, Output: "P0 mentioned"}
	require.NoError(t, handler(context.Background(), other))
	assert.Equal(t, "P0 mentioned", other.Output)
}

func TestDualTrackWarning(t *testing.T) {
	tests := []struct {
		name   string
		tool   string
		output string
		warn   bool
	}{
		{"visibility only", ToolRunCycle, "reason: Visibility rises while quality does not", true},
		{"insufficient progress", ToolRunCycle, "Insufficient multi-track progress", true},
		{"decision line", ToolRunCycle, "Decision:   INTERVENE", true},
		{"continue", ToolRunCycle, "decision: continue", false},
		{"other tool", ToolIncident, "decision: intervene", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invocation{Tool: tt.tool, Output: tt.output}
			require.NoError(t, DualTrackWarning()(context.Background(), inv))
			if tt.warn {
				assert.Contains(t, inv.Output, "[DUAL-TRACK WARNING]")
			} else {
				assert.Equal(t, tt.output, inv.Output)
			}
		})
	}
}

func TestCycleReminder(t *testing.T) {
	s := newTestStore(t)
	tl := logging.NewTestLogger()
	handler := CycleReminder(s, 7*24*time.Hour, tl.Logger)

	// Never run: silent.
	require.NoError(t, handler(context.Background(), &Invocation{Event: "startup"}))
	assert.Empty(t, tl.All())

	require.NoError(t, store.WriteJSON(s.Paths().CycleLogFile, []map[string]any{
		{"cadence": "weekly", "generated_at": "2026-06-01T09:00:00.000Z", "decision": "continue"},
		{"cadence": "monthly", "generated_at": "2026-06-14T09:00:00.000Z", "decision": "continue"},
	}))
	require.NoError(t, handler(context.Background(), &Invocation{Event: "startup"}))

	tl.AssertLogged(t, zapcore.WarnLevel, "Weekly cycle is 14 days overdue. Run ohmymkt_run_cycle with cadence=weekly.")
	tl.AssertField(t, "overdue", "days_since", int64(14))

	tl.Reset()
	require.NoError(t, handler(context.Background(), &Invocation{}))
	assert.Empty(t, tl.All(), "empty event is ignored")
}

func TestCycleReminder_RecentWeekly(t *testing.T) {
	s := newTestStore(t)
	tl := logging.NewTestLogger()
	require.NoError(t, store.WriteJSON(s.Paths().CycleLogFile, []map[string]any{
		{"cadence": "weekly", "generated_at": "2026-06-08T09:00:00.000Z"},
	}))

	require.NoError(t, CycleReminder(s, 7*24*time.Hour, tl.Logger)(context.Background(), &Invocation{Event: "startup"}))
	assert.Empty(t, tl.All(), "exactly seven days is not overdue")
}

func TestRegisterBuiltins(t *testing.T) {
	s := newTestStore(t)
	cfg := DefaultConfig()
	cfg.DualTrackWarning = false
	m := NewHookManager(cfg)
	RegisterBuiltins(m, s, logging.NewNop())

	blocked, err := m.Before(context.Background(), "ohmymkt_start_campaign", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, blocked)

	out, err := m.After(context.Background(), ToolRunCycle, "decision: intervene")
	require.NoError(t, err)
	assert.NotContains(t, out, "DUAL-TRACK", "disabled handler not registered")

	out, err = m.After(context.Background(), ToolIncident, "P0")
	require.NoError(t, err)
	assert.Contains(t, out, "P0 AUTO-ESCALATION")
}
