package hooks

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ohmymkt/internal/cycle"
	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/logging"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

// Tool names the built-in handlers react to.
const (
	ToolIncident = "ohmymkt_incident"
	ToolRunCycle = "ohmymkt_run_cycle"
)

const p0Escalation = "\n\n---\n[P0 AUTO-ESCALATION] Critical incident detected. " +
	"Immediate actions required:\n" +
	"1. Pause all active scale modules\n" +
	"2. Rollback high-risk template changes from current cycle\n" +
	"3. Open postmortem within 24 hours\n" +
	"4. Run ohmymkt_run_cycle to reassess system state"

const dualTrackWarning = "\n\n---\n[DUAL-TRACK WARNING] Single-track drift detected. " +
	"Visibility gains without quality improvement risk hollow growth. " +
	"Rebalance investment: increase quality-track allocation before next scale cycle."

var singleTrackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)visibility\s+rises?\s+while\s+quality\s+does\s+not`),
	regexp.MustCompile(`(?i)insufficient\s+multi-track\s+progress`),
	regexp.MustCompile(`(?i)decision:\s*intervene`),
}

// RegisterBuiltins registers the handlers enabled in the manager's config.
func RegisterBuiltins(h *HookManager, s *store.Store, logger *logging.Logger) {
	cfg := h.Config()
	if cfg.GateEnforcer {
		h.RegisterHandler(HookBeforeTool, GateEnforcer(s, cfg))
	}
	if cfg.P0Escalation {
		h.RegisterHandler(HookAfterTool, P0Escalation())
	}
	if cfg.DualTrackWarning {
		h.RegisterHandler(HookAfterTool, DualTrackWarning())
	}
	if cfg.CycleReminder {
		h.RegisterHandler(HookEvent, CycleReminder(s, cfg.CycleReminderAge(), logger))
	}
}

// GateEnforcer blocks gated tools while any gate fails.
func GateEnforcer(s *store.Store, cfg *Config) HookHandler {
	return func(_ context.Context, inv *Invocation) error {
		if !cfg.IsGated(inv.Tool) {
			return nil
		}
		result := gates.EvaluateCurrent(s)
		if result.AllPassed {
			return nil
		}
		inv.Blocked = fmt.Sprintf("[BLOCKED] Cannot run %s: not all gates pass.\n\n%s\n\nResolve failing gates before launching.",
			inv.Tool, gates.FormatReport(result.Evaluations))
		return nil
	}
}

// P0Escalation appends the escalation protocol to incident output that
// mentions P0.
func P0Escalation() HookHandler {
	return func(_ context.Context, inv *Invocation) error {
		if inv.Tool != ToolIncident || !strings.Contains(inv.Output, "P0") {
			return nil
		}
		inv.Output += p0Escalation
		return nil
	}
}

// DualTrackWarning appends a warning to cycle output that shows
// single-track drift.
func DualTrackWarning() HookHandler {
	return func(_ context.Context, inv *Invocation) error {
		if inv.Tool != ToolRunCycle {
			return nil
		}
		for _, re := range singleTrackPatterns {
			if re.MatchString(inv.Output) {
				inv.Output += dualTrackWarning
				return nil
			}
		}
		return nil
	}
}

// CycleReminder warns when the last weekly cycle is older than maxAge.
func CycleReminder(s *store.Store, maxAge time.Duration, logger *logging.Logger) HookHandler {
	return func(ctx context.Context, inv *Invocation) error {
		if inv.Event == "" {
			return nil
		}
		days, overdue := cycle.Staleness(s, cycle.Weekly, maxAge)
		if !overdue {
			return nil
		}
		logger.Warn(ctx, fmt.Sprintf("Weekly cycle is %d days overdue. Run ohmymkt_run_cycle with cadence=weekly.", days),
			zap.String("event", inv.Event),
			zap.Int("days_since", days),
		)
		return nil
	}
}
