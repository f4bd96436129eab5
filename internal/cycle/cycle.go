package cycle

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
	"github.com/fyrsmithlabs/ohmymkt/internal/tracks"
)

// Cadence is a review frequency.
type Cadence string

const (
	Weekly    Cadence = "weekly"
	Monthly   Cadence = "monthly"
	Quarterly Cadence = "quarterly"
)

// ParseCadence lowercases and validates raw.
func ParseCadence(raw string) (Cadence, error) {
	switch c := Cadence(strings.ToLower(strings.TrimSpace(raw))); c {
	case Weekly, Monthly, Quarterly:
		return c, nil
	}
	return "", store.Validationf("cadence", "Cycle cadence must be one of: weekly, monthly, quarterly")
}

// LookbackDays returns the incident window for c.
func (c Cadence) LookbackDays() int {
	switch c {
	case Weekly:
		return 7
	case Monthly:
		return 30
	default:
		return 90
	}
}

// Title returns the capitalized cadence name.
func (c Cadence) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Decision is the outcome of a cycle.
type Decision string

const (
	Continue  Decision = "continue"
	Intervene Decision = "intervene"
	Rollback  Decision = "rollback"
)

// Decisions returns every decision in severity order.
func Decisions() []Decision {
	return []Decision{Continue, Intervene, Rollback}
}

// DecisionResult pairs a decision with its reason.
type DecisionResult struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason"`
}

// Decide applies the decision rule to the current track metrics and the
// incident counts of the lookback window.
func Decide(metrics tracks.State, counts incidents.SeverityCount) DecisionResult {
	visibilityUp := tracks.TrendOf(metrics, tracks.Visibility, tracks.NonBrandVisibilityTrend) == tracks.TrendUp ||
		tracks.TrendOf(metrics, tracks.Visibility, tracks.QueryClusterCoverageTrend) == tracks.TrendUp
	qualityUp := tracks.TrendOf(metrics, tracks.Quality, tracks.HighIntentSessionTrend) == tracks.TrendUp ||
		tracks.TrendOf(metrics, tracks.Quality, tracks.ConversionAssistTrend) == tracks.TrendUp

	switch {
	case counts.P0 > 0:
		return DecisionResult{Decision: Rollback, Reason: "P0 incident detected in current observation window"}
	case visibilityUp && !qualityUp:
		return DecisionResult{Decision: Intervene, Reason: "Visibility rises while quality does not improve"}
	case visibilityUp && qualityUp:
		return DecisionResult{Decision: Continue, Reason: "Visibility and quality both show upward trend"}
	default:
		return DecisionResult{Decision: Intervene, Reason: "Insufficient multi-track progress for safe scale"}
	}
}

// DefaultActions returns the checklist for a decision, extended with the
// cadence-specific action for monthly and quarterly reviews.
func DefaultActions(c Cadence, d Decision) []string {
	var actions []string
	switch d {
	case Continue:
		actions = []string{
			"Expand winning query clusters with proven templates",
			"Keep dual-track allocation balanced",
			"Archive winner patterns in quarterly playbook",
		}
	case Rollback:
		actions = []string{
			"Pause scale modules immediately",
			"Rollback high-risk template changes",
			"Open P0 postmortem and prevention actions",
		}
	default:
		actions = []string{
			"Run focused remediation sprint on failing modules",
			"Re-check gates and data consistency before expansion",
			"Adjust refresh/new ratio for next cycle",
		}
	}

	switch c {
	case Monthly:
		actions = append(actions, "Rebalance cluster-level investment")
	case Quarterly:
		actions = append(actions, "Run architecture governance review")
	}
	return actions
}

// Result is the outcome of Run.
type Result struct {
	ReportFile string   `json:"reportFile"`
	Decision   Decision `json:"decision"`
	Reason     string   `json:"reason"`
	Actions    []string `json:"actions"`
}

// Run executes one cadence review. The only error it reports for bad input
// is an invalid cadence; missing or malformed state renders as placeholders.
func Run(s *store.Store, cadence string) (Result, error) {
	c, err := ParseCadence(cadence)
	if err != nil {
		return Result{}, err
	}
	paths := s.Paths()

	gateResult := gates.EvaluateCurrent(s)
	metrics := tracks.Load(s)
	counts := incidents.CountSeverity(incidents.List(s, c.LookbackDays()))
	decision := Decide(metrics, counts)
	actions := DefaultActions(c, decision.Decision)
	execution := store.ReadJSON(paths.ExecutionFile, store.Fields{})

	now := s.NowISO()
	body := RenderReport(ReportInput{
		Cadence:     c,
		Date:        s.Today(),
		ActivePlan:  execution.Display("active_plan", ""),
		Gates:       gateResult,
		Metrics:     metrics,
		Incidents:   counts,
		Decision:    decision,
		Actions:     actions,
		GeneratedAt: now,
	})

	reportFile := filepath.Join(paths.ReportsDir, string(c), fmt.Sprintf("%s-%s.md", s.Today(), c))
	if err := store.WriteText(reportFile, body); err != nil {
		return Result{}, err
	}

	if err := appendLog(s, LogEntry{
		Cadence:     c,
		ReportFile:  reportFile,
		Decision:    decision.Decision,
		Reason:      decision.Reason,
		GeneratedAt: now,
	}); err != nil {
		return Result{}, err
	}

	return Result{
		ReportFile: reportFile,
		Decision:   decision.Decision,
		Reason:     decision.Reason,
		Actions:    actions,
	}, nil
}

// Summary renders the decision, reason, actions and report path.
func (r Result) Summary() string {
	lines := []string{
		"Decision: " + string(r.Decision),
		"Reason: " + r.Reason,
		"",
		"Actions:",
	}
	for _, a := range r.Actions {
		lines = append(lines, "- "+a)
	}
	lines = append(lines, "", "Report: "+r.ReportFile)
	return strings.Join(lines, "\n")
}
