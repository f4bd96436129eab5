package reports

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/ohmymkt/internal/cycle"
	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

const summaryDir = "summary"

// Recommendation messages, in priority order.
const (
	RecommendGatesFirst      = "Do not run scale modules until all startup gates pass"
	RecommendRollbackPrev    = "Prioritize rollback prevention actions before next scale cycle"
	RecommendRemediation     = "Increase remediation capacity for quality track modules"
	RecommendKeepSteadyState = "Keep dual-track execution and continue winner-pattern codification"
)

// Result is the outcome of GenerateGrowth.
type Result struct {
	FilePath        string                  `json:"filePath"`
	Days            int                     `json:"days"`
	DecisionCount   cycle.DecisionCount     `json:"decisionCount"`
	IncidentCount   incidents.SeverityCount `json:"incidentCount"`
	GatesPassed     bool                    `json:"gatesPassed"`
	Recommendations []string                `json:"recommendations"`
}

// Recommend derives the recommendation list. It always returns at least one
// entry.
func Recommend(gatesPassed bool, decisions cycle.DecisionCount, counts incidents.SeverityCount) []string {
	var recs []string
	if !gatesPassed {
		recs = append(recs, RecommendGatesFirst)
	}
	if decisions.Rollback > 0 || counts.P0 > 0 {
		recs = append(recs, RecommendRollbackPrev)
	}
	if decisions.Intervene > decisions.Continue {
		recs = append(recs, RecommendRemediation)
	}
	if len(recs) == 0 {
		recs = append(recs, RecommendKeepSteadyState)
	}
	return recs
}

// GenerateGrowth summarizes the last window (e.g. "30d"; invalid input means
// 30 days) and writes the summary to reports/summary/<date>-<days>d.md.
// Gates are re-evaluated rather than read from the cycle log.
func GenerateGrowth(s *store.Store, window string) (Result, error) {
	days := store.ParseWindow(window)
	cutoff := store.WindowStart(s.Now(), days)

	decisions := cycle.CountDecisions(cycle.Since(cycle.ReadLog(s), cutoff))
	counts := incidents.CountSeverity(incidents.Since(s, cutoff))
	gateResult := gates.EvaluateCurrent(s)
	recs := Recommend(gateResult.AllPassed, decisions, counts)

	body := RenderSummary(SummaryInput{
		Window:          fmt.Sprintf("%dd", days),
		GeneratedAt:     s.NowISO(),
		GatesPassed:     gateResult.AllPassed,
		Gates:           gateResult.Evaluations,
		Decisions:       decisions,
		Incidents:       counts,
		Recommendations: recs,
	})

	path := filepath.Join(s.Paths().ReportsDir, summaryDir, fmt.Sprintf("%s-%dd.md", s.Today(), days))
	if err := store.WriteText(path, body); err != nil {
		return Result{}, err
	}

	return Result{
		FilePath:        path,
		Days:            days,
		DecisionCount:   decisions,
		IncidentCount:   counts,
		GatesPassed:     gateResult.AllPassed,
		Recommendations: recs,
	}, nil
}

// SummaryInput is everything a growth summary embeds.
type SummaryInput struct {
	Window          string
	GeneratedAt     string
	GatesPassed     bool
	Gates           []gates.Evaluation
	Decisions       cycle.DecisionCount
	Incidents       incidents.SeverityCount
	Recommendations []string
}

// RenderSummary renders the markdown growth summary.
func RenderSummary(in SummaryInput) string {
	status := "FAIL"
	if in.GatesPassed {
		status = "PASS"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Growth Summary (%s)\n\n", in.Window)

	b.WriteString("## Snapshot\n")
	fmt.Fprintf(&b, "- Generated at: %s\n", in.GeneratedAt)
	fmt.Fprintf(&b, "- Gate pass status: %s\n\n", status)

	b.WriteString("## Gate Details\n")
	for _, g := range in.Gates {
		fmt.Fprintf(&b, "- %s: %s\n", g.Label, strings.ToUpper(string(g.Status)))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Cycle Decisions (%s)\n", in.Window)
	fmt.Fprintf(&b, "- Continue: %d\n- Intervene: %d\n- Rollback: %d\n\n",
		in.Decisions.Continue, in.Decisions.Intervene, in.Decisions.Rollback)

	fmt.Fprintf(&b, "## Incident Severity (%s)\n", in.Window)
	fmt.Fprintf(&b, "- P0: %d\n- P1: %d\n- P2: %d\n\n", in.Incidents.P0, in.Incidents.P1, in.Incidents.P2)

	b.WriteString("## Recommendations\n")
	for _, r := range in.Recommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}

// Summary renders the headline numbers of a growth report.
func (r Result) Summary() string {
	gateStatus := "FAIL"
	if r.GatesPassed {
		gateStatus = "PASS"
	}
	dc := r.DecisionCount
	return strings.Join([]string{
		fmt.Sprintf("Growth report generated (%dd window)", r.Days),
		"Gates: " + gateStatus,
		fmt.Sprintf("Decisions: continue: %d, intervene: %d, rollback: %d", dc.Continue, dc.Intervene, dc.Rollback),
		"Incidents: " + r.IncidentCount.Summary(),
		"File: " + r.FilePath,
	}, "\n")
}
