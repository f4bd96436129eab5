package cycle

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
	"github.com/fyrsmithlabs/ohmymkt/internal/tracks"
)

// ReportInput is everything a cycle report embeds.
type ReportInput struct {
	Cadence     Cadence
	Date        string
	ActivePlan  string
	Gates       gates.Result
	Metrics     tracks.State
	Incidents   incidents.SeverityCount
	Decision    DecisionResult
	Actions     []string
	GeneratedAt string
}

// RenderReport renders the markdown cycle report.
func RenderReport(in ReportInput) string {
	plan := in.ActivePlan
	if plan == "" {
		plan = "none"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Cycle Report (%s)\n\n", in.Cadence.Title(), in.Date)

	b.WriteString("## Context\n")
	fmt.Fprintf(&b, "- Active plan: %s\n", plan)
	fmt.Fprintf(&b, "- Generated at: %s\n\n", in.GeneratedAt)

	b.WriteString("## Gate Snapshot\n")
	for _, e := range in.Gates.Evaluations {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", e.Label, strings.ToUpper(string(e.Status)), e.Reason)
	}
	b.WriteString("\n")

	b.WriteString("## Track Metrics\n")
	fmt.Fprintf(&b, "- Visibility / non-brand trend: %s\n",
		tracks.TrendOf(in.Metrics, tracks.Visibility, tracks.NonBrandVisibilityTrend))
	fmt.Fprintf(&b, "- Visibility / cluster coverage trend: %s\n",
		tracks.TrendOf(in.Metrics, tracks.Visibility, tracks.QueryClusterCoverageTrend))
	fmt.Fprintf(&b, "- Quality / high-intent session trend: %s\n",
		tracks.TrendOf(in.Metrics, tracks.Quality, tracks.HighIntentSessionTrend))
	fmt.Fprintf(&b, "- Quality / conversion assist trend: %s\n\n",
		tracks.TrendOf(in.Metrics, tracks.Quality, tracks.ConversionAssistTrend))

	b.WriteString("## Incidents in Window\n")
	fmt.Fprintf(&b, "- P0: %d\n- P1: %d\n- P2: %d\n\n", in.Incidents.P0, in.Incidents.P1, in.Incidents.P2)

	b.WriteString("## Decision\n")
	fmt.Fprintf(&b, "- Decision: %s\n", in.Decision.Decision)
	fmt.Fprintf(&b, "- Reason: %s\n\n", in.Decision.Reason)

	b.WriteString("## Next Actions\n")
	for _, a := range in.Actions {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return b.String()
}
