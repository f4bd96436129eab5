package reports

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ohmymkt/internal/cycle"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T) (*store.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	return store.New(t.TempDir(), store.WithClock(clock.Now)), clock
}

func passAllGates(t *testing.T, s *store.Store) {
	t.Helper()
	require.NoError(t, store.WriteJSON(s.Paths().GatesFile, map[string]any{
		"strategy_gate":   map[string]any{"kpi_tree_bound": true, "approved": true},
		"compliance_gate": map[string]any{"documented": true, "accepted_by_all": true},
		"capacity_gate":   map[string]any{"rolling_weeks_feasible": 8},
		"data_gate":       map[string]any{"dashboard_stable": true, "reconcilable": true},
		"ownership_gate":  map[string]any{"priority_query_coverage": 0.9},
	}))
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name      string
		passed    bool
		decisions cycle.DecisionCount
		counts    incidents.SeverityCount
		want      []string
	}{
		{"steady state", true, cycle.DecisionCount{}, incidents.SeverityCount{}, []string{RecommendKeepSteadyState}},
		{"gates failing", false, cycle.DecisionCount{}, incidents.SeverityCount{}, []string{RecommendGatesFirst}},
		{"p0 only", true, cycle.DecisionCount{}, incidents.SeverityCount{P0: 1}, []string{RecommendRollbackPrev}},
		{"ties do not trigger remediation", true, cycle.DecisionCount{Continue: 2, Intervene: 2}, incidents.SeverityCount{P1: 4}, []string{RecommendKeepSteadyState}},
		{
			"everything", false, cycle.DecisionCount{Intervene: 2, Rollback: 1}, incidents.SeverityCount{},
			[]string{RecommendGatesFirst, RecommendRollbackPrev, RecommendRemediation},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(tt.passed, tt.decisions, tt.counts))
		})
	}
}

func TestGenerateGrowth_AllPassingEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	passAllGates(t, s)

	res, err := GenerateGrowth(s, "")
	require.NoError(t, err)

	assert.Equal(t, 30, res.Days)
	assert.True(t, res.GatesPassed)
	assert.Equal(t, []string{"Keep dual-track execution and continue winner-pattern codification"}, res.Recommendations)
	assert.Equal(t, filepath.Join(s.Paths().ReportsDir, "summary", "2026-09-01-30d.md"), res.FilePath)

	body := store.ReadText(res.FilePath, "")
	assert.True(t, strings.HasPrefix(body, "# Growth Summary (30d)\n\n## Snapshot\n- Generated at: 2026-09-01T10:00:00.000Z\n- Gate pass status: PASS\n"))
	assert.Contains(t, body, "- Ownership Gate: PASS\n")
	assert.Contains(t, body, "## Cycle Decisions (30d)\n- Continue: 0\n")
	assert.True(t, strings.HasSuffix(body, "## Recommendations\n- Keep dual-track execution and continue winner-pattern codification\n"))
}

func TestGenerateGrowth_WindowFiltersLogAndIncidents(t *testing.T) {
	s, clock := newTestStore(t)
	start := clock.now

	// Old activity, outside a 7 day window.
	_, err := incidents.Register(s, incidents.Input{Severity: "P0", Summary: "old outage"})
	require.NoError(t, err)
	_, err = cycle.Run(s, "weekly")
	require.NoError(t, err)

	clock.now = start.Add(10 * 24 * time.Hour)
	_, err = incidents.Register(s, incidents.Input{Severity: "p2", Summary: "typo"})
	require.NoError(t, err)
	_, err = cycle.Run(s, "weekly")
	require.NoError(t, err)

	res, err := GenerateGrowth(s, "7D")
	require.NoError(t, err)

	assert.Equal(t, 7, res.Days)
	assert.Equal(t, cycle.DecisionCount{Intervene: 1}, res.DecisionCount)
	assert.Equal(t, incidents.SeverityCount{P2: 1}, res.IncidentCount)
	assert.False(t, res.GatesPassed)
	assert.Equal(t, []string{RecommendGatesFirst, RecommendRemediation}, res.Recommendations)
	assert.Equal(t, filepath.Join(s.Paths().ReportsDir, "summary", "2026-09-11-7d.md"), res.FilePath)

	wide, err := GenerateGrowth(s, "30d")
	require.NoError(t, err)
	assert.Equal(t, cycle.DecisionCount{Intervene: 1, Rollback: 1}, wide.DecisionCount)
	assert.Contains(t, wide.Recommendations, RecommendRollbackPrev)
}

func TestGenerateGrowth_MalformedLog(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, store.WriteText(s.Paths().CycleLogFile, `[{"decision":"continue","generated_at":"garbage"}]`))

	res, err := GenerateGrowth(s, "bogus")
	require.NoError(t, err)
	assert.Equal(t, 30, res.Days)
	assert.Equal(t, cycle.DecisionCount{}, res.DecisionCount)
}

func TestResultSummary(t *testing.T) {
	r := Result{
		FilePath:      "/p/summary.md",
		Days:          7,
		DecisionCount: cycle.DecisionCount{Continue: 2, Rollback: 1},
		IncidentCount: incidents.SeverityCount{P1: 3},
	}

	lines := strings.Split(r.Summary(), "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, "Growth report generated (7d window)", lines[0])
	assert.Equal(t, "Gates: FAIL", lines[1])
	assert.Equal(t, "Decisions: continue: 2, intervene: 0, rollback: 1", lines[2])
	assert.Equal(t, "Incidents: P0: 0, P1: 3, P2: 0", lines[3])
	assert.Equal(t, "File: /p/summary.md", lines[4])
}
