package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
)

type cliResult struct {
	stdout string
	stderr string
	code   int
}

// runCLI executes the CLI against dir with an isolated home directory.
func runCLI(t *testing.T, dir string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := execute(root, append([]string{"--project", dir}, args...))
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

func passAllGates(t *testing.T, dir string) {
	t.Helper()
	for _, args := range [][]string{
		{"strategy_gate", "kpi_tree_bound", "true"},
		{"strategy_gate", "approved", "true"},
		{"compliance_gate", "documented", "true"},
		{"compliance_gate", "accepted_by_all", "true"},
		{"capacity_gate", "rolling_weeks_feasible", "8"},
		{"data_gate", "dashboard_stable", "true"},
		{"data_gate", "reconcilable", "true"},
		{"ownership_gate", "priority_query_coverage", "0.9"},
	} {
		res := runCLI(t, dir, append([]string{"update-gate"}, args...)...)
		require.Equal(t, 0, res.code, res.stderr)
	}
}

func TestCommandsRegistered(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{
		"check-gates", "update-gate", "update-metric", "run-cycle", "incident",
		"incidents", "report-growth", "state", "mcp", "serve", "watch", "version",
	} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
		assert.NotEmpty(t, cmd.Short, name)
	}
}

func TestCheckGates_BlockedExitCode(t *testing.T) {
	dir := newProject(t)

	res := runCLI(t, dir, "check-gates")

	assert.Equal(t, exitGatesBlocked, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "Gate Status\n"))
	assert.Contains(t, res.stdout, "Overall: BLOCKED: one or more gates failed")
	assert.Empty(t, res.stderr)
}

func TestCheckGates_AllPassed(t *testing.T) {
	dir := newProject(t)
	passAllGates(t, dir)

	res := runCLI(t, dir, "check-gates", "--json")

	require.Equal(t, 0, res.code, res.stderr)
	var result gates.Result
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &result))
	assert.True(t, result.AllPassed)
	assert.Len(t, result.Evaluations, 5)
}

func TestCheckGates_YAML(t *testing.T) {
	dir := newProject(t)

	res := runCLI(t, dir, "check-gates", "--yaml")

	assert.Equal(t, exitGatesBlocked, res.code)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, false, doc["allPassed"])
	assert.Len(t, doc["evaluations"], 5)
}

func TestCheckGates_BadFormat(t *testing.T) {
	res := runCLI(t, newProject(t), "check-gates", "--format", "xml")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `unknown format "xml"`)
}

func TestUpdateGate(t *testing.T) {
	dir := newProject(t)

	res := runCLI(t, dir, "update-gate", "capacity_gate", "rolling_weeks_feasible", "8")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Updated capacity_gate.rolling_weeks_feasible = 8\nOverall: BLOCKED\n", res.stdout)

	res = runCLI(t, dir, "update-gate", "launch_gate", "approved", "true")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Unknown gate")
}

func TestRunCycle(t *testing.T) {
	dir := newProject(t)

	res := runCLI(t, dir, "update-metric", "visibility_track", "non_brand_visibility", "0.4", "up")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Updated visibility_track.non_brand_visibility = 0.4 (trend: up)\n", res.stdout)

	res = runCLI(t, dir, "run-cycle", "weekly")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Decision: intervene")
	assert.Contains(t, res.stdout, "Reason: Visibility rises while quality does not improve")

	res = runCLI(t, dir, "run-cycle", "daily")
	assert.Equal(t, 1, res.code)
}

func TestUpdateMetric_DefaultTrend(t *testing.T) {
	dir := newProject(t)

	res := runCLI(t, dir, "update-metric", "quality_track", "conversion_assist", "3")

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "(trend: unknown)")
}

func TestIncidentForcesRollback(t *testing.T) {
	dir := newProject(t)

	res := runCLI(t, dir, "incident", "--severity", "P0", "--module", "quality_track", "--summary", "Index wipe")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Incident registered: INC-")
	assert.Contains(t, res.stdout, "Severity: P0")

	res = runCLI(t, dir, "run-cycle", "weekly", "--json")
	require.Equal(t, 0, res.code, res.stderr)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "rollback", out["decision"])

	res = runCLI(t, dir, "incidents", "--days", "7")
	require.Equal(t, 0, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "Incidents in last 7d (P0: 1, P1: 0, P2: 0)"))
}

func TestIncident_RequiresFlags(t *testing.T) {
	res := runCLI(t, newProject(t), "incident", "--severity", "P1")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "summary")
}

func TestReportGrowth_DefaultWindow(t *testing.T) {
	dir := newProject(t)

	res := runCLI(t, dir, "report-growth")
	require.Equal(t, 0, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "Growth report generated (30d window)"))

	res = runCLI(t, dir, "report-growth", "--window", "90d")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "(90d window)")
}

func TestState(t *testing.T) {
	dir := newProject(t)

	res := runCLI(t, dir, "state", "metrics")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "State file 'metrics' does not exist yet.\n", res.stdout)

	runCLI(t, dir, "check-gates")
	res = runCLI(t, dir, "state", "gates")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"updated_at"`)

	res = runCLI(t, dir, "state", "secrets")
	assert.Equal(t, 1, res.code)
}

func TestVersion(t *testing.T) {
	res := runCLI(t, newProject(t), "version")

	require.Equal(t, 0, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "ohmymkt dev\n"))
}
