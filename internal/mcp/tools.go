package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/ohmymkt/internal/cycle"
	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
	"github.com/fyrsmithlabs/ohmymkt/internal/reports"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
	"github.com/fyrsmithlabs/ohmymkt/internal/tracks"
)

// Tool names.
const (
	ToolCheckGates    = "ohmymkt_check_gates"
	ToolUpdateGates   = "ohmymkt_update_gates"
	ToolUpdateMetrics = "ohmymkt_update_metrics"
	ToolRunCycle      = "ohmymkt_run_cycle"
	ToolIncident      = "ohmymkt_incident"
	ToolListIncidents = "ohmymkt_list_incidents"
	ToolReportGrowth  = "ohmymkt_report_growth"
	ToolReadState     = "ohmymkt_read_state"
)

type checkGatesInput struct{}

type updateGateInput struct {
	Gate  string `json:"gate" jsonschema:"Gate key, e.g. strategy_gate"`
	Field string `json:"field" jsonschema:"Field name within the gate, e.g. approved"`
	Value string `json:"value" jsonschema:"New value, parsed as boolean, number or string"`
}

type updateGateOutput struct {
	Gate      string `json:"gate"`
	Field     string `json:"field"`
	Value     any    `json:"value"`
	AllPassed bool   `json:"allPassed"`
}

type updateMetricInput struct {
	Track  string `json:"track" jsonschema:"Track key: visibility_track or quality_track"`
	Metric string `json:"metric" jsonschema:"Metric name, e.g. non_brand_visibility"`
	Value  string `json:"value" jsonschema:"Metric value"`
	Trend  string `json:"trend" jsonschema:"Trend direction: up, down, flat or unknown"`
}

type updateMetricOutput struct {
	Track   string       `json:"track"`
	Metric  string       `json:"metric"`
	Metrics store.Fields `json:"metrics"`
}

type runCycleInput struct {
	Cadence string `json:"cadence" jsonschema:"Cycle cadence: weekly, monthly or quarterly"`
}

type incidentInput struct {
	Severity string `json:"severity" jsonschema:"Incident severity: P0, P1 or P2"`
	Module   string `json:"module,omitempty" jsonschema:"Affected module or track name"`
	Summary  string `json:"summary" jsonschema:"Brief description of the incident"`
}

type listIncidentsInput struct {
	Days int `json:"days,omitempty" jsonschema:"Look-back window in days (default 30)"`
}

type listIncidentsOutput struct {
	Days      int                     `json:"days"`
	Incidents []incidents.Record      `json:"incidents"`
	Counts    incidents.SeverityCount `json:"counts"`
}

type reportGrowthInput struct {
	Window string `json:"window,omitempty" jsonschema:"Time window like 7d, 30d or 90d"`
}

type readStateInput struct {
	File string `json:"file" jsonschema:"State file: gates, metrics, cycles, execution, boulder or sprint-board"`
}

type readStateOutput struct {
	File    string `json:"file"`
	Exists  bool   `json:"exists"`
	Content any    `json:"content"`
}

func (s *Server) registerTools() {
	addTool(s, &mcp.Tool{
		Name:        ToolCheckGates,
		Description: "Evaluate the five startup gates (Strategy, Compliance, Capacity, Data, Ownership) and report pass/fail status. Run this before starting a campaign to verify readiness.",
	}, s.checkGates)

	addTool(s, &mcp.Tool{
		Name:        ToolUpdateGates,
		Description: "Update one field on a startup gate. Gate keys: strategy_gate, compliance_gate, capacity_gate, data_gate, ownership_gate. Values are parsed as boolean, number or string.",
	}, s.updateGate)

	addTool(s, &mcp.Tool{
		Name:        ToolUpdateMetrics,
		Description: "Update a metric within a track (visibility_track or quality_track) with its value and trend direction.",
	}, s.updateMetric)

	addTool(s, &mcp.Tool{
		Name:        ToolRunCycle,
		Description: "Run a review cycle at the given cadence. Evaluates gates, track metrics and incidents to produce a continue/intervene/rollback decision with recommended actions.",
	}, s.runCycle)

	addTool(s, &mcp.Tool{
		Name:        ToolIncident,
		Description: "Register a growth incident with severity (P0/P1/P2), affected module and summary. A P0 forces rollback in the next cycle decision.",
	}, s.registerIncident)

	addTool(s, &mcp.Tool{
		Name:        ToolListIncidents,
		Description: "List incidents registered within a look-back window with per-severity counts.",
	}, s.listIncidents)

	addTool(s, &mcp.Tool{
		Name:        ToolReportGrowth,
		Description: "Generate a growth summary report over a time window, aggregating cycle decisions, incident counts and gate status.",
	}, s.reportGrowth)

	addTool(s, &mcp.Tool{
		Name:        ToolReadState,
		Description: "Read a runtime state file and return its raw JSON content.",
	}, s.readState)
}

func (s *Server) checkGates(_ context.Context, _ checkGatesInput) (gates.Result, string, error) {
	result := gates.EvaluateCurrent(s.store)
	return result, result.Summary(), nil
}

func (s *Server) updateGate(_ context.Context, in updateGateInput) (updateGateOutput, string, error) {
	state, err := gates.UpdateField(s.store, in.Gate, in.Field, in.Value)
	if err != nil {
		return updateGateOutput{}, "", err
	}
	gate := strings.TrimSpace(in.Gate)
	field := strings.TrimSpace(in.Field)
	out := updateGateOutput{
		Gate:      gate,
		Field:     field,
		Value:     state.Section(gate)[field],
		AllPassed: gates.AllPassed(gates.Evaluate(state)),
	}
	return out, fmt.Sprintf("Updated %s.%s = %s", gate, field, in.Value), nil
}

func (s *Server) updateMetric(_ context.Context, in updateMetricInput) (updateMetricOutput, string, error) {
	u := tracks.Update{Track: in.Track, Metric: in.Metric, Value: in.Value, Trend: in.Trend}
	state, err := tracks.Apply(s.store, u)
	if err != nil {
		return updateMetricOutput{}, "", err
	}
	out := updateMetricOutput{
		Track:   strings.TrimSpace(in.Track),
		Metric:  strings.TrimSpace(in.Metric),
		Metrics: state,
	}
	return out, tracks.Describe(u), nil
}

func (s *Server) runCycle(_ context.Context, in runCycleInput) (cycle.Result, string, error) {
	result, err := cycle.Run(s.store, in.Cadence)
	if err != nil {
		return cycle.Result{}, "", err
	}
	return result, result.Summary(), nil
}

func (s *Server) registerIncident(_ context.Context, in incidentInput) (incidents.Registration, string, error) {
	reg, err := incidents.Register(s.store, incidents.Input{
		Severity: in.Severity,
		Module:   in.Module,
		Summary:  in.Summary,
	})
	if err != nil {
		return incidents.Registration{}, "", err
	}
	return reg, reg.Summary(), nil
}

func (s *Server) listIncidents(_ context.Context, in listIncidentsInput) (listIncidentsOutput, string, error) {
	days := in.Days
	if days <= 0 {
		days = store.DefaultWindowDays
	}
	records := incidents.List(s.store, days)
	counts := incidents.CountSeverity(records)

	lines := []string{fmt.Sprintf("Incidents in last %dd (%s)", days, counts.Summary())}
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("- %s [%s] %s: %s", r.CreatedAt, r.Severity, r.Module, r.Summary))
	}
	return listIncidentsOutput{Days: days, Incidents: records, Counts: counts}, strings.Join(lines, "\n"), nil
}

func (s *Server) reportGrowth(_ context.Context, in reportGrowthInput) (reports.Result, string, error) {
	window := in.Window
	if window == "" {
		window = s.window
	}
	result, err := reports.GenerateGrowth(s.store, window)
	if err != nil {
		return reports.Result{}, "", err
	}
	return result, result.Summary(), nil
}

func (s *Server) readState(_ context.Context, in readStateInput) (readStateOutput, string, error) {
	name := strings.TrimSpace(in.File)
	path, ok := s.store.Paths().StateFile(name)
	if !ok {
		return readStateOutput{}, "", store.Validationf("file", "State file must be one of: %s", strings.Join(store.StateFiles(), ", "))
	}
	content := store.ReadJSON[any](path, nil)
	if content == nil {
		return readStateOutput{File: name}, fmt.Sprintf("State file '%s' does not exist yet.", name), nil
	}
	pretty, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return readStateOutput{}, "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return readStateOutput{File: name, Exists: true, Content: content}, string(pretty), nil
}
