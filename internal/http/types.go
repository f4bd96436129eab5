package http

import (
	"github.com/fyrsmithlabs/ohmymkt/internal/cycle"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Project   string `json:"project"`
	Telemetry bool   `json:"telemetry"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Response wraps an operation result with the caller-facing text, after
// after_tool hooks have amended it.
type Response[T any] struct {
	Result  T      `json:"result"`
	Summary string `json:"summary"`
}

// GateUpdateRequest is the body for PUT /api/v1/gates/:gate/:field.
type GateUpdateRequest struct {
	Value string `json:"value"`
}

// GateUpdateResult echoes the stored value and the new overall verdict.
type GateUpdateResult struct {
	Gate      string `json:"gate"`
	Field     string `json:"field"`
	Value     any    `json:"value"`
	AllPassed bool   `json:"allPassed"`
}

// MetricUpdateRequest is the body for PUT /api/v1/metrics/:track/:metric.
type MetricUpdateRequest struct {
	Value string `json:"value"`
	Trend string `json:"trend"`
}

// IncidentRequest is the body for POST /api/v1/incidents.
type IncidentRequest struct {
	Severity string `json:"severity"`
	Module   string `json:"module"`
	Summary  string `json:"summary"`
}

// IncidentList is the response body for GET /api/v1/incidents.
type IncidentList struct {
	Days      int                     `json:"days"`
	Incidents []incidents.Record      `json:"incidents"`
	Counts    incidents.SeverityCount `json:"counts"`
}

// CycleLog is the response body for GET /api/v1/cycles.
type CycleLog struct {
	Entries         []cycle.LogEntry    `json:"entries"`
	Decisions       cycle.DecisionCount `json:"decisions"`
	WeeklyDaysSince int                 `json:"weeklyDaysSince"`
	WeeklyOverdue   bool                `json:"weeklyOverdue"`
}

// StateResponse is the response body for GET /api/v1/state/:file.
type StateResponse struct {
	File    string `json:"file"`
	Exists  bool   `json:"exists"`
	Content any    `json:"content,omitempty"`
}
