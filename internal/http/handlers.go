package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ohmymkt/internal/cycle"
	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
	"github.com/fyrsmithlabs/ohmymkt/internal/logging"
	"github.com/fyrsmithlabs/ohmymkt/internal/reports"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
	"github.com/fyrsmithlabs/ohmymkt/internal/tracks"
)

// Operation names shared with the MCP surface so one hook configuration
// governs both.
const (
	opCheckGates    = "ohmymkt_check_gates"
	opUpdateGates   = "ohmymkt_update_gates"
	opUpdateMetrics = "ohmymkt_update_metrics"
	opRunCycle      = "ohmymkt_run_cycle"
	opIncident      = "ohmymkt_incident"
	opListIncidents = "ohmymkt_list_incidents"
	opReportGrowth  = "ohmymkt_report_growth"
)

// invoke runs fn between the before_tool and after_tool hooks and writes
// the result with its hook-amended summary.
func invoke[T any](s *Server, c echo.Context, status int, op string, args map[string]any, fn func() (T, string, error)) error {
	ctx := logging.WithTool(c.Request().Context(), op)

	blocked, err := s.hooks.Before(ctx, op, args)
	if err != nil {
		return err
	}
	if blocked != "" {
		s.logger.Warn(ctx, "operation blocked by hook")
		return &BlockedError{Operation: op, Message: blocked}
	}

	result, summary, err := fn()
	if err != nil {
		return err
	}

	summary, err = s.hooks.After(ctx, op, summary)
	if err != nil {
		s.logger.Warn(ctx, "after hooks failed", zap.Error(err))
	}
	s.gauges.Refresh(s.store)
	return c.JSON(status, Response[T]{Result: result, Summary: summary})
}

func bindBody(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Project:   s.store.Root(),
		Telemetry: s.telemetry.IsEnabled(),
	})
}

func (s *Server) handleGetGates(c echo.Context) error {
	return invoke(s, c, http.StatusOK, opCheckGates, map[string]any{}, func() (gates.Result, string, error) {
		result := gates.EvaluateCurrent(s.store)
		return result, result.Summary(), nil
	})
}

func (s *Server) handleUpdateGate(c echo.Context) error {
	var req GateUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	gate, field := strings.TrimSpace(c.Param("gate")), strings.TrimSpace(c.Param("field"))
	args := map[string]any{"gate": gate, "field": field, "value": req.Value}

	return invoke(s, c, http.StatusOK, opUpdateGates, args, func() (GateUpdateResult, string, error) {
		state, err := gates.UpdateField(s.store, gate, field, req.Value)
		if err != nil {
			return GateUpdateResult{}, "", err
		}
		out := GateUpdateResult{
			Gate:      gate,
			Field:     field,
			Value:     state.Section(gate)[field],
			AllPassed: gates.AllPassed(gates.Evaluate(state)),
		}
		return out, fmt.Sprintf("Updated %s.%s = %s", gate, field, req.Value), nil
	})
}

func (s *Server) handleUpdateMetric(c echo.Context) error {
	var req MetricUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	u := tracks.Update{
		Track:  strings.TrimSpace(c.Param("track")),
		Metric: strings.TrimSpace(c.Param("metric")),
		Value:  req.Value,
		Trend:  req.Trend,
	}
	args := map[string]any{"track": u.Track, "metric": u.Metric, "value": u.Value, "trend": u.Trend}

	return invoke(s, c, http.StatusOK, opUpdateMetrics, args, func() (store.Fields, string, error) {
		state, err := tracks.Apply(s.store, u)
		if err != nil {
			return nil, "", err
		}
		return state, tracks.Describe(u), nil
	})
}

func (s *Server) handleCreateIncident(c echo.Context) error {
	var req IncidentRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	args := map[string]any{"severity": req.Severity, "module": req.Module, "summary": req.Summary}

	return invoke(s, c, http.StatusCreated, opIncident, args, func() (incidents.Registration, string, error) {
		reg, err := incidents.Register(s.store, incidents.Input{
			Severity: req.Severity,
			Module:   req.Module,
			Summary:  req.Summary,
		})
		if err != nil {
			return incidents.Registration{}, "", err
		}
		return reg, reg.Summary(), nil
	})
}

func (s *Server) handleListIncidents(c echo.Context) error {
	days := store.DefaultWindowDays
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return store.Validationf("days", "days must be a positive integer")
		}
		days = n
	}

	return invoke(s, c, http.StatusOK, opListIncidents, map[string]any{"days": days}, func() (IncidentList, string, error) {
		records := incidents.List(s.store, days)
		counts := incidents.CountSeverity(records)
		summary := fmt.Sprintf("Incidents in last %dd (%s)", days, counts.Summary())
		return IncidentList{Days: days, Incidents: records, Counts: counts}, summary, nil
	})
}

func (s *Server) handleRunCycle(c echo.Context) error {
	cadence := c.Param("cadence")

	return invoke(s, c, http.StatusOK, opRunCycle, map[string]any{"cadence": cadence}, func() (cycle.Result, string, error) {
		result, err := cycle.Run(s.store, cadence)
		if err != nil {
			return cycle.Result{}, "", err
		}
		s.gauges.ObserveCycle(strings.ToLower(strings.TrimSpace(cadence)), result)
		return result, result.Summary(), nil
	})
}

func (s *Server) handleCycleLog(c echo.Context) error {
	entries := cycle.ReadLog(s.store)
	days, overdue := cycle.Staleness(s.store, cycle.Weekly, s.hooks.Config().CycleReminderAge())
	return c.JSON(http.StatusOK, CycleLog{
		Entries:         entries,
		Decisions:       cycle.CountDecisions(entries),
		WeeklyDaysSince: days,
		WeeklyOverdue:   overdue,
	})
}

func (s *Server) handleReportGrowth(c echo.Context) error {
	window := c.QueryParam("window")
	if window == "" {
		window = s.config.ReportWindow
	}

	return invoke(s, c, http.StatusOK, opReportGrowth, map[string]any{"window": window}, func() (reports.Result, string, error) {
		result, err := reports.GenerateGrowth(s.store, window)
		if err != nil {
			return reports.Result{}, "", err
		}
		return result, result.Summary(), nil
	})
}

func (s *Server) handleGetReport(c echo.Context) error {
	path, err := resolveReport(s.store.Paths().ReportsDir, c.Param("*"))
	if err != nil {
		return err
	}
	body, err := readReport(path)
	if err != nil {
		return err
	}
	if wantsHTML(c.Request()) {
		page, err := renderHTML(body)
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		return c.HTMLBlob(http.StatusOK, page)
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", body)
}

func (s *Server) handleGetState(c echo.Context) error {
	name := strings.TrimSpace(c.Param("file"))
	path, ok := s.store.Paths().StateFile(name)
	if !ok {
		return store.Validationf("file", "State file must be one of: %s", strings.Join(store.StateFiles(), ", "))
	}
	content := store.ReadJSON[any](path, nil)
	return c.JSON(http.StatusOK, StateResponse{File: name, Exists: content != nil, Content: content})
}
