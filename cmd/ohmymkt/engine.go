package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ohmymkt/internal/cycle"
	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
	"github.com/fyrsmithlabs/ohmymkt/internal/reports"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
	"github.com/fyrsmithlabs/ohmymkt/internal/tracks"
)

// exitGatesBlocked is the exit code of check-gates when a gate fails.
const exitGatesBlocked = 2

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "o", formatText, "output format: text, json or yaml")
	cmd.Flags().Bool("json", false, "shorthand for --format json")
	cmd.Flags().Bool("yaml", false, "shorthand for --format yaml")
}

func resolveFormat(cmd *cobra.Command, format string) (string, error) {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return formatJSON, nil
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return formatYAML, nil
	}
	return format, validFormat(format)
}

func newCheckGatesCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "check-gates",
		Short: "Evaluate the five startup gates",
		Long: `Evaluate the strategy, compliance, capacity, data and ownership gates.

Exits with status 2 when any gate fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := resolveFormat(cmd, format)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			result := gates.EvaluateCurrent(a.store)
			if err := render(cmd.OutOrStdout(), f, result, result.Summary()); err != nil {
				return err
			}
			if !result.AllPassed {
				return &exitError{code: exitGatesBlocked}
			}
			return nil
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newUpdateGateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update-gate <gate> <field> <value>",
		Short: "Set one field on a startup gate",
		Long: `Set one field on a startup gate. The value is stored as a boolean,
a number or a string.

Examples:
  ohmymkt update-gate capacity_gate rolling_weeks_feasible 8
  ohmymkt update-gate data_gate reconcilable true`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			state, err := gates.UpdateField(a.store, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			verdict := "BLOCKED"
			if gates.AllPassed(gates.Evaluate(state)) {
				verdict = "ALL GATES PASSED"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.%s = %s\nOverall: %s\n",
				strings.TrimSpace(args[0]), strings.TrimSpace(args[1]), args[2], verdict)
			return nil
		},
	}
}

func newUpdateMetricCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update-metric <track> <metric> <value> [trend]",
		Short: "Record a track metric and its trend",
		Long: `Record a metric value on the visibility or quality track. The trend is
one of up, down, flat or unknown and defaults to unknown.

Example:
  ohmymkt update-metric quality_track high_intent_session 0.12 up`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			u := tracks.Update{Track: args[0], Metric: args[1], Value: args[2], Trend: string(tracks.TrendUnknown)}
			if len(args) == 4 {
				u.Trend = args[3]
			}
			if _, err := tracks.Apply(a.store, u); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tracks.Describe(u))
			return nil
		},
	}
}

func newRunCycleCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:       "run-cycle <weekly|monthly|quarterly>",
		Short:     "Run a review cycle and write its report",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(cycle.Weekly), string(cycle.Monthly), string(cycle.Quarterly)},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(cmd, format)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			result, err := cycle.Run(a.store, args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), f, result, result.Summary())
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newIncidentCmd(opts *rootOptions) *cobra.Command {
	var in incidents.Input
	cmd := &cobra.Command{
		Use:   "incident",
		Short: "Register a growth incident",
		Long: `Register an incident. A P0 forces rollback in the next cycle decision.

Example:
  ohmymkt incident --severity P1 --module quality_track --summary "Thin pages indexed"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			reg, err := incidents.Register(a.store, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reg.Summary())
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Severity, "severity", "", "incident severity: P0, P1 or P2")
	cmd.Flags().StringVar(&in.Module, "module", "", "affected module (default unspecified)")
	cmd.Flags().StringVar(&in.Summary, "summary", "", "short description")
	_ = cmd.MarkFlagRequired("severity")
	_ = cmd.MarkFlagRequired("summary")
	return cmd
}

func newIncidentsCmd(opts *rootOptions) *cobra.Command {
	var (
		days   int
		format string
	)
	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "List incidents in a look-back window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := resolveFormat(cmd, format)
			if err != nil {
				return err
			}
			if days <= 0 {
				return store.Validationf("days", "days must be a positive integer")
			}
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			records := incidents.List(a.store, days)
			counts := incidents.CountSeverity(records)

			lines := []string{fmt.Sprintf("Incidents in last %dd (%s)", days, counts.Summary())}
			for _, r := range records {
				lines = append(lines, fmt.Sprintf("- %s [%s] %s: %s", r.CreatedAt, r.Severity, r.Module, r.Summary))
			}
			out := struct {
				Days      int                     `json:"days"`
				Incidents []incidents.Record      `json:"incidents"`
				Counts    incidents.SeverityCount `json:"counts"`
			}{days, records, counts}
			return render(cmd.OutOrStdout(), f, out, strings.Join(lines, "\n"))
		},
	}
	cmd.Flags().IntVar(&days, "days", store.DefaultWindowDays, "look-back window in days")
	addFormatFlag(cmd, &format)
	return cmd
}

func newReportGrowthCmd(opts *rootOptions) *cobra.Command {
	var (
		window string
		format string
	)
	cmd := &cobra.Command{
		Use:   "report-growth",
		Short: "Summarize cycles, incidents and gates over a window",
		Long: `Write a growth summary report for the window (e.g. 7d, 30d, 90d).
The window defaults to engine.report_window from the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := resolveFormat(cmd, format)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			if window == "" {
				window = a.cfg.Engine.ReportWindow
			}
			result, err := reports.GenerateGrowth(a.store, window)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), f, result, result.Summary())
		},
	}
	cmd.Flags().StringVar(&window, "window", "", "time window like 7d, 30d or 90d")
	addFormatFlag(cmd, &format)
	return cmd
}

func newStateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "state <file>",
		Short:     "Print a runtime state file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: store.StateFiles(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			name := strings.TrimSpace(args[0])
			path, ok := a.store.Paths().StateFile(name)
			if !ok {
				return store.Validationf("file", "State file must be one of: %s", strings.Join(store.StateFiles(), ", "))
			}
			content := store.ReadJSON[any](path, nil)
			if content == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "State file '%s' does not exist yet.\n", name)
				return nil
			}
			out, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
