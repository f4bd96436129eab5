// Command ohmymkt runs the growth gate and cycle engine for a project.
//
// Usage:
//
//	# Evaluate the startup gates
//	ohmymkt check-gates
//
//	# Record a weekly review
//	ohmymkt run-cycle weekly
//
//	# Serve the engine to an agent over MCP stdio
//	ohmymkt mcp
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	os.Exit(execute(newRootCmd(), os.Args[1:]))
}

// execute runs root with args and maps the outcome to an exit code.
func execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	return 1
}

type rootOptions struct {
	project    string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ohmymkt",
		Short: "Growth gate and review cycle engine",
		Long: `ohmymkt tracks a growth program's startup gates, dual-track metrics,
incidents and review cycles as JSON state under <project>/.ohmymkt.

Examples:
  # Check whether the program may launch
  ohmymkt check-gates

  # Mark the strategy gate approved
  ohmymkt update-gate strategy_gate approved true

  # Run the monthly review against another project
  ohmymkt --project ../site run-cycle monthly`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.project, "project", "", "project directory (default: enclosing git worktree of the current directory)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ~/.config/ohmymkt/config.yaml)")

	root.AddCommand(
		newCheckGatesCmd(opts),
		newUpdateGateCmd(opts),
		newUpdateMetricCmd(opts),
		newRunCycleCmd(opts),
		newIncidentCmd(opts),
		newIncidentsCmd(opts),
		newReportGrowthCmd(opts),
		newStateCmd(opts),
		newMCPCmd(opts),
		newServeCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)
	return root
}
