package gates

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

// Key identifies one of the five startup gates.
type Key string

const (
	StrategyGate   Key = "strategy_gate"
	ComplianceGate Key = "compliance_gate"
	CapacityGate   Key = "capacity_gate"
	DataGate       Key = "data_gate"
	OwnershipGate  Key = "ownership_gate"
)

const (
	minFeasibleWeeks = 8
	minQueryCoverage = 0.85
	updatedAtField   = "updated_at"
)

// Keys returns every gate in declaration order.
func Keys() []Key {
	return []Key{StrategyGate, ComplianceGate, CapacityGate, DataGate, OwnershipGate}
}

// ParseKey validates a gate key.
func ParseKey(raw string) (Key, error) {
	k := Key(strings.TrimSpace(raw))
	for _, known := range Keys() {
		if k == known {
			return k, nil
		}
	}
	return "", store.Validationf("gate", "Unknown gate %q (expected one of: %s)", raw, keyList())
}

func keyList() string {
	names := make([]string, 0, len(Keys()))
	for _, k := range Keys() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

// Meta describes who owns a gate and how it is labelled.
type Meta struct {
	Key   Key    `json:"key"`
	Owner string `json:"owner"`
	Label string `json:"label"`
}

// Meta returns the owner and label for k.
func (k Key) Meta() Meta {
	switch k {
	case StrategyGate:
		return Meta{Key: k, Owner: "SEO Lead", Label: "Strategy Gate"}
	case ComplianceGate:
		return Meta{Key: k, Owner: "SEO Lead", Label: "Compliance Gate"}
	case CapacityGate:
		return Meta{Key: k, Owner: "Content Lead", Label: "Capacity Gate"}
	case DataGate:
		return Meta{Key: k, Owner: "Growth Analyst", Label: "Data Gate"}
	case OwnershipGate:
		return Meta{Key: k, Owner: "SEO Lead", Label: "Ownership Gate"}
	}
	return Meta{Key: k, Owner: "unassigned", Label: string(k)}
}

// Status is a gate verdict.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Evaluation is the verdict for one gate.
type Evaluation struct {
	Key    Key    `json:"key"`
	Owner  string `json:"owner"`
	Label  string `json:"label"`
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// Passed reports whether the gate passed.
func (e Evaluation) Passed() bool {
	return e.Status == StatusPass
}

// State is the persisted gate document: one field bag per gate plus
// bookkeeping such as updated_at.
type State = store.Fields

// Result is the outcome of evaluating every gate.
type Result struct {
	AllPassed   bool         `json:"allPassed"`
	Evaluations []Evaluation `json:"evaluations"`
	GateState   State        `json:"gateState"`
}

// StrategyFields are the fields the strategy gate reads.
type StrategyFields struct {
	KPITreeBound bool
	Approved     bool
}

// ComplianceFields are the fields the compliance gate reads.
type ComplianceFields struct {
	Documented    bool
	AcceptedByAll bool
}

// CapacityFields are the fields the capacity gate reads.
type CapacityFields struct {
	RollingWeeksFeasible float64
}

// DataFields are the fields the data gate reads.
type DataFields struct {
	DashboardStable bool
	Reconcilable    bool
}

// OwnershipFields are the fields the ownership gate reads.
type OwnershipFields struct {
	PriorityQueryCoverage float64
}

func evaluateStrategy(f StrategyFields) (bool, string) {
	if f.KPITreeBound && f.Approved {
		return true, "KPI tree is bound to business goal and approved"
	}
	return false, "Bind KPI tree to business goal and complete review approval"
}

func evaluateCompliance(f ComplianceFields) (bool, string) {
	if f.Documented && f.AcceptedByAll {
		return true, "Compliance guardrails are documented and accepted"
	}
	return false, "Document guardrails and confirm team-wide acceptance"
}

func evaluateCapacity(f CapacityFields) (bool, string) {
	weeks := store.FormatNumber(f.RollingWeeksFeasible)
	if f.RollingWeeksFeasible >= minFeasibleWeeks {
		return true, fmt.Sprintf("Rolling throughput is feasible for %s weeks", weeks)
	}
	return false, fmt.Sprintf("Throughput must be proven for 8 weeks (current: %s)", weeks)
}

func evaluateData(f DataFields) (bool, string) {
	if f.DashboardStable && f.Reconcilable {
		return true, "Dashboard is stable and data is reconcilable"
	}
	return false, "Stabilize dashboard refresh and enforce dual-value conflict handling"
}

func evaluateOwnership(f OwnershipFields) (bool, string) {
	coverage := store.FormatNumber(f.PriorityQueryCoverage)
	if f.PriorityQueryCoverage >= minQueryCoverage {
		return true, fmt.Sprintf("Priority query ownership coverage is %s", coverage)
	}
	return false, fmt.Sprintf("Priority query ownership coverage must be >= 0.85 (current: %s)", coverage)
}

// evaluateGate dispatches to the gate's predicate. It never fails: absent
// or partial sections evaluate as falsy/zero.
func evaluateGate(k Key, bag store.Fields) (bool, string) {
	switch k {
	case StrategyGate:
		return evaluateStrategy(StrategyFields{
			KPITreeBound: bag.Truthy("kpi_tree_bound"),
			Approved:     bag.Truthy("approved"),
		})
	case ComplianceGate:
		return evaluateCompliance(ComplianceFields{
			Documented:    bag.Truthy("documented"),
			AcceptedByAll: bag.Truthy("accepted_by_all"),
		})
	case CapacityGate:
		return evaluateCapacity(CapacityFields{
			RollingWeeksFeasible: bag.Number("rolling_weeks_feasible"),
		})
	case DataGate:
		return evaluateData(DataFields{
			DashboardStable: bag.Truthy("dashboard_stable"),
			Reconcilable:    bag.Truthy("reconcilable"),
		})
	case OwnershipGate:
		return evaluateOwnership(OwnershipFields{
			PriorityQueryCoverage: bag.Number("priority_query_coverage"),
		})
	}
	return false, fmt.Sprintf("Unknown gate %s", k)
}

// Evaluate computes every gate's verdict from state, in declaration order.
func Evaluate(state State) []Evaluation {
	evals := make([]Evaluation, 0, len(Keys()))
	for _, k := range Keys() {
		pass, reason := evaluateGate(k, state.Section(string(k)))
		meta := k.Meta()
		status := StatusFail
		if pass {
			status = StatusPass
		}
		evals = append(evals, Evaluation{
			Key:    k,
			Owner:  meta.Owner,
			Label:  meta.Label,
			Status: status,
			Reason: reason,
		})
	}
	return evals
}

// AllPassed reports whether every evaluation passed.
func AllPassed(evals []Evaluation) bool {
	for _, e := range evals {
		if !e.Passed() {
			return false
		}
	}
	return true
}

// EvaluateCurrent loads (seeding if needed) and evaluates the project's gates.
func EvaluateCurrent(s *store.Store) Result {
	state := LoadState(s)
	evals := Evaluate(state)
	return Result{
		AllPassed:   AllPassed(evals),
		Evaluations: evals,
		GateState:   state,
	}
}

// FormatReport renders evaluations as a plain-text status block.
func FormatReport(evals []Evaluation) string {
	lines := []string{"Gate Status", "-----------"}
	for _, e := range evals {
		lines = append(lines,
			fmt.Sprintf("- %s: %s (%s)", e.Label, strings.ToUpper(string(e.Status)), e.Owner),
			fmt.Sprintf("  reason: %s", e.Reason),
		)
	}
	return strings.Join(lines, "\n")
}

// Summary renders the gate report followed by the overall verdict.
func (r Result) Summary() string {
	overall := "BLOCKED: one or more gates failed"
	if r.AllPassed {
		overall = "ALL GATES PASSED"
	}
	return fmt.Sprintf("%s\n\nOverall: %s", FormatReport(r.Evaluations), overall)
}
