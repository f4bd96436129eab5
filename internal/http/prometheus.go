package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fyrsmithlabs/ohmymkt/internal/cycle"
	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/incidents"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

// Gauges exposes the project's growth state in Prometheus format. Values
// are refreshed from disk on every request that reads or mutates state.
type Gauges struct {
	registry   *prometheus.Registry
	gatePassed *prometheus.GaugeVec
	allPassed  prometheus.Gauge
	incidents  *prometheus.GaugeVec
	cycles     *prometheus.CounterVec
}

// NewGauges creates a registry with the process and Go collectors plus the
// ohmymkt state gauges.
func NewGauges() *Gauges {
	g := &Gauges{
		registry: prometheus.NewRegistry(),
		gatePassed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ohmymkt_gate_passed",
			Help: "1 when the startup gate passes, 0 otherwise.",
		}, []string{"gate"}),
		allPassed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ohmymkt_gates_all_passed",
			Help: "1 when every startup gate passes.",
		}),
		incidents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ohmymkt_incidents",
			Help: "Incidents registered in the last 30 days by severity.",
		}, []string{"severity"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ohmymkt_cycles_run_total",
			Help: "Review cycles run by this process.",
		}, []string{"cadence", "decision"}),
	}
	g.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		g.gatePassed,
		g.allPassed,
		g.incidents,
		g.cycles,
	)
	return g
}

// Registry returns the registry backing /metrics.
func (g *Gauges) Registry() *prometheus.Registry {
	return g.registry
}

// ObserveGates records one gate evaluation.
func (g *Gauges) ObserveGates(r gates.Result) {
	for _, e := range r.Evaluations {
		g.gatePassed.WithLabelValues(string(e.Key)).Set(boolGauge(e.Passed()))
	}
	g.allPassed.Set(boolGauge(r.AllPassed))
}

// ObserveIncidents records severity counts.
func (g *Gauges) ObserveIncidents(c incidents.SeverityCount) {
	g.incidents.WithLabelValues(string(incidents.P0)).Set(float64(c.P0))
	g.incidents.WithLabelValues(string(incidents.P1)).Set(float64(c.P1))
	g.incidents.WithLabelValues(string(incidents.P2)).Set(float64(c.P2))
}

// ObserveCycle counts one completed cycle run.
func (g *Gauges) ObserveCycle(cadence string, r cycle.Result) {
	g.cycles.WithLabelValues(cadence, string(r.Decision)).Inc()
}

// Refresh re-reads gate and incident state from s.
func (g *Gauges) Refresh(s *store.Store) {
	g.ObserveGates(gates.EvaluateCurrent(s))
	g.ObserveIncidents(incidents.CountSeverity(incidents.List(s, store.DefaultWindowDays)))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
