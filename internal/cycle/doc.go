// Package cycle runs cadence reviews: it snapshots gates, track metrics and
// windowed incidents, decides whether to continue, intervene or roll back,
// writes a markdown report and appends the outcome to the cycle log.
//
// The decision rule is a pure function of track trends and incident counts.
// A P0 incident in the window always forces a rollback. Visibility rising
// without quality is an intervention, both rising is a continue, and any
// other combination (quality rising alone included) falls back to a generic
// intervention.
//
// The cycle log at state/cycles.json is append-only. Reports and reminders
// replay it by filtering; nothing rewrites past entries.
package cycle
