// Package reports aggregates the cycle log, incidents and a fresh gate
// evaluation over a time window into a growth summary.
package reports
