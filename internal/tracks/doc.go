// Package tracks maintains the visibility and quality track metrics read by
// the cycle decision rule.
package tracks
