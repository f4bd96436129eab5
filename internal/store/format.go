package store

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	timestampLayout = "2006-01-02T15:04:05.000Z"
	dateLayout      = "2006-01-02"

	// DefaultWindowDays is used when a window string cannot be parsed.
	DefaultWindowDays = 30

	maxSlugLen = 80
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	windowSpec   = regexp.MustCompile(`^(\d+)d$`)
)

// FormatTimestamp renders t as a millisecond-precision UTC ISO-8601 string.
// Timestamps in this format sort lexicographically in time order.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses an RFC 3339 timestamp.
func ParseTimestamp(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Slugify lowercases input and collapses every run of characters outside
// [a-z0-9] into a single hyphen, trimmed and capped at 80 characters.
func Slugify(input string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

// ParseWindow parses a "<N>d" window into days. Empty, malformed, or
// non-positive input yields DefaultWindowDays.
func ParseWindow(window string) int {
	m := windowSpec.FindStringSubmatch(strings.ToLower(strings.TrimSpace(window)))
	if m == nil {
		return DefaultWindowDays
	}
	days, err := strconv.Atoi(m[1])
	if err != nil || days <= 0 {
		return DefaultWindowDays
	}
	return days
}

// WindowStart returns the inclusive lower bound of a window of days ending at now.
func WindowStart(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
