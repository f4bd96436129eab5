package store

import (
	"math"
	"strconv"
	"strings"
)

// Fields is a schema-loose JSON object: gate state, track metrics, and
// execution state are all persisted this way. Accessors never panic on
// missing or mistyped values.
type Fields map[string]any

// Section returns the nested object stored under key, or an empty bag.
func (f Fields) Section(key string) Fields {
	if f == nil {
		return Fields{}
	}
	switch v := f[key].(type) {
	case map[string]any:
		return Fields(v)
	case Fields:
		return v
	default:
		return Fields{}
	}
}

// Truthy reports whether the value under key is truthy: true, a non-zero
// number, a non-empty string, or any object or array.
func (f Fields) Truthy(key string) bool {
	if f == nil {
		return false
	}
	switch v := f[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case int:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

// Number coerces the value under key to a number. Missing and falsy values
// are 0, booleans are 0 or 1, numeric strings are parsed, and anything else
// is NaN.
func (f Fields) Number(key string) float64 {
	if !f.Truthy(key) {
		return 0
	}
	switch v := f[key].(type) {
	case bool:
		return 1
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

// String returns the value under key if it is a string, else "".
func (f Fields) String(key string) string {
	if f == nil {
		return ""
	}
	s, _ := f[key].(string)
	return s
}

// Display renders the value under key for reports, using fallback when the
// value is falsy.
func (f Fields) Display(key, fallback string) string {
	if !f.Truthy(key) {
		return fallback
	}
	switch v := f[key].(type) {
	case string:
		return v
	case bool:
		return "true"
	case float64:
		return FormatNumber(v)
	case int:
		return strconv.Itoa(v)
	default:
		return fallback
	}
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FormatNumber renders n the shortest way that round-trips (10, 0.85, NaN).
func FormatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ParseValue interprets raw user input as a boolean, a number, or a string.
func ParseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.TrimSpace(raw) != "" {
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return n
		}
	}
	return raw
}
