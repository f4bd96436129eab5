package tracks

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

// Track names a growth dimension in the metrics document.
type Track string

const (
	Visibility Track = "visibility_track"
	Quality    Track = "quality_track"
)

// Trend is the direction of a metric.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendFlat    Trend = "flat"
	TrendUnknown Trend = "unknown"
)

// Trend fields read by the decision rule.
const (
	NonBrandVisibilityTrend   = "non_brand_visibility_trend"
	QueryClusterCoverageTrend = "query_cluster_coverage_trend"
	HighIntentSessionTrend    = "high_intent_session_trend"
	ConversionAssistTrend     = "conversion_assist_trend"
)

const (
	trendSuffix    = "_trend"
	updatedAtField = "updated_at"
)

// State is the persisted metrics document: one field bag per track.
type State = store.Fields

// Update sets a single metric on a track.
type Update struct {
	Track  string `json:"track"`
	Metric string `json:"metric"`
	Value  string `json:"value"`
	Trend  string `json:"trend"`
}

// ParseTrack validates a track name.
func ParseTrack(raw string) (Track, error) {
	switch t := Track(strings.TrimSpace(raw)); t {
	case Visibility, Quality:
		return t, nil
	}
	return "", store.Validationf("track", "Track must be one of: %s, %s", Visibility, Quality)
}

// ParseTrend validates and lowercases a trend direction.
func ParseTrend(raw string) (Trend, error) {
	switch t := Trend(strings.ToLower(strings.TrimSpace(raw))); t {
	case TrendUp, TrendDown, TrendFlat, TrendUnknown:
		return t, nil
	}
	return "", store.Validationf("trend", "Trend must be one of: up, down, flat, unknown")
}

// Load reads the metrics document. Missing or malformed files yield an
// empty document.
func Load(s *store.Store) State {
	return store.ReadJSON(s.Paths().MetricsFile, State{})
}

// Apply validates u and persists it into the metrics document, writing the
// metric value and its <metric>_trend field.
func Apply(s *store.Store, u Update) (State, error) {
	track, err := ParseTrack(u.Track)
	if err != nil {
		return nil, err
	}
	metric := strings.TrimSpace(u.Metric)
	if metric == "" {
		return nil, store.Validationf("metric", "Metric name is required")
	}
	trend, err := ParseTrend(u.Trend)
	if err != nil {
		return nil, err
	}

	state := Load(s).Clone()
	section := state.Section(string(track)).Clone()
	section[metric] = store.ParseValue(u.Value)
	section[metric+trendSuffix] = string(trend)
	state[string(track)] = map[string]any(section)
	state[updatedAtField] = s.NowISO()

	if err := store.WriteJSON(s.Paths().MetricsFile, state); err != nil {
		return nil, fmt.Errorf("failed to persist metrics: %w", err)
	}
	return state, nil
}

// TrendOf returns the trend stored for metric on track, or "unknown".
func TrendOf(state State, track Track, trendField string) Trend {
	v := state.Section(string(track)).String(trendField)
	if v == "" {
		return TrendUnknown
	}
	return Trend(v)
}

// Describe renders an update the way tool callers see it.
func Describe(u Update) string {
	return fmt.Sprintf("Updated %s.%s = %s (trend: %s)",
		strings.TrimSpace(u.Track), strings.TrimSpace(u.Metric), u.Value, strings.ToLower(strings.TrimSpace(u.Trend)))
}
