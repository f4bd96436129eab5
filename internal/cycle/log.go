package cycle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

// LogEntry is one line of the append-only cycle log.
type LogEntry struct {
	Cadence     Cadence  `json:"cadence"`
	ReportFile  string   `json:"report_file"`
	Decision    Decision `json:"decision"`
	Reason      string   `json:"reason"`
	GeneratedAt string   `json:"generated_at"`
}

// ReadLog returns the cycle log in append order. Entries that do not
// decode as a LogEntry are skipped; the rest are kept.
func ReadLog(s *store.Store) []LogEntry {
	raw, err := readRawLog(s.Paths().CycleLogFile)
	if err != nil {
		return []LogEntry{}
	}
	entries := make([]LogEntry, 0, len(raw))
	for _, r := range raw {
		var e LogEntry
		if err := json.Unmarshal(r, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// appendLog writes entry after the existing entries, which are carried over
// undecoded so unknown fields and odd values survive. A log file that is not
// a JSON array is moved aside to <log>.corrupt-<stamp> and a new log started.
func appendLog(s *store.Store, entry LogEntry) error {
	path := s.Paths().CycleLogFile
	raw, err := readRawLog(path)
	if errors.Is(err, errNotArray) {
		aside := fmt.Sprintf("%s.corrupt-%d", path, s.Now().UnixMilli())
		if err := os.Rename(path, aside); err != nil {
			return fmt.Errorf("failed to move unreadable cycle log aside: %w", err)
		}
		raw, err = []json.RawMessage{}, nil
	}
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cycle log entry: %w", err)
	}
	return store.WriteJSON(path, append(raw, encoded))
}

var errNotArray = errors.New("cycle log is not a JSON array")

// readRawLog returns the log's elements without decoding them. A missing,
// empty or null file is an empty log.
func readRawLog(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("failed to read cycle log %s: %w", path, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []json.RawMessage{}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errNotArray, path, err)
	}
	return raw, nil
}

// Since returns the log entries generated at or after cutoff. Entries with
// an unparseable generated_at are dropped.
func Since(entries []LogEntry, cutoff time.Time) []LogEntry {
	out := make([]LogEntry, 0, len(entries))
	for _, e := range entries {
		ts, ok := store.ParseTimestamp(e.GeneratedAt)
		if !ok || ts.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// DecisionCount tallies cycle decisions.
type DecisionCount struct {
	Continue  int `json:"continue"`
	Intervene int `json:"intervene"`
	Rollback  int `json:"rollback"`
}

// CountDecisions tallies entries by decision.
func CountDecisions(entries []LogEntry) DecisionCount {
	var c DecisionCount
	for _, e := range entries {
		switch e.Decision {
		case Continue:
			c.Continue++
		case Intervene:
			c.Intervene++
		case Rollback:
			c.Rollback++
		}
	}
	return c
}

// LastRun returns the most recent log entry for cadence.
func LastRun(s *store.Store, cadence Cadence) (LogEntry, bool) {
	entries := ReadLog(s)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Cadence == cadence {
			return entries[i], true
		}
	}
	return LogEntry{}, false
}

// Staleness reports how many whole days have passed since the last run of
// cadence and whether that exceeds maxAge. A cadence that has never run, or
// whose last entry has no valid timestamp, is not overdue.
func Staleness(s *store.Store, cadence Cadence, maxAge time.Duration) (days int, overdue bool) {
	last, ok := LastRun(s, cadence)
	if !ok {
		return 0, false
	}
	ts, ok := store.ParseTimestamp(last.GeneratedAt)
	if !ok {
		return 0, false
	}
	age := s.Now().Sub(ts)
	return int(age / (24 * time.Hour)), age > maxAge
}
