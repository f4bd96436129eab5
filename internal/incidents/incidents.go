package incidents

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

// Severity is an incident severity level.
type Severity string

const (
	P0 Severity = "P0"
	P1 Severity = "P1"
	P2 Severity = "P2"
)

const defaultModule = "unspecified"

// ParseSeverity normalizes raw to an upper-case severity.
func ParseSeverity(raw string) (Severity, error) {
	switch sev := Severity(strings.ToUpper(strings.TrimSpace(raw))); sev {
	case P0, P1, P2:
		return sev, nil
	}
	return "", store.Validationf("severity", "Severity must be one of: P0, P1, P2")
}

// Record is one persisted incident.
type Record struct {
	ID        string   `json:"id"`
	Severity  Severity `json:"severity"`
	Module    string   `json:"module"`
	Summary   string   `json:"summary"`
	CreatedAt string   `json:"created_at"`
}

// Input is the caller-supplied part of an incident.
type Input struct {
	Severity string `json:"severity"`
	Module   string `json:"module"`
	Summary  string `json:"summary"`
}

// Registration is the outcome of Register.
type Registration struct {
	Record   Record `json:"record"`
	FilePath string `json:"filePath"`
}

// SeverityCount tallies incidents per severity.
type SeverityCount struct {
	P0 int `json:"p0"`
	P1 int `json:"p1"`
	P2 int `json:"p2"`
}

// Total returns the number of counted incidents.
func (c SeverityCount) Total() int {
	return c.P0 + c.P1 + c.P2
}

// Register validates in and writes a new incident file. Two incidents of the
// same severity registered within the same millisecond share an id and the
// later one replaces the earlier file.
func Register(s *store.Store, in Input) (Registration, error) {
	severity, err := ParseSeverity(in.Severity)
	if err != nil {
		return Registration{}, err
	}
	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		return Registration{}, store.Validationf("summary", "Incident summary is required")
	}
	module := strings.TrimSpace(in.Module)
	if module == "" {
		module = defaultModule
	}

	timestamp := s.NowISO()
	id := "INC-" + strings.NewReplacer(":", "-", ".", "-").Replace(timestamp) + "-" + string(severity)
	rec := Record{
		ID:        id,
		Severity:  severity,
		Module:    module,
		Summary:   summary,
		CreatedAt: timestamp,
	}

	path := filepath.Join(s.Paths().IncidentsDir, store.Slugify(id)+".json")
	if err := store.WriteJSON(path, rec); err != nil {
		return Registration{}, err
	}
	return Registration{Record: rec, FilePath: path}, nil
}

// List returns incidents created within the last days, oldest first. The
// lower bound is inclusive. Unreadable files and records without a valid
// created_at are skipped.
func List(s *store.Store, days int) []Record {
	cutoff := store.WindowStart(s.Now(), days)
	return Since(s, cutoff)
}

// Since returns incidents created at or after cutoff, oldest first.
func Since(s *store.Store, cutoff time.Time) []Record {
	files := store.ListFiles(s.Paths().IncidentsDir, func(p string) bool {
		return strings.HasSuffix(p, ".json")
	})

	out := make([]Record, 0, len(files))
	for _, f := range files {
		rec := store.ReadJSON(f, Record{})
		created, ok := store.ParseTimestamp(rec.CreatedAt)
		if !ok || created.Before(cutoff) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}

// CountSeverity tallies records by severity. Unknown severities are ignored.
func CountSeverity(records []Record) SeverityCount {
	var c SeverityCount
	for _, r := range records {
		switch r.Severity {
		case P0:
			c.P0++
		case P1:
			c.P1++
		case P2:
			c.P2++
		}
	}
	return c
}
