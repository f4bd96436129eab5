package store

import (
	"path/filepath"
	"time"
)

// DefaultRuntimeDir is the runtime directory created under a project root.
const DefaultRuntimeDir = ".ohmymkt"

// DefaultTemplateDir is the template directory, relative to the project root.
const DefaultTemplateDir = "templates"

// Clock returns the current time.
type Clock func() time.Time

// Paths is the persisted state layout under a runtime root.
type Paths struct {
	RuntimeRoot     string
	ReportsDir      string
	IncidentsDir    string
	StateDir        string
	BoulderFile     string
	GatesFile       string
	MetricsFile     string
	CycleLogFile    string
	SprintBoardFile string
	ExecutionFile   string
}

// TemplatePaths locates seed templates.
type TemplatePaths struct {
	TemplateDir     string
	GatesTemplate   string
	MetricsTemplate string
}

// Store resolves paths and timestamps for one project root.
type Store struct {
	root        string
	runtimeDir  string
	templateDir string
	clock       Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps and windows.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRuntimeDir overrides the runtime directory name.
func WithRuntimeDir(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.runtimeDir = name
		}
	}
}

// WithTemplateDir overrides the template directory. Relative paths are
// resolved against the project root.
func WithTemplateDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.templateDir = dir
		}
	}
}

// New creates a Store rooted at projectRoot.
func New(projectRoot string, opts ...Option) *Store {
	s := &Store{
		root:        filepath.Clean(projectRoot),
		runtimeDir:  DefaultRuntimeDir,
		templateDir: DefaultTemplateDir,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the project root.
func (s *Store) Root() string {
	return s.root
}

// Paths returns the runtime layout.
func (s *Store) Paths() Paths {
	runtimeRoot := filepath.Join(s.root, s.runtimeDir)
	stateDir := filepath.Join(runtimeRoot, "state")
	return Paths{
		RuntimeRoot:     runtimeRoot,
		ReportsDir:      filepath.Join(runtimeRoot, "reports"),
		IncidentsDir:    filepath.Join(runtimeRoot, "incidents"),
		StateDir:        stateDir,
		BoulderFile:     filepath.Join(runtimeRoot, "boulder.json"),
		GatesFile:       filepath.Join(stateDir, "gates.json"),
		MetricsFile:     filepath.Join(stateDir, "metrics.json"),
		CycleLogFile:    filepath.Join(stateDir, "cycles.json"),
		SprintBoardFile: filepath.Join(stateDir, "sprint-board.json"),
		ExecutionFile:   filepath.Join(stateDir, "execution.json"),
	}
}

// Templates returns the seed template locations.
func (s *Store) Templates() TemplatePaths {
	dir := s.templateDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.root, dir)
	}
	return TemplatePaths{
		TemplateDir:     dir,
		GatesTemplate:   filepath.Join(dir, "gates.template.json"),
		MetricsTemplate: filepath.Join(dir, "metrics.template.json"),
	}
}

// Now returns the current time in UTC.
func (s *Store) Now() time.Time {
	return s.clock().UTC()
}

// NowISO returns the current time as an ISO-8601 UTC timestamp.
func (s *Store) NowISO() string {
	return FormatTimestamp(s.Now())
}

// Today returns the current UTC date stamp (YYYY-MM-DD).
func (s *Store) Today() string {
	return s.Now().Format(dateLayout)
}

// StateFiles lists the names accepted by StateFile.
func StateFiles() []string {
	return []string{"gates", "metrics", "cycles", "execution", "boulder", "sprint-board"}
}

// StateFile maps a short state name to its path.
func (p Paths) StateFile(name string) (string, bool) {
	switch name {
	case "gates":
		return p.GatesFile, true
	case "metrics":
		return p.MetricsFile, true
	case "cycles":
		return p.CycleLogFile, true
	case "execution":
		return p.ExecutionFile, true
	case "boulder":
		return p.BoulderFile, true
	case "sprint-board":
		return p.SprintBoardFile, true
	}
	return "", false
}
