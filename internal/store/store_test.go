package store

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	s := New("/work/project")
	p := s.Paths()

	assert.Equal(t, filepath.Join("/work/project", ".ohmymkt"), p.RuntimeRoot)
	assert.Equal(t, filepath.Join("/work/project", ".ohmymkt", "state", "gates.json"), p.GatesFile)
	assert.Equal(t, filepath.Join("/work/project", ".ohmymkt", "state", "cycles.json"), p.CycleLogFile)
	assert.Equal(t, filepath.Join("/work/project", ".ohmymkt", "incidents"), p.IncidentsDir)
	assert.Equal(t, filepath.Join("/work/project", "templates", "gates.template.json"), s.Templates().GatesTemplate)
}

func TestOptions(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("X", 3600))
	s := New("/p",
		WithRuntimeDir(".mkt"),
		WithTemplateDir("/etc/ohmymkt/templates"),
		WithClock(func() time.Time { return fixed }),
	)

	assert.Equal(t, filepath.Join("/p", ".mkt", "reports"), s.Paths().ReportsDir)
	assert.Equal(t, "/etc/ohmymkt/templates", s.Templates().TemplateDir)
	assert.Equal(t, "2026-03-04T04:06:07.890Z", s.NowISO())
	assert.Equal(t, "2026-03-04", s.Today())
}

func TestReadJSON_Fallbacks(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		got := ReadJSON(filepath.Join(dir, "nope.json"), Fields{"k": "fallback"})
		assert.Equal(t, "fallback", got["k"])
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		got := ReadJSON(path, []int{7})
		assert.Equal(t, []int{7}, got)
	})

	t.Run("null literal", func(t *testing.T) {
		path := filepath.Join(dir, "null.json")
		require.NoError(t, os.WriteFile(path, []byte("null\n"), 0o644))
		got := ReadJSON(path, Fields{})
		assert.NotNil(t, got)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		path := filepath.Join(dir, "obj.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o644))
		got := ReadJSON(path, []string{})
		assert.Empty(t, got)
	})
}

func TestWriteJSON_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.json")

	require.NoError(t, WriteJSON(path, map[string]int{"x": 1}))

	raw := ReadText(path, "")
	assert.Equal(t, "{\n  \"x\": 1\n}", raw)
	got := ReadJSON(path, map[string]int{})
	assert.Equal(t, 1, got["x"])
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "x", "y")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
	assert.True(t, Exists(dir))
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "notes.md"} {
		require.NoError(t, WriteText(filepath.Join(dir, name), "{}"))
	}

	all := ListFiles(dir, nil)
	assert.Len(t, all, 3)

	jsonOnly := ListFiles(dir, func(p string) bool { return strings.HasSuffix(p, ".json") })
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, jsonOnly)

	assert.Empty(t, ListFiles(filepath.Join(dir, "missing"), nil))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"INC-2026-01-02T03-04-05-006Z-P0", "inc-2026-01-02t03-04-05-006z-p0"},
		{"  Hello,  World!  ", "hello-world"},
		{"---", "untitled"},
		{"", "untitled"},
		{strings.Repeat("a", 100), strings.Repeat("a", 80)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestParseWindow(t *testing.T) {
	tests := map[string]int{
		"7d":   7,
		"90D":  90,
		" 14d": 14,
		"":     30,
		"0d":   30,
		"30":   30,
		"2w":   30,
		"-5d":  30,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseWindow(in), "window %q", in)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := FormatTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC))
	assert.Equal(t, "2026-01-02T03:04:05.006Z", ts)

	parsed, ok := ParseTimestamp(ts)
	require.True(t, ok)
	assert.Equal(t, 2026, parsed.Year())

	_, ok = ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestFields(t *testing.T) {
	f := Fields{
		"yes":      true,
		"no":       false,
		"zero":     float64(0),
		"weeks":    float64(10),
		"numeric":  "0.9",
		"word":     "approved",
		"empty":    "",
		"nested":   map[string]any{"trend": "up"},
		"listy":    []any{1},
		"notnum":   "lots",
		"fraction": 0.85,
	}

	assert.True(t, f.Truthy("yes"))
	assert.False(t, f.Truthy("no"))
	assert.False(t, f.Truthy("zero"))
	assert.False(t, f.Truthy("missing"))
	assert.True(t, f.Truthy("word"))
	assert.False(t, f.Truthy("empty"))
	assert.True(t, f.Truthy("listy"))

	assert.Equal(t, 10.0, f.Number("weeks"))
	assert.Equal(t, 0.9, f.Number("numeric"))
	assert.Equal(t, 1.0, f.Number("yes"))
	assert.Equal(t, 0.0, f.Number("missing"))
	assert.True(t, math.IsNaN(f.Number("notnum")))

	assert.Equal(t, "up", f.Section("nested").String("trend"))
	assert.Empty(t, f.Section("word"))
	assert.Empty(t, Fields(nil).Section("x"))

	assert.Equal(t, "approved", f.Display("word", "unknown"))
	assert.Equal(t, "unknown", f.Display("empty", "unknown"))
	assert.Equal(t, "0.85", f.Display("fraction", "unknown"))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, ParseValue("true"))
	assert.Equal(t, false, ParseValue("false"))
	assert.Equal(t, 8.0, ParseValue("8"))
	assert.Equal(t, 0.85, ParseValue(" 0.85 "))
	assert.Equal(t, "yes", ParseValue("yes"))
	assert.Equal(t, "", ParseValue(""))
}

func TestValidationError(t *testing.T) {
	err := Validationf("severity", "Severity must be one of: %s", "P0, P1, P2")
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, "Severity must be one of: P0, P1, P2")
	assert.False(t, IsValidation(os.ErrNotExist))
}

func TestStateFile(t *testing.T) {
	p := New("/p").Paths()
	for _, name := range StateFiles() {
		path, ok := p.StateFile(name)
		assert.True(t, ok, name)
		assert.NotEmpty(t, path, name)
	}
	got, _ := p.StateFile("sprint-board")
	assert.Equal(t, p.SprintBoardFile, got)

	_, ok := p.StateFile("../secrets")
	assert.False(t, ok)
}
