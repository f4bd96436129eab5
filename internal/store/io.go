package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnsureDir creates dirPath and any missing parents. It is idempotent.
func EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// ReadJSON decodes the JSON file at path into a fresh T.
//
// The fallback is returned when the file is missing, unreadable, holds
// malformed JSON, holds a literal null, or does not match T's shape.
func ReadJSON[T any](path string, fallback T) T {
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fallback
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fallback
	}
	return v
}

// WriteJSON writes value as 2-space indented JSON, creating parent
// directories as needed. The file is overwritten in place.
func WriteJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return WriteText(path, string(data))
}

// ReadText returns the file contents, or fallback if it cannot be read.
func ReadText(path, fallback string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	return string(data)
}

// WriteText writes text to path, creating parent directories as needed.
func WriteText(path, text string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListFiles returns the full paths of dirPath's entries in name order,
// keeping only those accepted by keep (nil keeps everything). A missing
// or unreadable directory yields an empty list.
func ListFiles(dirPath string, keep func(path string) bool) []string {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return []string{}
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		full := filepath.Join(dirPath, entry.Name())
		if keep != nil && !keep(full) {
			continue
		}
		files = append(files, full)
	}
	sort.Strings(files)
	return files
}
