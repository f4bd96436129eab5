package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// ErrInvalidProjectPath is returned when the project path does not name a
// readable directory.
var ErrInvalidProjectPath = errors.New("invalid project path")

// Project is a resolved project root.
type Project struct {
	// Root is the absolute project directory.
	Root string `json:"root"`

	// Name is the base name of Root.
	Name string `json:"name"`

	// Git reports whether Root is a git worktree.
	Git bool `json:"git"`

	// Remote is the origin URL, when one is configured.
	Remote string `json:"remote,omitempty"`
}

// Resolve finds the project containing dir. An empty dir means the
// current working directory.
func Resolve(dir string) (*Project, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProjectPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProjectPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidProjectPath, abs)
	}

	p := &Project{Root: abs, Name: filepath.Base(abs)}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return p, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree to anchor on.
		return p, nil
	}

	p.Root = wt.Filesystem.Root()
	p.Name = filepath.Base(p.Root)
	p.Git = true
	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			p.Remote = urls[0]
		}
	}
	return p, nil
}

// MustRoot returns the resolved root for dir, falling back to dir itself
// when resolution fails.
func MustRoot(dir string) string {
	p, err := Resolve(dir)
	if err != nil {
		return dir
	}
	return p.Root
}
