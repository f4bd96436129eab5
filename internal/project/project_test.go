package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PlainDirectory(t *testing.T) {
	dir := t.TempDir()

	p, err := Resolve(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, p.Root)
	assert.Equal(t, filepath.Base(dir), p.Name)
	assert.False(t, p.Git)
	assert.Empty(t, p.Remote)
}

func TestResolve_GitWorktreeFromSubdir(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:acme/site.git"},
	})
	require.NoError(t, err)

	sub := filepath.Join(root, "content", "blog")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	p, err := Resolve(sub)

	require.NoError(t, err)
	assert.Equal(t, root, p.Root)
	assert.True(t, p.Git)
	assert.Equal(t, "git@github.com:acme/site.git", p.Remote)
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrInvalidProjectPath)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = Resolve(file)
	assert.ErrorIs(t, err, ErrInvalidProjectPath)
}

func TestResolve_EmptyUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	p, err := Resolve("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), p.Name)
}

func TestMustRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	assert.Equal(t, missing, MustRoot(missing))
}
