// Package project resolves the project root the engine operates on.
//
// Inside a git worktree the root is the worktree's top directory, so the
// runtime state lands in one place no matter which subdirectory a command
// runs from. Outside git the given directory is used as is.
package project
