// Package store provides the file-backed state store for the ohmymkt runtime.
//
// All persisted state lives under a project-local runtime directory
// (default ".ohmymkt"). Reads never fail: missing, unreadable, or malformed
// files yield the caller's fallback. Writes create parent directories and
// overwrite in place with last-write-wins semantics; there is no locking.
//
// The Store carries the project root, the template directory, and the clock
// used for timestamps, so several roots can be used side by side in one
// process.
package store
