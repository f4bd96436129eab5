// Package incidents records P0/P1/P2 incidents and queries them by window.
//
// Each incident is written once to its own JSON file under incidents/ and is
// never mutated. Queries re-read the directory on every call and skip files
// that cannot be parsed.
package incidents
