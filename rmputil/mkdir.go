// Package rmputil provides the small set of filesystem and process utilities
// shared across Remapper's components: recursive mkdir, atomic publish,
// shell-less subprocess pipes, and home-directory lookup (spec.md §4.H).
// PATH resolution lives in remap.LookPath.
package rmputil

import "os"

// MkdirAll creates every missing component of path with the given mode.
// A missing parent is not an error (it is created); an already-existing path
// is not an error, matching spec.md §4.H's recursive-mkdir contract. This is
// a thin, documented wrapper over os.MkdirAll, whose semantics already match
// spec.md exactly.
func MkdirAll(path string, mode os.FileMode) error {
	return os.MkdirAll(path, mode)
}
