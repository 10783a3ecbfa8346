package rmputil

import (
	"fmt"
	"io"
	"os"
)

// Debugf matches sandbox.Debugf's shape in the teacher repo: a single
// formatted-write hook threaded through every component that wants to emit
// diagnostics, rather than a logging interface or global logger.
type Debugf func(format string, args ...any)

// OpenDebugLog implements spec.md §4.F's DEBUG_LOG variable: path == ""
// yields a nil Debugf (silent), and an unopenable path falls back to
// stderr rather than failing the process. The returned closer is nil when
// no file was opened (stderr needs no closing, and a silent sink has
// nothing to close).
func OpenDebugLog(path string, stderr io.Writer) (Debugf, io.Closer) {
	if path == "" {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(stderr, "remapper: cannot open debug log %q, falling back to stderr: %v\n", path, err)

		return newDebugf(stderr), nil
	}

	return newDebugf(f), f
}

func newDebugf(w io.Writer) Debugf {
	return func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}
}
