package rmputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Run executes the absolute program path with argv directly, capturing
// combined stdout+stderr, with no shell involved and no PATH interpretation
// of either path or args. This is the "shell-less child pipe" of spec.md
// §4.H, used wherever an auxiliary utility (capability inspection, signing
// tools on other hosts, diagnostics) must be invoked: file names and
// arguments can contain arbitrary bytes and must never be re-parsed.
//
// Grounded on the teacher's cmd/agent-sandbox/multicall.go newExecCmd. Here
// the command is built with exec.CommandContext, which performs no PATH
// search for a name containing a separator; the absolute-path check below
// makes that always the case.
func Run(ctx context.Context, path string, args ...string) (output []byte, exitCode int, err error) {
	if !filepath.IsAbs(path) {
		return nil, -1, fmt.Errorf("rmputil: program path %q must be absolute", path)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var buf bytes.Buffer

	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()
	if runErr == nil {
		return buf.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return buf.Bytes(), exitErr.ExitCode(), nil
	}

	return buf.Bytes(), -1, fmt.Errorf("rmputil: run %q: %w", path, runErr)
}
