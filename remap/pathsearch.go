package remap

import (
	"os"
	"path/filepath"
	"strings"
)

// LookPath resolves a bare program name against the colon-separated PATH
// value, returning the first directory entry that stats as a regular,
// executable file. It never consults a shell and never interprets name as a
// pattern, matching spec.md §4.H's PATH-resolution contract ("first
// executable hit wins", "NULL $PATH yields failure").
//
// Grounded on the teacher's sandbox/wrappers.go parsePathDirs/
// findCommandTargets PATH-walking helpers, collapsed to the single
// first-match result the Exec Interposer needs (spec.md §4.C step 1) rather
// than the teacher's every-match discovery list.
func LookPath(name, pathVar string) (string, bool) {
	if strings.Contains(name, "/") {
		if isExecutableFile(name) {
			return name, true
		}

		return "", false
	}

	if pathVar == "" {
		return "", false
	}

	for _, dir := range strings.Split(pathVar, ":") {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}

		candidate := filepath.Join(dir, name)
		if isExecutableFile(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return info.Mode().Perm()&0o111 != 0
}
