//go:build linux

// Package nsredirect implements Remapper's namespace redirector (spec.md
// §4.G): the primary Linux core, realizing the redirection contract with a
// private mount namespace and recursive bind mounts instead of dynamic
// library injection. It is grounded on the teacher's plan/build/execute
// split in sandbox.go/command.go/bwrap.go, but drives raw
// golang.org/x/sys/unix calls rather than shelling out to bwrap.
package nsredirect

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/calvinalkan/remapper/remap"
)

// MaxEntries bounds how many discovered filesystem entries a single
// redirection plan carries, mirroring spec.md §3's mount-entry bound.
const MaxEntries = 256

// Kind classifies a discovered entry for target preparation and mounting.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// Entry is one filesystem object discovered under a mapping's parent
// directory that matched the mapping's glob.
type Entry struct {
	// Name is the entry's base name (no directory component).
	Name string

	// Source is the entry's absolute host path (mapping.Parent + Name).
	Source string

	// Dest is the entry's counterpart under the target (target + Name);
	// Mount binds it onto Source.
	Dest string

	Kind Kind
}

// Discover implements spec.md §4.G step 1: for each mapping, enumerate its
// parent directory and collect entries whose name glob-matches, classifying
// each as file or directory via Lstat. Entries beyond MaxEntries across all
// mappings combined are dropped; warnings records what was skipped and why,
// matching the tolerant-parsing style used elsewhere (remap.Load).
func Discover(table *remap.Table) (entries []Entry, warnings []string) {
	for _, m := range table.Mappings {
		dirEntries, err := os.ReadDir(m.Parent)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("nsredirect: read parent %q: %v", m.Parent, err))

			continue
		}

		for _, de := range dirEntries {
			if len(entries) >= MaxEntries {
				warnings = append(warnings, fmt.Sprintf("nsredirect: entry table full (%d), dropping remaining matches under %q", MaxEntries, m.Parent))

				return entries, warnings
			}

			if !remap.MatchGlob(m.Glob, de.Name()) {
				continue
			}

			source := filepath.Join(m.Parent, de.Name())

			info, err := os.Lstat(source)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("nsredirect: lstat %q: %v", source, err))

				continue
			}

			kind := KindFile
			if info.IsDir() {
				kind = KindDir
			}

			entries = append(entries, Entry{
				Name:   de.Name(),
				Source: source,
				Dest:   filepath.Join(table.Target, de.Name()),
				Kind:   kind,
			})
		}
	}

	return entries, warnings
}
