//go:build linux

package nsredirect

import (
	"fmt"

	"github.com/calvinalkan/remapper/remap"
)

// Debugf receives diagnostic events, mirroring the debug sink threaded
// through remap.Config and cache.Context.
type Debugf func(format string, args ...any)

// Plan is a fully discovered, not-yet-applied redirection: the entries to
// mount and any warnings Discover produced along the way.
type Plan struct {
	Entries  []Entry
	Warnings []string
}

// BuildPlan runs discovery (spec.md §4.G step 1) against table and returns a
// Plan ready for Apply. It never errors: a table that matches nothing
// produces an empty Plan, which Apply treats as a no-op per spec.md §4.G's
// closing paragraph ("Remapper is never worse than its absence").
func BuildPlan(table *remap.Table) *Plan {
	entries, warnings := Discover(table)

	return &Plan{Entries: entries, Warnings: warnings}
}

// Apply runs spec.md §4.G steps 2-4 against the plan: target preparation,
// namespace entry, and bind-mounting every discovered entry. Callers should
// call Exec immediately afterward, in the same process and without spawning
// threads in between — entering a mount namespace only affects the calling
// thread's future children until exec, and Go's runtime may otherwise move
// this goroutine across OS threads.
func (p *Plan) Apply(debugf Debugf) error {
	if len(p.Entries) == 0 {
		if debugf != nil {
			debugf("nsredirect: no entries discovered, exec proceeds unmodified")
		}

		return nil
	}

	if err := Prepare(p.Entries); err != nil {
		return err
	}

	if err := EnterNamespace(); err != nil {
		return err
	}

	if err := MountAll(p.Entries); err != nil {
		return fmt.Errorf("nsredirect: apply plan: %w", err)
	}

	if debugf != nil {
		debugf("nsredirect: mounted %d entries", len(p.Entries))
	}

	return nil
}
