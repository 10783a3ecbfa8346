//go:build linux

package nsredirect

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mount implements spec.md §4.G step 4: a recursive bind mount of e.Dest
// (the target copy, prepared by Prepare) onto e.Source, the original path,
// which already exists from Discover. This is the redirection itself: once
// mounted, every access the program makes to the original path transparently
// yields the target's content. MS_REC carries over any submounts under Dest,
// matching the "recursive bind semantics" the procedure requires.
func Mount(e Entry) error {
	if err := unix.Mount(e.Dest, e.Source, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return fmt.Errorf("nsredirect: bind mount %q onto %q: %w", e.Dest, e.Source, err)
	}

	return nil
}

// MountAll binds every entry in order, stopping at the first failure. On
// error, mounts already made are left in place: they live inside the
// process's private mount namespace and vanish with it on exit, so there is
// nothing to unwind.
func MountAll(entries []Entry) error {
	for _, e := range entries {
		if err := Mount(e); err != nil {
			return err
		}
	}

	return nil
}
