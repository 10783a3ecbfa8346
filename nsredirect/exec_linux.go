//go:build linux

package nsredirect

import (
	"fmt"
	"syscall"
)

// Exec implements spec.md §4.G step 5: replace the current process image
// with path, argv and envv, inheriting the private mount namespace set up by
// EnterNamespace/MountAll. There is no fork and no shell involved, matching
// the no-shell exec contract spec.md §4.H requires of every launch path in
// this system.
//
// Exec only returns on failure; on success the calling process ceases to
// exist as Go code.
func Exec(path string, argv []string, envv []string) error {
	if err := syscall.Exec(path, argv, envv); err != nil {
		return fmt.Errorf("nsredirect: exec %q: %w", path, err)
	}

	return nil
}
