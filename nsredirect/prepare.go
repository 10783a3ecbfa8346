//go:build linux

package nsredirect

import (
	"fmt"
	"os"
	"path/filepath"
)

// Prepare implements spec.md §4.G step 2 (target preparation): for each
// discovered entry, ensure an empty placeholder exists at its Dest so the
// later bind mount has a mount point to attach to. Directories are created
// with os.MkdirAll; files get their parent directory created and are then
// touched if missing.
func Prepare(entries []Entry) error {
	for _, e := range entries {
		switch e.Kind {
		case KindDir:
			if err := os.MkdirAll(e.Dest, 0o755); err != nil {
				return fmt.Errorf("nsredirect: create mount point directory %q: %w", e.Dest, err)
			}
		case KindFile:
			if err := os.MkdirAll(filepath.Dir(e.Dest), 0o755); err != nil {
				return fmt.Errorf("nsredirect: create parent of mount point %q: %w", e.Dest, err)
			}

			if err := touch(e.Dest); err != nil {
				return fmt.Errorf("nsredirect: create mount point file %q: %w", e.Dest, err)
			}
		}
	}

	return nil
}

func touch(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	return f.Close()
}
