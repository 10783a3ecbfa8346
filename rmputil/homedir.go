package rmputil

import (
	"fmt"
	"os/user"
	"strings"
)

// HomeDir resolves the caller's home directory, preferring $HOME and falling
// back to the reentrant user-database lookup, matching spec.md §4.H.
func HomeDir(env map[string]string) (string, error) {
	if home := strings.TrimSpace(env["HOME"]); home != "" {
		return home, nil
	}

	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("rmputil: resolve home directory: %w", err)
	}

	if u.HomeDir == "" {
		return "", fmt.Errorf("rmputil: user database has no home directory for uid %s", u.Uid)
	}

	return u.HomeDir, nil
}
