//go:build linux

package nsredirect

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sys/unix"
)

// EnterNamespace implements spec.md §4.G step 3: acquire a new user
// namespace and mount namespace in one syscall, then write identity uid/gid
// mappings so the calling process keeps the privileged capability it needs
// inside the namespace (CAP_SYS_ADMIN, to perform the bind mounts) while
// remaining exactly as unprivileged outside it as before the call.
//
// This must run before any goroutine other than the current one touches the
// process's namespace state; like the teacher's bwrap-based sandbox, the
// caller is expected to be a short-lived, single-threaded front-end process
// that unshares, mounts, and execs without forking further children.
func EnterNamespace() error {
	// Unshare affects only the calling OS thread; pin the goroutine so the
	// runtime can't migrate it before the subsequent exec.
	runtime.LockOSThread()

	if err := unix.Unshare(unix.CLONE_NEWUSER | unix.CLONE_NEWNS); err != nil {
		return fmt.Errorf("nsredirect: unshare user+mount namespaces: %w (unprivileged user namespaces may be disabled on this host)", err)
	}

	uid := os.Getuid()
	gid := os.Getgid()

	// Pre-3.19 kernels have no /proc/self/setgroups; the gid_map write below
	// is unrestricted there, so a missing file is tolerated rather than
	// fatal, matching the ground-truth C original.
	if err := os.WriteFile("/proc/self/setgroups", []byte("deny"), 0o644); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("nsredirect: deny setgroups: %w", err)
	}

	if err := os.WriteFile("/proc/self/uid_map", []byte(identityMapLine(uid)), 0o644); err != nil {
		return fmt.Errorf("nsredirect: write uid_map: %w", err)
	}

	if err := os.WriteFile("/proc/self/gid_map", []byte(identityMapLine(gid)), 0o644); err != nil {
		return fmt.Errorf("nsredirect: write gid_map: %w", err)
	}

	return nil
}

// identityMapLine renders the one-entry identity mapping "<id> <id> 1"
// written to uid_map and gid_map.
func identityMapLine(id int) string {
	s := strconv.Itoa(id)

	return s + " " + s + " 1"
}
