//go:build linux

package cache

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// xattrName is the Linux file-capability xattr, the payload a naive copy
// silently drops, exactly as a stale ad-hoc signature would be dropped by a
// naive copy under spec.md §4.D's original framing.
const xattrName = "security.capability"

// elfMagic is the four leading bytes of every native ELF executable, the
// Linux analogue of spec.md's Mach-O/universal-binary magic numbers.
var elfMagic = [4]byte{0x7f, 'E', 'L', 'F'}

// Detect inspects path and reports whether it is a hardened binary: a native
// executable carrying the security.capability xattr. hardened is false with
// a nil error for any file that is simply not a capability-bearing ELF;
// err is reserved for I/O failures that prevent a confident answer.
func Detect(path string) (hardened bool, capsXattr []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil, fmt.Errorf("cache: open %q: %w", path, err)
	}
	defer f.Close()

	var magic [4]byte

	n, err := f.Read(magic[:])
	if err != nil && n == 0 {
		return false, nil, nil
	}

	if n < 4 || magic != elfMagic {
		return false, nil, nil
	}

	caps, err := getFileCaps(path)
	if err != nil {
		if errors.Is(err, unix.ENODATA) || errors.Is(err, unix.ENOTSUP) {
			return false, nil, nil
		}

		return false, nil, fmt.Errorf("cache: read capabilities of %q: %w", path, err)
	}

	if len(caps) == 0 {
		return false, nil, nil
	}

	return true, caps, nil
}

// capsBufSize is generous for the vfs_cap_data struct (v2 and v3 are both
// well under 64 bytes); xattr reads larger than this are rejected rather
// than silently truncated.
const capsBufSize = 256

func getFileCaps(path string) ([]byte, error) {
	buf := make([]byte, capsBufSize)

	n, err := unix.Getxattr(path, xattrName, buf)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, buf[:n])

	return out, nil
}

func setFileCaps(path string, capsXattr []byte) error {
	return unix.Setxattr(path, xattrName, capsXattr, 0)
}
