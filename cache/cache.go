// Package cache implements Remapper's hardened-binary resign cache
// (spec.md §4.D), re-targeted at Linux: instead of re-signing an ad-hoc
// signature that the loader would otherwise strip, it re-applies the
// "security.capability" file-capability xattr that a naive copy silently
// drops. See SPEC_FULL.md §4.D for the full mapping from spec.md's macOS
// vocabulary to this package's Linux one.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/calvinalkan/remapper/rmputil"
)

// Debugf receives diagnostic events from the cache, mirroring remap.Config's
// optional debug sink.
type Debugf func(format string, args ...any)

// Context is the cache's immutable configuration: process lifetime, read
// freely from multiple goroutines (spec.md §3's "Cache context" data model).
type Context struct {
	// CacheDir is the writable root the cache mirrors original absolute
	// paths under.
	CacheDir string

	// Debugf is an optional debug sink; nil disables diagnostics.
	Debugf Debugf

	// Hot is the optional in-process acceleration table (spec.md §4.D's
	// "interposer-side acceleration"). Valid consults it after stating the
	// original; a hit skips the payload stat and sidecar read. Valid and
	// Fill insert into it, so a hit needs an earlier Valid or Fill of the
	// same original path through this Context. Nil disables it; Valid/Fill
	// fall back to disk only.
	Hot *HotTable
}

func (c *Context) debugf(format string, args ...any) {
	if c.Debugf == nil {
		return
	}

	c.Debugf("cache: "+format, args...)
}

// CachedPath returns the payload location for original, computed by
// appending original verbatim to CacheDir (spec.md §3's cache-entry layout).
func (c *Context) CachedPath(original string) string {
	return filepath.Join(c.CacheDir, original)
}

func sidecarPath(cached string) string {
	return cached + ".meta"
}

// Stat is the subset of os.FileInfo the cache's staleness check needs.
type Stat struct {
	ModTime int64
	Size    int64
}

// StatOriginal stats original and reduces it to the (mtime, size) pair the
// cache keys and sidecars are built from.
func StatOriginal(original string) (Stat, error) {
	info, err := os.Stat(original)
	if err != nil {
		return Stat{}, fmt.Errorf("cache: stat %q: %w", original, err)
	}

	return Stat{ModTime: info.ModTime().Unix(), Size: info.Size()}, nil
}

// ParseSidecar parses a ".meta" sidecar's two space-separated decimal
// integers (mtime, size). Trailing whitespace and any extra fields are
// ignored; a sidecar that doesn't parse two integers is invalid, per
// spec.md §6's "Cache metadata format".
func ParseSidecar(data []byte) (Stat, bool) {
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return Stat{}, false
	}

	mtime, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Stat{}, false
	}

	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Stat{}, false
	}

	return Stat{ModTime: mtime, Size: size}, true
}

// formatSidecar renders a Stat as "<mtime> <size>", matching spec.md §6.
func formatSidecar(st Stat) []byte {
	return []byte(strconv.FormatInt(st.ModTime, 10) + " " + strconv.FormatInt(st.Size, 10))
}

// Valid reports whether the cache entry for original is usable: the payload
// and sidecar both exist, the sidecar parses, and its (mtime, size) equal
// the current stat of original (spec.md §3's cache-validity predicate).
func (c *Context) Valid(original string) (cachedPath string, ok bool) {
	got, err := StatOriginal(original)
	if err != nil {
		return "", false
	}

	if c.Hot != nil {
		if cached, ok := c.Hot.Lookup(original, got); ok {
			return cached, true
		}
	}

	cached := c.CachedPath(original)

	if _, err := os.Stat(cached); err != nil {
		return "", false
	}

	sidecarData, err := os.ReadFile(sidecarPath(cached))
	if err != nil {
		return "", false
	}

	want, ok := ParseSidecar(sidecarData)
	if !ok {
		return "", false
	}

	if got.ModTime != want.ModTime || got.Size != want.Size {
		return "", false
	}

	if c.Hot != nil {
		c.Hot.Insert(original, got, cached)
	}

	return cached, true
}

// fillSeq is the process-wide atomic counter for temp-file names during
// cache fills, independent of rmputil's publish counter because the payload
// temp file needs mutation (capability re-application) between creation and
// publish, unlike a plain AtomicPublish.
var fillSeq atomic.Uint64

// Fill populates the cache entry for original, re-applying capsXattr (the
// raw "security.capability" xattr bytes captured from the original, see
// Detect) onto the cached copy. It is safe for concurrent callers: two
// fillers race but both converge on byte-identical output via atomic rename,
// and the losing temp file is removed (spec.md §4.D's concurrency
// guarantee).
func (c *Context) Fill(original string, capsXattr []byte) (string, error) {
	st, err := StatOriginal(original)
	if err != nil {
		return "", err
	}

	cached := c.CachedPath(original)

	if err := os.MkdirAll(filepath.Dir(cached), 0o755); err != nil {
		return "", fmt.Errorf("cache: create parent of %q: %w", cached, err)
	}

	data, err := os.ReadFile(original)
	if err != nil {
		return "", fmt.Errorf("cache: read %q: %w", original, err)
	}

	seq := fillSeq.Add(1)
	tmp := cached + ".tmp." + strconv.Itoa(os.Getpid()) + "." + strconv.FormatUint(seq, 10)

	if err := os.WriteFile(tmp, data, 0o755); err != nil {
		return "", fmt.Errorf("cache: write temp payload for %q: %w", cached, err)
	}

	if len(capsXattr) > 0 {
		if err := setFileCaps(tmp, capsXattr); err != nil {
			_ = os.Remove(tmp)

			return "", fmt.Errorf("cache: reapply capabilities to %q: %w", tmp, err)
		}
	}

	if err := os.Rename(tmp, cached); err != nil {
		_ = os.Remove(tmp)

		return "", fmt.Errorf("cache: publish payload %q: %w", cached, err)
	}

	if err := rmputil.AtomicPublish(sidecarPath(cached), formatSidecar(st), 0o644); err != nil {
		return "", fmt.Errorf("cache: publish sidecar for %q: %w", cached, err)
	}

	c.debugf("filled %q -> %q (mtime=%d size=%d caps=%dB)", original, cached, st.ModTime, st.Size, len(capsXattr))

	if c.Hot != nil {
		c.Hot.Insert(original, st, cached)
	}

	return cached, nil
}
