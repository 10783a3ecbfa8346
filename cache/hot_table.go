package cache

import "sync"

// MaxHotEntries bounds the interposer-side acceleration table (spec.md
// §4.D's "in-process hardened-cache table"): once full, new fills are
// simply not cached in-process and fall back to a disk Valid() check next
// time, never an unbounded-growth table.
const MaxHotEntries = 128

type hotEntry struct {
	original string
	mtime    int64
	size     int64
	cached   string
}

// HotTable is a small in-process memo of recent, still-valid cache lookups,
// letting a long-lived interposer process skip the disk round-trip
// (stat + sidecar read) for paths it has already resolved. It is a pure
// accelerator: a miss always falls through to Context.Valid.
type HotTable struct {
	mu      sync.Mutex
	entries []hotEntry
}

// Lookup returns the cached path for original if the table holds a fresh
// entry for it (same mtime and size as st), and whether it was found.
func (h *HotTable) Lookup(original string, st Stat) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range h.entries {
		if e.original == original && e.mtime == st.ModTime && e.size == st.Size {
			return e.cached, true
		}
	}

	return "", false
}

// Insert records a resolved entry, overwriting any stale entry for the same
// original path. When the table is already at MaxHotEntries and original is
// not already present, the insert is dropped rather than growing the table;
// the next lookup simply falls through to disk.
func (h *HotTable) Insert(original string, st Stat, cached string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, e := range h.entries {
		if e.original == original {
			h.entries[i] = hotEntry{original: original, mtime: st.ModTime, size: st.Size, cached: cached}

			return
		}
	}

	if len(h.entries) >= MaxHotEntries {
		return
	}

	h.entries = append(h.entries, hotEntry{original: original, mtime: st.ModTime, size: st.Size, cached: cached})
}
