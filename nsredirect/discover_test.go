//go:build linux

package nsredirect_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/remapper/nsredirect"
	"github.com/calvinalkan/remapper/remap"
)

func Test_Discover_Finds_Glob_Matches_Under_Parent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	parent := filepath.Join(dir, "etc", "myapp.d")

	if err := os.MkdirAll(parent, 0o755); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"plugin-a.so", "plugin-b.so", "README"} {
		if err := os.WriteFile(filepath.Join(parent, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := os.MkdirAll(filepath.Join(parent, "sub-plugin.so"), 0o755); err != nil {
		t.Fatal(err)
	}

	table := &remap.Table{
		Target:   filepath.Join(dir, "target") + "/",
		Mappings: []remap.Mapping{{Parent: parent + "/", Glob: "*.so"}},
	}

	entries, warnings := nsredirect.Discover(table)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(entries), entries)
	}

	var sawDir bool

	for _, e := range entries {
		if e.Name == "README" {
			t.Fatalf("README should not have matched *.so")
		}

		if e.Name == "sub-plugin.so" {
			sawDir = true

			if e.Kind != nsredirect.KindDir {
				t.Fatalf("sub-plugin.so should classify as a directory")
			}
		}
	}

	if !sawDir {
		t.Fatalf("expected to discover the directory entry")
	}
}

func Test_Discover_Warns_And_Continues_When_Parent_Missing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	table := &remap.Table{
		Target:   filepath.Join(dir, "target") + "/",
		Mappings: []remap.Mapping{{Parent: filepath.Join(dir, "no-such-dir") + "/", Glob: "*"}},
	}

	entries, warnings := nsredirect.Discover(table)
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}

	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", warnings)
	}
}

func Test_Discover_Stops_At_MaxEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	parent := filepath.Join(dir, "many")

	if err := os.MkdirAll(parent, 0o755); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < nsredirect.MaxEntries+5; i++ {
		name := "f" + string(rune('a'+i%26)) + string(rune('A'+(i/26)%26))
		if err := os.WriteFile(filepath.Join(parent, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	table := &remap.Table{
		Target:   filepath.Join(dir, "target") + "/",
		Mappings: []remap.Mapping{{Parent: parent + "/", Glob: "*"}},
	}

	entries, warnings := nsredirect.Discover(table)
	if len(entries) != nsredirect.MaxEntries {
		t.Fatalf("got %d entries, want %d", len(entries), nsredirect.MaxEntries)
	}

	if len(warnings) == 0 {
		t.Fatalf("expected a warning about the entry table filling up")
	}
}
