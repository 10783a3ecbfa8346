package execer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/remapper/cache"
	"github.com/calvinalkan/remapper/execer"
	"github.com/calvinalkan/remapper/remap"
	"github.com/calvinalkan/remapper/shebang"
)

func writeExecutable(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}

func Test_Resolve_Falls_Through_Unmodified_When_Nothing_Applies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	writeExecutable(t, filepath.Join(bin, "plain"), "#!/bin/sh\necho hi\n")

	cacheCtx := &cache.Context{CacheDir: filepath.Join(dir, "cache")}
	resolver := &shebang.Resolver{Cache: cacheCtx, ProtectedPrefixes: []string{"/nonexistent-protected-root"}}

	res, ok := execer.Resolve(context.Background(), "plain", bin, nil, cacheCtx, resolver)
	if !ok {
		t.Fatalf("expected resolution to succeed")
	}

	if res.Target != filepath.Join(bin, "plain") {
		t.Fatalf("Target = %q, want unmodified resolved path", res.Target)
	}

	if res.ScriptPath != "" || res.ShebangArg != "" {
		t.Fatalf("expected no shebang substitution, got %+v", res)
	}
}

func Test_Resolve_Reports_Not_Found_For_Unresolvable_Bare_Name(t *testing.T) {
	t.Parallel()

	cacheCtx := &cache.Context{CacheDir: t.TempDir()}

	_, ok := execer.Resolve(context.Background(), "does-not-exist-anywhere", "", nil, cacheCtx, nil)
	if ok {
		t.Fatalf("expected resolution to fail for an unresolvable bare name")
	}
}

func Test_Resolve_Short_Circuits_When_Already_In_Resolution(t *testing.T) {
	t.Parallel()

	ctx := execer.WithResolution(context.Background())

	res, ok := execer.Resolve(ctx, "/some/absolute/path", "", nil, nil, nil)
	if !ok {
		t.Fatalf("expected re-entrant resolution to short-circuit successfully")
	}

	if res.Target != "/some/absolute/path" {
		t.Fatalf("Target = %q, want pass-through of the invoked path", res.Target)
	}
}

func Test_Resolve_Rewrites_Through_Mapping_Table_Before_Cache_Lookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	home := filepath.Join(dir, "home")
	bin := filepath.Join(home, "bin")
	writeExecutable(t, filepath.Join(bin, "tool"), "original")

	target := filepath.Join(dir, "target") + "/"
	writeExecutable(t, filepath.Join(target, "tool"), "rewritten")

	table := &remap.Table{
		Target:   target,
		Mappings: []remap.Mapping{{Parent: bin + "/", Glob: "*"}},
	}

	cacheCtx := &cache.Context{CacheDir: filepath.Join(dir, "cache")}

	res, ok := execer.Resolve(context.Background(), "tool", bin, table, cacheCtx, nil)
	if !ok {
		t.Fatalf("expected resolution to succeed")
	}

	if res.Target != filepath.Join(target, "tool") {
		t.Fatalf("Target = %q, want the rewritten path", res.Target)
	}
}

func Test_BuildArgv_With_Shebang_Substitution(t *testing.T) {
	t.Parallel()

	res := execer.Resolution{Target: "/cache/usr/bin/some-shell", ScriptPath: "/p/s", ShebangArg: "-x"}

	got := res.BuildArgv([]string{"argv1"})
	want := []string{"/cache/usr/bin/some-shell", "-x", "/p/s", "argv1"}

	if len(got) != len(want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}

	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("argv = %v, want %v", got, want)
		}
	}
}

func Test_BuildArgv_Without_Substitution(t *testing.T) {
	t.Parallel()

	res := execer.Resolution{Target: "/usr/bin/echo"}

	got := res.BuildArgv([]string{"hello"})
	want := []string{"/usr/bin/echo", "hello"}

	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("argv = %v, want %v", got, want)
	}
}
