package shebang_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/remapper/cache"
	"github.com/calvinalkan/remapper/shebang"
)

func Test_Resolve_Returns_No_Substitution_For_Plain_Binary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "tool")

	if err := os.WriteFile(p, []byte("not-a-script"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := &shebang.Resolver{Cache: &cache.Context{CacheDir: filepath.Join(dir, "cache")}}

	if _, _, ok := r.Resolve(p); ok {
		t.Fatalf("expected no substitution for a non-script file")
	}
}

func Test_Resolve_Returns_No_Substitution_When_Interpreter_Is_Unprotected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	interp := filepath.Join(dir, "opt", "myshell")

	if err := os.MkdirAll(filepath.Dir(interp), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(interp, []byte("#!/bin/sh\necho hi\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	script := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(script, []byte("#!"+interp+" -x\necho body\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := &shebang.Resolver{
		Cache:             &cache.Context{CacheDir: filepath.Join(dir, "cache")},
		ProtectedPrefixes: []string{"/usr", "/bin"},
	}

	if _, _, ok := r.Resolve(script); ok {
		t.Fatalf("expected no substitution for an interpreter outside protected prefixes")
	}
}

func Test_Resolve_Substitutes_Interpreter_On_Protected_Prefix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	interp := filepath.Join(dir, "usr", "bin", "some-shell")

	if err := os.MkdirAll(filepath.Dir(interp), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(interp, []byte("#!/bin/sh\necho hi\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	script := filepath.Join(dir, "s")
	if err := os.WriteFile(script, []byte("#!"+interp+" -x\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := &shebang.Resolver{
		Cache:             &cache.Context{CacheDir: filepath.Join(dir, "cache")},
		ProtectedPrefixes: []string{filepath.Join(dir, "usr")},
	}

	cachedInterp, arg, ok := r.Resolve(script)
	if !ok {
		t.Fatalf("expected a substitution for a protected-prefix interpreter")
	}

	if arg != "-x" {
		t.Fatalf("shebang arg = %q, want -x", arg)
	}

	got, err := os.ReadFile(cachedInterp)
	if err != nil {
		t.Fatalf("ReadFile(%q): %v", cachedInterp, err)
	}

	if string(got) != "#!/bin/sh\necho hi\n" {
		t.Fatalf("cached interpreter content mismatch: %q", got)
	}
}

func Test_Resolve_Returns_No_Substitution_When_Script_Has_No_Shebang(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "s")

	if err := os.WriteFile(p, []byte("echo hi\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := &shebang.Resolver{Cache: &cache.Context{CacheDir: filepath.Join(dir, "cache")}}

	if _, _, ok := r.Resolve(p); ok {
		t.Fatalf("expected no substitution without a shebang line")
	}
}
