package main

import (
	"context"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/calvinalkan/remapper/cache"
	"github.com/calvinalkan/remapper/execer"
	"github.com/calvinalkan/remapper/remap"
	"github.com/calvinalkan/remapper/shebang"
)

// Run implements the exec interposer's dispatch (spec.md §4.C): it decides
// the real program to exec, consults the resign cache and shebang
// pre-resolver via the execer package, and execs with no fork and no shell.
// Run only returns an exit code; on the success path it never returns at
// all, because syscall.Exec replaces the process image.
func Run(args []string, envSlice []string) int {
	if len(args) == 0 {
		fprintError(errNoArgs{})

		return 1
	}

	env := envSliceToMap(envSlice)
	cfg := remap.Load(env)

	invoked := args[0]

	cacheCtx := &cache.Context{CacheDir: cfg.CacheDir, Hot: &cache.HotTable{}}
	resolver := &shebang.Resolver{Cache: cacheCtx}

	var table *remap.Table
	if cfg.Active() {
		table = &cfg.Table
	}

	res, ok := execer.Resolve(context.Background(), invoked, env["PATH"], table, cacheCtx, resolver)
	if !ok {
		fprintError(errNotFound{name: invoked})

		return 127
	}

	argv := res.BuildArgv(args[1:])

	if err := syscall.Exec(res.Target, argv, envSlice); err != nil {
		fprintError(err)

		return 1
	}

	return 0
}

func envSliceToMap(env []string) map[string]string {
	out := make(map[string]string, len(env))

	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		out[k] = v
	}

	return out
}

type errNoArgs struct{}

func (errNoArgs) Error() string { return "missing argv[0]" }

type errNotFound struct{ name string }

func (e errNotFound) Error() string { return filepath.Base(e.name) + ": command not found" }
