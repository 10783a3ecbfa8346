package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/remapper/cache"
	"github.com/calvinalkan/remapper/execer"
	"github.com/calvinalkan/remapper/nsredirect"
	"github.com/calvinalkan/remapper/remap"
	"github.com/calvinalkan/remapper/rmputil"
	"github.com/calvinalkan/remapper/shebang"
)

const remapperExecutableName = "remapper"

const usageHelp = `remapper - transparently redirects filesystem access for a target program

Usage: remapper [--debug-log <file>] <target-dir> <mapping>... -- <program> [args...]
   or: remapper [--debug-log <file>] <target-dir> <mapping> <program> [args...]

Without --, exactly one mapping is expected, inline with the program.
A mapping/target-dir pair may instead be supplied by a remapper.jsonc
config file (see --config), in which case both may be omitted here.

Flags:
  --debug-log <path>    Append debug events to <path> (default: silent)
  --config <path>       Use the given remapper.jsonc instead of the default

Environment: CONFIG, CACHE, DEBUG_LOG (as documented for the core's env
contract). TARGET and MAPPINGS are set for the program from the arguments
or the config file; their values in this environment are not read.`

// Run is the CLI entry point, isolated from global state like os.Args/
// os.Environ/os.Stderr so it can be exercised directly in tests, mirroring
// the teacher's cmd/agent-sandbox Run(stdin, stdout, stderr, args, env, …)
// split.
func Run(args []string, envSlice []string, stderr io.Writer) int {
	env := envSliceToMap(envSlice)

	flags := flag.NewFlagSet(remapperExecutableName, flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.Usage = func() {}
	flags.SetOutput(io.Discard)

	debugLogFlag := flags.String("debug-log", "", "append debug events to this file")
	configFlag := flags.String("config", "", "use this remapper.jsonc instead of the default")

	if err := flags.Parse(args[1:]); err != nil {
		fmt.Fprintln(stderr, "remapper:", err)
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, usageHelp)

		return 1
	}

	positional := flags.Args()
	dashAt := flags.ArgsLenAtDash()

	inv, err := parseInvocation(positional, dashAt)
	if err != nil {
		fmt.Fprintln(stderr, "remapper:", err)
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, usageHelp)

		return 1
	}

	configDir := strings.TrimSpace(env["CONFIG"])
	if configDir == "" {
		home, homeErr := rmputil.HomeDir(env)
		if homeErr != nil {
			configDir = filepath.Join(os.TempDir(), "remapper")
		} else {
			configDir = filepath.Join(home, ".remapper")
		}
	}

	configPath, err := resolveConfigPath(*configFlag, configDir)
	if err != nil {
		fmt.Fprintln(stderr, "remapper:", err)

		return 1
	}

	var fcfg fileConfig

	if configPath != "" {
		fcfg, err = loadFileConfig(configPath)
		if err != nil {
			fmt.Fprintln(stderr, "remapper:", err)

			return 1
		}
	}

	target := inv.target
	if target == "" {
		target = fcfg.Target
	}

	mappings := inv.mappings
	if len(mappings) == 0 {
		mappings = fcfg.Mappings
	}

	if target == "" || len(mappings) == 0 {
		fmt.Fprintln(stderr, "remapper: no target directory or mappings given on the command line or in config")
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, usageHelp)

		return 1
	}

	home, _ := rmputil.HomeDir(env)
	target = expandAndAbs(target, home)

	debugLogPath := *debugLogFlag
	if debugLogPath == "" {
		debugLogPath = firstNonEmpty(env["DEBUG_LOG"], fcfg.DebugLog)
	}

	cacheDir := firstNonEmpty(env["CACHE"], fcfg.CacheDir)
	if cacheDir == "" {
		cacheDir = filepath.Join(configDir, "cache")
	}

	childEnv := map[string]string{}
	for k, v := range env {
		childEnv[k] = v
	}

	childEnv["TARGET"] = target
	childEnv["MAPPINGS"] = strings.Join(mappings, ":")
	childEnv["CONFIG"] = configDir
	childEnv["CACHE"] = cacheDir

	if debugLogPath != "" {
		childEnv["DEBUG_LOG"] = debugLogPath
	}

	cfg := remap.Load(childEnv)

	debugf, closer := rmputil.OpenDebugLog(debugLogPath, stderr)
	if closer != nil {
		defer closer.Close()
	}

	for _, w := range cfg.Warnings {
		logDebug(debugf, "%s", w)
	}

	plan := nsredirect.BuildPlan(&cfg.Table)

	for _, w := range plan.Warnings {
		logDebug(debugf, "%s", w)
	}

	if err := plan.Apply(nsredirect.Debugf(debugf)); err != nil {
		fmt.Fprintln(stderr, "remapper:", err)
		fmt.Fprintln(stderr, "hint: unprivileged user namespaces may be disabled on this host "+
			"(see /proc/sys/kernel/unprivileged_userns_clone or an equivalent sysctl)")

		return 1
	}

	cacheCtx := &cache.Context{CacheDir: cacheDir, Debugf: cache.Debugf(debugf), Hot: &cache.HotTable{}}
	resolver := &shebang.Resolver{Cache: cacheCtx, Debugf: debugf}

	res, ok := execer.Resolve(context.Background(), inv.program, env["PATH"], &cfg.Table, cacheCtx, resolver)
	if !ok {
		fmt.Fprintln(stderr, "remapper:", inv.program+": command not found")

		return 127
	}

	argv := res.BuildArgv(inv.programArgs)
	envv := mapToEnvSlice(childEnv)

	if err := nsredirect.Exec(res.Target, argv, envv); err != nil {
		fmt.Fprintln(stderr, "remapper:", err)

		return 127
	}

	// nsredirect.Exec only returns on failure; unreachable on success.
	return 0
}

func logDebug(debugf rmputil.Debugf, format string, args ...any) {
	if debugf == nil {
		return
	}

	debugf(format, args...)
}

// invocation is the parsed form of the CLI synopsis: target-dir,
// mapping(s), and the program to launch, however they were split across
// "--" (or the fixed three-positional form when no "--" was given).
type invocation struct {
	target      string
	mappings    []string
	program     string
	programArgs []string
}

// parseInvocation implements spec.md §6's synopsis. With "--" present,
// everything before it is <target-dir> <mapping>... (or nothing at all, if
// a config file supplies both) and everything from "--" onward is
// <program> [args...]. Without "--", spec.md requires exactly one mapping
// inline with the program: <target-dir> <mapping> <program> [args...]; a
// single leftover token is treated as <program> alone, deferring
// target/mappings entirely to the config file.
func parseInvocation(positional []string, dashAt int) (invocation, error) {
	if dashAt >= 0 {
		before := positional[:dashAt]
		after := positional[dashAt:]

		if len(before) == 1 {
			return invocation{}, fmt.Errorf("expected <target-dir> <mapping>... before --, got a single token %q", before[0])
		}

		if len(after) == 0 {
			return invocation{}, fmt.Errorf("expected <program> [args...] after --")
		}

		inv := invocation{program: after[0], programArgs: after[1:]}
		if len(before) > 0 {
			inv.target = before[0]
			inv.mappings = before[1:]
		}

		return inv, nil
	}

	switch {
	case len(positional) == 0:
		return invocation{}, fmt.Errorf("expected at least <program>")
	case len(positional) == 1:
		return invocation{program: positional[0]}, nil
	case len(positional) >= 3:
		return invocation{
			target:      positional[0],
			mappings:    positional[1:2],
			program:     positional[2],
			programArgs: positional[3:],
		}, nil
	default:
		return invocation{}, fmt.Errorf("ambiguous arguments %v: use -- to separate <target-dir> <mapping>... from <program>", positional)
	}
}

func expandAndAbs(path, home string) string {
	if path == "~" {
		path = home
	} else if strings.HasPrefix(path, "~/") && home != "" {
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
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

func mapToEnvSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))

	for k, v := range env {
		out = append(out, k+"="+v)
	}

	return out
}
