// Package execer implements Remapper's exec interposer procedure (spec.md
// §4.C) as a reusable resolution step: given a program name or path, decide
// the real, possibly-substituted target and argv prefix to exec. Both
// cmd/remapper (the front-end's own initial launch) and cmd/remapper-exec
// (the multicall launcher bind-mounted over PATH entries that descendants of
// the launched program exec) drive the same resolution through this
// package, so the cache-fill and shebang-substitution behavior a reader
// observes is identical regardless of which entry point triggered it.
package execer

import (
	"context"

	"github.com/calvinalkan/remapper/cache"
	"github.com/calvinalkan/remapper/remap"
	"github.com/calvinalkan/remapper/shebang"
)

// reentrancyKey is the context key of the re-entrancy sentinel, the
// context.Context counterpart of spec.md §4.C's thread-local sentinel.
// Resolve checks it on entry and passes invoked through unchanged when it is
// set. Resolve does not set it itself, and the steps after that check do not
// receive ctx, so the pass-through happens only for a caller that built its
// context with WithResolution.
type reentrancyKey struct{}

// InResolution reports whether ctx is already inside a resolution, i.e.
// whether the sentinel from WithResolution is set.
func InResolution(ctx context.Context) bool {
	v, _ := ctx.Value(reentrancyKey{}).(bool)

	return v
}

// WithResolution returns a context carrying the re-entrancy sentinel.
func WithResolution(ctx context.Context) context.Context {
	return context.WithValue(ctx, reentrancyKey{}, true)
}

// Resolution is what Resolve decided to exec.
type Resolution struct {
	// Target is the absolute path that will actually be exec'd.
	Target string

	// ScriptPath and ShebangArg are set only when the shebang pre-resolver
	// substituted an interpreter: ScriptPath is the original script that
	// must reappear in argv, ShebangArg its optional shebang-line argument.
	ScriptPath string
	ShebangArg string
}

// Resolve runs spec.md §4.C's procedure for invoked:
//  1. PATH resolution if invoked is a bare name (remap.LookPath).
//  2. Pattern-match the resolved path against table, in case the program
//     itself lives under a redirected prefix.
//  3. Consult the resign cache (cacheCtx) for the resolved path.
//  4. Otherwise consult the shebang pre-resolver (resolver).
//  5. Otherwise the resolved path execs unmodified.
//
// ok is false only when invoked could not be resolved at all (PATH search
// failure), matching spec.md §4.C step 1's "if resolution fails, delegate to
// the real search-variant call unmodified" — callers treat that as "command
// not found".
func Resolve(ctx context.Context, invoked string, pathVar string, table *remap.Table, cacheCtx *cache.Context, resolver *shebang.Resolver) (res Resolution, ok bool) {
	if InResolution(ctx) {
		return Resolution{Target: invoked}, true
	}

	resolved, found := remap.LookPath(invoked, pathVar)
	if !found {
		return Resolution{}, false
	}

	if table != nil {
		if rewritten, matched := table.Rewrite(resolved); matched {
			resolved = rewritten
		}
	}

	if cacheCtx != nil {
		if cached, hit := cacheCtx.Valid(resolved); hit {
			return Resolution{Target: cached}, true
		}

		hardened, capsXattr, err := cache.Detect(resolved)
		if err != nil {
			logCacheDebug(cacheCtx, "detect %q: %v", resolved, err)
		} else if hardened {
			cached, fillErr := cacheCtx.Fill(resolved, capsXattr)
			if fillErr != nil {
				logCacheDebug(cacheCtx, "fill %q: %v", resolved, fillErr)
			} else {
				return Resolution{Target: cached}, true
			}
		}
	}

	if resolver != nil {
		if cachedInterp, shebangArg, substituted := resolver.Resolve(resolved); substituted {
			return Resolution{Target: cachedInterp, ScriptPath: resolved, ShebangArg: shebangArg}, true
		}
	}

	return Resolution{Target: resolved}, true
}

// logCacheDebug reports a resolution-time cache failure through cacheCtx's
// own debug sink, so an operator running with --debug-log sees why a
// hardened binary was exec'd uncached instead of the failure vanishing
// silently (spec.md §7's diagnostic-logged error-handling contract).
func logCacheDebug(cacheCtx *cache.Context, format string, args ...any) {
	if cacheCtx.Debugf == nil {
		return
	}

	cacheCtx.Debugf(format, args...)
}

// BuildArgv constructs the argv the resolution decided on, per spec.md
// §4.C step 3: when the shebang pre-resolver substituted an interpreter,
// argv becomes [target, shebangArg?, scriptPath, originalArgs...];
// otherwise it's simply [target, originalArgs...].
func (r Resolution) BuildArgv(originalArgs []string) []string {
	argv := []string{r.Target}

	if r.ShebangArg != "" {
		argv = append(argv, r.ShebangArg)
	}

	if r.ScriptPath != "" {
		argv = append(argv, r.ScriptPath)
	}

	return append(argv, originalArgs...)
}
