package remap

import "strings"

// Table is an ordered sequence of mappings plus the target directory. First
// match wins in iteration order. A Table is immutable after construction by
// Load (see load.go) and is safe for concurrent read-only use.
type Table struct {
	Target   string
	Mappings []Mapping
}

// Rewrite applies the Pattern Matcher contract (spec.md §4.A) to path.
//
// It returns (rewritten, true) on the first mapping whose parent prefixes
// path and whose first remaining path component fnmatch-matches the
// mapping's glob. Otherwise it returns (path, false) unchanged.
//
// Rewrite never rewrites a path whose length is ≤ its parent's, and never
// matches a component exceeding MaxComponentBytes — both per spec.md's
// invariants. It performs no mapping-table mutation. It does allocate: the
// rewritten string, and, for each mapping whose parent prefixes path, the
// token slice and match table fnmatch builds.
func (t *Table) Rewrite(path string) (string, bool) {
	for _, m := range t.Mappings {
		if rewritten, ok := rewriteOne(t.Target, m, path); ok {
			return rewritten, true
		}
	}

	return path, false
}

func rewriteOne(target string, m Mapping, path string) (string, bool) {
	if !strings.HasPrefix(path, m.Parent) {
		return "", false
	}

	rest := path[len(m.Parent):]
	if rest == "" {
		// A path equal to the parent has no component to match.
		return "", false
	}

	component := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		component = rest[:idx]
	}

	if component == "" || len(component) > MaxComponentBytes {
		return "", false
	}

	if !fnmatch(m.Glob, component) {
		return "", false
	}

	return target + rest, true
}

// MatchGlob reports whether name matches glob using the same single-component
// shell globbing Rewrite uses internally. It is exported so callers outside
// this package (the namespace redirector's discovery step, spec.md §4.G) can
// classify directory entries without duplicating the glob engine.
func MatchGlob(glob, name string) bool {
	return fnmatch(glob, name)
}

// fnmatch reports whether name matches pattern using shell globbing over a
// single path component: '?' matches any single byte, '*' matches any run of
// bytes, and '[...]' introduces a character class. Neither pattern nor name
// may contain '/'; a pattern is checked against components already split on
// '/' by the caller, so this never needs to special-case path separators the
// way path.Match/filepath.Match do for whole-path patterns.
//
// This is written by hand rather than built on path.Match because
// path.Match's separator-aware semantics don't match spec.md's bounded,
// component-only fnmatch contract (see DESIGN.md). Each call allocates the
// token slice and the match table described below.
//
// Matching is tokenize-then-DP rather than naive recursive backtracking:
// with both operands bounded at MaxComponentBytes/MaxGlobBytes, backtracking
// on a pattern with many '*' tokens (e.g. "a*a*a*...*a") is still worst-case
// exponential in the token count, letting a crafted directory entry name
// stall path resolution. The DP table below is O(tokens × len(name)).
func fnmatch(pattern, name string) bool {
	tokens := tokenizeGlob(pattern)

	// matches[i][j] reports whether tokens[:i] matches name[:j].
	matches := make([][]bool, len(tokens)+1)
	for i := range matches {
		matches[i] = make([]bool, len(name)+1)
	}

	matches[0][0] = true
	for i := 1; i <= len(tokens); i++ {
		if tokens[i-1].star {
			matches[i][0] = matches[i-1][0]
		}
	}

	for i := 1; i <= len(tokens); i++ {
		tok := tokens[i-1]

		for j := 1; j <= len(name); j++ {
			if tok.star {
				matches[i][j] = matches[i-1][j] || matches[i][j-1]

				continue
			}

			matches[i][j] = matches[i-1][j-1] && tok.matchByte(name[j-1])
		}
	}

	return matches[len(tokens)][len(name)]
}

// globToken is one unit of a tokenized glob pattern: a literal byte, '?', a
// '[...]' character class, or '*'.
type globToken struct {
	star  bool
	match func(byte) bool
}

func (t globToken) matchByte(b byte) bool {
	return t.match(b)
}

// tokenizeGlob splits pattern into globTokens, resolving classEnd/classMatch
// once per class up front instead of on every DP cell visit.
func tokenizeGlob(pattern string) []globToken {
	var tokens []globToken

	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			tokens = append(tokens, globToken{star: true})
			pattern = pattern[1:]
		case '?':
			tokens = append(tokens, globToken{match: func(byte) bool { return true }})
			pattern = pattern[1:]
		case '[':
			end := classEnd(pattern)
			if end < 0 {
				// Malformed class: treat '[' as a literal.
				tokens = append(tokens, literalToken('['))
				pattern = pattern[1:]

				continue
			}

			class := pattern[1:end]
			tokens = append(tokens, globToken{match: func(b byte) bool { return classMatch(class, b) }})
			pattern = pattern[end+1:]
		default:
			tokens = append(tokens, literalToken(pattern[0]))
			pattern = pattern[1:]
		}
	}

	return tokens
}

func literalToken(want byte) globToken {
	return globToken{match: func(b byte) bool { return b == want }}
}

// classEnd returns the index of the closing ']' for a '[' class starting at
// pattern[0], or -1 if the class is unterminated.
func classEnd(pattern string) int {
	i := 1
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		i++
	}
	// A ']' immediately after the (optional) negation is a literal member.
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}

	for ; i < len(pattern); i++ {
		if pattern[i] == ']' {
			return i
		}
	}

	return -1
}

func classMatch(class string, c byte) bool {
	negate := false

	if len(class) > 0 && (class[0] == '!' || class[0] == '^') {
		negate = true
		class = class[1:]
	}

	matched := false

	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			lo, hi := class[i], class[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}

			if c >= lo && c <= hi {
				matched = true
			}

			i += 2

			continue
		}

		if class[i] == c {
			matched = true
		}
	}

	return matched != negate
}
