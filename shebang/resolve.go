// Package shebang implements Remapper's shebang pre-resolver (spec.md
// §4.E): before a script whose interpreter lives on a protected path
// reaches the kernel's exec, it substitutes a capability-preserved copy of
// that interpreter so capability re-application still happens, the way
// spec.md's macOS core substitutes a re-signed copy to survive the loader
// stripping an injection variable.
package shebang

import (
	"bytes"
	"os"
	"strings"

	"github.com/calvinalkan/remapper/cache"
)

// maxProbeBytes bounds the prefix read from a candidate script, matching
// spec.md §4.E step 1.
const maxProbeBytes = 256

// DefaultProtectedPrefixes are the Linux analogues of spec.md's
// SIP-protected macOS roots: read-only, host-managed directories whose
// binaries the kernel's capability machinery treats like hardened ones.
var DefaultProtectedPrefixes = []string{"/usr", "/bin", "/sbin", "/lib", "/lib64"}

// Resolver pre-resolves shebang interpreters, consulting a cache.Context for
// capability re-application.
type Resolver struct {
	Cache             *cache.Context
	ProtectedPrefixes []string
	Debugf            func(format string, args ...any)
}

func (r *Resolver) debugf(format string, args ...any) {
	if r.Debugf == nil {
		return
	}

	r.Debugf("shebang: "+format, args...)
}

func (r *Resolver) protectedPrefixes() []string {
	if len(r.ProtectedPrefixes) > 0 {
		return r.ProtectedPrefixes
	}

	return DefaultProtectedPrefixes
}

func (r *Resolver) isProtected(interpreter string) bool {
	for _, prefix := range r.protectedPrefixes() {
		if interpreter == prefix || strings.HasPrefix(interpreter, prefix+"/") {
			return true
		}
	}

	return false
}

// Resolve runs spec.md §4.E's procedure against candidate program path p. It
// returns ok == false whenever no substitution should happen: p is not a
// script, its interpreter isn't protected or hardened, or the cache fill
// failed — never an error, since a failed resolution simply means the
// original program path is launched unmodified (spec.md §4.E step 5's
// "return no substitution").
func (r *Resolver) Resolve(p string) (cachedInterpreter string, shebangArg string, ok bool) {
	interpreter, arg, found := readShebangLine(p)
	if !found {
		return "", "", false
	}

	hardened, capsXattr, err := cache.Detect(interpreter)
	if err != nil {
		r.debugf("detect %q: %v", interpreter, err)
	}

	if !hardened && !r.isProtected(interpreter) {
		return "", "", false
	}

	if cached, ok := r.Cache.Valid(interpreter); ok {
		return cached, arg, true
	}

	cached, err := r.Cache.Fill(interpreter, capsXattr)
	if err != nil {
		r.debugf("fill %q: %v", interpreter, err)

		return "", "", false
	}

	return cached, arg, true
}

// readShebangLine implements steps 1-3 of spec.md §4.E: it returns the
// interpreter path and optional argument from p's "#!" line, or
// found == false if p has no shebang line at all.
func readShebangLine(p string) (interpreter string, arg string, found bool) {
	f, err := os.Open(p)
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	buf := make([]byte, maxProbeBytes)

	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "", "", false
	}

	buf = buf[:n]

	if len(buf) < 2 || buf[0] != '#' || buf[1] != '!' {
		return "", "", false
	}

	line := buf[2:]
	if idx := bytes.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}

	line = []byte(strings.TrimLeft(string(line), " \t"))
	if len(line) == 0 {
		return "", "", false
	}

	fields := strings.SplitN(strings.TrimRight(string(line), " \t"), " ", 2)
	interpreter = fields[0]

	if interpreter == "" {
		return "", "", false
	}

	if len(fields) == 2 {
		arg = strings.TrimLeft(fields[1], " \t")
	}

	return interpreter, arg, true
}
