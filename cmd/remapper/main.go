// Command remapper is Remapper's CLI front-end (spec.md §6): it parses the
// <target-dir> <mapping>… -- <program> [args…] invocation, assembles the
// env contract the core consumes, and hands off to the namespace redirector
// (nsredirect, spec.md §4.G) before execing the target program. The CLI
// itself is a collaborator, not core (spec.md §1's "deliberately out of
// scope" list), but a complete repository needs this entry point.
package main

import "os"

func main() {
	os.Exit(Run(os.Args, os.Environ(), os.Stderr))
}
