// Command remapper-exec is the exec interposer's multicall launcher
// (spec.md §4.C). It is installed over a wrapped program's own path (or
// reached directly via the mapping table's rewritten location); argv[0]
// tells it which program it is standing in for.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Environ()))
}

func fprintError(err error) {
	fmt.Fprintln(os.Stderr, "remapper-exec:", err)
}
