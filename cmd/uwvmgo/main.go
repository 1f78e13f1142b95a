// Command uwvmgo loads and decodes a core WebAssembly module and reports the
// export it would run (_start, or a named export). Only the runtime-int tier
// is accepted, and the module is not executed.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		if _, ok := err.(usageError); ok {
			return -1
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// usageError marks an error that should exit with the CLI-usage status
// rather than the parse/validation/initialisation status.
type usageError struct{ error }
