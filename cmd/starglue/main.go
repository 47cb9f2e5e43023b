// Command starglue glues a Starlark script onto an interpreter executable.
//
// Usage:
//
//	starglue [flags] in.exe in.star out.exe
//
// The output runs in.star when executed, given that in.exe is the starrun interpreter.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	progName := "starglue"
	if len(args) > 0 {
		if args[0] != "" {
			progName = filepath.Base(args[0])
		}
		args = args[1:]
	}

	cmd := newRootCmd(progName)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(stderr, usage)
			return 1
		}
		fmt.Fprintf(stderr, "%s: %s\n", progName, err)
		return 1
	}
	return 0
}
