// Command starrun is a Starlark interpreter for self-running programs.
//
// starrun runs the script glued onto its own executable by starglue:
//
//	starglue starrun hello.star hello
//	./hello a b
//
// The script sees its arguments in the list arg (arg[0] is the invoking path).
// If it defines main, main is called with arg[1:] as parameters.
//
// starrun without a glued script runs the script file named by its first argument,
// so scripts can also be started through their shebang line:
//
//	#!/usr/bin/env starrun
//
// Environment:
//
//	STARRUN_LOG_LEVEL   log level of the bootstrap (debug, info, warn, error)
//	STARRUN_MAX_STEPS   limit of Starlark execution steps (0 = unlimited)
package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/maja42/starglue"
	"github.com/maja42/starglue/internal/bootstrap"
	"github.com/maja42/starglue/internal/config"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr, starglue.Executable))
}

func run(args []string, stdout, stderr io.Writer, executable func() (string, error)) int {
	progName := "starrun"
	if len(args) > 0 && args[0] != "" {
		progName = filepath.Base(args[0])
	}

	exe, err := executable()
	if err != nil {
		return bootstrap.Report(stderr, progName, starglue.ErrCannotLocate)
	}

	cfg, err := config.LoadRuntime()
	if err != nil {
		return bootstrap.Report(stderr, progName, err)
	}
	level, _ := config.ParseLevel(cfg.LogLevel) // validated by LoadRuntime

	err = bootstrap.Run(bootstrap.Config{
		Executable: exe,
		Args:       args,
		Stdout:     stdout,
		MaxSteps:   cfg.MaxSteps,
		Logger:     config.NewLogger(stderr, level),
	})
	return bootstrap.Report(stderr, progName, err)
}
