// Package bootstrap runs the script glued onto the current executable.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/maja42/starglue"
	"github.com/maja42/starglue/internal/interp"
	"go.starlark.net/starlark"
)

// Config describes a single bootstrap invocation.
type Config struct {
	// Executable is the path of the combined file to load the script from.
	Executable string
	// Args is the argument vector of the process. Args[0] is the invoking path.
	Args []string
	// Stdout receives the script's output.
	Stdout io.Writer
	// MaxSteps limits the script's execution steps. 0 means unlimited.
	MaxSteps uint64
	// Logger (optional) traces the bootstrap steps.
	Logger *slog.Logger
}

// CompileError reports a script that could not be compiled.
// The message is the compiler's diagnostic, unchanged.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return e.Err.Error()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Run locates the glued script in cfg.Executable, compiles and runs it.
// If cfg.Executable carries no script, the file named by cfg.Args[1] is run instead,
// with cfg.Args[1:] as its argument vector.
//
// Errors before the script started are *starglue.OpError, starglue.ErrCannotLocate or *CompileError.
// Errors while the script was running are *interp.RuntimeError or *interp.ExitError.
func Run(cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Executable == "" {
		return starglue.ErrCannotLocate
	}

	args := cfg.Args
	if len(args) == 0 {
		args = []string{cfg.Executable}
	}

	script, err := starglue.OpenExe(cfg.Executable)
	if errors.Is(err, starglue.ErrNoScript) && len(args) > 1 {
		// Not glued: run the script file given as first argument, as for "#!/usr/bin/env starrun".
		logger.Debug("No glued script, running script file", "path", args[1])
		args = args[1:]
		script, err = starglue.OpenScript(args[0])
	}
	if err != nil {
		return err
	}
	logger.Debug("Found script", "path", script.Path(), "offset", script.Offset(), "bytes", script.Size())

	prog, err := load(script)
	closeErr := script.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return starglue.Cannot("close", script.Path(), closeErr)
	}
	logger.Debug("Compiled script")

	return interp.Run(prog, args, interp.Options{
		Stdout:   cfg.Stdout,
		MaxSteps: cfg.MaxSteps,
		Logger:   logger,
	})
}

// load streams the script into the compiler.
func load(script *starglue.Script) (*starlark.Program, error) {
	cursor, err := script.Reader()
	if err != nil {
		return nil, err
	}
	prog, err := interp.Compile(cursor)
	if err != nil {
		var opErr *starglue.OpError
		if errors.As(err, &opErr) { // reading failed, the script itself may be fine
			return nil, opErr
		}
		return nil, &CompileError{Err: err}
	}
	return prog, nil
}

// Report prints err to w, prefixed with the program name, and returns the process exit code.
// A script that called exit() only sets the exit code.
func Report(w io.Writer, progName string, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *interp.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(w, "%s: %s\n", progName, err)
	return 1
}
