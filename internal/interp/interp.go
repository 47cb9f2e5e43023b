// Package interp compiles and runs Starlark scripts.
//
// Scripts see the following predeclared globals in addition to the Starlark universe:
//
//	arg     list of command line arguments; arg[0] is the invoking path
//	exit    exit(code=0) stops the script and sets the exit code (0..255)
//	json    go.starlark.net/lib/json
//	math    go.starlark.net/lib/math
//	struct  starlarkstruct constructor
//	time    go.starlark.net/lib/time
//
// If a script defines a function named main, it is called after the top-level statements ran,
// with arg[1:] as positional arguments.
package interp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// ChunkName is the file name reported in diagnostics.
// The script has no path of its own; it lives inside the executable.
const ChunkName = "<script>"

// MainFunc is the name of the optional entry point.
const MainFunc = "main"

// MaxExitCode is the largest code accepted by exit().
// Process exit statuses are truncated to 8 bits.
const MaxExitCode = 255

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// predeclaredNames are the globals provided by Run. Compile needs to know them in advance.
var predeclaredNames = map[string]bool{
	"arg":    true,
	"exit":   true,
	"json":   true,
	"math":   true,
	"struct": true,
	"time":   true,
}

// Compile reads the complete script from src and compiles it.
// Compile errors are returned as produced by the Starlark compiler.
func Compile(src io.Reader) (*starlark.Program, error) {
	_, prog, err := starlark.SourceProgramOptions(fileOptions, ChunkName, src, func(name string) bool {
		return predeclaredNames[name]
	})
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// Options configure the execution of a script.
type Options struct {
	// Stdout receives the output of print(). Defaults to io.Discard.
	Stdout io.Writer
	// MaxSteps limits the number of execution steps. 0 means unlimited.
	MaxSteps uint64
	// Logger (optional) receives debug information.
	Logger *slog.Logger
}

// Run executes a compiled script.
// args is the full argument vector: args[0] is the invoking path, the rest is passed on to main.
//
// Returns an *ExitError if the script called exit with a non-zero code,
// or a *RuntimeError if the script failed.
func Run(prog *starlark.Program, args []string, opts Options) error {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	thread := &starlark.Thread{
		Name: "main",
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(stdout, msg)
		},
	}
	if opts.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(opts.MaxSteps)
	}

	globals, err := prog.Init(thread, Predeclared(args))
	if err != nil {
		return runtimeError(err)
	}

	entry, ok := globals[MainFunc].(starlark.Callable)
	if !ok {
		logger.Debug("Script has no main function")
		return nil
	}

	callArgs := make(starlark.Tuple, 0, len(args))
	if len(args) > 1 {
		for _, a := range args[1:] {
			callArgs = append(callArgs, starlark.String(a))
		}
	}
	logger.Debug("Calling main", "args", len(callArgs))
	if _, err := starlark.Call(thread, entry, callArgs, nil); err != nil {
		return runtimeError(err)
	}
	return nil
}

// Predeclared returns the globals available to every script.
func Predeclared(args []string) starlark.StringDict {
	argList := make([]starlark.Value, len(args))
	for i, a := range args {
		argList[i] = starlark.String(a)
	}

	return starlark.StringDict{
		"arg":    starlark.NewList(argList),
		"exit":   starlark.NewBuiltin("exit", exit),
		"json":   json.Module,
		"math":   math.Module,
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
		"time":   time.Module,
	}
}

func exit(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	code := 0
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &code); err != nil {
		return nil, err
	}
	if code < 0 || code > MaxExitCode {
		return nil, fmt.Errorf("%s: code %d out of range [0, %d]", b.Name(), code, MaxExitCode)
	}
	return nil, &ExitError{Code: code}
}

// runtimeError converts an execution error.
// A call to exit() is passed through as *ExitError (or nil if the code is zero).
func runtimeError(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == 0 {
			return nil
		}
		return exitErr
	}
	return &RuntimeError{Err: err}
}
