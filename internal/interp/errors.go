package interp

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"
)

// ExitError is returned if the script requested a non-zero exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// RuntimeError reports an error raised while the script was running.
type RuntimeError struct {
	Err error
}

// Error returns the message decorated with the Starlark call stack, if available.
func (e *RuntimeError) Error() string {
	var evalErr *starlark.EvalError
	if errors.As(e.Err, &evalErr) && len(evalErr.CallStack) > 0 {
		return evalErr.Backtrace()
	}
	return e.Err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
