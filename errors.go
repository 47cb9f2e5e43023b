package starglue

import (
	"errors"
	"io/fs"
)

var (
	// ErrNoScript reports that a file does not end with a glue trailer.
	ErrNoScript = errors.New("no script found")
	// ErrCorrupt reports a glue trailer whose sizes do not match the file it is in.
	ErrCorrupt = errors.New("corrupt glue trailer")
	// ErrSelfOverwrite is returned when the output of the packager would replace one of its inputs.
	ErrSelfOverwrite = errors.New("attempted self-overwrite")
	// ErrCannotLocate is returned if the path of the running executable is unknown.
	ErrCannotLocate = errors.New("cannot locate this executable")
)

// OpError reports a failed operation on a named file.
// The message has the form "cannot <op> <path>: <cause>".
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return "cannot " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Cannot wraps err into an OpError.
// The operation and path are already part of the message, so an *fs.PathError is reduced to its cause.
func Cannot(op, path string, err error) *OpError {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return &OpError{Op: op, Path: path, Err: err}
}
