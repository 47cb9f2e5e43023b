// Package starglue reads scripts glued onto the end of an executable.
//
// A combined file has the layout [executable][script][trailer].
// The trailer is written by package embedding and records the sizes of both segments.
package starglue

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/maja42/starglue/internal"
)

// Script represents a script glued onto an executable.
type Script struct {
	exeFile *os.File
	path    string
	trailer internal.Trailer
}

// Executable returns the path of the running executable.
func Executable() (string, error) {
	path, err := os.Executable()
	if err != nil || path == "" {
		return "", ErrCannotLocate
	}
	if p, err := filepath.EvalSymlinks(path); err == nil {
		// EvalSymlinks fails on Windows if the executable is located in the
		// remote SYSVOL volume from the domain controller.
		// It is therefore optional, any errors are ignored.
		path = p
	}
	return path, nil
}

// OpenExe returns the script glued onto an arbitrary file.
// Fails with ErrNoScript if the file does not end with a glue trailer.
func OpenExe(exePath string) (*Script, error) {
	if exePath == "" {
		return nil, ErrCannotLocate
	}
	exe, err := os.Open(exePath)
	if err != nil {
		return nil, Cannot("open", exePath, err)
	}
	dontClose := false
	defer func() {
		if !dontClose {
			_ = exe.Close()
		}
	}()

	fileSize, err := exe.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, Cannot("seek", exePath, err)
	}
	if fileSize < internal.TrailerSize { // too small to carry anything
		return nil, Cannot("find a glued script in", exePath, ErrNoScript)
	}

	trailer, err := internal.ReadTrailer(exe)
	if errors.Is(err, internal.ErrBadSignature) {
		return nil, Cannot("find a glued script in", exePath, ErrNoScript)
	}
	if err != nil {
		return nil, Cannot("read", exePath, err)
	}
	if !trailer.Valid(fileSize) {
		return nil, Cannot("find a glued script in", exePath, ErrCorrupt)
	}

	dontClose = true
	return &Script{
		exeFile: exe,
		path:    exePath,
		trailer: trailer,
	}, nil
}

// OpenScript returns a script stored in a file of its own, such as a script started through its shebang line.
// The whole file is the script; it has an offset of 0.
func OpenScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Cannot("open", path, err)
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		_ = f.Close()
		return nil, Cannot("seek", path, err)
	}
	return &Script{
		exeFile: f,
		path:    path,
		trailer: internal.NewTrailer(0, size),
	}, nil
}

// Close the executable containing the script.
// Close will return an error if it has already been called.
func (s *Script) Close() error {
	return s.exeFile.Close()
}

// Path returns the path of the combined file.
func (s *Script) Path() string {
	return s.path
}

// Size returns the size of the script in bytes, including a shebang line.
func (s *Script) Size() int64 {
	return s.trailer.Size2
}

// Offset returns the offset of the script in bytes, in relation to the start of the combined file.
// This equals the size of the executable the script was glued onto.
func (s *Script) Offset() int64 {
	return s.trailer.Size1
}

// Reader positions the executable at the start of the script and returns a cursor for streaming it.
// A leading shebang line is skipped.
//
// The cursor shares the file with the script; only one cursor can be used at a time.
func (s *Script) Reader() (*Cursor, error) {
	if _, err := s.exeFile.Seek(s.trailer.Size1, io.SeekStart); err != nil {
		return nil, Cannot("seek", s.path, err)
	}
	c := newCursor(s.exeFile, s.path, s.trailer.Size2)
	if err := c.skipShebang(); err != nil {
		return nil, Cannot("read", s.path, err)
	}
	return c, nil
}
