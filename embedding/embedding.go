// Package embedding glues a script onto an executable.
package embedding

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maja42/starglue"
	"github.com/maja42/starglue/internal"
)

// DefaultChunkSize is the size of the buffer used for copying inputs.
const DefaultChunkSize = 32 * 1024

// Input is a named source for one segment of the combined file.
// Name is used in error messages; for files it should be the path.
type Input struct {
	Name string
	R    io.ReadSeeker
}

// Options control how the combined file is written.
type Options struct {
	// ChunkSize is the maximum number of bytes copied at once. Defaults to DefaultChunkSize.
	ChunkSize int
	// KeepPartial leaves an incomplete output file in place if gluing fails.
	// By default, the output is removed.
	KeepPartial bool
	// Logger (optional) is used to report the progress.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// Glue writes the combined file to out: the executable, followed by the script, followed by the trailer.
//
// outName names out in error messages.
//
// Both inputs are seeked to their end to determine their size, and to their start afterwards,
// meaning the entirety of readable content is glued. Use io.SectionReader to avoid this.
// Neither input is inspected or transformed.
func Glue(out io.Writer, outName string, exe, script Input, opts Options) error {
	logger := opts.logger()
	buf := make([]byte, opts.chunkSize())

	size1, err := copyInput(out, outName, exe, buf)
	if err != nil {
		return err
	}
	logger.Info("Wrote executable", "name", exe.Name, "bytes", size1)

	size2, err := copyInput(out, outName, script, buf)
	if err != nil {
		return err
	}
	logger.Info("Added script", "name", script.Name, "bytes", size2)

	trailer := internal.NewTrailer(size1, size2)
	if err := internal.WriteTrailer(out, trailer); err != nil {
		return starglue.Cannot("write", outName, err)
	}
	logger.Info("Added trailer", "total_bytes", trailer.FileSize())
	return nil
}

// GlueTo writes the combined file to the file at outPath.
//
// GlueTo refuses to overwrite one of its inputs: if the name of an input equals outPath,
// or an input is an *os.File referring to the same file as outPath,
// ErrSelfOverwrite is returned before the output is opened.
//
// If gluing fails, the output is removed unless opts.KeepPartial is set.
func GlueTo(outPath string, exe, script Input, opts Options) (err error) {
	for _, in := range []Input{exe, script} {
		if sameFile(in, outPath) {
			return starglue.Cannot("overwrite input file", outPath, starglue.ErrSelfOverwrite)
		}
	}

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return starglue.Cannot("open file", outPath, err)
	}
	defer func() {
		if err == nil || opts.KeepPartial {
			return
		}
		if rmErr := os.Remove(outPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			opts.logger().Warn("Failed to remove partial output", "path", outPath, "error", rmErr)
		}
	}()

	if err := Glue(out, outPath, exe, script, opts); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return starglue.Cannot("close", outPath, err)
	}
	return nil
}

// GlueFiles glues the script at scriptPath onto the executable at exePath and writes the result to outPath.
//
// See GlueTo for more information.
func GlueFiles(exePath, scriptPath, outPath string, opts Options) error {
	// Checked before opening anything, so no input is touched if the arguments are wrong.
	for _, in := range []string{exePath, scriptPath} {
		if filepath.Clean(in) == filepath.Clean(outPath) {
			return starglue.Cannot("overwrite input file", outPath, starglue.ErrSelfOverwrite)
		}
	}

	exe, err := os.Open(exePath)
	if err != nil {
		return starglue.Cannot("open file", exePath, err)
	}
	defer exe.Close()

	script, err := os.Open(scriptPath)
	if err != nil {
		return starglue.Cannot("open file", scriptPath, err)
	}
	defer script.Close()

	return GlueTo(outPath, Input{Name: exePath, R: exe}, Input{Name: scriptPath, R: script}, opts)
}

// copyInput copies the complete input to out and returns the number of bytes copied.
func copyInput(out io.Writer, outName string, in Input, buf []byte) (int64, error) {
	size, err := getSize(in.R)
	if err != nil {
		return 0, starglue.Cannot("seek", in.Name, err)
	}

	var copied int64
	r := io.LimitReader(in.R, size)
	for {
		n, rErr := r.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return copied, starglue.Cannot("write", outName, err)
			}
			copied += int64(n)
		}
		if rErr == io.EOF {
			break
		}
		if rErr != nil {
			return copied, starglue.Cannot("read", in.Name, rErr)
		}
	}

	if copied != size { // input shrank while copying
		return copied, starglue.Cannot("read", in.Name, fmt.Errorf("expected %d bytes, got %d: %w", size, copied, io.ErrUnexpectedEOF))
	}
	return size, nil
}

// getSize returns the size of the readable content.
// The reader is seeked to the beginning afterwards.
func getSize(r io.ReadSeeker) (int64, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}

// sameFile reports whether writing to outPath would overwrite the input.
func sameFile(in Input, outPath string) bool {
	if in.Name != "" && filepath.Clean(in.Name) == filepath.Clean(outPath) {
		return true
	}
	f, ok := in.R.(*os.File)
	if !ok {
		return false
	}
	inInfo, err := f.Stat()
	if err != nil {
		return false
	}
	outInfo, err := os.Stat(outPath)
	if err != nil { // output does not exist yet
		return false
	}
	return os.SameFile(inInfo, outInfo)
}
