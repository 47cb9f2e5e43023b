package starglue

import (
	"bufio"
	"io"
)

// BufferSize is the largest chunk a Cursor hands out per Read.
const BufferSize = 8192

// ShebangMarker starts an interpreter directive line.
const ShebangMarker = '#'

// Cursor streams the script segment of a combined file.
// It never reads past the end of the script, even if the underlying reader continues.
type Cursor struct {
	r         *bufio.Reader
	name      string
	remaining int64
}

func newCursor(r io.Reader, name string, size int64) *Cursor {
	return &Cursor{
		r:         bufio.NewReaderSize(io.LimitReader(r, size), BufferSize),
		name:      name,
		remaining: size,
	}
}

// Remaining returns the number of script bytes not yet delivered.
func (c *Cursor) Remaining() int64 {
	return c.remaining
}

// Read reads up to BufferSize bytes of the script.
// Returns io.EOF once the whole script was delivered. Other errors are *OpError.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) > BufferSize {
		p = p[:BufferSize]
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if err == io.EOF && c.remaining > 0 { // file ended before the script did
		err = io.ErrUnexpectedEOF
	}
	if err != nil && err != io.EOF {
		err = Cannot("read", c.name, err)
	}
	return n, err
}

// skipShebang discards the first line if it starts with ShebangMarker.
// The newline is discarded as well, so the next byte read is the first byte of the second line.
func (c *Cursor) skipShebang() error {
	if c.remaining == 0 {
		return nil
	}
	b, err := c.r.ReadByte()
	if err != nil {
		return unexpected(err)
	}
	if b != ShebangMarker {
		return c.r.UnreadByte()
	}
	c.remaining--

	for c.remaining > 0 {
		b, err := c.r.ReadByte()
		if err != nil {
			return unexpected(err)
		}
		c.remaining--
		if b == '\n' {
			break
		}
	}
	return nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
