package starglue

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_boundedBySize(t *testing.T) {
	// The reader continues after the script (trailer bytes), the cursor must stop.
	c := newCursor(strings.NewReader("scriptTRAILER"), "combined", 6)

	data, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Equal(t, "script", string(data))

	n, err := c.Read(make([]byte, 10))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestCursor_chunkSize(t *testing.T) {
	c := newCursor(strings.NewReader(strings.Repeat("a", 3*BufferSize)), "combined", 3*BufferSize)

	buf := make([]byte, 2*BufferSize)
	n, err := io.ReadAtLeast(c, buf[:1], 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, BufferSize)

	n, err = c.Read(buf)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, BufferSize)
	assert.Equal(t, int64(3*BufferSize-1-n), c.Remaining())
}

func TestCursor_empty(t *testing.T) {
	c := newCursor(strings.NewReader("#TRAILER"), "combined", 0)
	require.NoError(t, c.skipShebang())

	n, err := c.Read(make([]byte, 10))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestCursor_truncated(t *testing.T) {
	c := newCursor(strings.NewReader("abc"), "combined", 10)
	_, err := io.ReadAll(c)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.EqualError(t, err, "cannot read combined: unexpected EOF")
}

func TestCursor_skipShebangTruncated(t *testing.T) {
	c := newCursor(strings.NewReader("#!abc"), "combined", 10)
	assert.ErrorIs(t, c.skipShebang(), io.ErrUnexpectedEOF)
}

func TestCursor_skipShebangStopsAtSize(t *testing.T) {
	// The shebang line continues past the script segment.
	c := newCursor(strings.NewReader("#!abcdef\nTRAILER"), "combined", 4)
	require.NoError(t, c.skipShebang())
	assert.Zero(t, c.Remaining())

	data, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Empty(t, data)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("simulated error")
}

func TestCursor_readError(t *testing.T) {
	c := newCursor(errReader{}, "combined", 10)
	assert.EqualError(t, c.skipShebang(), "simulated error")
}
