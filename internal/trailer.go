package internal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Version identifies a trailer layout. The layout is selected by the signature stored in the trailer.
type Version int

// V0 is the original layout: signature, executable size, script size.
const V0 Version = 0

// signatureV0 marks the end of a combined file.
// It is checked byte-for-byte by the bootstrap loader before any offsets are trusted.
var signatureV0 = [SignatureSize]byte{'%', '%', 'g', 'l', 'u', 'e', ':', 'S'}

// SignatureSize is the length of the magic signature at the start of the trailer.
const SignatureSize = 8

// TrailerSize is the size of the complete trailer in bytes.
// Both sizes are stored as little-endian int64.
const TrailerSize = SignatureSize + 8 + 8

// ErrBadSignature is returned by DecodeTrailer if the data does not start with a known signature.
var ErrBadSignature = errors.New("unknown trailer signature")

// Trailer is the fixed-size record placed at the very end of a combined file.
type Trailer struct {
	Version Version
	Size1   int64 // Size of the executable segment
	Size2   int64 // Size of the script segment
}

// NewTrailer returns a trailer in the current layout.
func NewTrailer(size1, size2 int64) Trailer {
	return Trailer{
		Version: V0,
		Size1:   size1,
		Size2:   size2,
	}
}

// FileSize returns the size of the combined file described by the trailer.
func (t Trailer) FileSize() int64 {
	return t.Size1 + t.Size2 + TrailerSize
}

// Valid reports whether the trailer describes a file of the given length.
func (t Trailer) Valid(fileSize int64) bool {
	if t.Size1 < 0 || t.Size2 < 0 {
		return false
	}
	// guard against overflow from hostile sizes
	if t.Size1 > fileSize || t.Size2 > fileSize {
		return false
	}
	return t.FileSize() == fileSize
}

// Encode returns the binary representation of the trailer.
func (t Trailer) Encode() []byte {
	buf := make([]byte, TrailerSize)
	copy(buf, signatureV0[:])
	binary.LittleEndian.PutUint64(buf[SignatureSize:], uint64(t.Size1))
	binary.LittleEndian.PutUint64(buf[SignatureSize+8:], uint64(t.Size2))
	return buf
}

// IsSignature checks if the given byte slice starts with a known signature.
func IsSignature(data []byte) bool {
	if len(data) < SignatureSize {
		return false
	}
	return bytes.Equal(data[:SignatureSize], signatureV0[:])
}

// DecodeTrailer parses a trailer.
// Returns ErrBadSignature if the data was not produced by WriteTrailer.
func DecodeTrailer(data []byte) (Trailer, error) {
	if len(data) != TrailerSize {
		return Trailer{}, io.ErrUnexpectedEOF
	}
	switch {
	case IsSignature(data):
		return Trailer{
			Version: V0,
			Size1:   int64(binary.LittleEndian.Uint64(data[SignatureSize:])),
			Size2:   int64(binary.LittleEndian.Uint64(data[SignatureSize+8:])),
		}, nil
	default:
		return Trailer{}, ErrBadSignature
	}
}

// WriteTrailer appends the trailer to w.
func WriteTrailer(w io.Writer, t Trailer) error {
	if _, err := w.Write(t.Encode()); err != nil {
		return err
	}
	return nil
}

// ReadTrailer reads the trailer from the end of r.
// The reader is left positioned directly after the trailer.
func ReadTrailer(r io.ReadSeeker) (Trailer, error) {
	if _, err := r.Seek(-TrailerSize, io.SeekEnd); err != nil {
		return Trailer{}, err
	}
	buf := make([]byte, TrailerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Trailer{}, err
	}
	return DecodeTrailer(buf)
}
