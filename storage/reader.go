// Package storage provides a small buffered-reader helper used by the
// cue package to pull bytes out of BIN blobs and CUE sheets.
package storage

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Reader wraps an io.Reader with peeking and short-read helpers on top
// of a bufio.Reader, so that binary.Read and spot one/two-byte look-ahead
// can share the same underlying stream without losing bytes.
type Reader struct {
	*bufio.Reader
}

// NewReader wraps r in a buffered Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{Reader: bufio.NewReader(r)}
}

// ReadByte reads and returns a single byte, discarding the error.
// Callers that need to distinguish EOF should Peek(1) first.
func (r *Reader) ReadByte() byte {
	b, _ := r.Reader.ReadByte()
	return b
}

// PeekShort peeks at the next two bytes and returns them as a
// little-endian uint16 without advancing the reader.
func (r *Reader) PeekShort() (uint16, error) {
	b, err := r.Reader.Peek(2)
	if err != nil {
		return 0, errors.Wrap(err, "unable to peek 2 bytes")
	}

	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// Peek returns the next n bytes without advancing the reader.
func (r *Reader) Peek(n int) ([]byte, error) {
	b, err := r.Reader.Peek(n)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to peek %d bytes", n)
	}

	return b, nil
}
