package core

// reader.go reads upload bodies into memory under a size cap.
//
// Detection needs the complete input, so uploads are buffered rather than
// streamed. CountingReader lets ReadUpload tell "exactly at the limit" apart
// from "over the limit" without trusting the declared size from the client.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// ErrEmptyFile is returned for zero-byte uploads.
var ErrEmptyFile = errors.New("empty file")

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// ReadUpload reads at most maxSize bytes from r. Larger inputs fail with
// ErrFileTooLarge, empty ones with ErrEmptyFile. maxSize <= 0 disables the cap.
func ReadUpload(r io.Reader, declared, maxSize int64) ([]byte, error) {
	if maxSize > 0 && declared > maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, declared, maxSize)
	}

	cr := NewCountingReader(r)
	src := io.Reader(cr)
	if maxSize > 0 {
		src = io.LimitReader(cr, maxSize+1)
	}

	var buf bytes.Buffer
	if declared > 0 && (maxSize <= 0 || declared <= maxSize) {
		buf.Grow(int(declared))
	}
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	if maxSize > 0 && cr.BytesRead > maxSize {
		return nil, fmt.Errorf("%w: exceeds limit of %d bytes", ErrFileTooLarge, maxSize)
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyFile
	}
	return buf.Bytes(), nil
}
