package assets

import (
	"errors"
	"io"
	"os"
)

var errChunksClosed = errors.New("chunks: read after close")

// Chunks is a finite, single-pass sequence of byte chunks read from an asset.
// The slice returned by Next is only valid until the following call.
type Chunks struct {
	file   *os.File
	buf    []byte
	closed bool
}

func newChunks(file *os.File, size int) *Chunks {
	return &Chunks{file: file, buf: make([]byte, size)}
}

// Next returns the next chunk, or io.EOF once the asset is exhausted.
func (c *Chunks) Next() ([]byte, error) {
	if c.closed {
		return nil, errChunksClosed
	}
	n, err := io.ReadFull(c.file, c.buf)
	switch {
	case n > 0 && (err == nil || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)):
		return c.buf[:n], nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, io.EOF
	default:
		return nil, err
	}
}

func (c *Chunks) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.file.Close()
}
