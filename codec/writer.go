package codec

import (
	"errors"
	"io"
	"os"
)

var (
	// ErrClosed is returned when writing to or reading from a closed stream
	ErrClosed = errors.New("stream already closed")

	_ io.WriteCloser = &Writer{}
)

// Writer compresses everything written to it into a file (or any io.Writer)
type Writer struct {
	codec Codec
	zw    io.WriteCloser
	// nil when created with NewWriter, in which case caller owns dst
	f   *os.File
	n   int64
	err error
}

// Create creates (or truncates) a file at path and returns a Writer
// that compresses with c. The file is removed if c fails to initialize.
func Create(path string, c Codec, level int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, c, level)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.f = f
	return w, nil
}

// NewWriter returns a Writer that compresses to dst. Close doesn't close dst.
func NewWriter(dst io.Writer, c Codec, level int) (*Writer, error) {
	if c == nil {
		c = Gzip
	}
	zw, err := c.NewWriter(dst, level)
	if err != nil {
		return nil, err
	}
	return &Writer{
		codec: c,
		zw:    zw,
	}, nil
}

// Codec returns the codec used for compression
func (w *Writer) Codec() Codec {
	return w.codec
}

// Written returns number of uncompressed bytes written so far
func (w *Writer) Written() int64 {
	return w.n
}

func (w *Writer) Write(d []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.zw == nil {
		return 0, ErrClosed
	}
	n, err := w.zw.Write(d)
	w.n += int64(n)
	if err != nil {
		w.err = err
	}
	return n, err
}

// WriteString writes s
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Close flushes compressed data and closes the file. It can be called
// multiple times, which makes it usable with defer. Returns the first error.
func (w *Writer) Close() error {
	if w.zw == nil {
		return w.err
	}
	zw := w.zw
	w.zw = nil

	err := zw.Close()
	if w.f != nil {
		err2 := w.f.Close()
		w.f = nil
		err = getErr(err, err2)
	}
	if w.err == nil {
		w.err = err
	}
	if w.err == nil {
		return nil
	}
	return w.err
}

func getErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
