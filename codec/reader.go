package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrCorrupt means the compressed stream is not validly framed
	// (wrong codec, not compressed at all or damaged)
	ErrCorrupt = errors.New("corrupt compressed stream")

	_ io.ReadCloser = &Reader{}
	_ io.ByteReader = &Reader{}
)

// above this, ReadExact grows the buffer as data arrives instead of
// trusting the requested size up front
const maxPrealloc = 1 << 20

// remembers the first error returned by the underlying reader so that
// we can tell i/o errors apart from decompression errors
type srcReader struct {
	r   io.Reader
	err error
}

func (s *srcReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	return n, err
}

// Reader decompresses a file. The decoder is created lazily, on first
// read, so a file that isn't a valid compressed stream is reported by
// the first read and not by Open.
type Reader struct {
	codec Codec
	f     *os.File
	src   *srcReader
	zr    io.ReadCloser
	br    *bufio.Reader
	err   error
	// set once Close was called
	closed bool
}

// Open opens a compressed file for reading
func Open(path string, c Codec) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(f, c)
	r.f = f
	return r, nil
}

// NewReader returns a Reader decompressing src. Close doesn't close src.
func NewReader(src io.Reader, c Codec) *Reader {
	if c == nil {
		c = Gzip
	}
	return &Reader{
		codec: c,
		src:   &srcReader{r: src},
	}
}

// Codec returns the codec used for decompression
func (r *Reader) Codec() Codec {
	return r.codec
}

func (r *Reader) classify(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	if r.src.err != nil {
		return r.src.err
	}
	return fmt.Errorf("%w: %s: %w", ErrCorrupt, r.codec.Name(), err)
}

// decoded wraps decoder's Read so that bufio.Reader sees classified errors
type decoded struct {
	r *Reader
}

func (d decoded) Read(p []byte) (int, error) {
	n, err := d.r.zr.Read(p)
	return n, d.r.classify(err)
}

func (r *Reader) ensureDecoder() error {
	if r.err != nil {
		return r.err
	}
	if r.closed {
		return ErrClosed
	}
	if r.br != nil {
		return nil
	}
	zr, err := r.codec.NewReader(r.src)
	if err != nil {
		// empty input is not a valid stream either
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = r.classify(err)
		return r.err
	}
	r.zr = zr
	r.br = bufio.NewReader(decoded{r: r})
	return nil
}

// remembers decoder and source errors. io.EOF and io.ErrUnexpectedEOF
// only describe a single read and are not sticky.
func (r *Reader) setErr(err error) error {
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF && r.err == nil {
		r.err = err
	}
	return err
}

// Read reads decompressed data
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ensureDecoder(); err != nil {
		return 0, err
	}
	n, err := r.br.Read(p)
	return n, r.setErr(err)
}

// ReadByte reads a single decompressed byte. Returns io.EOF at the end
// of the stream.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.ensureDecoder(); err != nil {
		return 0, err
	}
	b, err := r.br.ReadByte()
	return b, r.setErr(err)
}

// ReadExact reads exactly n decompressed bytes. If the stream ends
// before that, it returns bytes read so far and io.ErrUnexpectedEOF.
func (r *Reader) ReadExact(n int64) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ReadExact: negative size %d", n)
	}
	if err := r.ensureDecoder(); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	if n <= maxPrealloc {
		d := make([]byte, int(n))
		nRead, err := io.ReadFull(r.br, d)
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return d[:nRead], r.setErr(err)
	}
	// don't allocate a size we read from possibly damaged data
	var buf bytes.Buffer
	buf.Grow(maxPrealloc)
	nRead, err := io.CopyN(&buf, r.br, n)
	if err == io.EOF || (err == nil && nRead < n) {
		err = io.ErrUnexpectedEOF
	}
	return buf.Bytes(), r.setErr(err)
}

// Close releases the decoder and closes the file. It can be called
// multiple times.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.zr != nil {
		err = r.zr.Close()
		r.zr = nil
	}
	if r.f != nil {
		err = getErr(err, r.f.Close())
		r.f = nil
	}
	return err
}
