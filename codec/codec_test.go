package codec

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/gziptool/require"
)

func writeCompressed(t *testing.T, path string, c Codec, level int, chunks ...[]byte) {
	w, err := Create(path, c, level)
	require.NoError(t, err)
	defer w.Close()
	var total int64
	for _, d := range chunks {
		n, err := w.Write(d)
		require.NoError(t, err)
		assert.Equal(t, len(d), n)
		total += int64(n)
	}
	assert.Equal(t, total, w.Written())
	require.NoError(t, w.Close())
}

func TestRoundTripAllCodecs(t *testing.T) {
	content := []byte("line one\nline two\x00\x01\x02\n")
	big := bytes.Repeat([]byte("0123456789abcdef"), 8*1024)
	for _, c := range All {
		t.Run(c.Name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data"+c.Ext())
			writeCompressed(t, path, c, 0, content, big)

			r, err := Open(path, c)
			require.NoError(t, err)
			defer r.Close()

			// read first line byte by byte, the way records are scanned
			var line []byte
			for {
				b, err := r.ReadByte()
				require.NoError(t, err)
				if b == '\n' {
					break
				}
				line = append(line, b)
			}
			assert.Equal(t, "line one", string(line))

			rest := int64(len(content) - len("line one\n"))
			d, err := r.ReadExact(rest)
			require.NoError(t, err)
			assert.Equal(t, content[len("line one\n"):], d)

			d, err = r.ReadExact(int64(len(big)))
			require.NoError(t, err)
			assert.True(t, bytes.Equal(big, d))

			_, err = r.ReadByte()
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestLevels(t *testing.T) {
	dir := t.TempDir()
	for _, c := range All {
		path := filepath.Join(dir, "level"+c.Ext())
		writeCompressed(t, path, c, 1, []byte("hello"))

		_, err := Create(path, c, 100)
		assert.Error(t, err, "codec: %s", c.Name())
		// failed Create doesn't leave the file behind
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestSniff(t *testing.T) {
	dir := t.TempDir()
	for _, c := range []Codec{Gzip, Zstd, Lz4} {
		path := filepath.Join(dir, "noext")
		writeCompressed(t, path, c, 0, []byte("sniff me"))
		got, err := SniffFile(path)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c.Name(), got.Name())

		got, err = Detect(path)
		require.NoError(t, err)
		assert.Equal(t, c.Name(), got.Name())
	}

	d, err := os.ReadFile(filepath.Join(dir, "noext"))
	require.NoError(t, err)
	assert.True(t, len(d) > 4)

	// brotli has no magic, detected by extension
	path := filepath.Join(dir, "a.br")
	writeCompressed(t, path, Brotli, 0, []byte("brotli"))
	got, err := SniffFile(path)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = Detect(path)
	require.NoError(t, err)
	assert.Equal(t, "brotli", got.Name())

	assert.Nil(t, Sniff(nil))
	assert.Nil(t, Sniff([]byte{0x1f}))
	assert.Equal(t, "gzip", Sniff([]byte{0x1f, 0x8b, 0x08}).Name())

	_, err = SniffFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestGzipMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.gz")
	writeCompressed(t, path, Gzip, 0, []byte("x"))
	d, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, d[:2])
}

func TestByName(t *testing.T) {
	for _, name := range []string{"gzip", "gz", "GZIP", "zstd", "zst", "brotli", "br", "lz4"} {
		c, err := ByName(name)
		assert.NoError(t, err, "name: %s", name)
		assert.NotNil(t, c)
	}
	_, err := ByName("rar")
	assert.Error(t, err)
}

func TestOpenIsLazy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.gz")
	require.NoError(t, os.WriteFile(path, []byte("this is not gzip data at all"), 0644))

	r, err := Open(path, Gzip)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadByte()
	assert.True(t, errors.Is(err, ErrCorrupt), "err: %v", err)
	// error is sticky
	_, err = r.ReadExact(3)
	assert.True(t, errors.Is(err, ErrCorrupt), "err: %v", err)
}

func TestEmptyFileIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gz")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	r, err := Open(path, Gzip)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.ReadByte()
	assert.True(t, errors.Is(err, ErrCorrupt), "err: %v", err)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.gz"), Gzip)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestShortReadExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.gz")
	writeCompressed(t, path, Gzip, 0, []byte("abc"))
	r, err := Open(path, Gzip)
	require.NoError(t, err)
	defer r.Close()

	d, err := r.ReadExact(10)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	assert.Equal(t, "abc", string(d))

	// a short read doesn't poison the reader
	d, err = r.ReadExact(0)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(d))
	_, err = r.ReadByte()
	assert.Equal(t, io.EOF, err)
	d, err = r.ReadExact(4)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	assert.Equal(t, 0, len(d))
}

func TestLargeShortReadExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large.gz")
	writeCompressed(t, path, Gzip, 0, []byte("abc"))
	r, err := Open(path, Gzip)
	require.NoError(t, err)
	defer r.Close()

	// a bogus huge size doesn't pre-allocate
	d, err := r.ReadExact(1 << 40)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	assert.Equal(t, "abc", string(d))
	_, err = r.ReadByte()
	assert.Equal(t, io.EOF, err)
}

func TestTruncatedStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.gz")
	content := bytes.Repeat([]byte("some content that compresses "), 1000)
	writeCompressed(t, path, Gzip, 0, content)
	d, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, d[:len(d)/2], 0644))

	r, err := Open(path, Gzip)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.ReadExact(int64(len(content)))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt) || err == io.ErrUnexpectedEOF, "err: %v", err)
}

func TestCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.gz")
	w, err := Create(path, Gzip, 0)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	_, err = w.Write([]byte("x"))
	assert.Equal(t, ErrClosed, err)

	r, err := Open(path, Gzip)
	require.NoError(t, err)
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
	_, err = r.ReadByte()
	assert.Equal(t, ErrClosed, err)
}

func TestNewWriterDoesntCloseDst(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Zstd, 3)
	require.NoError(t, err)
	_, err = w.WriteString("in memory")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewReader(bytes.NewReader(buf.Bytes()), Zstd)
	defer r.Close()
	d, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "in memory", string(d))
}
