package pak

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/gziptool/require"
)

// uncompressed Source
type memSource struct {
	r *bytes.Reader
}

func (s *memSource) ReadByte() (byte, error) {
	return s.r.ReadByte()
}

func (s *memSource) ReadExact(n int64) ([]byte, error) {
	d := make([]byte, n)
	nRead, err := io.ReadFull(s.r, d)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return d[:nRead], err
}

func newMemReader(s string) *Reader {
	return NewReader(&memSource{r: bytes.NewReader([]byte(s))})
}

func TestMarshalHeader(t *testing.T) {
	assert.Equal(t, "a.txt\n5\n", string(MarshalHeader("a.txt", 5, nil)))
	var buf bytes.Buffer
	buf.WriteString("left over")
	assert.Equal(t, "b\n0\n", string(MarshalHeader("b", 0, &buf)))
}

func TestWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecord("a.txt", []byte("hello")))
	require.NoError(t, w.WriteRecord("b.txt", []byte("world!")))
	require.NoError(t, w.WriteRecord("empty", nil))
	assert.Equal(t, "a.txt\n5\nhellob.txt\n6\nworld!empty\n0\n", buf.String())
	assert.Equal(t, 3, w.NumRecords)

	err := w.WriteRecord("x\ny", []byte("z"))
	assert.True(t, errors.Is(err, ErrInvalidName))
	// nothing was written for rejected record
	assert.Equal(t, 3, w.NumRecords)
	assert.True(t, strings.HasSuffix(buf.String(), "empty\n0\n"))
}

func TestReaderStates(t *testing.T) {
	r := newMemReader("a.txt\n5\nhellob.txt\n6\nworld!")
	assert.Equal(t, stateReadName, r.state)

	require.True(t, r.Next())
	assert.Equal(t, "a.txt", r.Name)
	assert.Equal(t, int64(5), r.Size)
	assert.Equal(t, "hello", string(r.Data))
	assert.Equal(t, stateReadName, r.state)

	require.True(t, r.Next())
	assert.Equal(t, "b.txt", r.Name)
	assert.Equal(t, "world!", string(r.Data))

	assert.False(t, r.Next())
	assert.Equal(t, stateDone, r.state)
	assert.NoError(t, r.Err())
	assert.True(t, r.Done())
	assert.Equal(t, 2, r.NumRecords)
	// stays done
	assert.False(t, r.Next())
}

func TestReaderEmpty(t *testing.T) {
	r := newMemReader("")
	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
	assert.Equal(t, 0, r.NumRecords)
}

func TestReaderEmptyNameEnds(t *testing.T) {
	// an empty name line is the end of archive
	r := newMemReader("a\n1\nx\nrest is ignored")
	require.True(t, r.Next())
	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		data  string
		kind  error
		state scanState
	}{
		{"a.txt", ErrTruncated, stateReadName},
		{"a.txt\n", ErrTruncated, stateReadSize},
		{"a.txt\n12", ErrTruncated, stateReadSize},
		{"a.txt\n12\nshort", ErrTruncated, stateReadContent},
		{"a.txt\nxx\n", ErrInvalidSize, stateReadSize},
		{"a.txt\n" + strings.Repeat("1", 30) + "\n", ErrInvalidSize, stateReadSize},
		{strings.Repeat("n", maxNameLen+1) + "\n1\nx", ErrInvalidName, stateReadName},
		{"a/b\n1\nx", ErrInvalidName, stateReadName},
		{".\n1\nx", ErrInvalidName, stateReadName},
		{"nul\x00\n1\nx", ErrInvalidName, stateReadName},
	}
	for _, test := range tests {
		r := newMemReader(test.data)
		assert.False(t, r.Next())
		err := r.Err()
		assert.True(t, errors.Is(err, test.kind), "data: %q, err: %v", test.data, err)
		assert.True(t, isFormatErr(err))
		assert.Equal(t, test.state, r.state, "data: %q", test.data)
		assert.True(t, r.Done())
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"a", "a.txt", "with space", ".hidden", "..x", "ünï"} {
		assert.NoError(t, ValidateName(name), "name: %q", name)
	}
	for _, name := range []string{"", ".", "..", "a\nb", "a/b", "a/", "a\x00", strings.Repeat("x", maxNameLen+1)} {
		assert.True(t, errors.Is(ValidateName(name), ErrInvalidName), "name: %q", name)
	}
	// backslash is only a separator on Windows
	err := ValidateName(`a\b.txt`)
	if runtime.GOOS == "windows" {
		assert.True(t, errors.Is(err, ErrInvalidName), "err: %v", err)
	} else {
		assert.NoError(t, err)
	}
}

func TestReaderBackslashName(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("backslash is a path separator on windows")
	}
	r := newMemReader("a\\b.txt\n1\nx")
	require.True(t, r.Next(), "err: %v", r.Err())
	assert.Equal(t, `a\b.txt`, r.Name)
	assert.Equal(t, "x", string(r.Data))
}

func TestErrorKinds(t *testing.T) {
	err := wrapErr("unpack", "a.gz", ErrTruncated)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.False(t, errors.Is(err, ErrIO))
	assert.Equal(t, "unpack a.gz: truncated archive", err.Error())

	err2 := wrapErr("unpack", "b.gz", err)
	assert.Equal(t, err, err2)

	err = wrapErr("pack", "x", io.ErrShortWrite)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, io.ErrShortWrite))
	assert.Nil(t, wrapErr("pack", "x", nil))
}
