// Package codec wraps a compression format as a sequential compressed file.
// Archives are written and read through Writer and Reader, the codec itself
// is an opaque transform.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec creates compressing writers and decompressing readers.
// Level 0 means codec's default level.
type Codec interface {
	Name() string
	// Ext is the file extension, with the dot e.g. ".gz"
	Ext() string
	// Magic are the fixed first bytes of a compressed stream. nil if
	// format doesn't have them (brotli)
	Magic() []byte
	NewWriter(w io.Writer, level int) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

var (
	Gzip   Codec = gzipCodec{}
	Zstd   Codec = zstdCodec{}
	Brotli Codec = brotliCodec{}
	Lz4    Codec = lz4Codec{}

	// All lists supported codecs, in sniffing order
	All = []Codec{Gzip, Zstd, Lz4, Brotli}
)

func checkLevel(c Codec, level, min, max int) error {
	if level != 0 && (level < min || level > max) {
		return fmt.Errorf("%s: invalid compression level %d, must be %d..%d", c.Name(), level, min, max)
	}
	return nil
}

type gzipCodec struct{}

func (gzipCodec) Name() string  { return "gzip" }
func (gzipCodec) Ext() string   { return ".gz" }
func (gzipCodec) Magic() []byte { return []byte{0x1f, 0x8b} }

func (c gzipCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	if err := checkLevel(c, level, gzip.BestSpeed, gzip.BestCompression); err != nil {
		return nil, err
	}
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return gzip.NewWriterLevel(w, level)
}

func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

type zstdCodec struct{}

func (zstdCodec) Name() string  { return "zstd" }
func (zstdCodec) Ext() string   { return ".zst" }
func (zstdCodec) Magic() []byte { return []byte{0x28, 0xb5, 0x2f, 0xfd} }

func (c zstdCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	if err := checkLevel(c, level, 1, 22); err != nil {
		return nil, err
	}
	opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
	if level != 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	return zstd.NewWriter(w, opts...)
}

// zstd.Decoder.Close() doesn't return an error so it's not an io.Closer
type zstdReadCloser struct {
	d *zstd.Decoder
}

func (rc *zstdReadCloser) Read(p []byte) (int, error) {
	return rc.d.Read(p)
}

func (rc *zstdReadCloser) Close() error {
	rc.d.Close()
	return nil
}

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &zstdReadCloser{d: d}, nil
}

type brotliCodec struct{}

func (brotliCodec) Name() string  { return "brotli" }
func (brotliCodec) Ext() string   { return ".br" }
func (brotliCodec) Magic() []byte { return nil }

func (c brotliCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	if err := checkLevel(c, level, brotli.BestSpeed, brotli.BestCompression); err != nil {
		return nil, err
	}
	if level == 0 {
		level = brotli.DefaultCompression
	}
	return brotli.NewWriterLevel(w, level), nil
}

func (brotliCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}

type lz4Codec struct{}

func (lz4Codec) Name() string  { return "lz4" }
func (lz4Codec) Ext() string   { return ".lz4" }
func (lz4Codec) Magic() []byte { return []byte{0x04, 0x22, 0x4d, 0x18} }

var lz4Levels = []lz4.CompressionLevel{
	lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
	lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

func (c lz4Codec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	if err := checkLevel(c, level, 1, len(lz4Levels)); err != nil {
		return nil, err
	}
	zw := lz4.NewWriter(w)
	opts := []lz4.Option{lz4.ConcurrencyOption(1)}
	if level != 0 {
		opts = append(opts, lz4.CompressionLevelOption(lz4Levels[level-1]))
	}
	if err := zw.Apply(opts...); err != nil {
		return nil, err
	}
	return zw, nil
}

func (lz4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

// ByName returns a codec by its name ("gzip", "zstd", "brotli", "lz4").
// Also accepts file extension without a dot e.g. "gz"
func ByName(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range All {
		if name == c.Name() || "."+name == c.Ext() {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown codec '%s'", name)
}

// ForExt returns a codec based on file extension of path, nil if not known
func ForExt(path string) Codec {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range All {
		if ext == c.Ext() {
			return c
		}
	}
	return nil
}

// maxMagicLen is the length of longest magic of all codecs
const maxMagicLen = 4

// Sniff returns codec whose magic bytes d starts with, nil if none match
func Sniff(d []byte) Codec {
	for _, c := range All {
		magic := c.Magic()
		if len(magic) > 0 && bytes.HasPrefix(d, magic) {
			return c
		}
	}
	return nil
}

// SniffFile reads the first few bytes of a file and identifies the codec
// based on magic bytes. Returns nil, nil if the file isn't recognized.
func SniffFile(path string) (Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var hdr [maxMagicLen]byte
	n, err := io.ReadFull(f, hdr[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return Sniff(hdr[:n]), nil
}

// Detect picks the codec for reading path: magic bytes first, then file
// extension and gzip if nothing matches
func Detect(path string) (Codec, error) {
	c, err := SniffFile(path)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	if c = ForExt(path); c != nil {
		return c, nil
	}
	return Gzip, nil
}
