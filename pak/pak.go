package pak

import (
	"io"
	"os"
	"path/filepath"

	"github.com/kjk/gziptool/atomicfile"
	"github.com/kjk/gziptool/codec"
)

// Options configures Pack, Unpack and ReadArchive. nil means defaults.
type Options struct {
	// Codec compresses the archive. When packing, gzip is used if nil.
	// When reading, nil means detecting it from magic bytes / extension.
	Codec codec.Codec
	// Level is compression level, 0 for codec's default
	Level int
	// Atomic makes Pack write to a temporary file and rename it to
	// output path only if everything succeeded. By default a failed
	// Pack leaves partially written archive behind.
	Atomic bool
	// FilePerm is permissions of extracted files, 0644 if 0
	FilePerm os.FileMode
	// OnRecord, if set, is called after each record is packed or unpacked
	OnRecord func(name string, size int64)
}

func (o *Options) onRecord(name string, size int64) {
	if o != nil && o.OnRecord != nil {
		o.OnRecord(name, size)
	}
}

func (o *Options) filePerm() os.FileMode {
	if o == nil || o.FilePerm == 0 {
		return 0644
	}
	return o.FilePerm
}

func (o *Options) writeCodec() codec.Codec {
	if o == nil || o.Codec == nil {
		return codec.Gzip
	}
	return o.Codec
}

func (o *Options) readCodec(path string) (codec.Codec, error) {
	if o != nil && o.Codec != nil {
		return o.Codec, nil
	}
	return codec.Detect(path)
}

// Pack creates an archive at outputPath with files in inputPaths, in
// that order. Records are named after base name of the files. If two
// inputs have the same base name, the later wins on Unpack.
func Pack(outputPath string, inputPaths []string, opts *Options) error {
	if len(inputPaths) == 0 {
		return wrapErr("pack", outputPath, ErrNoInputs)
	}
	c := opts.writeCodec()
	level := 0
	if opts != nil {
		level = opts.Level
	}

	var zw *codec.Writer
	var af *atomicfile.File
	var err error
	if opts != nil && opts.Atomic {
		af, err = atomicfile.New(outputPath)
		if err != nil {
			return wrapErr("pack", outputPath, err)
		}
		defer af.RemoveIfNotClosed()
		if err = af.Chmod(0644); err != nil {
			return wrapErr("pack", outputPath, err)
		}
		zw, err = codec.NewWriter(af, c, level)
	} else {
		zw, err = codec.Create(outputPath, c, level)
	}
	if err != nil {
		return wrapErr("pack", outputPath, err)
	}
	defer zw.Close()

	w := NewWriter(zw)
	for _, path := range inputPaths {
		name := filepath.Base(path)
		if err = ValidateName(name); err != nil {
			return wrapErr("pack", path, err)
		}
		d, err := os.ReadFile(path)
		if err != nil {
			return wrapErr("pack", path, err)
		}
		if err = w.WriteRecord(name, d); err != nil {
			return wrapErr("pack", outputPath, err)
		}
		opts.onRecord(name, int64(len(d)))
	}

	if err = zw.Close(); err != nil {
		return wrapErr("pack", outputPath, err)
	}
	if af != nil {
		if err = af.Close(); err != nil {
			return wrapErr("pack", outputPath, err)
		}
	}
	return nil
}

// ForEachRecord calls fn for every record in the archive, in order.
// Stops at the first error returned by fn.
func ForEachRecord(archivePath string, opts *Options, fn func(name string, data []byte) error) error {
	c, err := opts.readCodec(archivePath)
	if err != nil {
		return wrapErr("unpack", archivePath, err)
	}
	zr, err := codec.Open(archivePath, c)
	if err != nil {
		return wrapErr("unpack", archivePath, err)
	}
	defer zr.Close()

	r := NewReader(zr)
	for r.Next() {
		if err = fn(r.Name, r.Data); err != nil {
			return err
		}
	}
	return wrapErr("unpack", archivePath, r.Err())
}

// Unpack extracts all files from the archive into outputDir, which is
// created if needed. Existing files are over-written. A file is only
// written after its whole content was read so a damaged archive
// doesn't leave partially written files.
func Unpack(archivePath string, outputDir string, opts *Options) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return wrapErr("unpack", outputDir, err)
	}
	perm := opts.filePerm()
	return ForEachRecord(archivePath, opts, func(name string, data []byte) error {
		path := filepath.Join(outputDir, name)
		if err := atomicfile.WriteFile(path, data, perm); err != nil {
			return wrapErr("unpack", path, err)
		}
		opts.onRecord(name, int64(len(data)))
		return nil
	})
}

// Entry is a file read into memory from an archive
type Entry struct {
	Name string
	Size int64
	Data []byte
}

// Archive is the content of an archive, read into memory
type Archive struct {
	Path    string
	Codec   codec.Codec
	Entries []*Entry
}

// ReadArchive reads all records of the archive into memory
func ReadArchive(archivePath string, opts *Options) (*Archive, error) {
	c, err := opts.readCodec(archivePath)
	if err != nil {
		return nil, wrapErr("unpack", archivePath, err)
	}
	opts2 := Options{Codec: c}
	a := &Archive{
		Path:  archivePath,
		Codec: c,
	}
	err = ForEachRecord(archivePath, &opts2, func(name string, data []byte) error {
		e := &Entry{
			Name: name,
			Size: int64(len(data)),
			Data: data,
		}
		a.Entries = append(a.Entries, e)
		opts.onRecord(name, e.Size)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns the entry with a given name. Like Unpack, if there are
// multiple entries with the same name, the last one wins.
func (a *Archive) Get(name string) *Entry {
	for i := len(a.Entries) - 1; i >= 0; i-- {
		if a.Entries[i].Name == name {
			return a.Entries[i]
		}
	}
	return nil
}

// Write writes the archive to w, compressed with a.Codec (gzip if not set)
func (a *Archive) Write(w io.Writer) error {
	zw, err := codec.NewWriter(w, a.Codec, 0)
	if err != nil {
		return err
	}
	defer zw.Close()
	rw := NewWriter(zw)
	for _, e := range a.Entries {
		if err = rw.WriteRecord(e.Name, e.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}
