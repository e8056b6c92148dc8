package pak

import (
	"errors"

	"github.com/kjk/gziptool/codec"
)

// Error kinds. Every error returned by Pack, Unpack and ReadArchive
// that comes from the file system or the archive data is an *Error
// matching one of them with errors.Is.
var (
	// ErrIO means opening, reading or writing a file failed
	ErrIO = errors.New("i/o error")
	// ErrFormat means the archive data is malformed or the input
	// can't be represented in the archive
	ErrFormat = errors.New("invalid archive")
)

// Format problems. They're reported with ErrFormat kind.
var (
	// ErrInvalidName means a record name is empty, has a newline or
	// is not a plain file name
	ErrInvalidName = errors.New("invalid record name")
	// ErrInvalidSize means size line of a record is not a non-negative decimal number
	ErrInvalidSize = errors.New("invalid record size")
	// ErrTruncated means the archive ends in the middle of a record
	ErrTruncated = errors.New("truncated archive")
)

// ErrNoInputs is returned by Pack, with ErrFormat kind, when there are
// no files to pack
var ErrNoInputs = errors.New("no input files to pack")

// Error describes a failed archive operation
type Error struct {
	// Op is "pack" or "unpack"
	Op string
	// Path is the file that was being processed
	Path string
	// Kind is ErrIO or ErrFormat
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func isFormatErr(err error) bool {
	for _, fe := range []error{ErrFormat, ErrInvalidName, ErrInvalidSize, ErrTruncated, ErrNoInputs, codec.ErrCorrupt} {
		if errors.Is(err, fe) {
			return true
		}
	}
	return false
}

// wrapErr picks the kind based on err. Already wrapped errors are
// returned as is.
func wrapErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := ErrIO
	if isFormatErr(err) {
		kind = ErrFormat
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}
