// Package pak packs multiple files into a single compressed archive.
//
// After decompression the archive is a sequence of records:
//
//	${name}\n${size}\n${content}
//
// ${name} is a base file name, ${size} is length of ${content} as a
// decimal number and ${content} is raw file data. There's no header or
// index. Reading ends when a name would be empty.
package pak

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// longest name we accept, on both write and read
const maxNameLen = 4096

// size of a 64-bit number in decimal
const maxSizeLen = 20

var errLineTooLong = errors.New("line too long")

// ValidateName checks name can be stored in a record and later
// written as a file inside output directory
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidName, maxNameLen)
	}
	if strings.IndexByte(name, '\n') >= 0 {
		return fmt.Errorf("%w: name %q contains a newline", ErrInvalidName, name)
	}
	if name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: %q is not a file name", ErrInvalidName, name)
	}
	return nil
}

// MarshalHeader serializes "${name}\n${size}\n" using wb as a buffer
func MarshalHeader(name string, size int, wb *bytes.Buffer) []byte {
	if wb == nil {
		wb = &bytes.Buffer{}
	} else {
		wb.Reset()
	}
	wb.Grow(len(name) + maxSizeLen + 2)
	wb.WriteString(name)
	wb.WriteByte('\n')
	wb.WriteString(strconv.Itoa(size))
	wb.WriteByte('\n')
	return wb.Bytes()
}

// Writer writes records
type Writer struct {
	w        io.Writer
	writeBuf bytes.Buffer
	// NumRecords is number of records written so far
	NumRecords int
}

// NewWriter creates a record writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w: w,
	}
}

// WriteRecord writes a record. Fails with ErrInvalidName without
// writing anything if name can't be represented.
func (w *Writer) WriteRecord(name string, d []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	hdr := MarshalHeader(name, len(d), &w.writeBuf)
	if _, err := w.w.Write(hdr); err != nil {
		return err
	}
	if len(d) > 0 {
		if _, err := w.w.Write(d); err != nil {
			return err
		}
	}
	w.NumRecords++
	return nil
}

// Source is what records are read from. codec.Reader implements it.
type Source interface {
	// ReadByte returns io.EOF at the end of data
	ReadByte() (byte, error)
	// ReadExact returns io.ErrUnexpectedEOF if there are less than n bytes
	ReadExact(n int64) ([]byte, error)
}

type scanState int

const (
	stateReadName scanState = iota
	stateReadSize
	stateReadContent
	stateDone
)

func (s scanState) String() string {
	switch s {
	case stateReadName:
		return "name"
	case stateReadSize:
		return "size"
	case stateReadContent:
		return "content"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// Reader reads records one at a time
type Reader struct {
	src   Source
	state scanState

	// Name / Size / Data are available after Next() returns true.
	// They're over-written by the next call to Next()
	Name string
	Size int64
	Data []byte

	// NumRecords is number of records read so far
	NumRecords int

	lineBuf []byte
	err     error
}

// NewReader creates a record reader
func NewReader(src Source) *Reader {
	return &Reader{
		src:   src,
		state: stateReadName,
	}
}

// Done returns true if there are no more records to read
func (r *Reader) Done() bool {
	return r.err != nil || r.state == stateDone
}

// Err returns the error that stopped reading. End of archive is not an error.
func (r *Reader) Err() error {
	return r.err
}

// reads up to '\n' or end of data. Returns io.EOF if data ended before '\n'
func (r *Reader) readLine(maxLen int) ([]byte, error) {
	line := r.lineBuf[:0]
	for {
		b, err := r.src.ReadByte()
		if err != nil {
			r.lineBuf = line
			return line, err
		}
		if b == '\n' {
			r.lineBuf = line
			return line, nil
		}
		if len(line) >= maxLen {
			return line, errLineTooLong
		}
		line = append(line, b)
	}
}

func (r *Reader) fail(err error) bool {
	r.err = fmt.Errorf("record %d (%s): %w", r.NumRecords+1, r.state, err)
	return false
}

// Next reads the next record. Returns false at the end of archive or
// on error, check Err() to tell them apart.
func (r *Reader) Next() bool {
	if r.Done() {
		return false
	}
	r.Name = ""
	r.Size = 0
	r.Data = nil
	for {
		switch r.state {
		case stateReadName:
			name, err := r.readLine(maxNameLen)
			if len(name) == 0 && (err == nil || err == io.EOF) {
				r.state = stateDone
				return false
			}
			if err == io.EOF {
				return r.fail(fmt.Errorf("%w: name %q not terminated", ErrTruncated, name))
			}
			if err == errLineTooLong {
				return r.fail(fmt.Errorf("%w: name longer than %d bytes", ErrInvalidName, maxNameLen))
			}
			if err != nil {
				return r.fail(err)
			}
			if err = ValidateName(string(name)); err != nil {
				return r.fail(err)
			}
			r.Name = string(name)
			r.state = stateReadSize

		case stateReadSize:
			line, err := r.readLine(maxSizeLen)
			if err == io.EOF {
				return r.fail(fmt.Errorf("%w: size of '%s' missing", ErrTruncated, r.Name))
			}
			if err == errLineTooLong {
				return r.fail(fmt.Errorf("%w: size of '%s' is too long", ErrInvalidSize, r.Name))
			}
			if err != nil {
				return r.fail(err)
			}
			size, err := strconv.ParseUint(string(line), 10, 63)
			if err != nil {
				return r.fail(fmt.Errorf("%w: '%s' for '%s'", ErrInvalidSize, line, r.Name))
			}
			r.Size = int64(size)
			r.state = stateReadContent

		case stateReadContent:
			d, err := r.src.ReadExact(r.Size)
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return r.fail(fmt.Errorf("%w: '%s' has %d of %d bytes", ErrTruncated, r.Name, len(d), r.Size))
			}
			if err != nil {
				return r.fail(err)
			}
			r.Data = d
			r.NumRecords++
			r.state = stateReadName
			return true

		default:
			return false
		}
	}
}
