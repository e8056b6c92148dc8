// Package atomicfile writes a file so that it either has the full new
// content or isn't touched at all.
//
// Data goes to a temporary file in the destination directory which is
// renamed over the destination in Close(). If any Write() or Close()
// fails, the temporary file is removed.
package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

var (
	// ErrCancelled is returned by calls subsequent to RemoveIfNotClosed()
	ErrCancelled = errors.New("cancelled")

	_ io.WriteCloser = &File{}
)

// File is a file being written atomically
type File struct {
	dstPath string
	dir     string
	tmpFile *os.File
	tmpPath string
	err     error
}

// New creates a temporary file next to path. Fails early if
// the directory of path doesn't exist.
func New(path string) (*File, error) {
	dir, fName := filepath.Split(path)
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if fName == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}

	// CreateTemp puts random part where the last "*" is
	tmpFile, err := os.CreateTemp(dir, "."+fName+".tmp*")
	if err != nil {
		return nil, err
	}

	return &File{
		dstPath: path,
		dir:     dir,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

func (f *File) handleError(err error) error {
	if err == nil {
		return nil
	}
	if f.err == nil {
		f.err = err
	}
	_ = f.Close()
	return err
}

// Write writes data to the temporary file
func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.Write(d)
	return n, f.handleError(err)
}

// Chmod sets permissions the destination file will have.
// Temporary files are created with 0600.
func (f *File) Chmod(mode os.FileMode) error {
	if f.err != nil {
		return f.err
	}
	return f.handleError(f.tmpFile.Chmod(mode))
}

func (f *File) alreadyClosed() bool {
	return f.tmpFile == nil
}

// RemoveIfNotClosed removes the temporary file unless Close() was
// already called. Use with defer to clean up on early returns
// and panics.
func (f *File) RemoveIfNotClosed() {
	if f == nil || f.alreadyClosed() {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// Close renames the temporary file to destination path, over-writing
// it if it exists. Can be called multiple times, returns the first error.
func (f *File) Close() error {
	if f.alreadyClosed() {
		return f.err
	}
	tmpFile := f.tmpFile
	f.tmpFile = nil

	errSync := tmpFile.Sync()
	errClose := tmpFile.Close()

	didRename := false
	defer func() {
		if !didRename {
			_ = os.Remove(f.tmpPath)
		}
	}()

	if f.err != nil {
		return f.err
	}

	err := errSync
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = os.Rename(f.tmpPath, f.dstPath)
		didRename = (err == nil)
		// errors syncing the directory are not fatal
		if fdir, _ := os.Open(f.dir); fdir != nil {
			_ = fdir.Sync()
			_ = fdir.Close()
		}
	}

	if f.err == nil {
		f.err = err
	}
	return f.err
}

// WriteFile is os.WriteFile that never leaves a partially written file
func WriteFile(path string, d []byte, perm os.FileMode) error {
	f, err := New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if err = f.Chmod(perm); err != nil {
		return err
	}
	if _, err = f.Write(d); err != nil {
		return err
	}
	return f.Close()
}
