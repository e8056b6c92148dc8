package u

import (
	"os"
	"path/filepath"
	"strings"
)

// PathExists returns true if path exists
func PathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// FileExists returns true if path exists and is a regular file.
// Symlinks are followed.
func FileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// DirExists returns true if path exists and is a directory
func DirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// AllFilesExist returns true if paths is not empty and every path
// is a regular file
func AllFilesExist(paths []string) bool {
	if len(paths) == 0 {
		return false
	}
	for _, path := range paths {
		if !FileExists(path) {
			return false
		}
	}
	return true
}

// Stem returns file name without directory and the last extension
// e.g. "dir/foo.tar.gz" => "foo.tar"
func Stem(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
