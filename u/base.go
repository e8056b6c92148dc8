// Package u has small file system and clock helpers used by the cli
package u

import (
	"runtime"
	"strings"
)

func IsWindows() bool {
	return strings.Contains(runtime.GOOS, "windows")
}
