package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kjk/gziptool/codec"
)

// over-written at build time with:
// -ldflags "-X main.version=1.2.0 -X main.url=..."
var (
	version = "1.0.0"
	url     = "https://github.com/kjk/gziptool"
)

// Config is set up once at startup and passed down
type Config struct {
	Version string
	URL     string

	// Codec used when creating archives
	Codec codec.Codec
	Level int
	// Atomic makes archive creation all-or-nothing
	Atomic bool

	// ErrorLogPath is where failures are written
	ErrorLogPath string
	// OutDir is where archives / directories with generated names go
	OutDir string
	// LogDir enables daily log files, empty means no log files
	LogDir  string
	Verbose bool

	Now func() time.Time
}

func DefaultConfig() *Config {
	return &Config{
		Version:      version,
		URL:          url,
		Codec:        codec.Gzip,
		ErrorLogPath: "error.log",
		Now:          time.Now,
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("'%s' is not a valid boolean", s)
}

// LoadEnv over-writes defaults with GZIPTOOL_* environment variables
func (c *Config) LoadEnv(getenv func(string) string) error {
	var err error
	if v := getenv("GZIPTOOL_CODEC"); v != "" {
		if c.Codec, err = codec.ByName(v); err != nil {
			return fmt.Errorf("GZIPTOOL_CODEC: %w", err)
		}
	}
	if v := getenv("GZIPTOOL_LEVEL"); v != "" {
		if c.Level, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("GZIPTOOL_LEVEL: '%s' is not a number", v)
		}
	}
	if v := getenv("GZIPTOOL_ATOMIC"); v != "" {
		if c.Atomic, err = parseBool(v); err != nil {
			return fmt.Errorf("GZIPTOOL_ATOMIC: %w", err)
		}
	}
	if v := getenv("GZIPTOOL_VERBOSE"); v != "" {
		if c.Verbose, err = parseBool(v); err != nil {
			return fmt.Errorf("GZIPTOOL_VERBOSE: %w", err)
		}
	}
	if v := getenv("GZIPTOOL_ERROR_LOG"); v != "" {
		c.ErrorLogPath = v
	}
	if v := getenv("GZIPTOOL_OUT_DIR"); v != "" {
		c.OutDir = v
	}
	if v := getenv("GZIPTOOL_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	return nil
}
