package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kjk/gziptool/codec"
	"github.com/kjk/gziptool/log"
	"github.com/kjk/gziptool/pak"
	"github.com/kjk/gziptool/u"
	"github.com/tidwall/pretty"
)

const usage = `Invalid arguments
Archive: gziptool archive <output.gz> <input files...>
Unarchive: gziptool unarchive <input.gz> <output dir>
List: gziptool list <input.gz>
Info: gziptool info
`

type app struct {
	cfg    *Config
	stdout io.Writer
	stderr io.Writer
}

// run dispatches command line arguments (without program name).
// Invalid arguments are not an error, we print usage and return nil.
func run(cfg *Config, args []string, stdout, stderr io.Writer) error {
	a := &app{
		cfg:    cfg,
		stdout: stdout,
		stderr: stderr,
	}
	n := len(args)
	switch {
	case n >= 3 && args[0] == "archive":
		return a.archive(args[1], args[2:])
	case n >= 3 && args[0] == "unarchive":
		// extra arguments are ignored
		return a.unarchive(args[1], args[2])
	case n == 2 && args[0] == "list":
		return a.list(args[1])
	case n >= 2 && u.AllFilesExist(args):
		name := u.TimestampName("archive", cfg.Now(), cfg.Codec.Ext())
		return a.archive(filepath.Join(cfg.OutDir, name), args)
	case n == 1 && isArchive(args[0]):
		dir := "unarchive_" + u.Stem(args[0])
		return a.unarchive(args[0], filepath.Join(cfg.OutDir, dir))
	case n == 1 && args[0] == "info":
		fmt.Fprintln(stdout, cfg.Version)
		fmt.Fprintln(stdout, cfg.URL)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return nil
}

// isArchive returns true if path is a file starting with magic bytes
// of one of the codecs
func isArchive(path string) bool {
	if !u.FileExists(path) {
		return false
	}
	c, err := codec.SniffFile(path)
	return err == nil && c != nil
}

func (a *app) archive(output string, inputs []string) error {
	timeStart := time.Now()
	var total int64
	opts := &pak.Options{
		Codec:  a.cfg.Codec,
		Level:  a.cfg.Level,
		Atomic: a.cfg.Atomic,
		OnRecord: func(name string, size int64) {
			total += size
			log.Verbosef("  added %s (%s)\n", name, humanize.Bytes(uint64(size)))
		},
	}
	if err := pak.Pack(output, inputs, opts); err != nil {
		return err
	}
	dur := time.Since(timeStart)
	log.Verbosef("packed %d files (%s) into %s in %s\n", len(inputs), humanize.Bytes(uint64(total)), output, dur)
	log.EventWithDuration("archive", dur, "output", output, "files", len(inputs), "bytes", total, "codec", a.cfg.Codec.Name())
	return nil
}

func (a *app) unarchive(input string, outDir string) error {
	timeStart := time.Now()
	var nFiles int
	var total int64
	opts := &pak.Options{
		OnRecord: func(name string, size int64) {
			nFiles++
			total += size
			log.Verbosef("  extracted %s (%s)\n", name, humanize.Bytes(uint64(size)))
		},
	}
	if err := pak.Unpack(input, outDir, opts); err != nil {
		return err
	}
	dur := time.Since(timeStart)
	log.Verbosef("extracted %d files (%s) into %s in %s\n", nFiles, humanize.Bytes(uint64(total)), outDir, dur)
	log.EventWithDuration("unarchive", dur, "input", input, "files", nFiles, "bytes", total)
	return nil
}

type listEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type listing struct {
	Archive string      `json:"archive"`
	Codec   string      `json:"codec"`
	Files   []listEntry `json:"files"`
}

func (a *app) list(input string) error {
	arch, err := pak.ReadArchive(input, nil)
	if err != nil {
		return err
	}
	l := listing{
		Archive: input,
		Codec:   arch.Codec.Name(),
		Files:   []listEntry{},
	}
	for _, e := range arch.Entries {
		l.Files = append(l.Files, listEntry{Name: e.Name, Size: e.Size})
	}
	d, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(pretty.Pretty(d))
	return err
}

// reportError saves err in error log file and tells the user where to
// find it. On Windows the log is opened in notepad.
func reportError(cfg *Config, stderr io.Writer, err error) {
	log.Errorf("%s", err)
	path := cfg.ErrorLogPath
	if errLog := log.WriteErrorLog(path, err); errLog != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return
	}
	if u.IsWindows() {
		if exec.Command("notepad.exe", path).Start() == nil {
			return
		}
	}
	fmt.Fprintf(stderr, "An error occurred. Check %s for details.\n", path)
}
