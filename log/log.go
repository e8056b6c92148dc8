// Package log prints progress to Out and, when configured with a
// directory, appends messages, errors and events to per-day files.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/toon-format/toon-go"
)

var (
	logFile    *file
	errorsFile *file
	eventsFile *file

	// Out is where Logf() prints
	Out io.Writer = os.Stdout

	// if true, Verbosef() will log messages
	Verbose bool
)

// file appends to ${dir}/${kind}-${YYYY-MM-DD}.txt. It's opened on
// first write so if nothing is logged, there's no file.
// nil *file ignores writes.
type file struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

func newFile(dir, kind string, day time.Time) *file {
	name := kind + "-" + day.Format("2006-01-02") + ".txt"
	return &file{path: filepath.Join(dir, name)}
}

func (l *file) write(d []byte) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		l.f = f
	}
	_, err := l.f.Write(d)
	return err
}

func (l *file) close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

type Config struct {
	// directory for "log-", "errors-" and "events-" files.
	// If empty, we only log to Out
	Dir     string
	Verbose bool
}

// Init initializes the logging system
func Init(config *Config) {
	Close()
	Verbose = config.Verbose
	if config.Dir == "" {
		return
	}
	now := time.Now().UTC()
	logFile = newFile(config.Dir, "log", now)
	errorsFile = newFile(config.Dir, "errors", now)
	eventsFile = newFile(config.Dir, "events", now)
}

// Close closes log files. Logging afterwards only goes to Out.
func Close() {
	for _, l := range []**file{&logFile, &errorsFile, &eventsFile} {
		(*l).close()
		*l = nil
	}
}

func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	fmt.Fprint(Out, s)
	logFile.write([]byte(s))
}

func Verbosef(format string, args ...any) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

// callstack returns "file:line" of callers, one per line, skipping
// skip frames above the caller
func callstack(skip int) string {
	var sb strings.Builder
	for i := skip + 1; ; i++ {
		_, path, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fmt.Fprintf(&sb, "%s:%d\n", path, line)
	}
	return sb.String()
}

// Errorf records an error message along with the callstack in
// errors log. Only printed to Out in verbose mode.
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	errorsFile.write([]byte(s + callstack(1)))
	if Verbose {
		fmt.Fprint(Out, s)
	}
}

// WriteErrorLog writes err to a file at path, replacing its content.
// This is how the cli reports failures.
func WriteErrorLog(path string, err error) error {
	return os.WriteFile(path, []byte(err.Error()), 0644)
}

// MarshalEvent formats an event as "--- ${time} ${name}\n" header
// followed by key / value pairs in toon format.
// Keys must be strings or numbers.
func MarshalEvent(name string, t time.Time, vals ...any) []byte {
	n := len(vals)
	if n%2 != 0 {
		panic(fmt.Sprintf("MarshalEvent: odd number of values (%d)", n))
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "--- %s %s\n", t.UTC().Format(time.RFC3339), name)
	if n == 0 {
		return b.Bytes()
	}
	m := map[string]any{}
	for i := 0; i < n; i += 2 {
		switch reflect.TypeOf(vals[i]).Kind() {
		case reflect.String, reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
			m[fmt.Sprintf("%v", vals[i])] = vals[i+1]
		default:
			panic(fmt.Sprintf("MarshalEvent: key %v is %T", vals[i], vals[i]))
		}
	}
	d, err := toon.Marshal(m)
	if err != nil {
		// still record the event, values are just missing
		fmt.Fprintf(&b, "error: %s\n", err)
		return b.Bytes()
	}
	b.Write(d)
	if len(d) > 0 && d[len(d)-1] != '\n' {
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Event records an event with key / value pairs in events log
func Event(name string, vals ...any) {
	eventsFile.write(MarshalEvent(name, time.Now(), vals...))
}

// EventWithDuration is Event with "durms" value added
func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durms", dur.Milliseconds())
	Event(name, vals...)
}
