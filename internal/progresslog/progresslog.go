// Package progresslog is the orchestrator's process-wide progress sink
// (spec §6.5, §9 "Global progress log"). It is a dual-sink logger in the
// teacher's gravwell_log.go shape: every call writes the exact plain-line
// format §6.5 requires to last_progress_log.txt, and — if a secondary writer
// was supplied at Open — also emits an RFC5424-encoded record to it, mirroring
// how the teacher's IngestMuxer both feeds a human-readable file and relays a
// structured record (ingest/log.Logger.outputStructured) for the same event.
//
// The handle is created once at orchestrator startup; each harvester gets a
// callback bound to it through Component (parsers get no logger; their
// harvester logs their errors). CopyTo
// implements the "run.copy(progress_log) -> result_dir runs last" teardown
// step.
package progresslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
	"github.com/dchest/safefile"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/host"

	"github.com/gravwell/cift/internal/version"
)

// Level is one of the five trace levels the plain-line format carries.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	case CRITICAL:
		return rfc5424.User | rfc5424.Crit
	}
	return rfc5424.User | rfc5424.Debug
}

func levelFromString(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "CRITICAL":
		return CRITICAL, true
	}
	return INFO, false
}

const appname = "cift"

// Logger is the opened progress-log handle. Safe for concurrent use.
type Logger struct {
	mtx      sync.Mutex
	file     *os.File
	path     string
	extra    io.Writer // optional RFC5424 relay, e.g. os.Stderr
	hostname string
	runID    uuid.UUID
	closed   bool
}

// Open creates (overwriting) the plain-line sink at path and writes the
// one-time header block (tool version, OS, run id, start time — §9's
// "Progress-log host header" supplement). extra may be nil; when set, it
// receives an RFC5424-encoded copy of every line, e.g. for live operator
// visibility on stderr while the file accumulates the full run.
func Open(path string, runID uuid.UUID, extra io.Writer) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("progresslog: open %s: %w", path, err)
	}
	hostname, _ := os.Hostname()
	l := &Logger{file: f, path: path, extra: extra, hostname: hostname, runID: runID}
	l.writeHeader()
	return l, nil
}

func (l *Logger) writeHeader() {
	fmt.Fprintf(l.file, "run:\t\t%s\n", l.runID)
	fmt.Fprintf(l.file, "started:\t%s\n", time.Now().UTC().Format(time.RFC3339))
	version.Print(l.file)
	printOSInfo(l.file)
	fmt.Fprintln(l.file, strings.Repeat("-", 72))
}

func printOSInfo(wtr io.Writer) {
	if platform, _, ver, err := host.PlatformInformation(); err == nil {
		fmt.Fprintf(wtr, "OS:\t\t%s/%s (%s %s)\n", runtime.GOOS, runtime.GOARCH, platform, ver)
	} else {
		fmt.Fprintf(wtr, "OS:\t\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	}
}

// Debugf, Infof, Warnf, Errorf, Criticalf write one §6.5-formatted line
// tagged with component.
func (l *Logger) Debugf(component, format string, args ...interface{}) {
	l.logf(DEBUG, component, format, args...)
}

func (l *Logger) Infof(component, format string, args ...interface{}) {
	l.logf(INFO, component, format, args...)
}

func (l *Logger) Warnf(component, format string, args ...interface{}) {
	l.logf(WARN, component, format, args...)
}

func (l *Logger) Errorf(component, format string, args ...interface{}) {
	l.logf(ERROR, component, format, args...)
}

func (l *Logger) Criticalf(component, format string, args ...interface{}) {
	l.logf(CRITICAL, component, format, args...)
}

func (l *Logger) logf(lvl Level, component, format string, args ...interface{}) {
	ts := time.Now()
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s  %s  %s  %s", ts.Format("2006-01-02 15:04:05.000"), component, lvl, msg)

	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.closed {
		return
	}
	io.WriteString(l.file, line+"\n")
	if l.extra != nil {
		rec := rfc5424.Message{
			Priority:  lvl.priority(),
			Timestamp: ts,
			Hostname:  l.hostname,
			AppName:   appname,
			MessageID: trimMsgID(component),
			Message:   []byte(msg),
		}
		if b, err := rec.MarshalBinary(); err == nil {
			l.extra.Write(b)
			l.extra.Write([]byte("\n"))
		}
	}
}

func trimMsgID(s string) string {
	const max = 32
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Component returns a level-tagged callback bound to one component name, in
// the shape every harvester/parser's SetLogger hook expects
// (func(format string, args ...interface{})). The callback recognizes the
// "<LEVEL>  <message>" convention already used at every call site in this
// repo (e.g. h.logf("WARN  verify %s: %v", ...)); an unrecognized or absent
// level prefix logs at INFO.
func (l *Logger) Component(component string) func(format string, args ...interface{}) {
	return func(format string, args ...interface{}) {
		lvl, rest := splitLevelPrefix(format)
		l.logf(lvl, component, rest, args...)
	}
}

func splitLevelPrefix(format string) (Level, string) {
	i := strings.Index(format, "  ")
	if i < 0 {
		return INFO, format
	}
	if lvl, ok := levelFromString(format[:i]); ok {
		return lvl, format[i+2:]
	}
	return INFO, format
}

// Close flushes and closes the plain-line sink. Further calls are no-ops.
func (l *Logger) Close() error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

// CopyTo atomically copies the progress log into resultDir under its own
// basename, the run's final teardown step (§6.5, §9).
func (l *Logger) CopyTo(resultDir string) error {
	l.mtx.Lock()
	data, err := os.ReadFile(l.path)
	l.mtx.Unlock()
	if err != nil {
		return fmt.Errorf("progresslog: read %s: %w", l.path, err)
	}
	dst := filepath.Join(resultDir, filepath.Base(l.path))
	f, err := safefile.Create(dst, 0644)
	if err != nil {
		return fmt.Errorf("progresslog: create %s: %w", dst, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("progresslog: write %s: %w", dst, err)
	}
	return f.Commit()
}
