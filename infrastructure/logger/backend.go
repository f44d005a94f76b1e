package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// defaultFlags is read from the LOGFLAGS environment variable. It is a
// variable rather than an init() assignment because other package-level
// variables (BackendLog) depend on it.
var defaultFlags = flagsFromEnvironment()

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile adds the full path and line number of the logging
	// callsite, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile adds the file name and line number of the logging
	// callsite, e.g. main.go:123. Takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

func flagsFromEnvironment() (flags uint32) {
	for _, f := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch strings.TrimSpace(f) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

// entryBufferSize is the number of formatted entries that may be queued
// before a logging call blocks on the writer goroutine.
const entryBufferSize = 64

const (
	defaultThresholdKB = 100 * 1000 // 100 MB per file before rolling
	defaultMaxRolls    = 8
)

// Backend is a logging backend. Subsystem loggers created from the backend
// queue their formatted entries to a single goroutine which fans them out to
// every registered writer whose level admits the entry.
type Backend struct {
	flag      uint32
	isRunning uint32
	writers   []leveledWriter
	entries   chan logEntry
	done      sync.Mutex
}

type leveledWriter struct {
	io.WriteCloser
	level Level
}

type logEntry struct {
	log   []byte
	level Level
}

// NewBackendWithFlags creates a Backend using flags instead of the
// LOGFLAGS environment defaults.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{flag: flags, entries: make(chan logEntry, entryBufferSize)}
}

// NewBackend creates a new logger backend.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// AddLogFile adds a rotated log file receiving every entry at logLevel or
// above, using the default rotation settings.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogWriter adds an arbitrary writer receiving every entry at logLevel or
// above. It must be called before Run.
func (b *Backend) AddLogWriter(w io.WriteCloser, logLevel Level) error {
	if b.IsRunning() {
		return errors.New("cannot add a writer to a running logger backend")
	}
	b.writers = append(b.writers, leveledWriter{WriteCloser: w, level: logLevel})
	return nil
}

// AddLogFileWithCustomRotator is AddLogFile with explicit rotation
// settings. The log directory is created if missing.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	if b.IsRunning() {
		return errors.New("cannot add a log file to a running logger backend")
	}
	if logDir, _ := filepath.Split(logFile); logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	b.writers = append(b.writers, leveledWriter{WriteCloser: r, level: logLevel})
	return nil
}

// Run starts the writer goroutine. It may only be called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.New("the logger backend is already running")
	}
	b.done.Lock()
	go func() {
		defer func() {
			if err := recover(); err != nil {
				fmt.Fprintf(os.Stderr, "Fatal error in logger.Backend goroutine: %+v\n", err)
				fmt.Fprintf(os.Stderr, "Goroutine stacktrace: %s\n", debug.Stack())
			}
		}()
		defer b.done.Unlock()
		for entry := range b.entries {
			for _, w := range b.writers {
				if entry.level >= w.level {
					_, _ = w.Write(entry.log)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns whether Run has been called.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) != 0
}

// Close drains pending entries and closes every writer.
func (b *Backend) Close() {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 1, 0) {
		return
	}
	close(b.entries)
	b.done.Lock()
	defer b.done.Unlock()
	for _, w := range b.writers {
		_ = w.Close()
	}
}

// Logger returns a new logger for the subsystemTag subsystem. It logs
// nothing until its level is lowered from LevelOff.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelOff), tag: subsystemTag, backend: b}
}
