package logger

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Logger is a subsystem logger writing through a Backend.
type Logger struct {
	level   uint32 // atomic Level
	tag     string
	backend *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.backend
}

// Tag returns the subsystem tag of the logger.
func (l *Logger) Tag() string {
	return l.tag
}

// Trace writes at LevelTrace.
func (l *Logger) Trace(args ...interface{}) { l.Write(LevelTrace, args...) }

// Tracef writes a formatted message at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) { l.Writef(LevelTrace, format, args...) }

// Debug writes at LevelDebug.
func (l *Logger) Debug(args ...interface{}) { l.Write(LevelDebug, args...) }

// Debugf writes a formatted message at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) { l.Writef(LevelDebug, format, args...) }

// Info writes at LevelInfo.
func (l *Logger) Info(args ...interface{}) { l.Write(LevelInfo, args...) }

// Infof writes a formatted message at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) { l.Writef(LevelInfo, format, args...) }

// Warn writes at LevelWarn.
func (l *Logger) Warn(args ...interface{}) { l.Write(LevelWarn, args...) }

// Warnf writes a formatted message at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.Writef(LevelWarn, format, args...) }

// Error writes at LevelError.
func (l *Logger) Error(args ...interface{}) { l.Write(LevelError, args...) }

// Errorf writes a formatted message at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) { l.Writef(LevelError, format, args...) }

// Critical writes at LevelCritical.
func (l *Logger) Critical(args ...interface{}) { l.Write(LevelCritical, args...) }

// Criticalf writes a formatted message at LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) { l.Writef(LevelCritical, format, args...) }

// Write formats args like fmt.Sprintln and queues the entry if logLevel is
// enabled.
func (l *Logger) Write(logLevel Level, args ...interface{}) {
	if l.Level() > logLevel {
		return
	}
	l.print(logLevel, fmt.Sprintln(args...))
}

// Writef formats like fmt.Sprintf and queues the entry if logLevel is
// enabled.
func (l *Logger) Writef(logLevel Level, format string, args ...interface{}) {
	if l.Level() > logLevel {
		return
	}
	message := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	l.print(logLevel, message)
}

func (l *Logger) print(logLevel Level, message string) {
	if !l.backend.IsRunning() {
		return
	}
	now := time.Now()
	var file string
	var line int
	if l.backend.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		file, line = callsite(l.backend.flag)
	}

	buf := &bytes.Buffer{}
	writeHeader(buf, now, logLevel, l.tag, file, line)
	buf.WriteString(message)
	l.backend.entries <- logEntry{log: buf.Bytes(), level: logLevel}
}

// writeHeader writes "2006-01-02 15:04:05.000 [LVL] TAG: " optionally
// followed by the callsite.
func writeHeader(buf *bytes.Buffer, t time.Time, logLevel Level, tag, file string, line int) {
	buf.WriteString(t.Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(logLevel.String())
	buf.WriteString("] ")
	buf.WriteString(tag)
	if file != "" {
		fmt.Fprintf(buf, " %s:%d", file, line)
	}
	buf.WriteString(": ")
}

// callsiteDepth is the number of frames between the caller of a Logger
// method and callsite.
const callsiteDepth = 5

func callsite(flag uint32) (string, int) {
	_, file, line, ok := runtime.Caller(callsiteDepth)
	if !ok {
		return "???", 0
	}
	if flag&LogFlagShortFile != 0 {
		if i := strings.LastIndexByte(file, os.PathSeparator); i >= 0 {
			file = file[i+1:]
		}
	}
	return file, line
}
