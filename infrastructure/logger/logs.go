package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// BackendLog is the logging backend used to create all subsystem loggers.
var BackendLog = NewBackend()

var (
	subsystemLoggers      = make(map[string]*Logger)
	subsystemLoggersMutex sync.Mutex
)

// RegisterSubSystem returns the logger for subsystem, creating it on first
// use. Packages call it once from their log.go.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	if logger, exists := subsystemLoggers[subsystem]; exists {
		return logger
	}
	logger := BackendLog.Logger(subsystem)
	subsystemLoggers[subsystem] = logger
	return logger
}

// InitLog attaches the main and error log files to the backend and starts
// it. Failure to open either file is fatal.
func InitLog(logFile, errLogFile string) {
	if err := BackendLog.AddLogFile(logFile, LevelTrace); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s\n", logFile, LevelTrace, err)
		os.Exit(1)
	}
	if err := BackendLog.AddLogFile(errLogFile, LevelWarn); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s\n", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
	if err := BackendLog.AddLogWriter(os.Stdout, LevelInfo); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the logger for level %s: %s\n", LevelInfo, err)
		os.Exit(1)
	}
	if err := BackendLog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s\n", err)
		os.Exit(1)
	}
}

// InitLogStdout starts the backend writing only to stdout at logLevel and
// above. Used by tests and tools.
func InitLogStdout(logLevel Level) {
	if err := BackendLog.AddLogWriter(os.Stdout, logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the logger for level %s: %s\n", logLevel, err)
		os.Exit(1)
	}
	if err := BackendLog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s\n", err)
		os.Exit(1)
	}
}

// Get returns the logger of a registered subsystem.
func Get(tag string) (*Logger, bool) {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()
	logger, ok := subsystemLoggers[tag]
	return logger, ok
}

// SetLogLevel sets the level of one subsystem. Unknown subsystems are
// ignored; unknown levels fall back to info.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := Get(subsystemID)
	if !ok {
		return
	}
	level, _ := LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets every registered subsystem to logLevel.
func SetLogLevels(logLevel string) {
	for _, subsystemID := range SupportedSubsystems() {
		SetLogLevel(subsystemID, logLevel)
	}
}

// SupportedSubsystems returns the sorted tags of all registered subsystems.
func SupportedSubsystems() []string {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	subsystems := make([]string, 0, len(subsystemLoggers))
	for tag := range subsystemLoggers {
		subsystems = append(subsystems, tag)
	}
	sort.Strings(subsystems)
	return subsystems
}

// ParseAndSetLogLevels parses a level specification of the form
// "level" or "level,SUBSYS=level,..." and applies it.
func ParseAndSetLogLevels(logLevel string) error {
	if !strings.Contains(logLevel, ",") && !strings.Contains(logLevel, "=") {
		if _, ok := LevelFromString(logLevel); !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", logLevel)
		}
		SetLogLevels(logLevel)
		return nil
	}

	for _, pair := range strings.Split(logLevel, ",") {
		if !strings.Contains(pair, "=") {
			if _, ok := LevelFromString(pair); !ok {
				return errors.Errorf("the specified debug level [%s] is invalid", pair)
			}
			SetLogLevels(pair)
			continue
		}

		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return errors.Errorf("the specified debug level has an invalid format [%s]", pair)
		}
		subsystemID, level := fields[0], fields[1]
		if _, exists := Get(subsystemID); !exists {
			return errors.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %s",
				subsystemID, strings.Join(SupportedSubsystems(), ", "))
		}
		if _, ok := LevelFromString(level); !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", level)
		}
		SetLogLevel(subsystemID, level)
	}
	return nil
}
