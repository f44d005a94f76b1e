package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/freicoin/freicoind/infrastructure/logger"
)

const exitHandlerTimeout = 5 * time.Second

// HandlePanic recovers a panic, logs it with both the panicking goroutine's
// stack and the stack of whoever spawned it, and exits the process.
func HandlePanic(log *logger.Logger, goroutineName string, spawnStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}
	reason := fmt.Sprintf("Fatal error in goroutine `%s`: %+v", goroutineName, err)
	exit(log, reason, debug.Stack(), spawnStackTrace)
}

// GoroutineWrapperFunc returns a spawner that runs f in a new goroutine
// with panic handling attached.
func GoroutineWrapperFunc(log *logger.Logger) func(name string, f func()) {
	return func(name string, f func()) {
		spawnStackTrace := debug.Stack()
		go func() {
			defer HandlePanic(log, name, spawnStackTrace)
			f()
		}()
	}
}

// Exit logs reason and exits the process once the log is flushed.
func Exit(log *logger.Logger, reason string) {
	exit(log, reason, nil, nil)
}

func exit(log *logger.Logger, reason string, currentStackTrace []byte, spawnStackTrace []byte) {
	flushed := make(chan struct{})
	go func() {
		log.Criticalf("Exiting: %s", reason)
		if spawnStackTrace != nil {
			log.Criticalf("Spawn stack trace: %s", spawnStackTrace)
		}
		if currentStackTrace != nil {
			log.Criticalf("Stack trace: %s", currentStackTrace)
		}
		log.Backend().Close()
		close(flushed)
	}()

	select {
	case <-time.After(exitHandlerTimeout):
		fmt.Fprintln(os.Stderr, "Couldn't exit gracefully.")
	case <-flushed:
	}
	fmt.Fprintln(os.Stderr, "Exiting...")
	os.Exit(1)
}
