package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var (
	verbose atomic.Bool

	mu         sync.Mutex
	output     io.Writer = os.Stdout
	outputFile *os.File
	outputPath string
	logger     = newLogger(os.Stdout, false)
)

func newLogger(w io.Writer, debug bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{Level: log.InfoLevel})
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// SetVerbose enables or disables debug logging for the current process.
func SetVerbose(enabled bool) {
	verbose.Store(enabled)

	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(output, enabled)
}

// Verbose reports whether debug logging is enabled.
func Verbose() bool {
	return verbose.Load()
}

// SetOutput redirects all log output to w. Passing nil restores stdout.
// Any configured log file is left open but no longer written to.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	mu.Lock()
	defer mu.Unlock()
	output = w
	logger = newLogger(output, Verbose())
}

// SetOutputFile configures optional file logging while preserving stdout output.
// Passing an empty path disables file logging.
func SetOutputFile(path string) error {
	path = strings.TrimSpace(path)

	mu.Lock()
	defer mu.Unlock()

	if path == outputPath {
		return nil
	}

	if outputFile != nil {
		err := outputFile.Close()
		outputFile = nil
		outputPath = ""
		output = os.Stdout
		logger = newLogger(output, Verbose())
		if err != nil {
			return err
		}
	}

	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	outputFile = f
	outputPath = path
	output = io.MultiWriter(os.Stdout, f)
	logger = newLogger(output, Verbose())
	return nil
}

// Close flushes and closes the log file if one is configured.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if outputFile == nil {
		return nil
	}
	err := outputFile.Close()
	outputFile = nil
	outputPath = ""
	output = os.Stdout
	logger = newLogger(output, Verbose())
	return err
}

func current() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Infof prints formatted output regardless of verbosity level.
func Infof(format string, args ...any) {
	current().Print(trim(fmt.Sprintf(format, args...)))
}

// Infoln prints output regardless of verbosity level.
func Infoln(args ...any) {
	current().Print(trim(fmt.Sprintln(args...)))
}

// Warnf prints a formatted warning regardless of verbosity level.
func Warnf(format string, args ...any) {
	current().Warn(trim(fmt.Sprintf(format, args...)))
}

// Debugf prints formatted output only when verbose mode is enabled.
func Debugf(format string, args ...any) {
	if !Verbose() {
		return
	}
	current().Debug(trim(fmt.Sprintf(format, args...)))
}

// With returns a child logger carrying the given key/value pairs on every
// entry. The child keeps the output and level in effect at the time of the call.
func With(kv ...any) *log.Logger {
	return current().With(kv...)
}

func trim(msg string) string {
	return strings.TrimRight(msg, "\r\n")
}
