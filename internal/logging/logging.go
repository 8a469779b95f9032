// Package logging configures zerolog for pickpack.
//
// The interactive UI owns the terminal, so in UI mode logs go to a file;
// headless commands log to stderr through a console writer.
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var logWriter io.Writer

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logWriter = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// ConfigureGlobalLogging sets the global level and rebuilds log.Logger on the
// current writer. Callers that want file output call SetLogWriter first.
func ConfigureGlobalLogging(levelStr string) error {
	level, err := parseLogLevel(levelStr)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(logWriter).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	// Route stray stdlib log output through zerolog at debug level.
	stdLog.SetFlags(0)
	stdLog.SetOutput(log.Logger.With().Str("source", "stdlog").Logger())

	return nil
}

func parseLogLevel(levelString string) (zerolog.Level, error) {
	if levelString == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", levelString, err)
	}
	if level == zerolog.NoLevel {
		return zerolog.InfoLevel, nil
	}
	return level, nil
}

// SetLogWriter replaces the writer used by the next ConfigureGlobalLogging call.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// OpenLogFile creates the parent directory and opens path for appending.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// DefaultFile is where the UI logs when no file is configured.
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pickpack", "pickpack.log")
}

// Component returns the global logger tagged with a component field.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// NewLoggerWithWriter builds a standalone JSON logger, mostly for tests.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
}
