// Package logging writes run-scoped debug logs for hrsuite components.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EnvLogDir overrides the directory log files are written to.
const EnvLogDir = "HRSUITE_LOG_DIR"

// Logger writes leveled lines for one component. All components of a run
// share the file <log-dir>/<run-id>-hrsuite.log.
//
// There is no level filtering; every method writes.
type Logger struct {
	runID     string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
}

var (
	runID     string
	runIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error
)

func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// initLogDirectory resolves and creates the log directory once per process.
// HRSUITE_LOG_DIR wins; otherwise ~/.hrsuite/logs is used.
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			logDir = os.Getenv(EnvLogDir)
		}
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".hrsuite", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a logger for component.
//
// If the log file cannot be opened it returns a logger writing to stderr
// together with the error, so callers can warn and carry on.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	id := getRunID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-hrsuite.log", id))

	// Append mode: every component of the run writes to the same file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		runID:     id,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger(component string) *Logger {
	return &Logger{
		runID:     getRunID(),
		component: component,
		logger:    log.New(io.Discard, "", 0),
	}
}

// NewWriterLogger returns a logger that writes to w.
func NewWriterLogger(component string, w io.Writer) *Logger {
	return &Logger{
		runID:     getRunID(),
		component: component,
		logger:    log.New(w, "", 0),
	}
}

func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, "", 0)
	l := &Logger{
		runID:     getRunID(),
		component: component,
		logger:    logger,
	}
	l.Warnf("Failed to initialize file logging, falling back to stderr: %v", err)
	return l
}

func (l *Logger) write(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, fmt.Sprintf(format, v...))
}

// Printf logs at INFO level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write("DEBUG", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write("WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write("ERROR", format, v...)
}

// With returns a logger for a sub-component sharing the same destination.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		runID:     l.runID,
		component: l.component + "/" + component,
		logger:    l.logger,
		logPath:   l.logPath,
	}
}

// Writer returns the destination of file-backed loggers, stderr otherwise.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// RunID returns the identifier shared by every logger of this process.
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, empty when not file-backed.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetRunID returns the current process-wide run ID.
func GetRunID() string {
	return getRunID()
}

// GetLogDirectory returns the directory where logs are stored.
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
