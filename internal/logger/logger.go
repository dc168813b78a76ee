// Package logger wires the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the global logger instance. Nil until Init succeeds.
	Logger *log.Logger

	closer io.Closer
)

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string
	// Dir holds ghosttype.log when File is empty.
	Dir string
	// File overrides the log file path.
	File string
	// Debug forces debug level and mirrors output to stderr.
	Debug bool
}

// Init creates the rotating log file and the global logger.
func Init(cfg Config) error {
	path := cfg.File
	if path == "" {
		if cfg.Dir == "" {
			return fmt.Errorf("log directory is empty")
		}
		path = filepath.Join(cfg.Dir, "ghosttype.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	level := log.WarnLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("failed to parse log level: %w", err)
		}
		level = parsed
	}
	if cfg.Debug {
		level = log.DebugLevel
	}

	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var writer io.Writer = fileWriter
	if cfg.Debug {
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "ghosttype",
	})
	closer = fileWriter
	return nil
}

// Close flushes and closes the log file.
func Close() error {
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// Get returns the global logger, or a logger that discards everything
// when Init was not called.
func Get() *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
