// ============================================================================
// cobdoc - COBOL static analysis and documentation
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating loggers from configuration
// Author:      msto63
// Created:     2026-10-17
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	cderror "github.com/msto63/cobdoc/foundation/core/error"
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
	"github.com/msto63/cobdoc/pkg/core/config"
)

var (
	// log files opened by NewLogger, closed by CloseOutputs
	openFiles   []*os.File
	openFilesMu sync.Mutex
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: json, text, console or logfmt (default: text)
	Format string

	// File to append to; empty means stderr
	File string

	// Additional outputs besides the primary one
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "text",
	}
}

// FromConfig derives a LoggerConfig from the [general] section
func FromConfig(cfg config.GeneralConfig) LoggerConfig {
	return LoggerConfig{
		ServiceName: cfg.Name,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		File:        cfg.LogFile,
	}
}

// NewLogger creates a new foundation logger
func NewLogger(cfg LoggerConfig) (*cdlog.Logger, error) {
	var output io.Writer = os.Stderr

	if cfg.File != "" {
		file, err := openLogFile(cfg.File)
		if err != nil {
			return nil, err
		}
		output = file
	}

	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	return cdlog.NewWithConfig(cdlog.Config{
		Level:  parseLevel(cfg.Level),
		Format: parseFormat(cfg.Format),
		Output: output,
		Name:   cfg.ServiceName,
	}), nil
}

// NewSimpleLogger creates a stderr logger with default settings
func NewSimpleLogger(serviceName string) *cdlog.Logger {
	logger, _ := NewLogger(DefaultLoggerConfig(serviceName))
	return logger
}

// Setup builds a logger from the [general] section and installs it as the
// process-wide default
func Setup(cfg config.GeneralConfig) (*cdlog.Logger, error) {
	logger, err := NewLogger(FromConfig(cfg))
	if err != nil {
		return nil, err
	}
	cdlog.SetDefault(logger)
	return logger, nil
}

// CloseOutputs closes every log file opened by NewLogger
func CloseOutputs() error {
	openFilesMu.Lock()
	defer openFilesMu.Unlock()

	var firstErr error
	for _, f := range openFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	openFiles = nil
	return firstErr
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, cderror.Wrap(err, "failed to create log directory").
			WithCode(cderror.CodeConfigError).
			WithDetail("path", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, cderror.Wrap(err, "failed to open log file").
			WithCode(cderror.CodeConfigError).
			WithDetail("path", path)
	}

	openFilesMu.Lock()
	openFiles = append(openFiles, file)
	openFilesMu.Unlock()

	return file, nil
}

// parseLevel converts a string level, falling back to info
func parseLevel(level string) cdlog.Level {
	parsed, err := cdlog.ParseLevel(level)
	if err != nil {
		return cdlog.LevelInfo
	}
	return parsed
}

// parseFormat converts a string format, falling back to text
func parseFormat(format string) cdlog.Format {
	parsed, err := cdlog.ParseFormat(format)
	if err != nil {
		return cdlog.FormatText
	}
	return parsed
}
