// ============================================================================
// cobdoc - COBOL static analysis and documentation
// ============================================================================
//
// Package:     logging
// Description: Key-value logger used by the service layer
// Author:      msto63
// Created:     2026-10-17
// License:     MIT
// ============================================================================

package logging

import (
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
)

// Level represents log severity for the key-value logger
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger wraps the foundation logger with a key-value call style
type Logger struct {
	*cdlog.Logger
	name string
}

// New creates a logger named name on top of the process-wide default logger
func New(name string) *Logger {
	return Wrap(cdlog.GetDefault(), name)
}

// Wrap adapts an existing foundation logger
func Wrap(logger *cdlog.Logger, name string) *Logger {
	return &Logger{
		Logger: logger.WithName(name),
		name:   name,
	}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a new logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	cdLevel := cdlog.LevelInfo
	switch level {
	case LevelDebug:
		cdLevel = cdlog.LevelDebug
	case LevelInfo:
		cdLevel = cdlog.LevelInfo
	case LevelWarn:
		cdLevel = cdlog.LevelWarn
	case LevelError:
		cdLevel = cdlog.LevelError
	}

	return &Logger{
		Logger: l.Logger.WithLevel(cdLevel),
		name:   l.name,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to cdlog.Fields
func toFields(keysAndValues ...interface{}) cdlog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(cdlog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
