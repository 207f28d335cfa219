// Package log provides structured logging for cobdoc.
//
// Package: log
// Title: cobdoc Structured Logging
// Description: Leveled, field-based logging with JSON, text, console and logfmt
//              output. Loggers are immutable: WithField/WithLevel return clones,
//              so a component can derive its own logger ("component" field)
//              without affecting the parent.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-17 v0.2.0: Dropped async buffering and audit level, sorted field output
//
// Usage:
//
//	logger := log.New().
//		WithLevel(log.LevelDebug).
//		WithFormat(log.FormatText).
//		WithField("component", "cobol-parser")
//
//	logger.Warn("Illegal character skipped", log.Fields{"line": 4, "char": "#"})
//
//	timer := logger.StartTimer("procedure scanning")
//	// ...
//	timer.Stop()
package log
