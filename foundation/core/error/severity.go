// File: severity.go
// Title: Error Severity Levels
// Description: Severity classification for structured errors. The logger maps
//              severities onto log levels.
// Author: msto63
// Version: v0.1.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial severity levels

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a problem with user input (bad source text, bad flag)
	SeverityLow Severity = iota

	// SeverityMedium indicates an error that affects one operation only
	SeverityMedium

	// SeverityHigh indicates a failure of an infrastructure component
	SeverityHigh

	// SeverityCritical indicates that the process cannot continue
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeStorageError, CodeConfigError:
		return SeverityHigh
	case CodeInternal:
		return SeverityCritical
	case CodeInvalidInput, CodeNotFound, CodeLexical, CodeSyntax,
		CodeUnexpectedEOF, CodeInputTooLarge:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
