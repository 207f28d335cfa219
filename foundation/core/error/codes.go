// File: codes.go
// Title: Error Codes
// Description: Defines the error codes used by the cobdoc front-end, analysis
//              services and infrastructure packages.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial code catalogue
// - 2026-10-17 v0.2.0: Front-end and analysis codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Front-end
	CodeLexical       Code = "LEXICAL_ERROR"
	CodeSyntax        Code = "SYNTAX_ERROR"
	CodeUnexpectedEOF Code = "UNEXPECTED_EOF"
	CodeInputTooLarge Code = "INPUT_TOO_LARGE"

	// Infrastructure
	CodeConfigError  Code = "CONFIG_ERROR"
	CodeStorageError Code = "STORAGE_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput,
		CodeLexical, CodeSyntax, CodeUnexpectedEOF, CodeInputTooLarge,
		CodeConfigError, CodeStorageError:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeLexical, CodeSyntax, CodeUnexpectedEOF, CodeInputTooLarge:
		return "frontend"
	case CodeConfigError:
		return "configuration"
	case CodeStorageError:
		return "storage"
	default:
		return "generic"
	}
}

// IsUserError reports whether the code describes a problem with the caller's input
// rather than with cobdoc itself.
func (c Code) IsUserError() bool {
	switch c {
	case CodeInvalidInput, CodeLexical, CodeSyntax, CodeUnexpectedEOF, CodeInputTooLarge, CodeNotFound:
		return true
	default:
		return false
	}
}
