// Package error provides the structured error type used across cobdoc.
//
// Package: error
// Title: cobdoc Error Handling
// Description: Structured errors with codes, severities and detail maps. Syntax
//              failures of the COBOL front-end, configuration problems and
//              storage failures all surface through this type so that callers
//              (CLI, gRPC, logger) can branch on Code instead of message text.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-17 v0.2.0: Codes reduced to the front-end/analysis domain
//
// Usage:
//
//	err := error.New("syntax error at 'VALUE' (line 7)").
//		WithCode(error.CodeSyntax).
//		WithDetail("line", 7)
//
//	if error.HasCode(err, error.CodeSyntax) {
//		// report to the user, exit non-zero
//	}
package error
