// File: doc.go
// Title: COBOL Parser Package Documentation
// Description: Lexical analysis and recursive descent parsing for the
//              supported COBOL subset.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial lexer and parser

/*
Package parser turns COBOL subset source text into an ast.Program.

The Lexer classifies tokens, matching reserved words case-insensitively.
Lines whose first non-blank character is '*' are comments. An unrecognized
character is reported as a Diagnostic and skipped; lexing never aborts.

The Parser is a recursive descent parser over the grammar

	program        : IDENTIFICATION DIVISION . PROGRAM-ID . name .
	                 DATA DIVISION . [WORKING-STORAGE SECTION . variable*]
	                 PROCEDURE DIVISION . paragraph+
	variable       : level name [PIC picture] [VALUE literal] .
	paragraph      : name . statement*
	statement      : MOVE | ADD | SUBTRACT | MULTIPLY | COMPUTE | PERFORM
	               | IF | DISPLAY | STOP RUN | EXIT | GOBACK

A token sequence outside the grammar fails the whole parse with a syntax
error carrying the offending token and line. No partial Program is
returned.

Basic usage:

	p, err := parser.New(parser.Options{})
	if err != nil {
		return err
	}
	program, err := p.Parse(source)
*/
package parser
