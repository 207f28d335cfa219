// File: doc.go
// Title: COBOL Analysis Package Documentation
// Description: Entry point of the COBOL subset front-end and static
//              analyzer.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial engine

/*
Package cobol runs the complete pipeline for COBOL subset source text:
lexing, parsing into an ast.Program and static analysis.

Subpackages:
  • parser:   lexer and recursive descent parser
  • ast:      program, variable, paragraph and statement nodes, export
  • analyzer: variable usage, call graph, execution trace and dataflow

Basic usage:

	engine, err := cobol.NewEngine(cobol.Options{})
	if err != nil {
		return err
	}
	result, err := engine.Analyze(ctx, source)
	if err != nil {
		// syntax error: no program, no tables
		return err
	}
	for _, step := range result.Analysis.Trace() {
		fmt.Println(step.Depth, step.Paragraph)
	}

A failed parse returns an error and a nil Result. A program that parses
but has nothing to analyze returns a Result with empty tables.
*/
package cobol
