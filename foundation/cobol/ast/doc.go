// File: doc.go
// Title: COBOL Abstract Syntax Tree Package Documentation
// Description: Defines the Abstract Syntax Tree nodes produced by the COBOL
//              subset parser and consumed by the static analyzer.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial AST implementation

/*
Package ast defines the Abstract Syntax Tree for the supported COBOL subset.

A Program holds the program name, the WORKING-STORAGE variables in
declaration order and the procedure paragraphs in source order. Statements
form a closed set of node types (MOVE, ADD, SUBTRACT, MULTIPLY, COMPUTE,
PERFORM, IF, DISPLAY, STOP); a type switch over Statement is exhaustive.

Expressions and conditions are kept as their rendered text. COMPUTE also
keeps the individual expression terms.

The package provides:
  • Node definitions with source positions
  • Walk and Inspect for depth-first traversal
  • Export into a tree-structured, key-ordered document (JSON, YAML,
    protobuf Struct) for external documentation renderers
*/
package ast
