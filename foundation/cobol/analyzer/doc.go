// File: doc.go
// Title: COBOL Static Analyzer Package Documentation
// Description: Static analysis passes over a parsed COBOL Program.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial analyzer

/*
Package analyzer derives usage, call and dataflow tables from an ast.Program
without executing it.

Analyze runs five passes in fixed order:

 1. Variable indexing: one usage record per declared variable.
 2. Procedure scanning: reads and writes per paragraph, including the
    statements nested in IF branches.
 3. Call graph: PERFORM targets per paragraph. A PERFORM of an undeclared
    paragraph is kept as an outgoing call but gets no called_by entry.
 4. Execution trace: depth-first from the first paragraph, each paragraph
    at most once, never deeper than the depth limit (10).
 5. Dataflow: every (writer, reader) pair of a variable with
    writer != reader.

Names that match no declaration are ignored. The passes never fail; an
empty Program yields empty tables.

All sets keep insertion order so repeated runs over the same Program
produce identical results.
*/
package analyzer
