// File: result.go
// Title: Analysis Result
// Description: Holds the derived tables of one analysis run and provides
//              the views consumed by documentation renderers: variables,
//              procedures, execution trace, dataflow grouped by variable and
//              a program summary.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial result views

package analyzer

import (
	"slices"

	cdast "github.com/msto63/cobdoc/foundation/cobol/ast"
)

// UnknownEntryPoint is reported as entry point of a program without
// paragraphs
const UnknownEntryPoint = "UNKNOWN"

// Result holds the tables derived from one Program
type Result struct {
	program *cdast.Program

	usage         map[string]*VariableUsage
	variableOrder []string

	callGraph      map[string]*CallGraphEntry
	paragraphOrder []string

	trace []TraceEntry

	dataflow  []DataFlowEdge
	edgeIndex map[DataFlowEdge]struct{}
}

func newResult(program *cdast.Program) *Result {
	return &Result{
		program:   program,
		usage:     make(map[string]*VariableUsage),
		callGraph: make(map[string]*CallGraphEntry),
		edgeIndex: make(map[DataFlowEdge]struct{}),
	}
}

// recordRead adds para to the readers of name if name is declared
func (r *Result) recordRead(name, para string) {
	if u, ok := r.usage[name]; ok {
		u.Reads.Add(para)
	}
}

// recordWrite adds para to the writers of name if name is declared
func (r *Result) recordWrite(name, para string) {
	if u, ok := r.usage[name]; ok {
		u.Writes.Add(para)
	}
}

// recordOperandRead records a read for identifier operands; literals are
// not data accesses
func (r *Result) recordOperandRead(op cdast.Operand, para string) {
	if op.IsIdentifier() {
		r.recordRead(op.Text, para)
	}
}

func (r *Result) addEdge(e DataFlowEdge) {
	if _, ok := r.edgeIndex[e]; ok {
		return
	}
	r.edgeIndex[e] = struct{}{}
	r.dataflow = append(r.dataflow, e)
}

// Program returns the analyzed program
func (r *Result) Program() *cdast.Program {
	return r.program
}

// Usage returns the usage record of a declared variable
func (r *Result) Usage(name string) (*VariableUsage, bool) {
	u, ok := r.usage[name]
	return u, ok
}

// Variables returns the usage records in declaration order
func (r *Result) Variables() []*VariableUsage {
	out := make([]*VariableUsage, 0, len(r.variableOrder))
	for _, name := range r.variableOrder {
		out = append(out, r.usage[name])
	}
	return out
}

// CallGraph returns the call graph entry of a declared paragraph
func (r *Result) CallGraph(paragraph string) (*CallGraphEntry, bool) {
	e, ok := r.callGraph[paragraph]
	return e, ok
}

// ParagraphNames returns the declared paragraphs in source order
func (r *Result) ParagraphNames() []string {
	return slices.Clone(r.paragraphOrder)
}

// Trace returns the execution trace in visitation order
func (r *Result) Trace() []TraceEntry {
	return slices.Clone(r.trace)
}

// DataFlow returns all dataflow edges
func (r *Result) DataFlow() []DataFlowEdge {
	return slices.Clone(r.dataflow)
}

// HasEdge reports whether the edge was inferred
func (r *Result) HasEdge(from, to, variable string) bool {
	_, ok := r.edgeIndex[DataFlowEdge{From: from, To: to, Variable: variable}]
	return ok
}

// ParagraphReads returns the variables read by paragraph, sorted
func (r *Result) ParagraphReads(paragraph string) []string {
	var out []string
	for _, name := range r.variableOrder {
		if r.usage[name].Reads.Has(paragraph) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// ParagraphWrites returns the variables written by paragraph, sorted
func (r *Result) ParagraphWrites(paragraph string) []string {
	var out []string
	for _, name := range r.variableOrder {
		if r.usage[name].Writes.Has(paragraph) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// VariableFlow groups the dataflow edges of one variable
type VariableFlow struct {
	Variable string         `json:"variable" yaml:"variable"`
	Purpose  string         `json:"purpose" yaml:"purpose"`
	Edges    []DataFlowEdge `json:"edges" yaml:"edges"`
}

// EdgesByVariable groups the dataflow edges by variable, sorted by
// variable name. Variables without edges are omitted.
func (r *Result) EdgesByVariable() []VariableFlow {
	groups := make(map[string]*VariableFlow)
	var names []string

	for _, e := range r.dataflow {
		g, ok := groups[e.Variable]
		if !ok {
			g = &VariableFlow{Variable: e.Variable, Purpose: r.usage[e.Variable].Purpose}
			groups[e.Variable] = g
			names = append(names, e.Variable)
		}
		g.Edges = append(g.Edges, e)
	}

	slices.Sort(names)
	out := make([]VariableFlow, 0, len(names))
	for _, n := range names {
		out = append(out, *groups[n])
	}
	return out
}

// Summary describes a program at a glance
type Summary struct {
	Program         string   `json:"program" yaml:"program"`
	EntryPoint      string   `json:"entry_point" yaml:"entry_point"`
	TotalStatements int      `json:"total_statements" yaml:"total_statements"`
	TotalProcedures int      `json:"total_procedures" yaml:"total_procedures"`
	TotalVariables  int      `json:"total_variables" yaml:"total_variables"`
	OutputVariables []string `json:"output_variables" yaml:"output_variables"`
}

// Summary returns the program summary. TotalStatements counts top-level
// statements of every paragraph. OutputVariables lists the variables that
// are written anywhere, in declaration order.
func (r *Result) Summary() Summary {
	s := Summary{
		Program:         r.program.Name,
		EntryPoint:      UnknownEntryPoint,
		TotalStatements: r.program.StatementCount(),
		TotalProcedures: len(r.program.Paragraphs),
		TotalVariables:  len(r.program.Variables),
		OutputVariables: []string{},
	}
	if entry := r.program.EntryPoint(); entry != nil {
		s.EntryPoint = entry.Name
	}
	for _, name := range r.variableOrder {
		if r.usage[name].Writes.Len() > 0 {
			s.OutputVariables = append(s.OutputVariables, name)
		}
	}
	return s
}
