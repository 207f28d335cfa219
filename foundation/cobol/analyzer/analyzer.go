// File: analyzer.go
// Title: COBOL Static Analyzer
// Description: Runs the five analysis passes (variable indexing, procedure
//              scanning, call graph, execution trace, dataflow) over a
//              parsed Program and collects the derived tables.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial analyzer implementation

package analyzer

import (
	"regexp"

	cdast "github.com/msto63/cobdoc/foundation/cobol/ast"
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
)

// DefaultMaxTraceDepth bounds the execution trace
const DefaultMaxTraceDepth = 10

// identifierPattern extracts identifier-shaped words from expression and
// condition text
var identifierPattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9\-]*`)

// Options configures the analyzer
type Options struct {
	Logger *cdlog.Logger

	// NestedCalls also collects PERFORM statements inside IF branches
	// for the call graph. Off by default: only top-level statements of a
	// paragraph contribute calls.
	NestedCalls bool

	// MaxTraceDepth is the deepest level the execution trace descends to.
	// Zero means DefaultMaxTraceDepth.
	MaxTraceDepth int
}

// Analyzer runs the analysis passes. It holds no per-program state and may
// be reused.
type Analyzer struct {
	options Options
	logger  *cdlog.Logger
}

// New creates an analyzer
func New(opts Options) *Analyzer {
	if opts.Logger == nil {
		opts.Logger = cdlog.GetDefault()
	}
	if opts.MaxTraceDepth <= 0 {
		opts.MaxTraceDepth = DefaultMaxTraceDepth
	}
	return &Analyzer{
		options: opts,
		logger:  opts.Logger.WithField("component", "cobol-analyzer"),
	}
}

// Analyze runs all passes over program in order and returns the derived
// tables. It never fails; a nil program yields empty tables.
func (a *Analyzer) Analyze(program *cdast.Program) *Result {
	if program == nil {
		program = &cdast.Program{}
	}

	r := newResult(program)

	passes := []struct {
		name string
		run  func(*Result)
	}{
		{"variable indexing", a.indexVariables},
		{"procedure scanning", a.scanProcedures},
		{"call graph construction", a.buildCallGraph},
		{"execution tracing", a.traceExecution},
		{"dataflow inference", a.inferDataflow},
	}

	total := a.logger.StartTimer("static analysis").WithField("program", program.Name)
	for _, pass := range passes {
		timer := a.logger.StartTimer(pass.name).WithLevel(cdlog.LevelTrace)
		pass.run(r)
		timer.Stop()
	}
	total.
		WithField("variables", len(r.variableOrder)).
		WithField("paragraphs", len(r.paragraphOrder)).
		WithField("edges", len(r.dataflow)).
		Stop()

	return r
}

// Analyze runs the passes with default options
func Analyze(program *cdast.Program) *Result {
	return New(Options{}).Analyze(program)
}

// indexVariables creates one usage record per declared variable. A later
// declaration of the same name replaces the definition but keeps the
// position of the first.
func (a *Analyzer) indexVariables(r *Result) {
	for _, v := range r.program.Variables {
		if _, ok := r.usage[v.Name]; !ok {
			r.variableOrder = append(r.variableOrder, v.Name)
		}
		r.usage[v.Name] = &VariableUsage{
			Definition: v,
			Reads:      NewNameSet(),
			Writes:     NewNameSet(),
			Purpose:    inferPurpose(v),
		}
	}
}

// inferPurpose is a placeholder; every variable gets DefaultPurpose
func inferPurpose(*cdast.Variable) string {
	return DefaultPurpose
}

// scanProcedures records reads and writes for every statement, descending
// into IF branches
func (a *Analyzer) scanProcedures(r *Result) {
	for _, para := range r.program.Paragraphs {
		for _, stmt := range para.Statements {
			a.scanStatement(r, stmt, para.Name)
		}
	}
}

func (a *Analyzer) scanStatement(r *Result, stmt cdast.Statement, para string) {
	switch s := stmt.(type) {
	case *cdast.MoveStmt:
		r.recordOperandRead(s.Source, para)
		r.recordWrite(s.Target, para)
	case *cdast.AddStmt:
		r.recordOperandRead(s.Operand1, para)
		r.recordOperandRead(s.Operand2, para)
		r.recordWrite(s.Target, para)
	case *cdast.SubtractStmt:
		r.recordOperandRead(s.Operand1, para)
		r.recordOperandRead(s.Operand2, para)
		r.recordWrite(s.Target, para)
	case *cdast.MultiplyStmt:
		r.recordOperandRead(s.Operand1, para)
		r.recordOperandRead(s.Operand2, para)
		r.recordWrite(s.Target, para)
	case *cdast.ComputeStmt:
		r.recordWrite(s.Target, para)
		for _, name := range identifierPattern.FindAllString(s.Expression, -1) {
			r.recordRead(name, para)
		}
	case *cdast.DisplayStmt:
		r.recordOperandRead(s.Item, para)
	case *cdast.IfStmt:
		for _, name := range identifierPattern.FindAllString(s.Condition, -1) {
			r.recordRead(name, para)
		}
		for _, nested := range s.Then {
			a.scanStatement(r, nested, para)
		}
		for _, nested := range s.Else {
			a.scanStatement(r, nested, para)
		}
	case *cdast.PerformStmt, *cdast.StopStmt:
		// no data access
	}
}

// buildCallGraph creates one entry per paragraph and links PERFORM edges.
// A call to an undeclared paragraph is recorded on the caller only.
func (a *Analyzer) buildCallGraph(r *Result) {
	for _, para := range r.program.Paragraphs {
		if _, ok := r.callGraph[para.Name]; !ok {
			r.paragraphOrder = append(r.paragraphOrder, para.Name)
		}
		r.callGraph[para.Name] = &CallGraphEntry{
			Calls:    NewNameSet(),
			CalledBy: NewNameSet(),
		}
	}

	for _, para := range r.program.Paragraphs {
		statements := para.Statements
		if a.options.NestedCalls {
			statements = cdast.Statements(para.Statements)
		}

		for _, stmt := range statements {
			perform, ok := stmt.(*cdast.PerformStmt)
			if !ok {
				continue
			}
			r.callGraph[para.Name].Calls.Add(perform.Target)
			if target, ok := r.callGraph[perform.Target]; ok {
				target.CalledBy.Add(para.Name)
			} else {
				a.logger.Debug("PERFORM of undeclared paragraph", cdlog.Fields{
					"paragraph": para.Name,
					"target":    perform.Target,
				})
			}
		}
	}
}

// traceExecution walks the call graph depth-first from the first
// paragraph. Each paragraph appears at most once and nothing below
// MaxTraceDepth is visited.
func (a *Analyzer) traceExecution(r *Result) {
	entry := r.program.EntryPoint()
	if entry == nil {
		return
	}

	visited := make(map[string]bool)
	a.traceFrom(r, entry.Name, 0, visited)
}

func (a *Analyzer) traceFrom(r *Result, para string, depth int, visited map[string]bool) {
	if visited[para] || depth > a.options.MaxTraceDepth {
		return
	}

	visited[para] = true
	r.trace = append(r.trace, TraceEntry{Depth: depth, Paragraph: para})

	entry, ok := r.callGraph[para]
	if !ok {
		return
	}
	for _, called := range entry.Calls.Values() {
		a.traceFrom(r, called, depth+1, visited)
	}
}

// inferDataflow joins the writer and reader sets of every variable,
// skipping pairs where a paragraph reads its own write
func (a *Analyzer) inferDataflow(r *Result) {
	for _, name := range r.variableOrder {
		usage := r.usage[name]
		for _, writer := range usage.Writes.Values() {
			for _, reader := range usage.Reads.Values() {
				if writer == reader {
					continue
				}
				r.addEdge(DataFlowEdge{From: writer, To: reader, Variable: name})
			}
		}
	}
}
