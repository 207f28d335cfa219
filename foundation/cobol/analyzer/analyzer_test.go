// File: analyzer_test.go
// Title: COBOL Static Analyzer Unit Tests
// Description: Tests for the five analysis passes, their lenient handling
//              of unresolved names, trace bounds, idempotence and the report
//              views.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial test suite

package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/go-test/deep"

	cdast "github.com/msto63/cobdoc/foundation/cobol/ast"
	"github.com/msto63/cobdoc/foundation/cobol/parser"
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
)

const dataHeader = `IDENTIFICATION DIVISION.
PROGRAM-ID. SAMPLE.
DATA DIVISION.
WORKING-STORAGE SECTION.
01 X PIC 9(3).
01 Y PIC 9(3).
01 Z PIC 9(3) VALUE 0.
01 MSG PIC X(20) VALUE "HELLO".
PROCEDURE DIVISION.
`

func mustParse(t *testing.T, source string) *cdast.Program {
	t.Helper()
	p, err := parser.New(parser.Options{Logger: cdlog.Discard()})
	if err != nil {
		t.Fatalf("parser.New() error = %v", err)
	}
	program, err := p.Parse(source)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return program
}

func analyze(program *cdast.Program) *Result {
	return New(Options{Logger: cdlog.Discard()}).Analyze(program)
}

func TestAnalyze_PerformAndAdd(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`MAIN.
    PERFORM CALC.
CALC.
    ADD 1 TO X.
`))

	main, _ := r.CallGraph("MAIN")
	calc, _ := r.CallGraph("CALC")
	if diff := deep.Equal(main.Calls.Values(), []string{"CALC"}); diff != nil {
		t.Errorf("MAIN.calls: %v", diff)
	}
	if diff := deep.Equal(calc.CalledBy.Values(), []string{"MAIN"}); diff != nil {
		t.Errorf("CALC.called_by: %v", diff)
	}
	if main.CalledBy.Len() != 0 || calc.Calls.Len() != 0 {
		t.Error("unexpected reverse edges")
	}

	x, _ := r.Usage("X")
	if diff := deep.Equal(x.Writes.Values(), []string{"CALC"}); diff != nil {
		t.Errorf("X.writes: %v", diff)
	}
	if diff := deep.Equal(x.Reads.Values(), []string{"CALC"}); diff != nil {
		t.Errorf("X.reads: %v", diff)
	}
	if len(r.DataFlow()) != 0 {
		t.Errorf("DataFlow() = %v, want none (self-pair)", r.DataFlow())
	}
}

func TestAnalyze_MoveDisplayDataflow(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`FIRST-PARA.
    MOVE 5 TO X.
SECOND-PARA.
    DISPLAY X.
`))

	x, _ := r.Usage("X")
	if diff := deep.Equal(x.Writes.Values(), []string{"FIRST-PARA"}); diff != nil {
		t.Errorf("X.writes: %v", diff)
	}
	if diff := deep.Equal(x.Reads.Values(), []string{"SECOND-PARA"}); diff != nil {
		t.Errorf("X.reads: %v", diff)
	}

	want := []DataFlowEdge{{From: "FIRST-PARA", To: "SECOND-PARA", Variable: "X"}}
	if diff := deep.Equal(r.DataFlow(), want); diff != nil {
		t.Error(diff)
	}
	if !r.HasEdge("FIRST-PARA", "SECOND-PARA", "X") {
		t.Error("HasEdge() = false")
	}
}

func TestAnalyze_UnresolvedNamesIgnored(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`MAIN.
    PERFORM NOWHERE.
    MOVE UNDECLARED TO ALSO-UNDECLARED.
    COMPUTE GHOST = PHANTOM + X.
`))

	main, _ := r.CallGraph("MAIN")
	if !main.Calls.Has("NOWHERE") {
		t.Error("call to undeclared paragraph should be recorded")
	}
	if _, ok := r.CallGraph("NOWHERE"); ok {
		t.Error("undeclared paragraph should have no call graph entry")
	}
	if _, ok := r.Usage("UNDECLARED"); ok {
		t.Error("undeclared variable should have no usage record")
	}

	x, _ := r.Usage("X")
	if !x.Reads.Has("MAIN") {
		t.Error("X read in COMPUTE not recorded")
	}

	var names []string
	for _, entry := range r.Trace() {
		names = append(names, entry.Paragraph)
	}
	if diff := deep.Equal(names, []string{"MAIN", "NOWHERE"}); diff != nil {
		t.Errorf("Trace(): %v", diff)
	}
}

func TestAnalyze_LiteralsAreNotReads(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`P1.
    MOVE "X" TO Y.
    DISPLAY 'Z'.
`))

	for _, name := range []string{"X", "Z"} {
		u, _ := r.Usage(name)
		if u.Reads.Len() != 0 {
			t.Errorf("%s.reads = %v, want empty", name, u.Reads.Values())
		}
	}
}

func TestAnalyze_IfBranches(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`P1.
    IF X > Y THEN
        MOVE 1 TO Z.
    ELSE
        COMPUTE Z = X * 2.
    END-IF.
P2.
    DISPLAY Z.
`))

	x, _ := r.Usage("X")
	y, _ := r.Usage("Y")
	z, _ := r.Usage("Z")
	if !x.Reads.Has("P1") || !y.Reads.Has("P1") {
		t.Error("condition reads not recorded")
	}
	if !z.Writes.Has("P1") {
		t.Error("nested write not recorded")
	}
	if !r.HasEdge("P1", "P2", "Z") {
		t.Error("missing P1 -> P2 edge for Z")
	}
}

func TestAnalyze_NestedCallsOption(t *testing.T) {
	program := mustParse(t, dataHeader+`MAIN.
    IF X > 0 THEN
        PERFORM WORKER.
    END-IF.
WORKER.
    EXIT.
`)

	main, _ := analyze(program).CallGraph("MAIN")
	if main.Calls.Len() != 0 {
		t.Errorf("default call graph should ignore nested PERFORM, got %v", main.Calls.Values())
	}

	r := New(Options{Logger: cdlog.Discard(), NestedCalls: true}).Analyze(program)
	main, _ = r.CallGraph("MAIN")
	worker, _ := r.CallGraph("WORKER")
	if !main.Calls.Has("WORKER") || !worker.CalledBy.Has("MAIN") {
		t.Error("NestedCalls should link MAIN -> WORKER")
	}
	if len(r.Trace()) != 2 {
		t.Errorf("Trace() = %v, want MAIN and WORKER", r.Trace())
	}
}

func TestAnalyze_TraceCycles(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`A.
    PERFORM B.
    PERFORM C.
B.
    PERFORM A.
    PERFORM C.
C.
    PERFORM C.
D.
    PERFORM A.
`))

	want := []TraceEntry{
		{Depth: 0, Paragraph: "A"},
		{Depth: 1, Paragraph: "B"},
		{Depth: 2, Paragraph: "C"},
	}
	if diff := deep.Equal(r.Trace(), want); diff != nil {
		t.Error(diff)
	}
}

// chainProgram builds P0 -> P1 -> ... -> P(n-1)
func chainProgram(n int) *cdast.Program {
	program := &cdast.Program{Name: "CHAIN"}
	for i := 0; i < n; i++ {
		para := &cdast.Paragraph{Name: fmt.Sprintf("P%d", i)}
		if i < n-1 {
			para.Statements = []cdast.Statement{&cdast.PerformStmt{Target: fmt.Sprintf("P%d", i+1)}}
		}
		program.Paragraphs = append(program.Paragraphs, para)
	}
	return program
}

func TestAnalyze_TraceDepthCap(t *testing.T) {
	r := analyze(chainProgram(15))
	trace := r.Trace()

	if len(trace) != DefaultMaxTraceDepth+1 {
		t.Fatalf("Trace() length = %d, want %d", len(trace), DefaultMaxTraceDepth+1)
	}
	last := trace[len(trace)-1]
	if last.Depth != 10 || last.Paragraph != "P10" {
		t.Errorf("last entry = %+v, want depth 10 at P10", last)
	}

	seen := make(map[string]bool)
	for _, e := range trace {
		if seen[e.Paragraph] {
			t.Errorf("paragraph %s traced twice", e.Paragraph)
		}
		seen[e.Paragraph] = true
	}
}

func TestAnalyze_CustomTraceDepth(t *testing.T) {
	r := New(Options{Logger: cdlog.Discard(), MaxTraceDepth: 3}).Analyze(chainProgram(8))
	if got := len(r.Trace()); got != 4 {
		t.Errorf("Trace() length = %d, want 4", got)
	}
}

func TestAnalyze_ZeroParagraphs(t *testing.T) {
	program := &cdast.Program{
		Name:      "EMPTY",
		Variables: []*cdast.Variable{{Level: 1, Name: "X"}},
	}
	r := analyze(program)

	if len(r.Trace()) != 0 {
		t.Errorf("Trace() = %v, want empty", r.Trace())
	}
	if len(r.ParagraphNames()) != 0 {
		t.Errorf("ParagraphNames() = %v, want empty", r.ParagraphNames())
	}
	if len(r.DataFlow()) != 0 {
		t.Errorf("DataFlow() = %v, want empty", r.DataFlow())
	}
	if got := r.Summary().EntryPoint; got != UnknownEntryPoint {
		t.Errorf("EntryPoint = %q, want %q", got, UnknownEntryPoint)
	}
	if len(r.Variables()) != 1 {
		t.Errorf("Variables() = %d, want 1", len(r.Variables()))
	}
}

func TestAnalyze_NilProgram(t *testing.T) {
	r := analyze(nil)
	if len(r.Trace()) != 0 || len(r.Variables()) != 0 {
		t.Error("nil program should yield empty tables")
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	program := mustParse(t, dataHeader+`MAIN.
    PERFORM LOAD.
    PERFORM CALC.
    PERFORM SHOW.
LOAD.
    MOVE 1 TO X.
    MOVE 2 TO Y.
CALC.
    COMPUTE Z = X + Y.
    MULTIPLY X BY Y GIVING Z.
SHOW.
    DISPLAY Z.
    DISPLAY X.
`)
	a := New(Options{Logger: cdlog.Discard()})

	first := a.Analyze(program).Report()
	second := a.Analyze(program).Report()
	if diff := deep.Equal(first, second); diff != nil {
		t.Error(diff)
	}
}

func TestAnalyze_DataflowInvariant(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`MAIN.
    MOVE 1 TO X.
    PERFORM CALC.
CALC.
    ADD X TO Y.
    SUBTRACT Y FROM Z.
    DISPLAY Z.
OUT.
    DISPLAY X.
    MOVE Z TO MSG.
`))

	edges := r.DataFlow()
	if len(edges) == 0 {
		t.Fatal("expected dataflow edges")
	}
	for _, e := range edges {
		u, ok := r.Usage(e.Variable)
		if !ok {
			t.Errorf("edge %+v references undeclared variable", e)
			continue
		}
		if e.From == e.To {
			t.Errorf("edge %+v is a self-pair", e)
		}
		if !u.Writes.Has(e.From) || !u.Reads.Has(e.To) {
			t.Errorf("edge %+v not backed by usage sets", e)
		}
	}

	want := map[DataFlowEdge]bool{
		{From: "MAIN", To: "CALC", Variable: "X"}: true,
		{From: "MAIN", To: "OUT", Variable: "X"}:  true,
		{From: "CALC", To: "OUT", Variable: "Z"}:  true,
	}
	if len(edges) != len(want) {
		t.Errorf("DataFlow() = %v, want %d edges", edges, len(want))
	}
	for _, e := range edges {
		if !want[e] {
			t.Errorf("unexpected edge %+v", e)
		}
	}
}

func TestAnalyze_DuplicateVariableLaterWins(t *testing.T) {
	program := &cdast.Program{
		Name: "DUP",
		Variables: []*cdast.Variable{
			{Level: 1, Name: "A"},
			{Level: 5, Name: "B"},
			{Level: 77, Name: "A"},
		},
	}
	r := analyze(program)

	vars := r.Variables()
	if len(vars) != 2 {
		t.Fatalf("Variables() = %d, want 2", len(vars))
	}
	if vars[0].Definition.Name != "A" || vars[0].Definition.Level != 77 {
		t.Errorf("first record = %+v, want A level 77", vars[0].Definition)
	}
}

func TestResult_ViewsAndSummary(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`MAIN.
    PERFORM CALC.
    STOP RUN.
CALC.
    ADD X TO Y GIVING Z.
    DISPLAY MSG.
`))

	if diff := deep.Equal(r.ParagraphReads("CALC"), []string{"MSG", "X", "Y"}); diff != nil {
		t.Errorf("ParagraphReads: %v", diff)
	}
	if diff := deep.Equal(r.ParagraphWrites("CALC"), []string{"Z"}); diff != nil {
		t.Errorf("ParagraphWrites: %v", diff)
	}

	want := Summary{
		Program:         "SAMPLE",
		EntryPoint:      "MAIN",
		TotalStatements: 4,
		TotalProcedures: 2,
		TotalVariables:  4,
		OutputVariables: []string{"Z"},
	}
	if diff := deep.Equal(r.Summary(), want); diff != nil {
		t.Error(diff)
	}

	u, _ := r.Usage("MSG")
	if u.Purpose != DefaultPurpose {
		t.Errorf("Purpose = %q, want %q", u.Purpose, DefaultPurpose)
	}
}

func TestResult_EdgesByVariable(t *testing.T) {
	r := analyze(mustParse(t, dataHeader+`W1.
    MOVE 1 TO Y.
    MOVE 1 TO X.
W2.
    MOVE 2 TO X.
R1.
    DISPLAY X.
    DISPLAY Y.
`))

	groups := r.EdgesByVariable()
	if len(groups) != 2 {
		t.Fatalf("EdgesByVariable() = %v, want X and Y", groups)
	}
	if groups[0].Variable != "X" || groups[1].Variable != "Y" {
		t.Errorf("groups not sorted: %s, %s", groups[0].Variable, groups[1].Variable)
	}
	wantX := []DataFlowEdge{
		{From: "W1", To: "R1", Variable: "X"},
		{From: "W2", To: "R1", Variable: "X"},
	}
	if diff := deep.Equal(groups[0].Edges, wantX); diff != nil {
		t.Error(diff)
	}
}

func TestReport_Encodings(t *testing.T) {
	rep := analyze(mustParse(t, dataHeader+`MAIN.
    MOVE 5 TO X.
    PERFORM SHOW.
SHOW.
    DISPLAY X.
`)).Report()

	raw, err := rep.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"summary", "variables", "procedures", "trace", "dataflow"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON missing %q", key)
		}
	}

	y, err := rep.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	if !strings.Contains(string(y), "entry_point: MAIN") {
		t.Errorf("YAML() missing entry point:\n%s", y)
	}

	s, err := rep.Struct()
	if err != nil {
		t.Fatalf("Struct() error = %v", err)
	}
	trace := s.Fields["trace"].GetListValue().GetValues()
	if len(trace) != 2 {
		t.Errorf("trace entries = %d, want 2", len(trace))
	}

	show := rep.Procedures[1]
	if diff := deep.Equal(show.CalledBy, []string{"MAIN"}); diff != nil {
		t.Errorf("SHOW.called_by: %v", diff)
	}
	if diff := deep.Equal(show.Reads, []string{"X"}); diff != nil {
		t.Errorf("SHOW.reads: %v", diff)
	}
}

func TestNameSet(t *testing.T) {
	s := NewNameSet("B", "A", "B")
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if s.Add("A") {
		t.Error("Add() of existing name returned true")
	}
	if diff := deep.Equal(s.Values(), []string{"B", "A"}); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(s.Sorted(), []string{"A", "B"}); diff != nil {
		t.Error(diff)
	}
}
