// File: ast_test.go
// Title: COBOL AST Unit Tests
// Description: Tests for traversal order, lookup helpers, rendering and the
//              key-ordered export encodings.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial test suite

package ast

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

func strPtr(s string) *string { return &s }

func sampleProgram() *Program {
	return &Program{
		Name: "PAYROLL",
		Variables: []*Variable{
			{Level: 1, Name: "COUNTER", Picture: strPtr("9(5)"), Value: strPtr("0")},
			{Level: 1, Name: "TOTAL", Picture: strPtr("9(7)V99")},
		},
		Paragraphs: []*Paragraph{
			{
				Name: "MAIN",
				Statements: []Statement{
					&PerformStmt{Target: "CALC", Until: strPtr("COUNTER > 10")},
					&IfStmt{
						Condition: "TOTAL > 100",
						Then:      []Statement{&DisplayStmt{Item: Operand{Kind: OperandString, Text: "BIG"}}},
						Else:      []Statement{&MoveStmt{Source: Operand{Kind: OperandNumber, Text: "0"}, Target: "TOTAL"}},
					},
					&StopStmt{Verb: "STOP RUN"},
				},
			},
			{
				Name: "CALC",
				Statements: []Statement{
					&AddStmt{Operand1: Operand{Kind: OperandNumber, Text: "1"}, Operand2: Ident("COUNTER"), Target: "COUNTER"},
					&ComputeStmt{Target: "TOTAL", Expression: "TOTAL + COUNTER", Terms: []string{"TOTAL", "+", "COUNTER"}},
				},
			},
		},
	}
}

func TestWalk_Order(t *testing.T) {
	var visited []string
	Inspect(sampleProgram(), func(n Node) bool {
		switch node := n.(type) {
		case *Program:
			visited = append(visited, "program")
		case *Variable:
			visited = append(visited, "var:"+node.Name)
		case *Paragraph:
			visited = append(visited, "para:"+node.Name)
		case Statement:
			visited = append(visited, string(node.Kind()))
		}
		return true
	})

	want := []string{
		"program", "var:COUNTER", "var:TOTAL",
		"para:MAIN", "PERFORM", "IF", "DISPLAY", "MOVE", "STOP",
		"para:CALC", "ADD", "COMPUTE",
	}
	if diff := deep.Equal(visited, want); diff != nil {
		t.Error(diff)
	}
}

func TestInspect_Prune(t *testing.T) {
	count := 0
	Inspect(sampleProgram(), func(n Node) bool {
		if n != nil {
			count++
		}
		_, isIf := n.(*IfStmt)
		return !isIf
	})
	// program, 2 vars, 2 paragraphs, 5 top-level statements
	if count != 10 {
		t.Errorf("Inspect() visited %d nodes, want 10", count)
	}
}

func TestStatements_Nested(t *testing.T) {
	p := sampleProgram()
	if got := CountStatements(p.Paragraphs[0].Statements); got != 5 {
		t.Errorf("CountStatements(MAIN) = %d, want 5", got)
	}
	if got := p.StatementCount(); got != 5 {
		t.Errorf("StatementCount() = %d, want 5", got)
	}
}

func TestProgram_Lookups(t *testing.T) {
	p := sampleProgram()

	if got := p.EntryPoint(); got == nil || got.Name != "MAIN" {
		t.Errorf("EntryPoint() = %v, want MAIN", got)
	}
	if p.Paragraph("CALC") == nil {
		t.Error("Paragraph(CALC) = nil")
	}
	if p.Paragraph("MISSING") != nil {
		t.Error("Paragraph(MISSING) should be nil")
	}
	if v := p.Variable("TOTAL"); v == nil || *v.Picture != "9(7)V99" {
		t.Errorf("Variable(TOTAL) = %v", v)
	}
	if (&Program{}).EntryPoint() != nil {
		t.Error("EntryPoint() of empty program should be nil")
	}
}

func TestStatement_String(t *testing.T) {
	tests := []struct {
		stmt Statement
		want string
	}{
		{&MoveStmt{Source: Operand{Kind: OperandString, Text: "HI"}, Target: "X"}, `MOVE "HI" TO X.`},
		{&AddStmt{Operand1: Ident("A"), Operand2: Ident("B"), Target: "C", Giving: true}, "ADD A TO B GIVING C."},
		{&SubtractStmt{Operand1: Ident("A"), Operand2: Ident("B"), Target: "B"}, "SUBTRACT A FROM B."},
		{&PerformStmt{Target: "P1", Thru: strPtr("P3")}, "PERFORM P1 THRU P3."},
		{&StopStmt{Verb: "GOBACK"}, "GOBACK."},
	}

	for _, tt := range tests {
		if got := tt.stmt.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestExport_JSONKeyOrder(t *testing.T) {
	out, err := Export(sampleProgram()).JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	text := string(out)

	order := []string{`"program_name"`, `"variables"`, `"procedures"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx <= last {
			t.Fatalf("key %s out of order in %s", key, text)
		}
		last = idx
	}

	add := strings.Index(text, `"operand1"`)
	op2 := strings.Index(text, `"operand2"`)
	if add < 0 || op2 < add {
		t.Errorf("operand1 should precede operand2: %s", text)
	}
	if !strings.Contains(text, `"value": null`) {
		t.Errorf("missing value should encode as null: %s", text)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if decoded["program_name"] != "PAYROLL" {
		t.Errorf("program_name = %v", decoded["program_name"])
	}
}

func TestExport_IfBranches(t *testing.T) {
	doc := Export(sampleProgram())
	ifStmt := doc.Procedures[0].Statements[1]

	if ifStmt.Type != "IF" {
		t.Fatalf("Type = %s, want IF", ifStmt.Type)
	}
	if diff := deep.Equal(ifStmt.Data.Keys(), []string{"condition", "then", "else"}); diff != nil {
		t.Error(diff)
	}
	elseBranch, _ := ifStmt.Data.Get("else")
	stmts, ok := elseBranch.([]DocumentStatement)
	if !ok || len(stmts) != 1 || stmts[0].Type != "MOVE" {
		t.Errorf("else = %#v", elseBranch)
	}

	perform := doc.Procedures[0].Statements[0]
	if diff := deep.Equal(perform.Data.Keys(), []string{"target", "until"}); diff != nil {
		t.Error(diff)
	}
}

func TestExport_YAML(t *testing.T) {
	out, err := Export(sampleProgram()).YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	text := string(out)

	if !strings.HasPrefix(text, "program_name: PAYROLL\n") {
		t.Errorf("YAML() should start with program_name, got %q", text)
	}
	target := strings.Index(text, "target: TOTAL")
	expr := strings.Index(text, "expression: TOTAL + COUNTER")
	if target < 0 || expr < target {
		t.Errorf("COMPUTE keys out of order:\n%s", text)
	}
}

func TestExport_Struct(t *testing.T) {
	s, err := Export(sampleProgram()).Struct()
	if err != nil {
		t.Fatalf("Struct() error = %v", err)
	}

	if got := s.Fields["program_name"].GetStringValue(); got != "PAYROLL" {
		t.Errorf("program_name = %q", got)
	}
	procs := s.Fields["procedures"].GetListValue().GetValues()
	if len(procs) != 2 {
		t.Fatalf("procedures = %d, want 2", len(procs))
	}
	name := procs[1].GetStructValue().Fields["name"].GetStringValue()
	if name != "CALC" {
		t.Errorf("procedures[1].name = %q, want CALC", name)
	}
}
