// File: parser_test.go
// Title: COBOL Parser Unit Tests
// Description: Tests for AST construction over the full grammar, syntax
//              error reporting and recovery from lexical errors.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial parser test suite

package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-test/deep"

	cdast "github.com/msto63/cobdoc/foundation/cobol/ast"
	cderror "github.com/msto63/cobdoc/foundation/core/error"
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
)

const payrollSource = `       IDENTIFICATION DIVISION.
       PROGRAM-ID. PAYROLL.
       DATA DIVISION.
       WORKING-STORAGE SECTION.
       01 WS-COUNT PIC 9(5) VALUE 0.
       01 WS-RATE VALUE 1.50 PIC 9V99.
       01 WS-NAME PIC X(10) VALUE "ACME".
       01 WS-FLAG.
       PROCEDURE DIVISION.
       MAIN-PARA.
           PERFORM CALC-PARA UNTIL WS-COUNT > 10.
           IF WS-COUNT >= 5 THEN
               DISPLAY "DONE".
           ELSE
               MOVE 0 TO WS-COUNT.
           END-IF.
           STOP RUN.
       CALC-PARA.
           ADD 1 TO WS-COUNT.
           COMPUTE WS-RATE = WS-RATE * 2 + ( WS-COUNT / 3 ).
           MULTIPLY WS-RATE BY 2 GIVING WS-TOTAL.
           SUBTRACT 1 FROM WS-COUNT
           GOBACK.
`

const header = `IDENTIFICATION DIVISION.
PROGRAM-ID. TEST1.
DATA DIVISION.
WORKING-STORAGE SECTION.
01 X PIC 9(3).
PROCEDURE DIVISION.
`

func strPtr(s string) *string { return &s }

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(Options{Logger: cdlog.Discard()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func num(text string) cdast.Operand {
	return cdast.Operand{Kind: cdast.OperandNumber, Text: text}
}

func str(text string) cdast.Operand {
	return cdast.Operand{Kind: cdast.OperandString, Text: text}
}

// stripPositions zeroes every node position so trees can be compared
// structurally
func stripPositions(program *cdast.Program) {
	cdast.Inspect(program, func(n cdast.Node) bool {
		switch node := n.(type) {
		case *cdast.Program:
			node.Pos = cdast.Position{}
		case *cdast.Variable:
			node.Pos = cdast.Position{}
		case *cdast.Paragraph:
			node.Pos = cdast.Position{}
		case *cdast.MoveStmt:
			node.Pos = cdast.Position{}
		case *cdast.AddStmt:
			node.Pos = cdast.Position{}
		case *cdast.SubtractStmt:
			node.Pos = cdast.Position{}
		case *cdast.MultiplyStmt:
			node.Pos = cdast.Position{}
		case *cdast.ComputeStmt:
			node.Pos = cdast.Position{}
		case *cdast.PerformStmt:
			node.Pos = cdast.Position{}
		case *cdast.IfStmt:
			node.Pos = cdast.Position{}
		case *cdast.DisplayStmt:
			node.Pos = cdast.Position{}
		case *cdast.StopStmt:
			node.Pos = cdast.Position{}
		}
		return true
	})
}

func TestParser_FullProgram(t *testing.T) {
	program, err := newTestParser(t).Parse(payrollSource)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	stripPositions(program)

	want := &cdast.Program{
		Name: "PAYROLL",
		Variables: []*cdast.Variable{
			{Level: 1, Name: "WS-COUNT", Picture: strPtr("9(5)"), Value: strPtr("0")},
			{Level: 1, Name: "WS-RATE", Picture: strPtr("9V99"), Value: strPtr("1.5")},
			{Level: 1, Name: "WS-NAME", Picture: strPtr("X(10)"), Value: strPtr("ACME")},
			{Level: 1, Name: "WS-FLAG"},
		},
		Paragraphs: []*cdast.Paragraph{
			{
				Name: "MAIN-PARA",
				Statements: []cdast.Statement{
					&cdast.PerformStmt{Target: "CALC-PARA", Until: strPtr("WS-COUNT > 10")},
					&cdast.IfStmt{
						Condition: "WS-COUNT >= 5",
						Then:      []cdast.Statement{&cdast.DisplayStmt{Item: str("DONE")}},
						Else:      []cdast.Statement{&cdast.MoveStmt{Source: num("0"), Target: "WS-COUNT"}},
					},
					&cdast.StopStmt{Verb: "STOP RUN"},
				},
			},
			{
				Name: "CALC-PARA",
				Statements: []cdast.Statement{
					&cdast.AddStmt{Operand1: num("1"), Operand2: cdast.Ident("WS-COUNT"), Target: "WS-COUNT"},
					&cdast.ComputeStmt{
						Target:     "WS-RATE",
						Expression: "WS-RATE * 2 + ( WS-COUNT / 3 )",
						Terms:      []string{"WS-RATE", "*", "2", "+", "(", "WS-COUNT", "/", "3", ")"},
					},
					&cdast.MultiplyStmt{Operand1: cdast.Ident("WS-RATE"), Operand2: num("2"), Target: "WS-TOTAL", Giving: true},
					&cdast.SubtractStmt{Operand1: num("1"), Operand2: cdast.Ident("WS-COUNT"), Target: "WS-COUNT"},
					&cdast.StopStmt{Verb: "GOBACK"},
				},
			},
		},
	}

	if diff := deep.Equal(program, want); diff != nil {
		t.Error(diff)
	}
}

func TestParser_Positions(t *testing.T) {
	program, err := newTestParser(t).Parse(payrollSource)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := program.Variables[2].Pos.Line; got != 7 {
		t.Errorf("WS-NAME line = %d, want 7", got)
	}
	calc := program.Paragraphs[1]
	if calc.Pos.Line != 18 || calc.Pos.Column != 8 {
		t.Errorf("CALC-PARA position = %v, want 18:8", calc.Pos)
	}
	ifStmt := program.Paragraphs[0].Statements[1].(*cdast.IfStmt)
	if got := ifStmt.Else[0].Position().Line; got != 15 {
		t.Errorf("MOVE in ELSE line = %d, want 15", got)
	}
}

func TestParser_Statements(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []cdast.Statement
	}{
		{
			name: "PERFORM UNTIL",
			body: "LOOP-PARA.\n PERFORM LOOP UNTIL X > 10.\n",
			want: []cdast.Statement{&cdast.PerformStmt{Target: "LOOP", Until: strPtr("X > 10")}},
		},
		{
			name: "PERFORM THRU",
			body: "P1.\n PERFORM P2 THRU P3.\n",
			want: []cdast.Statement{&cdast.PerformStmt{Target: "P2", Thru: strPtr("P3")}},
		},
		{
			name: "Bare PERFORM",
			body: "P1.\n PERFORM P2.\n",
			want: []cdast.Statement{&cdast.PerformStmt{Target: "P2"}},
		},
		{
			name: "MOVE variants",
			body: "P1.\n MOVE Y TO X.\n MOVE 'ABC' TO X.\n MOVE 2.50 TO X.\n",
			want: []cdast.Statement{
				&cdast.MoveStmt{Source: cdast.Ident("Y"), Target: "X"},
				&cdast.MoveStmt{Source: str("ABC"), Target: "X"},
				&cdast.MoveStmt{Source: num("2.5"), Target: "X"},
			},
		},
		{
			name: "ADD GIVING",
			body: "P1.\n ADD A TO B GIVING C.\n",
			want: []cdast.Statement{
				&cdast.AddStmt{Operand1: cdast.Ident("A"), Operand2: cdast.Ident("B"), Target: "C", Giving: true},
			},
		},
		{
			name: "MULTIPLY without GIVING targets operand2",
			body: "P1.\n MULTIPLY 3 BY X.\n",
			want: []cdast.Statement{
				&cdast.MultiplyStmt{Operand1: num("3"), Operand2: cdast.Ident("X"), Target: "X"},
			},
		},
		{
			name: "SUBTRACT GIVING without period",
			body: "P1.\n SUBTRACT A FROM B GIVING C\n DISPLAY C.\n",
			want: []cdast.Statement{
				&cdast.SubtractStmt{Operand1: cdast.Ident("A"), Operand2: cdast.Ident("B"), Target: "C", Giving: true},
				&cdast.DisplayStmt{Item: cdast.Ident("C")},
			},
		},
		{
			name: "COMPUTE without period",
			body: "P1.\n COMPUTE X = 1 + 2\n DISPLAY X.\n",
			want: []cdast.Statement{
				&cdast.ComputeStmt{Target: "X", Expression: "1 + 2", Terms: []string{"1", "+", "2"}},
				&cdast.DisplayStmt{Item: cdast.Ident("X")},
			},
		},
		{
			name: "COMPUTE accepts unbalanced parentheses",
			body: "P1.\n COMPUTE X = ( A + B.\n",
			want: []cdast.Statement{
				&cdast.ComputeStmt{Target: "X", Expression: "( A + B", Terms: []string{"(", "A", "+", "B"}},
			},
		},
		{
			name: "IF without THEN and ELSE",
			body: "P1.\n IF X = Y\n DISPLAY X.\n END-IF.\n",
			want: []cdast.Statement{
				&cdast.IfStmt{Condition: "X = Y", Then: []cdast.Statement{&cdast.DisplayStmt{Item: cdast.Ident("X")}}},
			},
		},
		{
			name: "Nested IF with empty ELSE",
			body: "P1.\n IF X < 1 THEN\n IF X <= 0 THEN EXIT. END-IF.\n ELSE\n END-IF.\n",
			want: []cdast.Statement{
				&cdast.IfStmt{
					Condition: "X < 1",
					Then: []cdast.Statement{
						&cdast.IfStmt{Condition: "X <= 0", Then: []cdast.Statement{&cdast.StopStmt{Verb: "EXIT"}}},
					},
					Else: []cdast.Statement{},
				},
			},
		},
		{
			name: "Empty paragraph",
			body: "P1.\nP2.\n DISPLAY 42.\n",
			want: []cdast.Statement{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := newTestParser(t).Parse(header + tt.body)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			stripPositions(program)
			if diff := deep.Equal(program.Paragraphs[0].Statements, tt.want); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestParser_ParagraphOrder(t *testing.T) {
	program, err := newTestParser(t).Parse(header + "C.\n EXIT.\nA.\n EXIT.\nB.\n EXIT.\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var names []string
	for _, para := range program.Paragraphs {
		names = append(names, para.Name)
	}
	if diff := deep.Equal(names, []string{"C", "A", "B"}); diff != nil {
		t.Error(diff)
	}
}

func TestParser_PictureRoundTrip(t *testing.T) {
	tests := []struct {
		clause string
		want   string
	}{
		{"PIC 9(5)", "9(5)"},
		{"PIC 9(05)", "9(05)"},
		{"PICTURE X(10)", "X(10)"},
		{"PIC S9(5)V99", "S9(5)V99"},
		{"PIC 9(3)V9(2)", "9(3)V9(2)"},
		{"PIC XXX", "XXX"},
		{"PIC 999", "999"},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			source := "IDENTIFICATION DIVISION.\nPROGRAM-ID. P.\nDATA DIVISION.\nWORKING-STORAGE SECTION.\n" +
				"01 V " + tt.clause + ".\nPROCEDURE DIVISION.\nMAIN.\n STOP RUN.\n"
			program, err := newTestParser(t).Parse(source)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := *program.Variables[0].Picture; got != tt.want {
				t.Errorf("Picture = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParser_DataDivisionVariants(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantCount int
	}{
		{"No working storage", "DATA DIVISION.\n", 0},
		{"Empty working storage", "DATA DIVISION.\nWORKING-STORAGE SECTION.\n", 0},
		{"Value only", "DATA DIVISION.\nWORKING-STORAGE SECTION.\n05 FLAG VALUE 'Y'.\n77 N VALUE ZERO.\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "IDENTIFICATION DIVISION.\nPROGRAM-ID. P.\n" + tt.data + "PROCEDURE DIVISION.\nMAIN.\n EXIT.\n"
			program, err := newTestParser(t).Parse(source)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(program.Variables) != tt.wantCount {
				t.Errorf("Variables = %d, want %d", len(program.Variables), tt.wantCount)
			}
		})
	}
}

func TestParser_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantCode cderror.Code
		wantMsg  string
	}{
		{
			name:     "THRU combined with UNTIL",
			source:   header + "P1.\n PERFORM A THRU B UNTIL X > 10.\n",
			wantCode: cderror.CodeSyntax,
			wantMsg:  "syntax error at 'UNTIL' (line 8)",
		},
		{
			name:     "Literal target without GIVING",
			source:   header + "P1.\n ADD 1 TO 2.\n",
			wantCode: cderror.CodeSyntax,
			wantMsg:  "syntax error at '2' (line 8)",
		},
		{
			name:     "Missing period after MOVE",
			source:   header + "P1.\n MOVE 1 TO X\n DISPLAY X.\n",
			wantCode: cderror.CodeSyntax,
			wantMsg:  "syntax error at 'DISPLAY' (line 9)",
		},
		{
			name:     "No paragraphs",
			source:   header,
			wantCode: cderror.CodeUnexpectedEOF,
			wantMsg:  "syntax error at end of input",
		},
		{
			name:     "Truncated IF",
			source:   header + "P1.\n IF X > 1 THEN DISPLAY X.\n",
			wantCode: cderror.CodeUnexpectedEOF,
			wantMsg:  "syntax error at end of input",
		},
		{
			name:     "Trailing tokens",
			source:   header + "P1.\n EXIT.\n TO\n",
			wantCode: cderror.CodeSyntax,
			wantMsg:  "syntax error at 'TO' (line 9)",
		},
		{
			name:     "Duplicate picture clause",
			source:   strings.Replace(header, "PIC 9(3)", "PIC 9(3) PIC X", 1) + "P1.\n EXIT.\n",
			wantCode: cderror.CodeSyntax,
			wantMsg:  "syntax error at 'PIC' (line 5)",
		},
		{
			name:     "Decimal level number",
			source:   strings.Replace(header, "01 X", "1.5 X", 1) + "P1.\n EXIT.\n",
			wantCode: cderror.CodeSyntax,
			wantMsg:  "syntax error at '1.5' (line 5)",
		},
		{
			name:     "Condition with literal on the left",
			source:   header + "P1.\n IF 1 > X THEN EXIT. END-IF.\n",
			wantCode: cderror.CodeSyntax,
			wantMsg:  "syntax error at '1' (line 8)",
		},
		{
			name:     "Missing identification division",
			source:   "PROGRAM-ID. X.\n",
			wantCode: cderror.CodeSyntax,
			wantMsg:  "syntax error at 'PROGRAM-ID' (line 1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := newTestParser(t).Parse(tt.source)
			if err == nil {
				t.Fatalf("Parse() expected error, got program %v", program)
			}
			if program != nil {
				t.Error("Parse() returned a partial program")
			}
			if !cderror.HasCode(err, tt.wantCode) {
				t.Errorf("error code = %s, want %s", cderror.GetCode(err), tt.wantCode)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParser_SyntaxErrorDetails(t *testing.T) {
	_, err := newTestParser(t).Parse(header + "P1.\n MOVE 1 TO 2.\n")

	var cdErr *cderror.Error
	if !errors.As(err, &cdErr) {
		t.Fatalf("error %T is not *cderror.Error", err)
	}
	if line, _ := cdErr.Detail("line"); line != 8 {
		t.Errorf("line detail = %v, want 8", line)
	}
	if kind, _ := cdErr.Detail("kind"); kind != "NUMBER" {
		t.Errorf("kind detail = %v, want NUMBER", kind)
	}
	if cdErr.Operation() != "parse" {
		t.Errorf("Operation() = %q, want parse", cdErr.Operation())
	}
}

func TestParser_IllegalCharacterRecovery(t *testing.T) {
	p := newTestParser(t)
	program, err := p.Parse(header + "MAIN.\n MOVE 5 # TO X.\n DISPLAY X.\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(program.Paragraphs[0].Statements) != 2 {
		t.Errorf("Statements = %d, want 2", len(program.Paragraphs[0].Statements))
	}
	diags := p.Diagnostics()
	if len(diags) != 1 || diags[0].Char != "#" || diags[0].Line != 8 {
		t.Errorf("Diagnostics() = %v, want one '#' at line 8", diags)
	}
}

func TestParser_CommentLines(t *testing.T) {
	source := header + "* leading comment\nMAIN.\n      * indented comment\n COMPUTE X = X * 2.\n"
	program, err := newTestParser(t).Parse(source)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	compute := program.Paragraphs[0].Statements[0].(*cdast.ComputeStmt)
	if compute.Expression != "X * 2" {
		t.Errorf("Expression = %q, want %q", compute.Expression, "X * 2")
	}
}

func TestParser_InputTooLarge(t *testing.T) {
	p, err := New(Options{Logger: cdlog.Discard(), MaxInputLength: 16})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Parse(header)
	if !cderror.HasCode(err, cderror.CodeInputTooLarge) {
		t.Errorf("Parse() error = %v, want INPUT_TOO_LARGE", err)
	}
}

func TestParser_Reuse(t *testing.T) {
	p := newTestParser(t)

	if _, err := p.Parse(header); err == nil {
		t.Fatal("first Parse() should fail")
	}
	program, err := p.Parse(header + "MAIN.\n EXIT.\n")
	if err != nil {
		t.Fatalf("second Parse() error = %v", err)
	}
	if program.Name != "TEST1" {
		t.Errorf("Name = %q, want TEST1", program.Name)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	if _, err := New(Options{MaxInputLength: -1}); err == nil {
		t.Error("New() with negative MaxInputLength should fail")
	}
}
