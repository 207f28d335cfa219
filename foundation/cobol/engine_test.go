// File: engine_test.go
// Title: COBOL Engine Tests
// Description: End-to-end tests of the lex -> parse -> analyze pipeline.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial test suite

package cobol

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-test/deep"

	"github.com/msto63/cobdoc/foundation/cobol/analyzer"
	"github.com/msto63/cobdoc/foundation/cobol/parser"
	cderror "github.com/msto63/cobdoc/foundation/core/error"
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
)

const inventorySource = `      * Inventory reorder check
       IDENTIFICATION DIVISION.
       PROGRAM-ID. INVENTORY.
       DATA DIVISION.
       WORKING-STORAGE SECTION.
       01 STOCK-LEVEL  PIC 9(5) VALUE 120.
       01 REORDER-MIN  PIC 9(5) VALUE 50.
       01 ORDER-QTY    PIC 9(5).
       PROCEDURE DIVISION.
       MAIN-LOGIC.
           PERFORM CHECK-STOCK.
           PERFORM REPORT-OUT.
           STOP RUN.
       CHECK-STOCK.
           IF STOCK-LEVEL < REORDER-MIN THEN
               COMPUTE ORDER-QTY = REORDER-MIN * 2 - STOCK-LEVEL.
           END-IF.
       REPORT-OUT.
           DISPLAY ORDER-QTY.
`

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	opts.Logger = cdlog.Discard()
	engine, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestEngine_Analyze(t *testing.T) {
	engine := newTestEngine(t, Options{})

	result, err := engine.Analyze(context.Background(), inventorySource)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.Program.Name != "INVENTORY" {
		t.Errorf("Program.Name = %q, want INVENTORY", result.Program.Name)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", result.Diagnostics)
	}

	wantTrace := []analyzer.TraceEntry{
		{Depth: 0, Paragraph: "MAIN-LOGIC"},
		{Depth: 1, Paragraph: "CHECK-STOCK"},
		{Depth: 1, Paragraph: "REPORT-OUT"},
	}
	if diff := deep.Equal(result.Analysis.Trace(), wantTrace); diff != nil {
		t.Error(diff)
	}

	wantEdges := []analyzer.DataFlowEdge{
		{From: "CHECK-STOCK", To: "REPORT-OUT", Variable: "ORDER-QTY"},
	}
	if diff := deep.Equal(result.Analysis.DataFlow(), wantEdges); diff != nil {
		t.Error(diff)
	}

	stock, _ := result.Analysis.Usage("STOCK-LEVEL")
	if diff := deep.Equal(stock.Reads.Values(), []string{"CHECK-STOCK"}); diff != nil {
		t.Error(diff)
	}
}

func TestEngine_IllegalCharacterStillParses(t *testing.T) {
	engine := newTestEngine(t, Options{})
	source := strings.Replace(inventorySource, "DISPLAY ORDER-QTY.", "DISPLAY # ORDER-QTY.", 1)

	result, err := engine.Analyze(context.Background(), source)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want exactly one", result.Diagnostics)
	}
	if result.Diagnostics[0].Char != "#" || result.Diagnostics[0].Line != 19 {
		t.Errorf("Diagnostic = %+v, want '#' at line 19", result.Diagnostics[0])
	}
	if len(result.Analysis.DataFlow()) != 1 {
		t.Errorf("DataFlow() = %v, parse should be unaffected", result.Analysis.DataFlow())
	}
}

func TestEngine_SyntaxErrorVersusDegenerateProgram(t *testing.T) {
	engine := newTestEngine(t, Options{})

	result, err := engine.Analyze(context.Background(), strings.Replace(inventorySource, "STOP RUN.", "STOP.", 1))
	if err == nil {
		t.Fatal("Analyze() expected syntax error")
	}
	if result != nil {
		t.Error("Analyze() returned a result for a failed parse")
	}
	if !cderror.HasCode(err, cderror.CodeSyntax) {
		t.Errorf("code = %s, want SYNTAX_ERROR", cderror.GetCode(err))
	}

	degenerate := "IDENTIFICATION DIVISION.\nPROGRAM-ID. NOOP.\nDATA DIVISION.\nPROCEDURE DIVISION.\nONLY.\n"
	result, err = engine.Analyze(context.Background(), degenerate)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Analysis.DataFlow()) != 0 || len(result.Analysis.Variables()) != 0 {
		t.Error("degenerate program should have empty tables")
	}
	if len(result.Analysis.Trace()) != 1 {
		t.Errorf("Trace() = %v, want the entry paragraph only", result.Analysis.Trace())
	}
}

func TestEngine_InputValidation(t *testing.T) {
	engine := newTestEngine(t, Options{MaxInputLength: 64})

	tests := []struct {
		name   string
		source string
		want   cderror.Code
	}{
		{"empty", "", cderror.CodeInvalidInput},
		{"blank", "  \n\t ", cderror.CodeInvalidInput},
		{"too large", inventorySource, cderror.CodeInputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Analyze(context.Background(), tt.source)
			if !cderror.HasCode(err, tt.want) {
				t.Errorf("Analyze() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	engine := newTestEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Analyze(ctx, inventorySource); !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestEngine_Tokenize(t *testing.T) {
	engine := newTestEngine(t, Options{})

	tokens, diags := engine.Tokenize("MOVE 1 TO X. @")
	if len(tokens) != 6 || tokens[len(tokens)-1].Type != parser.TokenEOF {
		t.Errorf("Tokenize() = %v", tokens)
	}
	if len(diags) != 1 {
		t.Errorf("diagnostics = %v, want 1", diags)
	}
}

func TestEngine_Export(t *testing.T) {
	engine := newTestEngine(t, Options{})

	doc, err := engine.Export(inventorySource)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if doc.ProgramName != "INVENTORY" || len(doc.Procedures) != 3 {
		t.Errorf("Export() = %+v", doc)
	}
	if got := *doc.Variables[0].Picture; got != "9(5)" {
		t.Errorf("picture = %q, want 9(5)", got)
	}
}

func TestEngine_NestedCalls(t *testing.T) {
	source := "IDENTIFICATION DIVISION.\nPROGRAM-ID. N.\nDATA DIVISION.\nWORKING-STORAGE SECTION.\n01 X PIC 9.\n" +
		"PROCEDURE DIVISION.\nMAIN.\n IF X > 0 THEN PERFORM SUB. END-IF.\nSUB.\n EXIT.\n"

	plain, err := newTestEngine(t, Options{}).Analyze(context.Background(), source)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	nested, err := newTestEngine(t, Options{NestedCalls: true}).Analyze(context.Background(), source)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(plain.Analysis.Trace()) != 1 || len(nested.Analysis.Trace()) != 2 {
		t.Errorf("trace lengths = %d/%d, want 1/2", len(plain.Analysis.Trace()), len(nested.Analysis.Trace()))
	}
}
