// File: nodes.go
// Title: COBOL AST Node Definitions
// Description: Defines the program, data and procedure nodes of the COBOL
//              subset together with the closed Statement variant.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial AST node definitions

package ast

import (
	"fmt"
	"strings"
)

// Node represents the base interface for all AST nodes
type Node interface {
	// String returns a COBOL-like rendering of the node
	String() string

	// Position returns the source position of the node
	Position() Position
}

// Position represents a position in the source code
type Position struct {
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// String returns "line:column"
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Program is the root of the AST. Exactly one is produced per parse.
type Program struct {
	Name       string       // PROGRAM-ID
	Variables  []*Variable  // WORKING-STORAGE entries in declaration order
	Paragraphs []*Paragraph // Procedure paragraphs in source order
	Pos        Position
}

// Variable is a WORKING-STORAGE data item
type Variable struct {
	Level   int     // Level number, e.g. 1 for 01
	Name    string  // Data name
	Picture *string // Reconstructed PICTURE text, nil when absent
	Value   *string // VALUE literal normalized to text, nil when absent
	Pos     Position
}

// Paragraph is a named block of statements and the target of PERFORM
type Paragraph struct {
	Name       string
	Statements []Statement
	Pos        Position
}

// StatementKind tags the statement variants
type StatementKind string

const (
	KindMove     StatementKind = "MOVE"
	KindAdd      StatementKind = "ADD"
	KindSubtract StatementKind = "SUBTRACT"
	KindMultiply StatementKind = "MULTIPLY"
	KindCompute  StatementKind = "COMPUTE"
	KindPerform  StatementKind = "PERFORM"
	KindIf       StatementKind = "IF"
	KindDisplay  StatementKind = "DISPLAY"
	KindStop     StatementKind = "STOP"
)

// Statement is implemented by the nine statement node types only
type Statement interface {
	Node
	Kind() StatementKind
	stmtNode() // marker method
}

// OperandKind classifies an operand
type OperandKind int

const (
	OperandIdentifier OperandKind = iota
	OperandNumber
	OperandString
)

// String returns the name of the operand kind
func (k OperandKind) String() string {
	switch k {
	case OperandIdentifier:
		return "identifier"
	case OperandNumber:
		return "number"
	case OperandString:
		return "string"
	default:
		return "unknown"
	}
}

// Operand is an identifier or a literal. Text holds the identifier name or
// the literal normalized to a string (quotes stripped, numbers rendered in
// canonical form).
type Operand struct {
	Kind OperandKind
	Text string
}

// Ident returns an identifier operand
func Ident(name string) Operand {
	return Operand{Kind: OperandIdentifier, Text: name}
}

// IsIdentifier reports whether the operand names a data item
func (o Operand) IsIdentifier() bool {
	return o.Kind == OperandIdentifier
}

// String renders the operand as it would appear in source
func (o Operand) String() string {
	if o.Kind == OperandString {
		return `"` + o.Text + `"`
	}
	return o.Text
}

// MoveStmt is MOVE source TO target
type MoveStmt struct {
	Source Operand
	Target string
	Pos    Position
}

// AddStmt is ADD operand1 TO operand2 [GIVING target].
// Without GIVING, Target equals Operand2.
type AddStmt struct {
	Operand1 Operand
	Operand2 Operand
	Target   string
	Giving   bool
	Pos      Position
}

// SubtractStmt is SUBTRACT operand1 FROM operand2 [GIVING target].
// Without GIVING, Target equals Operand2.
type SubtractStmt struct {
	Operand1 Operand
	Operand2 Operand
	Target   string
	Giving   bool
	Pos      Position
}

// MultiplyStmt is MULTIPLY operand1 BY operand2 [GIVING target].
// Without GIVING, Target equals Operand2.
type MultiplyStmt struct {
	Operand1 Operand
	Operand2 Operand
	Target   string
	Giving   bool
	Pos      Position
}

// ComputeStmt is COMPUTE target = expression. The expression is not
// structured: Terms holds the matched tokens and Expression their
// space-joined text.
type ComputeStmt struct {
	Target     string
	Expression string
	Terms      []string
	Pos        Position
}

// PerformStmt is PERFORM target [THRU name | UNTIL condition]
type PerformStmt struct {
	Target string
	Thru   *string
	Until  *string
	Pos    Position
}

// IfStmt is IF condition [THEN] statements [ELSE statements] END-IF.
// Else is nil when no ELSE branch is present.
type IfStmt struct {
	Condition string
	Then      []Statement
	Else      []Statement
	Pos       Position
}

// DisplayStmt is DISPLAY item
type DisplayStmt struct {
	Item Operand
	Pos  Position
}

// StopStmt covers STOP RUN, EXIT and GOBACK
type StopStmt struct {
	Verb string
	Pos  Position
}

// Kind implementations

func (*MoveStmt) Kind() StatementKind     { return KindMove }
func (*AddStmt) Kind() StatementKind      { return KindAdd }
func (*SubtractStmt) Kind() StatementKind { return KindSubtract }
func (*MultiplyStmt) Kind() StatementKind { return KindMultiply }
func (*ComputeStmt) Kind() StatementKind  { return KindCompute }
func (*PerformStmt) Kind() StatementKind  { return KindPerform }
func (*IfStmt) Kind() StatementKind       { return KindIf }
func (*DisplayStmt) Kind() StatementKind  { return KindDisplay }
func (*StopStmt) Kind() StatementKind     { return KindStop }

func (*MoveStmt) stmtNode()     {}
func (*AddStmt) stmtNode()      {}
func (*SubtractStmt) stmtNode() {}
func (*MultiplyStmt) stmtNode() {}
func (*ComputeStmt) stmtNode()  {}
func (*PerformStmt) stmtNode()  {}
func (*IfStmt) stmtNode()       {}
func (*DisplayStmt) stmtNode()  {}
func (*StopStmt) stmtNode()     {}

// Position implementations

func (p *Program) Position() Position      { return p.Pos }
func (v *Variable) Position() Position     { return v.Pos }
func (p *Paragraph) Position() Position    { return p.Pos }
func (s *MoveStmt) Position() Position     { return s.Pos }
func (s *AddStmt) Position() Position      { return s.Pos }
func (s *SubtractStmt) Position() Position { return s.Pos }
func (s *MultiplyStmt) Position() Position { return s.Pos }
func (s *ComputeStmt) Position() Position  { return s.Pos }
func (s *PerformStmt) Position() Position  { return s.Pos }
func (s *IfStmt) Position() Position       { return s.Pos }
func (s *DisplayStmt) Position() Position  { return s.Pos }
func (s *StopStmt) Position() Position     { return s.Pos }

// String implementations

func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PROGRAM-ID. %s.", p.Name)
	for _, v := range p.Variables {
		b.WriteString("\n")
		b.WriteString(v.String())
	}
	for _, para := range p.Paragraphs {
		b.WriteString("\n")
		b.WriteString(para.String())
	}
	return b.String()
}

func (v *Variable) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d %s", v.Level, v.Name)
	if v.Picture != nil {
		b.WriteString(" PIC " + *v.Picture)
	}
	if v.Value != nil {
		b.WriteString(" VALUE " + *v.Value)
	}
	b.WriteString(".")
	return b.String()
}

func (p *Paragraph) String() string {
	var b strings.Builder
	b.WriteString(p.Name + ".")
	for _, s := range p.Statements {
		b.WriteString("\n    ")
		b.WriteString(s.String())
	}
	return b.String()
}

func (s *MoveStmt) String() string {
	return fmt.Sprintf("MOVE %s TO %s.", s.Source, s.Target)
}

func (s *AddStmt) String() string {
	return arithmeticString("ADD", "TO", s.Operand1, s.Operand2, s.Target, s.Giving)
}

func (s *SubtractStmt) String() string {
	return arithmeticString("SUBTRACT", "FROM", s.Operand1, s.Operand2, s.Target, s.Giving)
}

func (s *MultiplyStmt) String() string {
	return arithmeticString("MULTIPLY", "BY", s.Operand1, s.Operand2, s.Target, s.Giving)
}

func (s *ComputeStmt) String() string {
	return fmt.Sprintf("COMPUTE %s = %s.", s.Target, s.Expression)
}

func (s *PerformStmt) String() string {
	switch {
	case s.Thru != nil:
		return fmt.Sprintf("PERFORM %s THRU %s.", s.Target, *s.Thru)
	case s.Until != nil:
		return fmt.Sprintf("PERFORM %s UNTIL %s.", s.Target, *s.Until)
	default:
		return fmt.Sprintf("PERFORM %s.", s.Target)
	}
}

func (s *IfStmt) String() string {
	var b strings.Builder
	b.WriteString("IF " + s.Condition + " THEN")
	for _, st := range s.Then {
		b.WriteString(" " + st.String())
	}
	if s.Else != nil {
		b.WriteString(" ELSE")
		for _, st := range s.Else {
			b.WriteString(" " + st.String())
		}
	}
	b.WriteString(" END-IF.")
	return b.String()
}

func (s *DisplayStmt) String() string {
	return fmt.Sprintf("DISPLAY %s.", s.Item)
}

func (s *StopStmt) String() string {
	if s.Verb == "" {
		return "STOP RUN."
	}
	return s.Verb + "."
}

func arithmeticString(verb, prep string, op1, op2 Operand, target string, giving bool) string {
	if giving {
		return fmt.Sprintf("%s %s %s %s GIVING %s.", verb, op1, prep, op2, target)
	}
	return fmt.Sprintf("%s %s %s %s.", verb, op1, prep, op2)
}

// Paragraph returns the paragraph with the given name, or nil
func (p *Program) Paragraph(name string) *Paragraph {
	for _, para := range p.Paragraphs {
		if para.Name == name {
			return para
		}
	}
	return nil
}

// Variable returns the last variable declared with the given name, or nil
func (p *Program) Variable(name string) *Variable {
	for i := len(p.Variables) - 1; i >= 0; i-- {
		if p.Variables[i].Name == name {
			return p.Variables[i]
		}
	}
	return nil
}

// EntryPoint returns the first paragraph in source order, or nil
func (p *Program) EntryPoint() *Paragraph {
	if len(p.Paragraphs) == 0 {
		return nil
	}
	return p.Paragraphs[0]
}

// StatementCount returns the number of top-level statements over all
// paragraphs
func (p *Program) StatementCount() int {
	n := 0
	for _, para := range p.Paragraphs {
		n += len(para.Statements)
	}
	return n
}
