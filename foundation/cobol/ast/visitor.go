// File: visitor.go
// Title: COBOL AST Traversal
// Description: Depth-first traversal of COBOL AST nodes via a Visitor,
//              plus Inspect and collection helpers built on it.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial traversal implementation

package ast

// Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. Children are visited in
// source order: variables before paragraphs, THEN before ELSE.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, variable := range n.Variables {
			Walk(v, variable)
		}
		for _, para := range n.Paragraphs {
			Walk(v, para)
		}
	case *Paragraph:
		walkStatements(v, n.Statements)
	case *IfStmt:
		walkStatements(v, n.Then)
		walkStatements(v, n.Else)
	}

	v.Visit(nil)
}

func walkStatements(v Visitor, list []Statement) {
	for _, s := range list {
		Walk(v, s)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order: it starts by calling
// f(node); node must not be nil. If f returns true, Inspect invokes f
// recursively for each of the non-nil children of node, followed by a
// call of f(nil).
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Statements returns every statement of the given list, including the
// statements nested in IF branches, in depth-first source order
func Statements(list []Statement) []Statement {
	var out []Statement
	for _, s := range list {
		Inspect(s, func(n Node) bool {
			if st, ok := n.(Statement); ok {
				out = append(out, st)
			}
			return true
		})
	}
	return out
}

// CountStatements counts the statements of list including nested ones
func CountStatements(list []Statement) int {
	return len(Statements(list))
}
