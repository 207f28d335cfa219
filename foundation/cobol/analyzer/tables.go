// File: tables.go
// Title: Derived Analysis Tables
// Description: Insertion-ordered name sets and the record types produced
//              by the analysis passes.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial table types

package analyzer

import (
	"slices"

	cdast "github.com/msto63/cobdoc/foundation/cobol/ast"
)

// DefaultPurpose is the placeholder purpose of every variable
const DefaultPurpose = "Data storage"

// NameSet is a set of names that remembers insertion order
type NameSet struct {
	order []string
	index map[string]struct{}
}

// NewNameSet returns a set holding names
func NewNameSet(names ...string) *NameSet {
	s := &NameSet{index: make(map[string]struct{})}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was new
func (s *NameSet) Add(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

// Has reports whether name is in the set
func (s *NameSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of names
func (s *NameSet) Len() int {
	return len(s.order)
}

// Values returns the names in insertion order
func (s *NameSet) Values() []string {
	return slices.Clone(s.order)
}

// Sorted returns the names in lexical order
func (s *NameSet) Sorted() []string {
	out := slices.Clone(s.order)
	slices.Sort(out)
	return out
}

// VariableUsage records which paragraphs read and write a variable
type VariableUsage struct {
	Definition *cdast.Variable
	Reads      *NameSet
	Writes     *NameSet
	Purpose    string
}

// CallGraphEntry holds the PERFORM edges of one paragraph
type CallGraphEntry struct {
	Calls    *NameSet
	CalledBy *NameSet
}

// TraceEntry is one step of the execution trace
type TraceEntry struct {
	Depth     int    `json:"depth" yaml:"depth"`
	Paragraph string `json:"paragraph" yaml:"paragraph"`
}

// DataFlowEdge states that From writes Variable and To reads it
type DataFlowEdge struct {
	From     string `json:"from" yaml:"from"`
	To       string `json:"to" yaml:"to"`
	Variable string `json:"variable" yaml:"variable"`
}
