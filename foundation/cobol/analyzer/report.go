// File: report.go
// Title: Analysis Report
// Description: Flattens a Result into a serializable report with the
//              variables, procedures, execution trace and dataflow edges
//              required by documentation renderers.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial report

package analyzer

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// VariableReport describes one variable
type VariableReport struct {
	Level   int      `json:"level" yaml:"level"`
	Name    string   `json:"name" yaml:"name"`
	Picture *string  `json:"picture" yaml:"picture"`
	Value   *string  `json:"value" yaml:"value"`
	Purpose string   `json:"purpose" yaml:"purpose"`
	Reads   []string `json:"reads" yaml:"reads"`
	Writes  []string `json:"writes" yaml:"writes"`
}

// ProcedureReport describes one paragraph
type ProcedureReport struct {
	Name           string   `json:"name" yaml:"name"`
	StatementCount int      `json:"statement_count" yaml:"statement_count"`
	Calls          []string `json:"calls" yaml:"calls"`
	CalledBy       []string `json:"called_by" yaml:"called_by"`
	Reads          []string `json:"reads" yaml:"reads"`
	Writes         []string `json:"writes" yaml:"writes"`
}

// Report is the serializable form of a Result
type Report struct {
	Summary    Summary           `json:"summary" yaml:"summary"`
	Variables  []VariableReport  `json:"variables" yaml:"variables"`
	Procedures []ProcedureReport `json:"procedures" yaml:"procedures"`
	Trace      []TraceEntry      `json:"trace" yaml:"trace"`
	DataFlow   []VariableFlow    `json:"dataflow" yaml:"dataflow"`
}

// Report flattens the result. Name lists are sorted.
func (r *Result) Report() *Report {
	rep := &Report{
		Summary:    r.Summary(),
		Variables:  make([]VariableReport, 0, len(r.variableOrder)),
		Procedures: make([]ProcedureReport, 0, len(r.paragraphOrder)),
		Trace:      r.Trace(),
		DataFlow:   r.EdgesByVariable(),
	}
	if rep.Trace == nil {
		rep.Trace = []TraceEntry{}
	}

	for _, u := range r.Variables() {
		rep.Variables = append(rep.Variables, VariableReport{
			Level:   u.Definition.Level,
			Name:    u.Definition.Name,
			Picture: u.Definition.Picture,
			Value:   u.Definition.Value,
			Purpose: u.Purpose,
			Reads:   u.Reads.Sorted(),
			Writes:  u.Writes.Sorted(),
		})
	}

	for _, para := range r.program.Paragraphs {
		entry, ok := r.callGraph[para.Name]
		if !ok {
			continue
		}
		rep.Procedures = append(rep.Procedures, ProcedureReport{
			Name:           para.Name,
			StatementCount: len(para.Statements),
			Calls:          entry.Calls.Sorted(),
			CalledBy:       entry.CalledBy.Sorted(),
			Reads:          nonNil(r.ParagraphReads(para.Name)),
			Writes:         nonNil(r.ParagraphWrites(para.Name)),
		})
	}

	return rep
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// JSON encodes the report with two-space indentation
func (rep *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}

// YAML encodes the report as YAML
func (rep *Report) YAML() ([]byte, error) {
	return yaml.Marshal(rep)
}

// Struct converts the report into a protobuf Struct
func (rep *Report) Struct() (*structpb.Struct, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
