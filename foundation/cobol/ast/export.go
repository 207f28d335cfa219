// File: export.go
// Title: COBOL AST Export
// Description: Converts a Program into a tree-structured, key-ordered
//              document (program_name, variables, procedures) and encodes it
//              as JSON, YAML or a protobuf Struct for external renderers.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial export implementation

package ast

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// Document is the exported form of a Program
type Document struct {
	ProgramName string             `json:"program_name" yaml:"program_name"`
	Variables   []DocumentVariable `json:"variables" yaml:"variables"`
	Procedures  []DocumentProc     `json:"procedures" yaml:"procedures"`
}

// DocumentVariable is an exported data item. Absent picture or value
// encode as null.
type DocumentVariable struct {
	Level   int     `json:"level" yaml:"level"`
	Name    string  `json:"name" yaml:"name"`
	Picture *string `json:"picture" yaml:"picture"`
	Value   *string `json:"value" yaml:"value"`
}

// DocumentProc is an exported paragraph
type DocumentProc struct {
	Name       string              `json:"name" yaml:"name"`
	Statements []DocumentStatement `json:"statements" yaml:"statements"`
}

// DocumentStatement is an exported statement: its kind and its fields
type DocumentStatement struct {
	Type string `json:"type" yaml:"type"`
	Data Data   `json:"data" yaml:"data"`
}

// KeyValue is one entry of Data
type KeyValue struct {
	Key   string
	Value interface{}
}

// Data is a mapping that keeps insertion order when encoded
type Data []KeyValue

// Get returns the value stored under key
func (d Data) Get(key string) (interface{}, bool) {
	for _, kv := range d {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order
func (d Data) Keys() []string {
	keys := make([]string, len(d))
	for i, kv := range d {
		keys[i] = kv.Key
	}
	return keys
}

// MarshalJSON encodes the entries as a JSON object in insertion order
func (d Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", kv.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the entries as a YAML mapping in insertion order
func (d Data) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, kv := range d {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv.Key}
		valNode := &yaml.Node{}
		if err := valNode.Encode(kv.Value); err != nil {
			return nil, fmt.Errorf("encode %q: %w", kv.Key, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// Export converts a Program into its exported document form
func Export(p *Program) *Document {
	doc := &Document{
		ProgramName: p.Name,
		Variables:   make([]DocumentVariable, 0, len(p.Variables)),
		Procedures:  make([]DocumentProc, 0, len(p.Paragraphs)),
	}

	for _, v := range p.Variables {
		doc.Variables = append(doc.Variables, DocumentVariable{
			Level:   v.Level,
			Name:    v.Name,
			Picture: v.Picture,
			Value:   v.Value,
		})
	}

	for _, para := range p.Paragraphs {
		doc.Procedures = append(doc.Procedures, DocumentProc{
			Name:       para.Name,
			Statements: exportStatements(para.Statements),
		})
	}

	return doc
}

func exportStatements(list []Statement) []DocumentStatement {
	out := make([]DocumentStatement, 0, len(list))
	for _, s := range list {
		out = append(out, ExportStatement(s))
	}
	return out
}

// ExportStatement converts a single statement
func ExportStatement(s Statement) DocumentStatement {
	var data Data

	switch st := s.(type) {
	case *MoveStmt:
		data = Data{{"source", st.Source.Text}, {"target", st.Target}}
	case *AddStmt:
		data = Data{{"operand1", st.Operand1.Text}, {"operand2", st.Operand2.Text}, {"target", st.Target}}
	case *SubtractStmt:
		data = Data{{"operand1", st.Operand1.Text}, {"operand2", st.Operand2.Text}, {"target", st.Target}}
	case *MultiplyStmt:
		data = Data{{"operand1", st.Operand1.Text}, {"operand2", st.Operand2.Text}, {"target", st.Target}}
	case *ComputeStmt:
		data = Data{{"target", st.Target}, {"expression", st.Expression}}
	case *PerformStmt:
		data = Data{{"target", st.Target}}
		if st.Thru != nil {
			data = append(data, KeyValue{"thru", *st.Thru})
		}
		if st.Until != nil {
			data = append(data, KeyValue{"until", *st.Until})
		}
	case *IfStmt:
		data = Data{{"condition", st.Condition}, {"then", exportStatements(st.Then)}}
		if st.Else != nil {
			data = append(data, KeyValue{"else", exportStatements(st.Else)})
		}
	case *DisplayStmt:
		data = Data{{"item", st.Item.Text}}
	case *StopStmt:
		data = Data{{"verb", st.Verb}}
	}

	if data == nil {
		data = Data{}
	}
	return DocumentStatement{Type: string(s.Kind()), Data: data}
}

// JSON encodes the document with two-space indentation
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML encodes the document as YAML
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Struct converts the document into a protobuf Struct. Key order is not
// preserved by Struct.
func (d *Document) Struct() (*structpb.Struct, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
