// File: engine.go
// Title: COBOL Analysis Engine
// Description: Integrates lexer, parser and static analyzer into a single
//              lex -> parse -> analyze pipeline with input validation and
//              timing.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial engine implementation

package cobol

import (
	"context"
	"strings"
	"time"

	"github.com/msto63/cobdoc/foundation/cobol/analyzer"
	cdast "github.com/msto63/cobdoc/foundation/cobol/ast"
	"github.com/msto63/cobdoc/foundation/cobol/parser"
	cderror "github.com/msto63/cobdoc/foundation/core/error"
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
)

// Options configures the engine
type Options struct {
	Logger         *cdlog.Logger
	MaxInputLength int  // zero means parser.DefaultMaxInputLength
	NestedCalls    bool // see analyzer.Options
	MaxTraceDepth  int  // zero means analyzer.DefaultMaxTraceDepth
}

// Engine runs the analysis pipeline. It is safe for concurrent use; every
// call gets its own lexer and parser.
type Engine struct {
	options  Options
	logger   *cdlog.Logger
	analyzer *analyzer.Analyzer
}

// Result is the outcome of a successful analysis
type Result struct {
	Program     *cdast.Program
	Analysis    *analyzer.Result
	Diagnostics []parser.Diagnostic
	Duration    time.Duration
}

// NewEngine creates a new engine
func NewEngine(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = cdlog.GetDefault()
	}
	if opts.MaxInputLength == 0 {
		opts.MaxInputLength = parser.DefaultMaxInputLength
	}
	if opts.MaxInputLength < 0 {
		return nil, cderror.Newf("invalid max input length: %d", opts.MaxInputLength).
			WithCode(cderror.CodeInvalidInput)
	}

	logger := opts.Logger.WithField("component", "cobol-engine")

	engine := &Engine{
		options: opts,
		logger:  logger,
		analyzer: analyzer.New(analyzer.Options{
			Logger:        opts.Logger,
			NestedCalls:   opts.NestedCalls,
			MaxTraceDepth: opts.MaxTraceDepth,
		}),
	}

	logger.Debug("COBOL engine initialized", cdlog.Fields{
		"maxInputLength": opts.MaxInputLength,
		"nestedCalls":    opts.NestedCalls,
	})

	return engine, nil
}

// Analyze lexes, parses and analyzes source. On a syntax error it returns
// the error and no Result.
func (e *Engine) Analyze(ctx context.Context, source string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	program, diagnostics, err := e.Parse(source)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis := e.analyzer.Analyze(program)

	result := &Result{
		Program:     program,
		Analysis:    analysis,
		Diagnostics: diagnostics,
		Duration:    time.Since(start),
	}

	e.logger.Info("COBOL analysis completed", cdlog.Fields{
		"program":     program.Name,
		"paragraphs":  len(program.Paragraphs),
		"variables":   len(program.Variables),
		"diagnostics": len(diagnostics),
		"duration_ms": float64(result.Duration.Nanoseconds()) / 1e6,
	})

	return result, nil
}

// Parse parses source into a Program and returns the lexical diagnostics
func (e *Engine) Parse(source string) (*cdast.Program, []parser.Diagnostic, error) {
	if err := e.validateInput(source); err != nil {
		return nil, nil, err
	}

	p, err := parser.New(parser.Options{
		Logger:         e.options.Logger,
		MaxInputLength: e.options.MaxInputLength,
	})
	if err != nil {
		return nil, nil, cderror.Wrap(err, "failed to initialize COBOL parser")
	}

	program, err := p.Parse(source)
	if err != nil {
		return nil, p.Diagnostics(), err
	}
	return program, p.Diagnostics(), nil
}

// Tokenize returns all tokens of source including the final EOF token,
// plus the lexical diagnostics
func (e *Engine) Tokenize(source string) ([]parser.Token, []parser.Diagnostic) {
	lexer := parser.NewLexer(source).WithLogger(e.options.Logger)
	tokens := lexer.Tokenize()
	return tokens, lexer.Diagnostics()
}

// Export parses source and returns its exported AST document
func (e *Engine) Export(source string) (*cdast.Document, error) {
	program, _, err := e.Parse(source)
	if err != nil {
		return nil, err
	}
	return cdast.Export(program), nil
}

func (e *Engine) validateInput(source string) error {
	if strings.TrimSpace(source) == "" {
		return cderror.New("source cannot be empty").
			WithCode(cderror.CodeInvalidInput).
			WithOperation("validate")
	}
	if len(source) > e.options.MaxInputLength {
		return cderror.Newf("input exceeds maximum length: %d > %d",
			len(source), e.options.MaxInputLength).
			WithCode(cderror.CodeInputTooLarge).
			WithDetail("length", len(source)).
			WithOperation("validate")
	}
	return nil
}
