// File: parser.go
// Title: COBOL Recursive Descent Parser
// Description: Builds a Program AST from the token stream of the COBOL
//              subset: IDENTIFICATION, DATA and PROCEDURE divisions with
//              MOVE, ADD, SUBTRACT, MULTIPLY, COMPUTE, PERFORM, IF, DISPLAY
//              and STOP statements. Any token sequence outside the grammar
//              aborts the parse with a syntax error.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial parser implementation

package parser

import (
	"fmt"
	"strings"

	cdast "github.com/msto63/cobdoc/foundation/cobol/ast"
	cderror "github.com/msto63/cobdoc/foundation/core/error"
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
)

// DefaultMaxInputLength is used when Options.MaxInputLength is zero
const DefaultMaxInputLength = 1 << 20

// Parser implements recursive descent parsing for the COBOL subset
type Parser struct {
	lexer    *Lexer
	current  Token // Current token
	previous Token // Previous token
	logger   *cdlog.Logger
	options  Options
}

// Options configures parser behavior
type Options struct {
	Logger         *cdlog.Logger
	MaxInputLength int
}

// New creates a new COBOL parser with the given options
func New(opts Options) (*Parser, error) {
	if opts.Logger == nil {
		opts.Logger = cdlog.GetDefault()
	}
	if opts.MaxInputLength == 0 {
		opts.MaxInputLength = DefaultMaxInputLength
	}
	if opts.MaxInputLength < 0 {
		return nil, cderror.Newf("invalid max input length: %d", opts.MaxInputLength).
			WithCode(cderror.CodeInvalidInput)
	}

	return &Parser{
		logger:  opts.Logger.WithField("component", "cobol-parser"),
		options: opts,
	}, nil
}

// Parse parses COBOL source and returns its Program. On a syntax error no
// Program is returned. Lexical errors do not fail the parse; they are
// available from Diagnostics afterwards.
func (p *Parser) Parse(input string) (*cdast.Program, error) {
	if len(input) > p.options.MaxInputLength {
		return nil, cderror.Newf("input exceeds maximum length: %d > %d",
			len(input), p.options.MaxInputLength).
			WithCode(cderror.CodeInputTooLarge).
			WithDetail("length", len(input)).
			WithOperation("parse")
	}

	p.lexer = NewLexer(input).WithLogger(p.options.Logger)
	p.previous = Token{}
	p.advance() // Load first token

	p.logger.Debug("Starting COBOL parsing", cdlog.Fields{
		"length": len(input),
	})

	program, err := p.parseProgram()
	if err != nil {
		p.logger.Warn("COBOL parsing failed", cdlog.Fields{
			"error": err.Error(),
		})
		return nil, err
	}

	p.logger.Debug("COBOL parsing completed successfully", cdlog.Fields{
		"program":     program.Name,
		"variables":   len(program.Variables),
		"paragraphs":  len(program.Paragraphs),
		"diagnostics": len(p.lexer.diagnostics),
	})

	return program, nil
}

// Diagnostics returns the lexical diagnostics of the last Parse call
func (p *Parser) Diagnostics() []Diagnostic {
	if p.lexer == nil {
		return nil
	}
	return p.lexer.Diagnostics()
}

// program : identification_division data_division procedure_division EOF
func (p *Parser) parseProgram() (*cdast.Program, error) {
	pos := p.currentPosition()

	name, err := p.parseIdentificationDivision()
	if err != nil {
		return nil, err
	}

	variables, err := p.parseDataDivision()
	if err != nil {
		return nil, err
	}

	paragraphs, err := p.parseProcedureDivision()
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.syntaxError("end of input")
	}

	return &cdast.Program{
		Name:       name,
		Variables:  variables,
		Paragraphs: paragraphs,
		Pos:        pos,
	}, nil
}

// IDENTIFICATION DIVISION . PROGRAM-ID . name .
func (p *Parser) parseIdentificationDivision() (string, error) {
	for _, tt := range []TokenType{TokenIdentification, TokenDivision, TokenDot, TokenProgramID, TokenDot} {
		if _, err := p.expect(tt); err != nil {
			return "", err
		}
	}

	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return "", err
	}

	if _, err := p.expect(TokenDot); err != nil {
		return "", err
	}
	return name.Value, nil
}

// DATA DIVISION . [WORKING-STORAGE SECTION . variable*]
func (p *Parser) parseDataDivision() ([]*cdast.Variable, error) {
	for _, tt := range []TokenType{TokenData, TokenDivision, TokenDot} {
		if _, err := p.expect(tt); err != nil {
			return nil, err
		}
	}

	variables := []*cdast.Variable{}
	if p.current.Type != TokenWorkingStorage {
		return variables, nil
	}
	p.advance()

	if _, err := p.expect(TokenSection); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}

	for p.current.Type == TokenNumber {
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		variables = append(variables, v)
	}

	return variables, nil
}

// level name [picture_clause] [value_clause] .
// The two clauses may appear in either order, each at most once.
func (p *Parser) parseVariable() (*cdast.Variable, error) {
	levelTok := p.current
	if levelTok.Number == nil || levelTok.Number.IsFloat {
		return nil, p.syntaxError("level number")
	}
	p.advance()

	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	v := &cdast.Variable{
		Level: int(levelTok.Number.Int),
		Name:  name.Value,
		Pos:   tokenPosition(levelTok),
	}

	for {
		switch p.current.Type {
		case TokenPic, TokenPicture:
			if v.Picture != nil {
				return nil, p.syntaxError("VALUE or '.'")
			}
			p.advance()
			picture, err := p.parsePictureString()
			if err != nil {
				return nil, err
			}
			v.Picture = &picture
			continue
		case TokenValue:
			if v.Value != nil {
				return nil, p.syntaxError("PIC or '.'")
			}
			p.advance()
			value, err := p.parseValueLiteral()
			if err != nil {
				return nil, err
			}
			v.Value = &value
			continue
		}
		break
	}

	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}
	return v, nil
}

// parsePictureString reconstructs a PICTURE string from its tokens:
// one or more IDENTIFIER/NUMBER groups, each optionally followed by a
// parenthesized repeat count. Lexemes are kept verbatim.
func (p *Parser) parsePictureString() (string, error) {
	if !p.currentIs(TokenIdentifier, TokenNumber) {
		return "", p.syntaxError("picture string")
	}

	var b strings.Builder
	for p.currentIs(TokenIdentifier, TokenNumber) {
		b.WriteString(p.current.Value)
		p.advance()

		if p.current.Type != TokenLeftParen {
			continue
		}
		p.advance()
		count, err := p.expect(TokenNumber)
		if err != nil {
			return "", err
		}
		if count.Number.IsFloat {
			return "", p.syntaxErrorAt(count, "repeat count")
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return "", err
		}
		b.WriteString("(" + count.Value + ")")
	}

	return b.String(), nil
}

// VALUE (NUMBER | STRING | IDENTIFIER)
func (p *Parser) parseValueLiteral() (string, error) {
	if !p.currentIs(TokenNumber, TokenString, TokenIdentifier) {
		return "", p.syntaxError("literal")
	}
	text := p.current.Text()
	p.advance()
	return text, nil
}

// PROCEDURE DIVISION . paragraph+
func (p *Parser) parseProcedureDivision() ([]*cdast.Paragraph, error) {
	for _, tt := range []TokenType{TokenProcedure, TokenDivision, TokenDot} {
		if _, err := p.expect(tt); err != nil {
			return nil, err
		}
	}

	if p.current.Type != TokenIdentifier {
		return nil, p.syntaxError("paragraph name")
	}

	var paragraphs []*cdast.Paragraph
	for p.current.Type == TokenIdentifier {
		para, err := p.parseParagraph()
		if err != nil {
			return nil, err
		}
		paragraphs = append(paragraphs, para)
	}

	return paragraphs, nil
}

// name . statement*
func (p *Parser) parseParagraph() (*cdast.Paragraph, error) {
	name := p.current
	p.advance()

	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}

	statements, err := p.parseStatementList()
	if err != nil {
		return nil, err
	}

	return &cdast.Paragraph{
		Name:       name.Value,
		Statements: statements,
		Pos:        tokenPosition(name),
	}, nil
}

// parseStatementList parses statements while the current token starts one.
// The returned slice is never nil.
func (p *Parser) parseStatementList() ([]cdast.Statement, error) {
	statements := []cdast.Statement{}
	for isStatementStart(p.current.Type) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

func isStatementStart(tt TokenType) bool {
	switch tt {
	case TokenMove, TokenAdd, TokenSubtract, TokenMultiply, TokenCompute,
		TokenPerform, TokenIf, TokenDisplay, TokenStop, TokenExit, TokenGoback:
		return true
	default:
		return false
	}
}

// parseStatement dispatches on the statement verb
func (p *Parser) parseStatement() (cdast.Statement, error) {
	switch p.current.Type {
	case TokenMove:
		return p.parseMove()
	case TokenAdd:
		return p.parseArithmetic(TokenTo, true)
	case TokenSubtract:
		return p.parseArithmetic(TokenFrom, false)
	case TokenMultiply:
		return p.parseArithmetic(TokenBy, true)
	case TokenCompute:
		return p.parseCompute()
	case TokenPerform:
		return p.parsePerform()
	case TokenIf:
		return p.parseIf()
	case TokenDisplay:
		return p.parseDisplay()
	case TokenStop, TokenExit, TokenGoback:
		return p.parseStop()
	default:
		return nil, p.syntaxError("statement")
	}
}

// MOVE operand TO identifier .
func (p *Parser) parseMove() (cdast.Statement, error) {
	pos := p.currentPosition()
	p.advance()

	source, _, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenTo); err != nil {
		return nil, err
	}
	target, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}

	return &cdast.MoveStmt{Source: source, Target: target.Value, Pos: pos}, nil
}

// ADD operand TO operand [GIVING identifier] .
// SUBTRACT operand FROM operand [GIVING identifier] [.]
// MULTIPLY operand BY operand [GIVING identifier] .
//
// Without GIVING the second operand is also the target and must be an
// identifier.
func (p *Parser) parseArithmetic(preposition TokenType, dotRequired bool) (cdast.Statement, error) {
	verb := p.current
	pos := tokenPosition(verb)
	p.advance()

	op1, _, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(preposition); err != nil {
		return nil, err
	}
	op2, op2Tok, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	giving := false
	target := op2.Text
	if p.current.Type == TokenGiving {
		p.advance()
		tok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		giving = true
		target = tok.Value
	} else if !op2.IsIdentifier() {
		return nil, p.syntaxErrorAt(op2Tok, "identifier")
	}

	if dotRequired {
		if _, err := p.expect(TokenDot); err != nil {
			return nil, err
		}
	} else if p.current.Type == TokenDot {
		p.advance()
	}

	switch verb.Type {
	case TokenAdd:
		return &cdast.AddStmt{Operand1: op1, Operand2: op2, Target: target, Giving: giving, Pos: pos}, nil
	case TokenSubtract:
		return &cdast.SubtractStmt{Operand1: op1, Operand2: op2, Target: target, Giving: giving, Pos: pos}, nil
	default:
		return &cdast.MultiplyStmt{Operand1: op1, Operand2: op2, Target: target, Giving: giving, Pos: pos}, nil
	}
}

// COMPUTE identifier = term+ [.]
// Terms are identifiers, numbers, + - * / ( and ). Only membership is
// checked, not arithmetic well-formedness.
func (p *Parser) parseCompute() (cdast.Statement, error) {
	pos := p.currentPosition()
	p.advance()

	target, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEquals); err != nil {
		return nil, err
	}

	if !isExpressionTerm(p.current.Type) {
		return nil, p.syntaxError("expression")
	}

	var terms []string
	for isExpressionTerm(p.current.Type) {
		terms = append(terms, p.current.Text())
		p.advance()
	}

	if p.current.Type == TokenDot {
		p.advance()
	}

	return &cdast.ComputeStmt{
		Target:     target.Value,
		Expression: strings.Join(terms, " "),
		Terms:      terms,
		Pos:        pos,
	}, nil
}

func isExpressionTerm(tt TokenType) bool {
	switch tt {
	case TokenIdentifier, TokenNumber, TokenPlus, TokenMinus, TokenTimes,
		TokenDivide, TokenLeftParen, TokenRightParen:
		return true
	default:
		return false
	}
}

// PERFORM identifier [THRU identifier | UNTIL condition] .
func (p *Parser) parsePerform() (cdast.Statement, error) {
	pos := p.currentPosition()
	p.advance()

	target, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	stmt := &cdast.PerformStmt{Target: target.Value, Pos: pos}

	switch p.current.Type {
	case TokenThru:
		p.advance()
		thru, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		stmt.Thru = &thru.Value
	case TokenUntil:
		p.advance()
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		stmt.Until = &cond
	}

	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}
	return stmt, nil
}

// condition : identifier (> | < | = | >= | <=) (identifier | number)
// Returned as "LEFT OP RIGHT".
func (p *Parser) parseCondition() (string, error) {
	left, err := p.expect(TokenIdentifier)
	if err != nil {
		return "", err
	}

	if !p.currentIs(TokenGreater, TokenLess, TokenEquals, TokenGreaterEq, TokenLessEq) {
		return "", p.syntaxError("comparison operator")
	}
	op := p.current
	p.advance()

	if !p.currentIs(TokenIdentifier, TokenNumber) {
		return "", p.syntaxError("identifier or number")
	}
	right := p.current
	p.advance()

	return fmt.Sprintf("%s %s %s", left.Value, op.Value, right.Text()), nil
}

// IF condition [THEN] statement* [ELSE statement*] END-IF .
func (p *Parser) parseIf() (cdast.Statement, error) {
	pos := p.currentPosition()
	p.advance()

	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	if p.current.Type == TokenThen {
		p.advance()
	}

	thenBranch, err := p.parseStatementList()
	if err != nil {
		return nil, err
	}
	stmt := &cdast.IfStmt{Condition: cond, Then: thenBranch, Pos: pos}

	if p.current.Type == TokenElse {
		p.advance()
		elseBranch, err := p.parseStatementList()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBranch
	}

	if _, err := p.expect(TokenEndIf); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}
	return stmt, nil
}

// DISPLAY operand .
func (p *Parser) parseDisplay() (cdast.Statement, error) {
	pos := p.currentPosition()
	p.advance()

	item, _, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}
	return &cdast.DisplayStmt{Item: item, Pos: pos}, nil
}

// STOP RUN . | EXIT . | GOBACK .
func (p *Parser) parseStop() (cdast.Statement, error) {
	pos := p.currentPosition()
	verb := strings.ToUpper(p.current.Value)

	if p.current.Type == TokenStop {
		p.advance()
		if _, err := p.expect(TokenRun); err != nil {
			return nil, err
		}
		verb = "STOP RUN"
	} else {
		p.advance()
	}

	if _, err := p.expect(TokenDot); err != nil {
		return nil, err
	}
	return &cdast.StopStmt{Verb: verb, Pos: pos}, nil
}

// parseOperand parses an identifier, number or string
func (p *Parser) parseOperand() (cdast.Operand, Token, error) {
	tok := p.current

	var op cdast.Operand
	switch tok.Type {
	case TokenIdentifier:
		op = cdast.Operand{Kind: cdast.OperandIdentifier, Text: tok.Value}
	case TokenNumber:
		op = cdast.Operand{Kind: cdast.OperandNumber, Text: tok.Text()}
	case TokenString:
		op = cdast.Operand{Kind: cdast.OperandString, Text: tok.Value}
	default:
		return cdast.Operand{}, tok, p.syntaxError("identifier or literal")
	}

	p.advance()
	return op, tok, nil
}

// Utility methods

// advance moves to the next token
func (p *Parser) advance() {
	p.previous = p.current
	p.current = p.lexer.NextToken()
}

// currentIs reports whether the current token has one of the given types
func (p *Parser) currentIs(types ...TokenType) bool {
	for _, tt := range types {
		if p.current.Type == tt {
			return true
		}
	}
	return false
}

// expect consumes the current token if it has type tt
func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.current.Type != tt {
		return Token{}, p.syntaxError(tt.String())
	}
	tok := p.current
	p.advance()
	return tok, nil
}

// currentPosition returns the current AST position
func (p *Parser) currentPosition() cdast.Position {
	return tokenPosition(p.current)
}

func tokenPosition(tok Token) cdast.Position {
	return cdast.Position{Line: tok.Line, Column: tok.Column}
}

// syntaxError creates a syntax error at the current token
func (p *Parser) syntaxError(expected string) error {
	return p.syntaxErrorAt(p.current, expected)
}

// syntaxErrorAt creates a syntax error citing tok. At end of input the
// message says so instead of citing a token.
func (p *Parser) syntaxErrorAt(tok Token, expected string) error {
	if tok.Type == TokenEOF {
		return cderror.New("syntax error at end of input").
			WithCode(cderror.CodeUnexpectedEOF).
			WithOperation("parse").
			WithDetails(map[string]interface{}{
				"line":     tok.Line,
				"expected": expected,
			})
	}

	return cderror.Newf("syntax error at '%s' (line %d)", tok.Text(), tok.Line).
		WithCode(cderror.CodeSyntax).
		WithOperation("parse").
		WithDetails(map[string]interface{}{
			"line":     tok.Line,
			"column":   tok.Column,
			"token":    tok.Text(),
			"kind":     tok.Type.String(),
			"expected": expected,
		})
}
