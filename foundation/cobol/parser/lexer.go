// File: lexer.go
// Title: COBOL Lexical Analyzer (Tokenizer)
// Description: Converts COBOL subset source text into a stream of classified
//              tokens. Reserved words are matched case-insensitively, comment
//              lines are discarded and illegal characters are reported as
//              diagnostics and skipped one at a time.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial lexer implementation

package parser

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	cdlog "github.com/msto63/cobdoc/foundation/core/log"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Identifiers and literals
	TokenIdentifier // WS-TOTAL, MAIN-PARA
	TokenNumber     // 10, 3.14
	TokenString     // "text" or 'text'

	// Punctuation
	TokenDot       // .
	TokenLeftParen // (
	TokenRightParen
	TokenEquals    // =
	TokenPlus      // +
	TokenMinus     // -
	TokenTimes     // *
	TokenDivide    // /
	TokenGreater   // >
	TokenLess      // <
	TokenGreaterEq // >=
	TokenLessEq    // <=

	// Reserved words
	keywordBegin
	TokenIdentification
	TokenDivision
	TokenProgramID
	TokenData
	TokenWorkingStorage
	TokenSection
	TokenPic
	TokenPicture
	TokenValue
	TokenProcedure
	TokenMove
	TokenTo
	TokenAdd
	TokenSubtract
	TokenMultiply
	TokenBy
	TokenGiving
	TokenCompute
	TokenIf
	TokenThen
	TokenElse
	TokenEndIf
	TokenPerform
	TokenUntil
	TokenThru
	TokenDisplay
	TokenFrom
	TokenStop
	TokenRun
	TokenExit
	TokenGoback
	keywordEnd
)

var tokenNames = map[TokenType]string{
	TokenEOF:            "EOF",
	TokenIdentifier:     "IDENTIFIER",
	TokenNumber:         "NUMBER",
	TokenString:         "STRING",
	TokenDot:            "DOT",
	TokenLeftParen:      "LPAREN",
	TokenRightParen:     "RPAREN",
	TokenEquals:         "EQUALS",
	TokenPlus:           "PLUS",
	TokenMinus:          "MINUS",
	TokenTimes:          "TIMES",
	TokenDivide:         "DIVIDE",
	TokenGreater:        "GT",
	TokenLess:           "LT",
	TokenGreaterEq:      "GE",
	TokenLessEq:         "LE",
	TokenIdentification: "IDENTIFICATION",
	TokenDivision:       "DIVISION",
	TokenProgramID:      "PROGRAM_ID",
	TokenData:           "DATA",
	TokenWorkingStorage: "WORKING_STORAGE",
	TokenSection:        "SECTION",
	TokenPic:            "PIC",
	TokenPicture:        "PICTURE",
	TokenValue:          "VALUE",
	TokenProcedure:      "PROCEDURE",
	TokenMove:           "MOVE",
	TokenTo:             "TO",
	TokenAdd:            "ADD",
	TokenSubtract:       "SUBTRACT",
	TokenMultiply:       "MULTIPLY",
	TokenBy:             "BY",
	TokenGiving:         "GIVING",
	TokenCompute:        "COMPUTE",
	TokenIf:             "IF",
	TokenThen:           "THEN",
	TokenElse:           "ELSE",
	TokenEndIf:          "END_IF",
	TokenPerform:        "PERFORM",
	TokenUntil:          "UNTIL",
	TokenThru:           "THRU",
	TokenDisplay:        "DISPLAY",
	TokenFrom:           "FROM",
	TokenStop:           "STOP",
	TokenRun:            "RUN",
	TokenExit:           "EXIT",
	TokenGoback:         "GOBACK",
}

// keywords maps the upper-cased reserved word to its token type
var keywords = map[string]TokenType{
	"IDENTIFICATION":  TokenIdentification,
	"DIVISION":        TokenDivision,
	"PROGRAM-ID":      TokenProgramID,
	"DATA":            TokenData,
	"WORKING-STORAGE": TokenWorkingStorage,
	"SECTION":         TokenSection,
	"PIC":             TokenPic,
	"PICTURE":         TokenPicture,
	"VALUE":           TokenValue,
	"PROCEDURE":       TokenProcedure,
	"MOVE":            TokenMove,
	"TO":              TokenTo,
	"ADD":             TokenAdd,
	"SUBTRACT":        TokenSubtract,
	"MULTIPLY":        TokenMultiply,
	"BY":              TokenBy,
	"GIVING":          TokenGiving,
	"COMPUTE":         TokenCompute,
	"IF":              TokenIf,
	"THEN":            TokenThen,
	"ELSE":            TokenElse,
	"END-IF":          TokenEndIf,
	"PERFORM":         TokenPerform,
	"UNTIL":           TokenUntil,
	"THRU":            TokenThru,
	"DISPLAY":         TokenDisplay,
	"FROM":            TokenFrom,
	"STOP":            TokenStop,
	"RUN":             TokenRun,
	"EXIT":            TokenExit,
	"GOBACK":          TokenGoback,
}

// String returns the grammar name of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKeyword reports whether the token type is a reserved word
func (tt TokenType) IsKeyword() bool {
	return tt > keywordBegin && tt < keywordEnd
}

// Number is the parsed value of a numeric literal
type Number struct {
	Int     int64
	Float   float64
	IsFloat bool
	text    string
}

// String returns the canonical text of the number: integers without
// leading zeros, decimals in shortest round-trip form with at least one
// fractional digit (2.50 -> "2.5", 2.0 -> "2.0")
func (n Number) String() string {
	return n.text
}

// parseNumber parses a lexeme matching \d+\.\d+ or \d+
func parseNumber(lexeme string) Number {
	if strings.Contains(lexeme, ".") {
		f, _ := strconv.ParseFloat(lexeme, 64)
		return Number{Float: f, IsFloat: true, text: formatFloat(f)}
	}

	i, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		// out of int64 range: keep the digits
		f, _ := strconv.ParseFloat(lexeme, 64)
		digits := strings.TrimLeft(lexeme, "0")
		return Number{Float: f, text: digits}
	}
	return Number{Int: i, Float: float64(i), text: strconv.FormatInt(i, 10)}
}

func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// Token represents a lexical token with position information
type Token struct {
	Type     TokenType // Token type
	Value    string    // Lexeme; string literals without their quotes
	Number   *Number   // Parsed value for TokenNumber
	Position int       // Byte position in input
	Line     int       // Line number (1-based)
	Column   int       // Column number (1-based)
}

// Text returns the normalized text of the token: the canonical form for
// numbers, the lexeme otherwise
func (t Token) Text() string {
	if t.Number != nil {
		return t.Number.String()
	}
	return t.Value
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%s)", t.Type, t.Value)
}

// Diagnostic describes a recovered lexical error
type Diagnostic struct {
	Line     int
	Column   int
	Position int
	Char     string
}

// Message returns the human-readable diagnostic text
func (d Diagnostic) Message() string {
	return fmt.Sprintf("illegal character '%s' at line %d", d.Char, d.Line)
}

// String implements fmt.Stringer
func (d Diagnostic) String() string {
	return d.Message()
}

// Lexer performs lexical analysis of COBOL subset input
type Lexer struct {
	input       string
	position    int  // Current position in input (points to current char)
	readPos     int  // Current reading position (after current char)
	ch          byte // Current char under examination
	line        int  // Current line number (1-based)
	column      int  // Current column number (1-based)
	lineStart   bool // No token has started on the current line yet
	diagnostics []Diagnostic
	logger      *cdlog.Logger
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:  input,
		logger: cdlog.GetDefault().WithField("component", "cobol-lexer"),
	}
	l.Reset()
	return l
}

// WithLogger sets the logger used for diagnostics
func (l *Lexer) WithLogger(logger *cdlog.Logger) *Lexer {
	if logger != nil {
		l.logger = logger.WithField("component", "cobol-lexer")
	}
	return l
}

// Reset rewinds the lexer to the beginning of its input and clears the
// collected diagnostics
func (l *Lexer) Reset() {
	l.position = 0
	l.readPos = 0
	l.line = 1
	l.column = 0
	l.lineStart = true
	l.diagnostics = nil
	l.readChar()
}

// Diagnostics returns the lexical errors recovered so far
func (l *Lexer) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(l.diagnostics))
	copy(out, l.diagnostics)
	return out
}

// NextToken returns the next token from the input. At end of input it
// keeps returning TokenEOF.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespaceAndComments()

		pos := l.position
		line := l.line
		column := l.column

		if l.atEOF() {
			return Token{Type: TokenEOF, Position: pos, Line: line, Column: column}
		}
		l.lineStart = false

		var tok Token
		switch l.ch {
		case '.':
			tok = newToken(TokenDot, l.ch, pos, line, column)
		case '(':
			tok = newToken(TokenLeftParen, l.ch, pos, line, column)
		case ')':
			tok = newToken(TokenRightParen, l.ch, pos, line, column)
		case '=':
			tok = newToken(TokenEquals, l.ch, pos, line, column)
		case '+':
			tok = newToken(TokenPlus, l.ch, pos, line, column)
		case '-':
			tok = newToken(TokenMinus, l.ch, pos, line, column)
		case '*':
			tok = newToken(TokenTimes, l.ch, pos, line, column)
		case '/':
			tok = newToken(TokenDivide, l.ch, pos, line, column)
		case '>':
			tok = l.twoCharToken(TokenGreater, TokenGreaterEq, pos, line, column)
		case '<':
			tok = l.twoCharToken(TokenLess, TokenLessEq, pos, line, column)
		case '"', '\'':
			value, ok := l.readString(l.ch)
			if !ok {
				l.illegal(pos, line, column)
				continue
			}
			l.lineStart = false
			return Token{Type: TokenString, Value: value, Position: pos, Line: line, Column: column}
		default:
			if isLetter(l.ch) {
				value := l.readIdentifier()
				return Token{Type: lookupIdent(value), Value: value, Position: pos, Line: line, Column: column}
			}
			if isDigit(l.ch) {
				value := l.readNumber()
				num := parseNumber(value)
				return Token{Type: TokenNumber, Value: value, Number: &num, Position: pos, Line: line, Column: column}
			}
			l.illegal(pos, line, column)
			continue
		}

		l.readChar()
		return tok
	}
}

// Tokenize returns all tokens from the start of the input up to and
// including TokenEOF
func (l *Lexer) Tokenize() []Token {
	l.Reset()
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// Tokens returns a lazy sequence over the tokens of the input, excluding
// TokenEOF. Each iteration starts again from the beginning of the input.
func (l *Lexer) Tokens() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		l.Reset()
		for {
			tok := l.NextToken()
			if tok.Type == TokenEOF || !yield(tok) {
				return
			}
		}
	}
}

// illegal records a diagnostic for the current character and skips it
func (l *Lexer) illegal(pos, line, column int) {
	r, size := utf8.DecodeRuneInString(l.input[pos:])
	char := string(r)
	if r == utf8.RuneError && size <= 1 {
		char = l.input[pos : pos+1]
	}

	d := Diagnostic{Line: line, Column: column, Position: pos, Char: char}
	l.diagnostics = append(l.diagnostics, d)
	l.logger.Warn("Illegal character skipped", cdlog.Fields{
		"char":   char,
		"line":   line,
		"column": column,
	})

	for i := 0; i < size; i++ {
		l.readChar()
	}
}

// twoCharToken returns long when the current char is followed by '='
func (l *Lexer) twoCharToken(short, long TokenType, pos, line, column int) Token {
	if l.peekChar() == '=' {
		ch := l.ch
		l.readChar()
		return Token{Type: long, Value: string(ch) + string(l.ch), Position: pos, Line: line, Column: column}
	}
	return newToken(short, l.ch, pos, line, column)
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.position < len(l.input) && l.readPos > 0 && l.input[l.position] == '\n' {
		l.line++
		l.column = 0
		l.lineStart = true
	}

	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}

	l.position = l.readPos
	l.readPos++
	l.column++
}

// atEOF reports whether the whole input has been consumed
func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// readIdentifier reads [A-Za-z][A-Za-z0-9-]*
func (l *Lexer) readIdentifier() string {
	start := l.position
	for !l.atEOF() && (isLetter(l.ch) || isDigit(l.ch) || l.ch == '-') {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads \d+\.\d+ or \d+
func (l *Lexer) readNumber() string {
	start := l.position

	for !l.atEOF() && isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for !l.atEOF() && isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.position]
}

// readString reads a string delimited by quote. There is no escaping. It
// reports false, consuming nothing, when the closing quote is missing.
func (l *Lexer) readString(quote byte) (string, bool) {
	start := l.position + 1
	end := strings.IndexByte(l.input[start:], quote)
	if end < 0 {
		return "", false
	}
	end += start

	for l.position <= end {
		l.readChar()
	}
	return l.input[start:end], true
}

// skipWhitespaceAndComments skips blanks, newlines and comment lines. A
// comment line has '*' as its first non-blank character.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEOF() {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '*' && l.lineStart:
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		default:
			return
		}
	}
}

// Utility functions

// newToken creates a new token with the given parameters
func newToken(tokenType TokenType, ch byte, pos, line, column int) Token {
	return Token{
		Type:     tokenType,
		Value:    string(ch),
		Position: pos,
		Line:     line,
		Column:   column,
	}
}

// lookupIdent returns the keyword type for ident, or TokenIdentifier
func lookupIdent(ident string) TokenType {
	if tt, ok := keywords[strings.ToUpper(ident)]; ok {
		return tt
	}
	return TokenIdentifier
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
