// Package lexer implements the sc lexical analyzer.
//
// Tokens are separated by whitespace only: a maximal run of non-whitespace
// runes is one token, so "x=1" is a single identifier.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Options controls source preprocessing.
type Options struct {
	// Normalize converts the source to Unicode NFC before scanning so that
	// canonically equivalent identifiers produce identical token values.
	Normalize bool
}

// DefaultOptions returns the options used by New and Tokenise.
func DefaultOptions() Options {
	return Options{Normalize: true}
}

// Lexer represents the lexical analyzer. It scans a rune slice, so
// positions are rune based regardless of the source encoding width.
type Lexer struct {
	input    []rune
	position int // current rune index
	line     int
	column   int

	err error // sticky; returned by every NextToken call once set
}

// New creates a new lexer instance with default options
func New(input string) *Lexer {
	return NewWithOptions(input, DefaultOptions())
}

// NewWithOptions creates a new lexer instance
func NewWithOptions(input string, opts Options) *Lexer {
	l := &Lexer{line: 1, column: 1}

	if !utf8.ValidString(input) {
		l.err = invalidEncoding(input)
		return l
	}
	if opts.Normalize {
		input = norm.NFC.String(input)
	}
	l.input = []rune(input)
	return l
}

// Tokenise scans source and returns its complete token sequence, always
// terminated by exactly one TokenEndOfInput token.
func Tokenise(source string) ([]Token, error) {
	return New(source).Tokenise()
}

// Tokenise drains the lexer.
func (l *Lexer) Tokenise() ([]Token, error) {
	tokens := make([]Token, 0, len(l.input)/2+1)
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEndOfInput {
			return tokens, nil
		}
	}
}

// NextToken returns the next token. Once the input is exhausted it keeps
// returning TokenEndOfInput.
func (l *Lexer) NextToken() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}

	l.skipWhitespace()
	pos := l.pos()
	if l.position >= len(l.input) {
		return Token{Kind: TokenEndOfInput, Pos: pos}, nil
	}

	if isDigit(l.input[l.position]) {
		literal := l.readWord()
		if !allDigits(literal) {
			l.err = &LexError{Text: literal, Pos: pos, Reason: "malformed integer literal", Err: ErrMalformedLiteral}
			return Token{}, l.err
		}
		return Token{Kind: TokenIntLiteral, Value: literal, Pos: pos}, nil
	}

	word := l.readWord()
	if kind, ok := spellings[word]; ok {
		return Token{Kind: kind, Value: word, Pos: pos}, nil
	}
	return Token{Kind: TokenIdentifier, Value: word, Pos: pos}, nil
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// readChar advances past the current rune
func (l *Lexer) readChar() {
	if l.input[l.position] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.position++
}

func (l *Lexer) skipWhitespace() {
	for l.position < len(l.input) && unicode.IsSpace(l.input[l.position]) {
		l.readChar()
	}
}

// readWord consumes a maximal run of non-whitespace runes
func (l *Lexer) readWord() string {
	start := l.position
	for l.position < len(l.input) && !unicode.IsSpace(l.input[l.position]) {
		l.readChar()
	}
	return string(l.input[start:l.position])
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func allDigits(s string) bool {
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return s != ""
}

// invalidEncoding reports the first byte that is not valid UTF-8.
func invalidEncoding(input string) *LexError {
	pos := Position{Line: 1, Column: 1}
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		if r == utf8.RuneError && size <= 1 {
			return &LexError{
				Text:   input[i : i+1],
				Pos:    pos,
				Reason: "invalid UTF-8 byte",
				Err:    ErrInvalidUTF8,
			}
		}
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
		pos.Offset++
		i += size
	}
	return &LexError{Text: input, Pos: pos, Reason: "invalid UTF-8 byte", Err: ErrInvalidUTF8}
}

// Reconstruct joins token values with single spaces, producing source
// that tokenises back to the same kind sequence.
func Reconstruct(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == TokenEndOfInput {
			break
		}
		parts = append(parts, tok.Value)
	}
	return strings.Join(parts, " ")
}
