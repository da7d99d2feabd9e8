package lexer

import "fmt"

// TokenKind represents the kind of a token
type TokenKind int

// String returns a string representation of the token kind
func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(k))
}

// Token kinds
const (
	// 特殊トークン
	TokenEndOfInput TokenKind = iota

	// リテラル
	TokenIdentifier
	TokenIntLiteral

	// キーワード
	TokenLet
	TokenWhile
	TokenIf
	TokenElse

	// 演算子
	TokenEq
	TokenDoubleEq
	TokenNotEq
	TokenGreaterEq
	TokenLesserEq
	TokenPlus
	TokenPlusEq
	TokenMinus
	TokenMinusEq

	// 記号
	TokenColon
	TokenLBrace
	TokenRBrace
)

var tokenNames = map[TokenKind]string{
	TokenEndOfInput: "EndOfInput",

	TokenIdentifier: "Identifier",
	TokenIntLiteral: "IntLiteral",

	TokenLet:   "Let",
	TokenWhile: "While",
	TokenIf:    "If",
	TokenElse:  "Else",

	TokenEq:        "Eq",
	TokenDoubleEq:  "DoubleEq",
	TokenNotEq:     "NotEq",
	TokenGreaterEq: "GreaterEq",
	TokenLesserEq:  "LesserEq",
	TokenPlus:      "Plus",
	TokenPlusEq:    "PlusEq",
	TokenMinus:     "Minus",
	TokenMinusEq:   "MinusEq",

	TokenColon:  "Colon",
	TokenLBrace: "LBrace",
	TokenRBrace: "RBrace",
}

// spellings maps the fixed keyword and operator spellings to their kinds.
// Anything else that is not a numeral lexes as TokenIdentifier.
var spellings = map[string]TokenKind{
	"let":   TokenLet,
	"while": TokenWhile,
	"if":    TokenIf,
	"else":  TokenElse,
	"=":     TokenEq,
	"==":    TokenDoubleEq,
	"!=":    TokenNotEq,
	">=":    TokenGreaterEq,
	"<=":    TokenLesserEq,
	"+":     TokenPlus,
	"+=":    TokenPlusEq,
	"-":     TokenMinus,
	"-=":    TokenMinusEq,
	":":     TokenColon,
	"{":     TokenLBrace,
	"}":     TokenRBrace,
}

// Spelling returns the fixed source spelling of k, if it has one.
func Spelling(k TokenKind) (string, bool) {
	for s, kind := range spellings {
		if kind == k {
			return s, true
		}
	}
	return "", false
}

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number, counted in runes
	Offset int // 0-based rune offset in the normalized source
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token with position information.
// Value holds the source text for every kind except TokenEndOfInput.
type Token struct {
	Kind  TokenKind
	Value string
	Pos   Position
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Kind == TokenEndOfInput {
		return fmt.Sprintf("{Kind: %s, Line: %d, Column: %d}", t.Kind, t.Pos.Line, t.Pos.Column)
	}
	return fmt.Sprintf("{Kind: %s, Value: %q, Line: %d, Column: %d}",
		t.Kind, t.Value, t.Pos.Line, t.Pos.Column)
}

// Is reports whether the token is one of the given kinds.
func (t Token) Is(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}
