// Package parser tests - basic parser functionality tests
package parser

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sclang/sc/internal/ast"
	serrors "github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/lexer"
)

// TestParserBasic tests basic parser functionality
func TestParserBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *ast.Ast
	}{
		{
			name:     "Simple declaration",
			input:    "let x = 5",
			expected: ast.Program(ast.Decl("x", 5)),
		},
		{
			name:  "While loop",
			input: "while x == 1 { x + 1 }",
			expected: ast.Program(
				ast.Loop(ast.Cmp(ast.Var("x"), ast.Equal, ast.Int(1)), ast.Bin(ast.Var("x"), ast.Plus, ast.Int(1))),
			),
		},
		{
			name:     "Empty program",
			input:    " \n\t",
			expected: ast.New(),
		},
		{
			name:  "Empty loop body",
			input: "while 0 == 0 { }",
			expected: ast.Program(
				ast.Loop(ast.Cmp(ast.Int(0), ast.Equal, ast.Int(0))),
			),
		},
		{
			name: "Program",
			input: `let count = 0
let limit = 10
while count <= limit {
	count + 1
	limit - 1
}
let done = 1`,
			expected: ast.Program(
				ast.Decl("count", 0),
				ast.Decl("limit", 10),
				ast.Loop(
					ast.Cmp(ast.Var("count"), ast.LesserEqual, ast.Var("limit")),
					ast.Bin(ast.Var("count"), ast.Plus, ast.Int(1)),
					ast.Bin(ast.Var("limit"), ast.Minus, ast.Int(1)),
				),
				ast.Decl("done", 1),
			),
		},
		{
			name:     "Largest literal",
			input:    "let max = 9223372036854775807",
			expected: ast.Program(ast.Decl("max", 9223372036854775807)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.expected, program)
			require.NoError(t, ast.Validate(program))
		})
	}
}

func TestComparisonOperators(t *testing.T) {
	tests := []struct {
		op   string
		want ast.ComparisonOperator
	}{
		{"==", ast.Equal},
		{"!=", ast.NotEqual},
		{">=", ast.GreaterEqual},
		{"<=", ast.LesserEqual},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			program, err := Parse("while a " + tt.op + " 3 { a - 1 }")
			require.NoError(t, err)
			require.Len(t, program.Nodes, 1)

			loop, ok := program.Nodes[0].(*ast.While)
			require.True(t, ok)
			cond, ok := loop.Condition.(*ast.ComparisonOp)
			require.True(t, ok)
			assert.Equal(t, tt.want, cond.Op)
		})
	}
}

// TestParserErrors tests error handling
func TestParserErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []lexer.TokenKind
		found    lexer.TokenKind
		message  string
	}{
		{
			name:     "Missing identifier",
			input:    "let = 5",
			expected: []lexer.TokenKind{lexer.TokenIdentifier},
			found:    lexer.TokenEq,
			message:  `parse error at 1:5: expected Identifier, found Eq "="`,
		},
		{
			name:     "Declaration of a variable",
			input:    "let x = y",
			expected: []lexer.TokenKind{lexer.TokenIntLiteral},
			found:    lexer.TokenIdentifier,
		},
		{
			name:     "Truncated declaration",
			input:    "let x",
			expected: []lexer.TokenKind{lexer.TokenEq},
			found:    lexer.TokenEndOfInput,
			message:  "parse error at 1:6: expected Eq, found EndOfInput",
		},
		{
			name:     "Unknown top-level statement",
			input:    "x + 1",
			expected: []lexer.TokenKind{lexer.TokenLet, lexer.TokenWhile},
			found:    lexer.TokenIdentifier,
			message:  `parse error at 1:1: expected one of Let, While, found Identifier "x"`,
		},
		{
			name:     "Condition without comparison",
			input:    "while x + 1 { }",
			expected: []lexer.TokenKind{lexer.TokenDoubleEq, lexer.TokenNotEq, lexer.TokenGreaterEq, lexer.TokenLesserEq},
			found:    lexer.TokenPlus,
		},
		{
			name:     "Nested expression in condition",
			input:    "while { == 1 { }",
			expected: []lexer.TokenKind{lexer.TokenIdentifier, lexer.TokenIntLiteral},
			found:    lexer.TokenLBrace,
		},
		{
			name:     "Missing brace",
			input:    "while x == 1 x + 1 }",
			expected: []lexer.TokenKind{lexer.TokenLBrace},
			found:    lexer.TokenIdentifier,
		},
		{
			name:     "Declaration inside loop body",
			input:    "while x == 1 { let y = 2 }",
			expected: []lexer.TokenKind{lexer.TokenIdentifier, lexer.TokenIntLiteral},
			found:    lexer.TokenLet,
		},
		{
			name:     "Bare operand in loop body",
			input:    "while x == 1 { x }",
			expected: []lexer.TokenKind{lexer.TokenPlus, lexer.TokenMinus},
			found:    lexer.TokenRBrace,
		},
		{
			name:     "Unclosed loop",
			input:    "while x == 1 { x + 1",
			expected: []lexer.TokenKind{lexer.TokenRBrace},
			found:    lexer.TokenEndOfInput,
		},
		{
			name:     "Stray closing brace",
			input:    "while x == 1 { x + 1 } }",
			expected: []lexer.TokenKind{lexer.TokenLet, lexer.TokenWhile},
			found:    lexer.TokenRBrace,
		},
		{
			name:     "Glued tokens",
			input:    "let x=1",
			expected: []lexer.TokenKind{lexer.TokenEq},
			found:    lexer.TokenEndOfInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, program)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %T: %v", err, err)
			assert.Equal(t, tt.expected, perr.Expected)
			assert.Equal(t, tt.found, perr.Found)
			if tt.message != "" {
				assert.Equal(t, tt.message, perr.Error())
			}
			assert.Equal(t, serrors.CategorySyntax, serrors.CategoryOf(err))
		})
	}
}

func TestLiteralOutOfRange(t *testing.T) {
	_, err := Parse("let big = 9223372036854775808")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, perr.Expected)
	assert.Equal(t, lexer.TokenIntLiteral, perr.Found)
	assert.ErrorIs(t, err, strconv.ErrRange)
	assert.Equal(t, `parse error at 1:11: integer literal does not fit in 64 bits "9223372036854775808"`, err.Error())
}

func TestLexErrorsSurface(t *testing.T) {
	_, err := Parse("let x = 5x")

	var lexErr *lexer.LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, "5x", lexErr.Text)
	assert.Equal(t, serrors.CategoryLexical, serrors.CategoryOf(err))
}

func TestPermissiveTopLevel(t *testing.T) {
	program, err := ParseWithOptions("x let y = 2 } 7", Options{Permissive: true})
	require.NoError(t, err)

	assert.Equal(t, ast.Program(
		ast.Int(1),
		ast.Decl("y", 2),
		ast.Int(1),
		ast.Int(1),
	), program)

	// errors inside a recognized statement are still fatal
	_, err = ParseWithOptions("let = 2", Options{Permissive: true})
	require.Error(t, err)
}

func TestParseTokens(t *testing.T) {
	tokens := []lexer.Token{
		{Kind: lexer.TokenLet, Value: "let"},
		{Kind: lexer.TokenIdentifier, Value: "n"},
		{Kind: lexer.TokenEq, Value: "="},
		{Kind: lexer.TokenIntLiteral, Value: "12"},
	}

	program, err := ParseTokens(tokens, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ast.Program(ast.Decl("n", 12)), program)
	assert.Len(t, tokens, 4, "caller slice must not grow")

	tokens[3].Value = "1_2"
	_, err = ParseTokens(tokens, DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed integer literal")

	program, err = ParseTokens(nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, program.Nodes)
}

func TestParseTokensRejectsEmbeddedEndOfInput(t *testing.T) {
	tokens := []lexer.Token{
		{Kind: lexer.TokenLet, Value: "let"},
		{Kind: lexer.TokenIdentifier, Value: "x"},
		{Kind: lexer.TokenEq, Value: "="},
		{Kind: lexer.TokenIntLiteral, Value: "1"},
		{Kind: lexer.TokenEndOfInput, Pos: lexer.Position{Line: 1, Column: 10, Offset: 9}},
		{Kind: lexer.TokenLet, Value: "let"},
		{Kind: lexer.TokenIdentifier, Value: "y"},
		{Kind: lexer.TokenEq, Value: "="},
		{Kind: lexer.TokenIntLiteral, Value: "2"},
		{Kind: lexer.TokenEndOfInput},
	}

	for _, opts := range []Options{DefaultOptions(), {Permissive: true}} {
		program, err := ParseTokens(tokens, opts)
		assert.Nil(t, program)

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, lexer.TokenEndOfInput, perr.Found)
		assert.Equal(t, 10, perr.Pos.Column)
		assert.False(t, IsIncomplete(err))
	}
}

func TestZeroParser(t *testing.T) {
	var p Parser
	program, err := p.Parse()
	require.NoError(t, err)
	assert.Empty(t, program.Nodes)
}

func TestNewParserTokens(t *testing.T) {
	p, err := NewParser("let a = 1", DefaultOptions())
	require.NoError(t, err)

	tokens := p.Tokens()
	require.Len(t, tokens, 5)
	assert.Equal(t, lexer.TokenEndOfInput, tokens[4].Kind)

	program, err := p.Parse()
	require.NoError(t, err)
	assert.Len(t, program.Nodes, 1)
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"let x = 5",
		"let a = 1\nwhile a != 10 { a + 1 1 - a }",
		"while 3 >= b { b - 1 }\nwhile b <= 0 { }",
	}

	for _, input := range inputs {
		first, err := Parse(input)
		require.NoError(t, err)

		second, err := Parse(first.String())
		require.NoError(t, err, "reparse of %q", first.String())
		assert.Equal(t, first, second)
	}
}

func TestIsIncomplete(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"while x == 1 {", true},
		{"while x == 1 { x +", true},
		{"let x =", true},
		{"let = 1", false},
		{"let x = 1", false},
		{"let x = 1z", false},
	}

	for _, tt := range tests {
		_, err := Parse(tt.input)
		assert.Equal(t, tt.want, IsIncomplete(err), "input %q", tt.input)
	}
}
