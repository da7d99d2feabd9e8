// Package parser implements the sc recursive descent parser.
//
// The parser owns the complete token sequence produced by the lexer and
// walks it with a single forward cursor. Every grammar rule consumes all of
// the tokens it matches, leaving the cursor on the first token after it.
// The first error aborts the parse; no partial AST is returned.
package parser

import (
	stderrors "errors"
	"strconv"

	"github.com/sclang/sc/internal/ast"
	"github.com/sclang/sc/internal/lexer"
)

// Options controls parser behaviour.
type Options struct {
	// Permissive turns an unrecognized top-level token into a placeholder
	// IntLiteral{1} node instead of a ParseError, skipping that token.
	Permissive bool
	// Normalize is passed to the lexer (Unicode NFC before scanning).
	Normalize bool
}

// DefaultOptions returns strict parsing with normalization enabled.
func DefaultOptions() Options {
	return Options{Normalize: true}
}

// Parser represents the recursive descent parser. The zero value parses
// an empty program.
type Parser struct {
	tokens []lexer.Token
	idx    int
	opts   Options
}

// Parse tokenises and parses source with default options.
func Parse(source string) (*ast.Ast, error) {
	return ParseWithOptions(source, DefaultOptions())
}

// ParseWithOptions tokenises and parses source.
func ParseWithOptions(source string, opts Options) (*ast.Ast, error) {
	p, err := NewParser(source, opts)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// ParseTokens parses an already tokenised program. A missing trailing
// TokenEndOfInput is supplied; one anywhere else is a ParseError.
func ParseTokens(tokens []lexer.Token, opts Options) (*ast.Ast, error) {
	p, err := newFromTokens(tokens, opts)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// NewParser creates a parser over the tokens of source. Lexical errors are
// returned here, before any grammar rule runs.
func NewParser(source string, opts Options) (*Parser, error) {
	tokens, err := lexer.NewWithOptions(source, lexer.Options{Normalize: opts.Normalize}).Tokenise()
	if err != nil {
		return nil, err
	}
	return newFromTokens(tokens, opts)
}

func newFromTokens(tokens []lexer.Token, opts Options) (*Parser, error) {
	n := len(tokens)
	for i := 0; i < n-1; i++ {
		if tokens[i].Kind == lexer.TokenEndOfInput {
			return nil, &ParseError{Found: lexer.TokenEndOfInput, Pos: tokens[i].Pos}
		}
	}
	if n == 0 || tokens[n-1].Kind != lexer.TokenEndOfInput {
		tokens = append(tokens[:n:n], lexer.Token{Kind: lexer.TokenEndOfInput})
	}
	return &Parser{tokens: tokens, opts: opts}, nil
}

// Tokens returns the token sequence the parser runs over.
func (p *Parser) Tokens() []lexer.Token {
	return p.tokens
}

// Parse runs the grammar over the whole token sequence.
func (p *Parser) Parse() (*ast.Ast, error) {
	return p.parseProgram()
}

// ====== Cursor primitives ======

// current returns the token under the cursor. Reads past the end yield
// the end-of-input sentinel.
func (p *Parser) current() lexer.Token {
	if p.idx < len(p.tokens) {
		return p.tokens[p.idx]
	}
	if len(p.tokens) == 0 {
		return lexer.Token{Kind: lexer.TokenEndOfInput}
	}
	return p.tokens[len(p.tokens)-1]
}

// currentIs reports whether the token under the cursor has the given kind
func (p *Parser) currentIs(kind lexer.TokenKind) bool {
	return p.current().Kind == kind
}

// advance moves the cursor forward by one token
func (p *Parser) advance() {
	if p.idx < len(p.tokens) {
		p.idx++
	}
}

// expect fails unless the current token has the given kind. It never advances.
func (p *Parser) expect(kind lexer.TokenKind) error {
	if p.currentIs(kind) {
		return nil
	}
	return p.mismatch(kind)
}

// expectOneOf fails unless the current token has one of the given kinds.
// It never advances.
func (p *Parser) expectOneOf(kinds ...lexer.TokenKind) error {
	if p.current().Is(kinds...) {
		return nil
	}
	return p.mismatch(kinds...)
}

// ====== Grammar Rules ======

// parseProgram parses top-level statements until end of input
func (p *Parser) parseProgram() (*ast.Ast, error) {
	program := ast.New()

	for !p.currentIs(lexer.TokenEndOfInput) {
		var (
			node ast.Node
			err  error
		)

		switch p.current().Kind {
		case lexer.TokenLet:
			node, err = p.parseDeclaration()
		case lexer.TokenWhile:
			node, err = p.parseWhile()
		default:
			if !p.opts.Permissive {
				return nil, p.mismatch(lexer.TokenLet, lexer.TokenWhile)
			}
			node = &ast.IntLiteral{Value: 1}
			p.advance()
		}
		if err != nil {
			return nil, err
		}
		program.Append(node)
	}

	return program, nil
}

// parseDeclaration parses: let <identifier> = <integer>
func (p *Parser) parseDeclaration() (ast.Node, error) {
	if err := p.expect(lexer.TokenLet); err != nil {
		return nil, err
	}
	p.advance()

	if err := p.expect(lexer.TokenIdentifier); err != nil {
		return nil, err
	}
	target := p.current().Value
	p.advance()

	if err := p.expect(lexer.TokenEq); err != nil {
		return nil, err
	}
	p.advance()

	if err := p.expect(lexer.TokenIntLiteral); err != nil {
		return nil, err
	}
	value, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}

	return &ast.Declaration{Target: target, Value: value}, nil
}

// parseWhile parses: while <condition> { <statement>* }
func (p *Parser) parseWhile() (ast.Node, error) {
	if err := p.expect(lexer.TokenWhile); err != nil {
		return nil, err
	}
	p.advance()

	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	if err := p.expect(lexer.TokenLBrace); err != nil {
		return nil, err
	}
	p.advance()

	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	return &ast.While{Condition: cond, Body: body}, nil
}

// parseBody parses loop statements up to and including the closing brace
func (p *Parser) parseBody() ([]ast.Node, error) {
	body := make([]ast.Node, 0)

	for !p.currentIs(lexer.TokenRBrace) {
		if p.currentIs(lexer.TokenEndOfInput) {
			return nil, p.mismatch(lexer.TokenRBrace)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	p.advance()

	return body, nil
}

var comparisonOperators = map[lexer.TokenKind]ast.ComparisonOperator{
	lexer.TokenDoubleEq:  ast.Equal,
	lexer.TokenNotEq:     ast.NotEqual,
	lexer.TokenGreaterEq: ast.GreaterEqual,
	lexer.TokenLesserEq:  ast.LesserEqual,
}

// parseCondition parses: <operand> (== | != | >= | <=) <operand>
func (p *Parser) parseCondition() (ast.Node, error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if err := p.expectOneOf(lexer.TokenDoubleEq, lexer.TokenNotEq, lexer.TokenGreaterEq, lexer.TokenLesserEq); err != nil {
		return nil, err
	}
	op := comparisonOperators[p.current().Kind]
	p.advance()

	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	return &ast.ComparisonOp{LHS: lhs, RHS: rhs, Op: op}, nil
}

// parseStatement parses a loop body statement: <operand> (+ | -) <operand>
func (p *Parser) parseStatement() (ast.Node, error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if err := p.expectOneOf(lexer.TokenPlus, lexer.TokenMinus); err != nil {
		return nil, err
	}
	op := ast.Plus
	if p.currentIs(lexer.TokenMinus) {
		op = ast.Minus
	}
	p.advance()

	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	return &ast.BinaryOp{LHS: lhs, RHS: rhs, Op: op}, nil
}

// parseOperand parses a variable reference or an integer literal
func (p *Parser) parseOperand() (ast.Node, error) {
	switch p.current().Kind {
	case lexer.TokenIdentifier:
		return p.parseVariable(), nil
	case lexer.TokenIntLiteral:
		return p.parseIntLiteral()
	default:
		return nil, p.mismatch(lexer.TokenIdentifier, lexer.TokenIntLiteral)
	}
}

func (p *Parser) parseVariable() ast.Node {
	v := &ast.Variable{Name: p.current().Value}
	p.advance()
	return v
}

func (p *Parser) parseIntLiteral() (ast.Node, error) {
	tok := p.current()
	value, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		msg := "malformed integer literal"
		if stderrors.Is(err, strconv.ErrRange) {
			msg = "integer literal does not fit in 64 bits"
		}
		return nil, &ParseError{
			Found:     tok.Kind,
			FoundText: tok.Value,
			Pos:       tok.Pos,
			Message:   msg,
			Err:       err,
		}
	}
	p.advance()
	return &ast.IntLiteral{Value: value}, nil
}
