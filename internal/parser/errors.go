package parser

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/lexer"
)

// ParseError represents a grammar violation. Expected is empty when the
// failure is not a token mismatch (for example an out-of-range literal).
type ParseError struct {
	Expected  []lexer.TokenKind
	Found     lexer.TokenKind
	FoundText string
	Pos       lexer.Position
	Message   string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Detail())
}

// Detail is the message without its position prefix
func (e *ParseError) Detail() string {
	var b strings.Builder

	if e.Message != "" {
		b.WriteString(e.Message)
		if e.FoundText != "" {
			fmt.Fprintf(&b, " %q", e.FoundText)
		}
		return b.String()
	}

	switch len(e.Expected) {
	case 0:
		fmt.Fprintf(&b, "unexpected %s", e.Found)
	case 1:
		fmt.Fprintf(&b, "expected %s, found %s", e.Expected[0], e.Found)
	default:
		names := make([]string, len(e.Expected))
		for i, k := range e.Expected {
			names[i] = k.String()
		}
		fmt.Fprintf(&b, "expected one of %s, found %s", strings.Join(names, ", "), e.Found)
	}
	if e.FoundText != "" {
		fmt.Fprintf(&b, " %q", e.FoundText)
	}
	return b.String()
}

// Category implements errors.Categorized
func (e *ParseError) Category() errors.ErrorCategory { return errors.CategorySyntax }

func (e *ParseError) Unwrap() error { return e.Err }

// mismatch builds the error for a current token that is not one of kinds
func (p *Parser) mismatch(kinds ...lexer.TokenKind) *ParseError {
	tok := p.current()
	expected := make([]lexer.TokenKind, len(kinds))
	copy(expected, kinds)
	return &ParseError{
		Expected:  expected,
		Found:     tok.Kind,
		FoundText: tok.Value,
		Pos:       tok.Pos,
	}
}

// IsIncomplete reports whether err was caused by the input ending early,
// i.e. more source could still turn it into a valid program.
func IsIncomplete(err error) bool {
	var perr *ParseError
	if !stderrors.As(err, &perr) {
		return false
	}
	return perr.Found == lexer.TokenEndOfInput && len(perr.Expected) > 0
}
