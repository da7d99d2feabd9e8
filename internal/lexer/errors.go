package lexer

import (
	stderrors "errors"
	"fmt"

	"github.com/sclang/sc/internal/errors"
)

// Causes wrapped by LexError
var (
	ErrMalformedLiteral = stderrors.New("malformed integer literal")
	ErrInvalidUTF8      = stderrors.New("invalid UTF-8")
)

// LexError is returned when the source contains text that cannot be
// classified. Lexing stops at the first one.
type LexError struct {
	Text   string
	Pos    Position
	Reason string
	Err    error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Detail())
}

// Detail is the message without its position prefix
func (e *LexError) Detail() string {
	return fmt.Sprintf("%s %q", e.Reason, e.Text)
}

// Category implements errors.Categorized
func (e *LexError) Category() errors.ErrorCategory { return errors.CategoryLexical }

func (e *LexError) Unwrap() error { return e.Err }
