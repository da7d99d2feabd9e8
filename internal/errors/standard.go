// Package errors provides standardized error messaging for sc
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryLexical ErrorCategory = "LEXICAL"
	CategorySyntax  ErrorCategory = "SYNTAX"
	CategoryConfig  ErrorCategory = "CONFIG"
	CategoryIO      ErrorCategory = "IO"
	CategoryUsage   ErrorCategory = "USAGE"
	CategoryVersion ErrorCategory = "VERSION"
	CategoryUnknown ErrorCategory = "UNKNOWN"
)

// Exit codes follow sysexits(3).
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 64
	ExitDataErr = 65
	ExitNoInput = 66
	ExitConfig  = 78
)

// Categorized is implemented by every error that knows its own category,
// including lexer.LexError and parser.ParseError.
type Categorized interface {
	Category() ErrorCategory
}

// StandardError provides a consistent error format
type StandardError struct {
	Kind    ErrorCategory
	Code    string
	Message string
	Context map[string]interface{}
	Caller  string
	Err     error
}

// Error implements the error interface
func (e *StandardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
}

// Category implements Categorized
func (e *StandardError) Category() ErrorCategory { return e.Kind }

func (e *StandardError) Unwrap() error { return e.Err }

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	return newStandardError(2, category, code, message, context)
}

func newStandardError(skip int, category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(skip)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Kind:    category,
		Code:    code,
		Message: message,
		Context: context,
		Caller:  caller,
	}
}

// Common error constructors

func ReadFailed(path string, err error) *StandardError {
	e := newStandardError(2, CategoryIO, "READ_FAILED",
		fmt.Sprintf("cannot read %s", path),
		map[string]interface{}{"path": path})
	e.Err = err
	return e
}

func InvalidConfig(field, reason string) *StandardError {
	return newStandardError(2, CategoryConfig, "INVALID_CONFIG",
		fmt.Sprintf("invalid %s: %s", field, reason),
		map[string]interface{}{"field": field})
}

func IncompatibleVersion(version, constraint string) *StandardError {
	return newStandardError(2, CategoryVersion, "INCOMPATIBLE_VERSION",
		fmt.Sprintf("sc %s does not satisfy %q", version, constraint),
		map[string]interface{}{"version": version, "constraint": constraint})
}

func InvalidUsage(format string, args ...interface{}) *StandardError {
	return newStandardError(2, CategoryUsage, "INVALID_USAGE", fmt.Sprintf(format, args...), nil)
}

// CategoryOf returns the category of the first Categorized error in err's chain.
func CategoryOf(err error) ErrorCategory {
	var c Categorized
	if stderrors.As(err, &c) {
		return c.Category()
	}
	return CategoryUnknown
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch CategoryOf(err) {
	case CategoryLexical, CategorySyntax:
		return ExitDataErr
	case CategoryIO:
		return ExitNoInput
	case CategoryConfig, CategoryVersion:
		return ExitConfig
	case CategoryUsage:
		return ExitUsage
	default:
		return ExitFailure
	}
}
