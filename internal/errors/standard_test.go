package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lexical struct{}

func (lexical) Error() string           { return "bad numeral" }
func (lexical) Category() ErrorCategory { return CategoryLexical }

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", stderrors.New("boom"), ExitFailure},
		{"lexical", lexical{}, ExitDataErr},
		{"wrapped lexical", fmt.Errorf("main.sc: %w", lexical{}), ExitDataErr},
		{"read", ReadFailed("x.sc", fs.ErrNotExist), ExitNoInput},
		{"config", InvalidConfig("jobs", "must be positive"), ExitConfig},
		{"version", IncompatibleVersion("0.1.0", ">= 2.0.0"), ExitConfig},
		{"usage", InvalidUsage("missing file"), ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestStandardErrorUnwrap(t *testing.T) {
	err := ReadFailed("missing.sc", fs.ErrNotExist)

	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, CategoryIO, CategoryOf(err))
	assert.Equal(t, "READ_FAILED", err.Code)
	assert.Contains(t, err.Error(), "missing.sc")
	assert.Contains(t, err.Caller, "TestStandardErrorUnwrap")
}

func TestCategoryOfUnknown(t *testing.T) {
	assert.Equal(t, CategoryUnknown, CategoryOf(stderrors.New("plain")))
	assert.Equal(t, CategoryUnknown, CategoryOf(nil))
}
