package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestTypo(t *testing.T) {
	_, err := Parse("whlie x == 1 { x + 1 }")
	require.Error(t, err)

	suggestions := Suggest(err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "while", suggestions[0].Replacement)
	assert.Equal(t, "did you mean 'while'?", suggestions[0].Message)
}

func TestSuggestGluedTokens(t *testing.T) {
	_, err := Parse("let x = 1\nx==1")
	require.Error(t, err)

	suggestions := Suggest(err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "x == 1", suggestions[0].Replacement)
}

func TestSuggestUnclosedLoop(t *testing.T) {
	_, err := Parse("while x == 1 { x + 1")
	require.Error(t, err)

	suggestions := Suggest(err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "}", suggestions[0].Replacement)
}

func TestSuggestNone(t *testing.T) {
	assert.Nil(t, Suggest(nil))
	assert.Nil(t, Suggest(errors.New("other")))

	_, err := Parse("let = 5")
	require.Error(t, err)
	assert.Empty(t, Suggest(err))
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "let", 3},
		{"let", "", 3},
		{"let", "let", 0},
		{"lte", "let", 2},
		{"whlie", "while", 2},
		{"wile", "while", 1},
		{"変数", "変", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, editDistance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}
