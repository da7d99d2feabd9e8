package parser

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sclang/sc/internal/lexer"
)

// Suggestion is a hint attached to a ParseError for display.
type Suggestion struct {
	Message     string
	Replacement string
	Confidence  float64
}

// operatorRunes are the runes that only appear in operator spellings.
const operatorRunes = "=+-!<>:{}"

// Suggest derives hints for err. It returns nil for errors that are not
// ParseErrors or that have no useful hint.
func Suggest(err error) []Suggestion {
	var perr *ParseError
	if !stderrors.As(err, &perr) {
		return nil
	}

	var suggestions []Suggestion
	if perr.Found == lexer.TokenIdentifier {
		suggestions = append(suggestions, typoCorrections(perr.FoundText, perr.Expected)...)
		if s, ok := gluedTokens(perr.FoundText); ok {
			suggestions = append(suggestions, s)
		}
	}
	if perr.Found == lexer.TokenEndOfInput && expects(perr.Expected, lexer.TokenRBrace) {
		suggestions = append(suggestions, Suggestion{
			Message:     "loop body is not closed; add '}'",
			Replacement: "}",
			Confidence:  0.9,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}

// typoCorrections proposes expected keywords within two edits of word
func typoCorrections(word string, expected []lexer.TokenKind) []Suggestion {
	var suggestions []Suggestion
	for _, kind := range expected {
		spelling, ok := lexer.Spelling(kind)
		if !ok {
			continue
		}
		distance := editDistance(word, spelling)
		if distance == 0 || distance > 2 {
			continue
		}
		confidence := 1.0 - float64(distance)/float64(len([]rune(spelling)))
		if confidence < 0.5 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Message:     fmt.Sprintf("did you mean '%s'?", spelling),
			Replacement: spelling,
			Confidence:  confidence,
		})
	}
	return suggestions
}

// gluedTokens recognizes identifiers such as "x=1" that contain operators
// with no surrounding whitespace.
func gluedTokens(word string) (Suggestion, bool) {
	if !strings.ContainsAny(word, operatorRunes) || strings.Trim(word, operatorRunes) == "" {
		return Suggestion{}, false
	}

	var b strings.Builder
	prevOp := false
	for i, r := range word {
		isOp := strings.ContainsRune(operatorRunes, r)
		if i > 0 && isOp != prevOp {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prevOp = isOp
	}
	return Suggestion{
		Message:     "tokens must be separated by whitespace",
		Replacement: b.String(),
		Confidence:  0.8,
	}, true
}

func expects(kinds []lexer.TokenKind, kind lexer.TokenKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// editDistance calculates the Levenshtein distance between two strings
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
