// Package diagnostic renders lex and parse failures against the source they
// came from, in file:line:col form with the offending text underlined.
package diagnostic

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"github.com/sclang/sc/internal/cli"
	"github.com/sclang/sc/internal/lexer"
	"github.com/sclang/sc/internal/parser"
)

// Diagnostic codes
const (
	CodeMalformedLiteral = "E0001"
	CodeInvalidEncoding  = "E0002"
	CodeUnexpectedToken  = "E0100"
	CodeUnexpectedEnd    = "E0101"
	CodeLiteralRange     = "E0102"
)

// Diagnostic is a located failure. Pos.Line is zero when the underlying
// error carries no position.
type Diagnostic struct {
	Path    string
	Pos     lexer.Position
	Code    string
	Message string
	Line    string
	Width   int
	Hints   []string
	Err     error
}

// New builds a diagnostic for err raised while reading source from path.
// normalized must match the lexer option the source was scanned with so
// that columns line up.
func New(path, source string, normalized bool, err error) *Diagnostic {
	d := &Diagnostic{Path: path, Message: err.Error(), Width: 1, Err: err}

	var lexErr *lexer.LexError
	var parseErr *parser.ParseError
	switch {
	case stderrors.As(err, &lexErr):
		d.Pos = lexErr.Pos
		d.Message = lexErr.Detail()
		d.Code = CodeMalformedLiteral
		if stderrors.Is(lexErr, lexer.ErrInvalidUTF8) {
			d.Code = CodeInvalidEncoding
		} else {
			d.Width = max(utf8.RuneCountInString(lexErr.Text), 1)
		}
	case stderrors.As(err, &parseErr):
		d.Pos = parseErr.Pos
		d.Message = parseErr.Detail()
		d.Width = max(utf8.RuneCountInString(parseErr.FoundText), 1)
		switch {
		case parseErr.Message != "":
			d.Code = CodeLiteralRange
		case parseErr.Found == lexer.TokenEndOfInput:
			d.Code = CodeUnexpectedEnd
		default:
			d.Code = CodeUnexpectedToken
		}
	default:
		return d
	}

	for _, s := range parser.Suggest(err) {
		d.Hints = append(d.Hints, s.Message)
	}

	if d.Code != CodeInvalidEncoding {
		if normalized {
			source = norm.NFC.String(source)
		}
		lines := strings.Split(source, "\n")
		if d.Pos.Line >= 1 && d.Pos.Line <= len(lines) {
			d.Line = strings.TrimRight(lines[d.Pos.Line-1], "\r")
		}
	}
	return d
}

func (d *Diagnostic) Error() string {
	if d.Path == "" {
		return d.Err.Error()
	}
	return d.Path + ": " + d.Err.Error()
}

func (d *Diagnostic) Unwrap() error { return d.Err }

// Renderer writes diagnostics for a terminal
type Renderer struct {
	Color bool
}

func (r Renderer) paint(code, s string) string {
	if !r.Color {
		return s
	}
	return cli.Colorize(code, s)
}

// Render writes d with its source line and a caret underline
func (r Renderer) Render(w io.Writer, d *Diagnostic) error {
	var b strings.Builder

	location := d.Path
	if d.Pos.Line > 0 {
		if location != "" {
			location += ":"
		}
		location += d.Pos.String()
	}
	if location != "" {
		b.WriteString(location + ": ")
	}
	label := "error"
	if d.Code != "" {
		label += "[" + d.Code + "]"
	}
	fmt.Fprintf(&b, "%s: %s\n", r.paint("1;31", label), d.Message)

	if d.Pos.Line > 0 && d.Code != CodeInvalidEncoding {
		num := strconv.Itoa(d.Pos.Line)
		gutter := strings.Repeat(" ", len(num))
		bar := r.paint("94", "|")
		fmt.Fprintf(&b, "%s %s\n", gutter, bar)
		fmt.Fprintf(&b, "%s %s %s\n", r.paint("94", num), bar, d.Line)
		fmt.Fprintf(&b, "%s %s %s\n", gutter, bar, r.paint("1;31", caret(d.Line, d.Pos.Column, d.Width)))
	}
	for _, hint := range d.Hints {
		fmt.Fprintf(&b, "  = hint: %s\n", hint)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// caret underlines width runes of line starting at the 1-based column,
// measuring in terminal cells so that wide characters stay aligned.
func caret(line string, column, width int) string {
	runes := []rune(line)
	start := min(max(column-1, 0), len(runes))

	var b strings.Builder
	for _, r := range runes[:start] {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}

	end := min(start+width, len(runes))
	cells := runewidth.StringWidth(string(runes[start:end]))
	b.WriteString(strings.Repeat("^", max(cells, 1)))
	return b.String()
}

// Engine collects diagnostics from concurrent producers
type Engine struct {
	mu    sync.Mutex
	diags []*Diagnostic
}

// Add records d
func (e *Engine) Add(d *Diagnostic) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.diags = append(e.diags, d)
}

// Len returns the number of recorded diagnostics
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.diags)
}

// Diagnostics returns the recorded diagnostics ordered by path and position
func (e *Engine) Diagnostics() []*Diagnostic {
	e.mu.Lock()
	out := append([]*Diagnostic(nil), e.diags...)
	e.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line < b.Pos.Line
		}
		return a.Pos.Column < b.Pos.Column
	})
	return out
}

// Render writes every diagnostic in order
func (e *Engine) Render(w io.Writer, r Renderer) error {
	for _, d := range e.Diagnostics() {
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// Summary describes the outcome over files inputs
func (e *Engine) Summary(files int) string {
	n := e.Len()
	if n == 0 {
		return fmt.Sprintf("no issues found in %d %s", files, plural(files, "file"))
	}
	return fmt.Sprintf("found %d %s in %d %s", n, plural(n, "error"), files, plural(files, "file"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
