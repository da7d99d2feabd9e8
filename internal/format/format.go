// Package format prints sc programs in their canonical layout.
package format

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sclang/sc/internal/ast"
	"github.com/sclang/sc/internal/parser"
)

// Options controls formatting style.
type Options struct {
	// IndentSize is the number of spaces per loop level
	IndentSize int
	// PreferTabs indents with one tab per level instead
	PreferTabs bool
	// PreserveNewlineStyle keeps CRLF line endings when the input uses them
	PreserveNewlineStyle bool
}

// DefaultOptions returns the canonical style.
func DefaultOptions() Options {
	return Options{IndentSize: 4, PreserveNewlineStyle: true}
}

func (o Options) indent(level int) string {
	if o.PreferTabs {
		return strings.Repeat("\t", level)
	}
	return strings.Repeat(" ", level*o.IndentSize)
}

// Source parses src and returns it reformatted. Unrecognised top-level
// tokens are always an error here; a placeholder would silently rewrite
// the program.
func Source(src string, opts Options, normalize bool) (string, error) {
	program, err := parser.ParseWithOptions(src, parser.Options{Normalize: normalize})
	if err != nil {
		return "", err
	}

	out := Program(program, opts)
	if opts.PreserveNewlineStyle && strings.Contains(src, "\r\n") {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	return out, nil
}

// Program formats every top-level node, one per line, ending in a newline
func Program(a *ast.Ast, opts Options) string {
	if len(a.Nodes) == 0 {
		return ""
	}
	p := &printer{opts: opts}
	for _, n := range a.Nodes {
		p.statement(n, 0)
	}
	return p.b.String()
}

// Node formats a single node at the top level
func Node(n ast.Node, opts Options) string {
	p := &printer{opts: opts}
	p.statement(n, 0)
	return strings.TrimSuffix(p.b.String(), "\n")
}

type printer struct {
	opts Options
	b    strings.Builder
}

func (p *printer) statement(n ast.Node, level int) {
	p.b.WriteString(p.opts.indent(level))

	loop, ok := n.(*ast.While)
	if !ok {
		p.b.WriteString(n.String())
		p.b.WriteByte('\n')
		return
	}

	p.b.WriteString("while " + loop.Condition.String() + " {")
	if len(loop.Body) == 0 {
		p.b.WriteString(" }\n")
		return
	}
	p.b.WriteByte('\n')
	for _, stmt := range loop.Body {
		p.statement(stmt, level+1)
	}
	p.b.WriteString(p.opts.indent(level) + "}\n")
}

// Diff returns a unified diff from original to formatted, empty when they
// are identical.
func Diff(name, original, formatted string) (string, error) {
	if original == formatted {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(formatted),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
}
