// Package encode renders token sequences and ASTs for humans and tools.
//
// The json and yaml formats share one generic tree shape: every node is a
// map with a "kind" key naming its variant.
package encode

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"

	"github.com/sclang/sc/internal/ast"
	"github.com/sclang/sc/internal/lexer"
)

// Format selects an output encoding
type Format string

const (
	FormatDebug Format = "debug"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatText  Format = "text"
)

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatDebug, FormatJSON, FormatYAML, FormatText}
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of debug, json, yaml, text)", s)
}

// dumper prints structure only; String methods would collapse nodes
// back into source text.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerMethods:   true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// treeVisitor converts nodes into maps
type treeVisitor struct{}

func (v treeVisitor) VisitDeclaration(node *ast.Declaration) interface{} {
	return map[string]interface{}{"kind": "Declaration", "target": node.Target, "value": Tree(node.Value)}
}

func (v treeVisitor) VisitAssignment(node *ast.Assignment) interface{} {
	return map[string]interface{}{"kind": "Assignment", "target": Tree(node.Target), "value": Tree(node.Value)}
}

func (v treeVisitor) VisitWhile(node *ast.While) interface{} {
	body := make([]interface{}, len(node.Body))
	for i, stmt := range node.Body {
		body[i] = Tree(stmt)
	}
	return map[string]interface{}{"kind": "While", "condition": Tree(node.Condition), "body": body}
}

func (v treeVisitor) VisitVariable(node *ast.Variable) interface{} {
	return map[string]interface{}{"kind": "Variable", "name": node.Name}
}

func (v treeVisitor) VisitIntLiteral(node *ast.IntLiteral) interface{} {
	return map[string]interface{}{"kind": "IntLiteral", "value": node.Value}
}

func (v treeVisitor) VisitComparisonOp(node *ast.ComparisonOp) interface{} {
	return map[string]interface{}{"kind": "ComparisonOp", "op": node.Op.String(), "lhs": Tree(node.LHS), "rhs": Tree(node.RHS)}
}

func (v treeVisitor) VisitBinaryOp(node *ast.BinaryOp) interface{} {
	return map[string]interface{}{"kind": "BinaryOp", "op": node.Op.String(), "lhs": Tree(node.LHS), "rhs": Tree(node.RHS)}
}

// Tree converts a node into nested maps and slices. Missing children,
// including typed nil pointers, become nil.
func Tree(n ast.Node) map[string]interface{} {
	if ast.IsNil(n) {
		return nil
	}
	return n.Accept(treeVisitor{}).(map[string]interface{})
}

// Program converts every top-level node of a
func Program(a *ast.Ast) []interface{} {
	nodes := make([]interface{}, len(a.Nodes))
	for i, n := range a.Nodes {
		nodes[i] = Tree(n)
	}
	return nodes
}

// Tokens converts a token sequence into maps
func Tokens(tokens []lexer.Token) []interface{} {
	out := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		m := map[string]interface{}{
			"kind":   tok.Kind.String(),
			"line":   tok.Pos.Line,
			"column": tok.Pos.Column,
		}
		if tok.Kind != lexer.TokenEndOfInput {
			m["value"] = tok.Value
		}
		out[i] = m
	}
	return out
}

// WriteProgram writes a in format f
func WriteProgram(w io.Writer, f Format, a *ast.Ast) error {
	switch f {
	case FormatText:
		if len(a.Nodes) == 0 {
			return nil
		}
		_, err := fmt.Fprintln(w, a.String())
		return err
	case FormatDebug:
		dumper.Fdump(w, a)
		return nil
	default:
		return writeStructured(w, f, map[string]interface{}{"nodes": Program(a)})
	}
}

// WriteTokens writes tokens in format f
func WriteTokens(w io.Writer, f Format, tokens []lexer.Token) error {
	switch f {
	case FormatText:
		for _, tok := range tokens {
			if _, err := fmt.Fprintf(w, "%-6s %-10s %s\n", tok.Pos, tok.Kind, tok.Value); err != nil {
				return err
			}
		}
		return nil
	case FormatDebug:
		dumper.Fdump(w, tokens)
		return nil
	default:
		return writeStructured(w, f, map[string]interface{}{"tokens": Tokens(tokens)})
	}
}

// WriteError writes a lex or parse failure in format f
func WriteError(w io.Writer, f Format, err error, category string) error {
	switch f {
	case FormatJSON, FormatYAML:
		return writeStructured(w, f, ErrorBody(err, category))
	default:
		_, werr := fmt.Fprintln(w, err.Error())
		return werr
	}
}

// ErrorBody is the structured form of an error
func ErrorBody(err error, category string) map[string]interface{} {
	return map[string]interface{}{"error": err.Error(), "category": category}
}

func writeStructured(w io.Writer, f Format, v interface{}) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}
