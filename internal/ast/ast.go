// Package ast defines the Abstract Syntax Tree (AST) nodes for the sc language.
//
// The node set is closed: Node carries an unexported marker method, so only
// this package can declare variants, and Visitor has one method per variant.
// Every child is owned by exactly one parent.
package ast

import (
	"fmt"
	"strings"
)

// Node is the base interface for all AST nodes
type Node interface {
	// String returns the node rendered as sc source
	String() string
	// Accept implements the visitor pattern for AST traversal
	Accept(visitor Visitor) interface{}

	node()
}

// ComparisonOperator is the operator of a ComparisonOp
type ComparisonOperator int

const (
	Equal ComparisonOperator = iota
	NotEqual
	GreaterEqual
	LesserEqual
)

var comparisonSymbols = [...]string{
	Equal:        "==",
	NotEqual:     "!=",
	GreaterEqual: ">=",
	LesserEqual:  "<=",
}

var comparisonNames = [...]string{
	Equal:        "Equal",
	NotEqual:     "NotEqual",
	GreaterEqual: "GreaterEqual",
	LesserEqual:  "LesserEqual",
}

// Symbol returns the source spelling of the operator
func (op ComparisonOperator) Symbol() string {
	if int(op) < len(comparisonSymbols) {
		return comparisonSymbols[op]
	}
	return "?"
}

func (op ComparisonOperator) String() string {
	if int(op) < len(comparisonNames) {
		return comparisonNames[op]
	}
	return fmt.Sprintf("ComparisonOperator(%d)", int(op))
}

// BinaryOperator is the operator of a BinaryOp
type BinaryOperator int

const (
	Plus BinaryOperator = iota
	Minus
)

// Symbol returns the source spelling of the operator
func (op BinaryOperator) Symbol() string {
	switch op {
	case Plus:
		return "+"
	case Minus:
		return "-"
	default:
		return "?"
	}
}

func (op BinaryOperator) String() string {
	switch op {
	case Plus:
		return "Plus"
	case Minus:
		return "Minus"
	default:
		return fmt.Sprintf("BinaryOperator(%d)", int(op))
	}
}

// ===== Statements =====

// Declaration binds a new name: let Target = Value
type Declaration struct {
	Target string
	Value  Node
}

func (d *Declaration) String() string                     { return fmt.Sprintf("let %s = %s", d.Target, d.Value) }
func (d *Declaration) Accept(visitor Visitor) interface{} { return visitor.VisitDeclaration(d) }
func (d *Declaration) node()                              {}

// Assignment rebinds an existing name. The grammar does not produce it yet.
type Assignment struct {
	Target *Variable
	Value  Node
}

func (a *Assignment) String() string                     { return fmt.Sprintf("%s = %s", a.Target, a.Value) }
func (a *Assignment) Accept(visitor Visitor) interface{} { return visitor.VisitAssignment(a) }
func (a *Assignment) node()                              {}

// While repeats Body while Condition holds
type While struct {
	Condition Node
	Body      []Node
}

func (w *While) String() string {
	var b strings.Builder
	b.WriteString("while ")
	b.WriteString(w.Condition.String())
	b.WriteString(" {")
	for _, stmt := range w.Body {
		b.WriteString(" ")
		b.WriteString(stmt.String())
	}
	b.WriteString(" }")
	return b.String()
}
func (w *While) Accept(visitor Visitor) interface{} { return visitor.VisitWhile(w) }
func (w *While) node()                              {}

// ===== Expressions =====

// Variable is a reference to a name
type Variable struct {
	Name string
}

func (v *Variable) String() string                     { return v.Name }
func (v *Variable) Accept(visitor Visitor) interface{} { return visitor.VisitVariable(v) }
func (v *Variable) node()                              {}

// IntLiteral is a signed 64-bit integer constant
type IntLiteral struct {
	Value int64
}

func (i *IntLiteral) String() string                     { return fmt.Sprintf("%d", i.Value) }
func (i *IntLiteral) Accept(visitor Visitor) interface{} { return visitor.VisitIntLiteral(i) }
func (i *IntLiteral) node()                              {}

// ComparisonOp compares two operands
type ComparisonOp struct {
	LHS Node
	RHS Node
	Op  ComparisonOperator
}

func (c *ComparisonOp) String() string {
	return fmt.Sprintf("%s %s %s", c.LHS, c.Op.Symbol(), c.RHS)
}
func (c *ComparisonOp) Accept(visitor Visitor) interface{} { return visitor.VisitComparisonOp(c) }
func (c *ComparisonOp) node()                              {}

// BinaryOp applies an arithmetic operator to two operands
type BinaryOp struct {
	LHS Node
	RHS Node
	Op  BinaryOperator
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("%s %s %s", b.LHS, b.Op.Symbol(), b.RHS)
}
func (b *BinaryOp) Accept(visitor Visitor) interface{} { return visitor.VisitBinaryOp(b) }
func (b *BinaryOp) node()                              {}

// ===== Program =====

// Ast is the result of one parse: top-level nodes in source order
type Ast struct {
	Nodes []Node
}

// New returns an empty Ast
func New() *Ast {
	return &Ast{Nodes: make([]Node, 0)}
}

// Append adds a fully built top-level node
func (a *Ast) Append(n Node) {
	a.Nodes = append(a.Nodes, n)
}

// String renders the program as sc source, one top-level node per line
func (a *Ast) String() string {
	lines := make([]string, len(a.Nodes))
	for i, n := range a.Nodes {
		lines[i] = n.String()
	}
	return strings.Join(lines, "\n")
}
