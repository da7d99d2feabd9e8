package ast

import (
	"fmt"
	"reflect"
)

// Visitor has one method per node variant. Implementing it is the
// compile-time check that a pass handles every kind of node.
type Visitor interface {
	VisitDeclaration(node *Declaration) interface{}
	VisitAssignment(node *Assignment) interface{}
	VisitWhile(node *While) interface{}
	VisitVariable(node *Variable) interface{}
	VisitIntLiteral(node *IntLiteral) interface{}
	VisitComparisonOp(node *ComparisonOp) interface{}
	VisitBinaryOp(node *BinaryOp) interface{}
}

// BaseVisitor returns nil for every node. Embed it to override only the
// methods a pass needs.
type BaseVisitor struct{}

func (v *BaseVisitor) VisitDeclaration(node *Declaration) interface{}   { return nil }
func (v *BaseVisitor) VisitAssignment(node *Assignment) interface{}     { return nil }
func (v *BaseVisitor) VisitWhile(node *While) interface{}               { return nil }
func (v *BaseVisitor) VisitVariable(node *Variable) interface{}         { return nil }
func (v *BaseVisitor) VisitIntLiteral(node *IntLiteral) interface{}     { return nil }
func (v *BaseVisitor) VisitComparisonOp(node *ComparisonOp) interface{} { return nil }
func (v *BaseVisitor) VisitBinaryOp(node *BinaryOp) interface{}         { return nil }

// Children returns the direct sub-nodes of n in source order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Declaration:
		return []Node{n.Value}
	case *Assignment:
		return []Node{n.Target, n.Value}
	case *While:
		return append([]Node{n.Condition}, n.Body...)
	case *ComparisonOp:
		return []Node{n.LHS, n.RHS}
	case *BinaryOp:
		return []Node{n.LHS, n.RHS}
	default:
		return nil
	}
}

// Inspect traverses the tree rooted at n in depth-first order. If fn
// returns false the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, fn)
	}
}

// Stats counts the nodes of a program by variant name.
func Stats(a *Ast) map[string]int {
	counts := make(map[string]int)
	for _, top := range a.Nodes {
		Inspect(top, func(n Node) bool {
			counts[Kind(n)]++
			return true
		})
	}
	return counts
}

// Kind returns the variant name of n.
func Kind(n Node) string {
	switch n.(type) {
	case *Declaration:
		return "Declaration"
	case *Assignment:
		return "Assignment"
	case *While:
		return "While"
	case *Variable:
		return "Variable"
	case *IntLiteral:
		return "IntLiteral"
	case *ComparisonOp:
		return "ComparisonOp"
	case *BinaryOp:
		return "BinaryOp"
	default:
		return fmt.Sprintf("%T", n)
	}
}

// Validate checks the ownership invariants of a program: no nil children and
// no node reachable from two parents.
func Validate(a *Ast) error {
	seen := make(map[Node]bool)
	var err error
	for i, top := range a.Nodes {
		if IsNil(top) {
			return fmt.Errorf("top-level node %d is nil", i)
		}
		Inspect(top, func(n Node) bool {
			if err != nil {
				return false
			}
			if seen[n] {
				err = fmt.Errorf("%s node is shared between parents", Kind(n))
				return false
			}
			seen[n] = true
			for _, child := range Children(n) {
				if IsNil(child) {
					err = fmt.Errorf("%s node has a nil child", Kind(n))
					return false
				}
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// IsNil reports whether n is nil or a typed nil pointer
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
