package ast

// Constructors for building trees by hand, mainly in tests and tools.

// Decl builds a Declaration of target bound to an integer literal.
func Decl(target string, value int64) *Declaration {
	return &Declaration{Target: target, Value: Int(value)}
}

// Var builds a Variable.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// Int builds an IntLiteral.
func Int(value int64) *IntLiteral {
	return &IntLiteral{Value: value}
}

// Cmp builds a ComparisonOp.
func Cmp(lhs Node, op ComparisonOperator, rhs Node) *ComparisonOp {
	return &ComparisonOp{LHS: lhs, RHS: rhs, Op: op}
}

// Bin builds a BinaryOp.
func Bin(lhs Node, op BinaryOperator, rhs Node) *BinaryOp {
	return &BinaryOp{LHS: lhs, RHS: rhs, Op: op}
}

// Loop builds a While. A nil body is stored as an empty slice.
func Loop(cond Node, body ...Node) *While {
	if body == nil {
		body = []Node{}
	}
	return &While{Condition: cond, Body: body}
}

// Program builds an Ast from top-level nodes.
func Program(nodes ...Node) *Ast {
	a := New()
	for _, n := range nodes {
		a.Append(n)
	}
	return a
}
