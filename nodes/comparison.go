package nodes

// ComparisonOp represents a binary comparison operator.
type ComparisonOp int

const (
	OpEq ComparisonOp = iota
	OpNotEq
	OpGt
	OpGtEq
	OpLt
	OpLtEq
	OpRegexp
	OpStartsWith
	OpEndsWith
	OpContains
	OpIn
)

var comparisonOpNames = [...]string{
	OpEq:         "=",
	OpNotEq:      "<>",
	OpGt:         ">",
	OpGtEq:       ">=",
	OpLt:         "<",
	OpLtEq:       "<=",
	OpRegexp:     "=~",
	OpStartsWith: "STARTS WITH",
	OpEndsWith:   "ENDS WITH",
	OpContains:   "CONTAINS",
	OpIn:         "IN",
}

// String returns the Cypher operator.
func (op ComparisonOp) String() string {
	if int(op) < len(comparisonOpNames) {
		return comparisonOpNames[op]
	}
	return "?"
}

// ComparisonNode represents a binary comparison: left op right.
type ComparisonNode struct {
	Combinable
	left  Node
	right Node
	op    ComparisonOp
}

// NewComparisonNode creates a ComparisonNode with properly initialised embedded structs.
func NewComparisonNode(left, right Node, op ComparisonOp) *ComparisonNode {
	n := &ComparisonNode{left: left, right: right, op: op}
	n.self = n
	return n
}

func (n *ComparisonNode) Left() Node       { return n.left }
func (n *ComparisonNode) Right() Node      { return n.right }
func (n *ComparisonNode) Op() ComparisonOp { return n.op }

func (n *ComparisonNode) Accept(v Visitor) { Visit(v, n, n.left, n.right) }

// UnaryOp represents a unary postfix operator.
type UnaryOp int

const (
	OpIsNull UnaryOp = iota
	OpIsNotNull
)

// UnaryNode represents a unary predicate: expr IS NULL / IS NOT NULL.
type UnaryNode struct {
	Combinable
	expr Node
	op   UnaryOp
}

// NewUnaryNode creates a UnaryNode.
func NewUnaryNode(expr Node, op UnaryOp) *UnaryNode {
	n := &UnaryNode{expr: expr, op: op}
	n.self = n
	return n
}

func (n *UnaryNode) Expr() Node  { return n.expr }
func (n *UnaryNode) Op() UnaryOp { return n.op }

func (n *UnaryNode) Accept(v Visitor) { Visit(v, n, n.expr) }
