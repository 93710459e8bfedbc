package nodes

// Combinable provides logical chaining methods to types that embed it.
// The self field must be set to the embedding node.
type Combinable struct {
	self Node
}

// And creates an AndNode combining self with other.
func (c Combinable) And(other Node) *AndNode {
	return NewAnd(c.self, other)
}

// Or creates an OrNode wrapped in a GroupingNode for correct precedence.
func (c Combinable) Or(other Node) *GroupingNode {
	return NewGrouping(NewOr(c.self, other))
}

// Xor creates an XorNode wrapped in a GroupingNode for correct precedence.
func (c Combinable) Xor(other Node) *GroupingNode {
	return NewGrouping(NewXor(c.self, other))
}

// Not creates a NotNode negating self.
func (c Combinable) Not() *NotNode {
	return NewNot(c.self)
}

// AndNode represents a logical AND between two expressions.
type AndNode struct {
	Combinable
	left  Node
	right Node
}

// NewAnd creates an AndNode.
func NewAnd(left, right Node) *AndNode {
	n := &AndNode{left: left, right: right}
	n.self = n
	return n
}

func (n *AndNode) Left() Node  { return n.left }
func (n *AndNode) Right() Node { return n.right }

func (n *AndNode) Accept(v Visitor) { Visit(v, n, n.left, n.right) }

// OrNode represents a logical OR between two expressions.
type OrNode struct {
	Combinable
	left  Node
	right Node
}

// NewOr creates an OrNode. Callers composing with AND should wrap it in a
// GroupingNode; Combinable.Or does that.
func NewOr(left, right Node) *OrNode {
	n := &OrNode{left: left, right: right}
	n.self = n
	return n
}

func (n *OrNode) Left() Node  { return n.left }
func (n *OrNode) Right() Node { return n.right }

func (n *OrNode) Accept(v Visitor) { Visit(v, n, n.left, n.right) }

// XorNode represents a logical XOR between two expressions.
type XorNode struct {
	Combinable
	left  Node
	right Node
}

// NewXor creates an XorNode.
func NewXor(left, right Node) *XorNode {
	n := &XorNode{left: left, right: right}
	n.self = n
	return n
}

func (n *XorNode) Left() Node  { return n.left }
func (n *XorNode) Right() Node { return n.right }

func (n *XorNode) Accept(v Visitor) { Visit(v, n, n.left, n.right) }

// NotNode represents a logical NOT of an expression.
type NotNode struct {
	Combinable
	expr Node
}

// NewNot creates a NotNode.
func NewNot(expr Node) *NotNode {
	n := &NotNode{expr: expr}
	n.self = n
	return n
}

func (n *NotNode) Expr() Node { return n.expr }

func (n *NotNode) Accept(v Visitor) { Visit(v, n, n.expr) }

// GroupingNode wraps an expression in parentheses for precedence control.
type GroupingNode struct {
	Combinable
	expr Node
}

// NewGrouping creates a GroupingNode.
func NewGrouping(expr Node) *GroupingNode {
	n := &GroupingNode{expr: expr}
	n.self = n
	return n
}

func (n *GroupingNode) Expr() Node { return n.expr }

func (n *GroupingNode) Accept(v Visitor) { Visit(v, n, n.expr) }

// AllOf folds conditions with AND. It returns nil for no conditions and the
// condition itself for one.
func AllOf(conds ...Node) Node {
	var out Node
	for _, c := range conds {
		if c == nil {
			continue
		}
		if out == nil {
			out = c
			continue
		}
		out = NewAnd(out, c)
	}
	return out
}
