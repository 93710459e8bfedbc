package nodes

// ExistsNode is an existential subquery: EXISTS { body }. The body is a
// pattern or a statement.
type ExistsNode struct {
	Combinable
	body Node
}

// Exists creates an EXISTS subquery around a statement.
func Exists(body *Statement) *ExistsNode {
	return newExists(body)
}

// ExistsPattern creates an EXISTS subquery that only tests for a pattern.
func ExistsPattern(parts ...PatternElement) *ExistsNode {
	return newExists(NewPattern(parts...))
}

func newExists(body Node) *ExistsNode {
	n := &ExistsNode{body: body}
	n.self = n
	return n
}

func (n *ExistsNode) Body() Node { return n.body }

func (n *ExistsNode) Accept(v Visitor) { Visit(v, n, n.body) }
