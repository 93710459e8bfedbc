// Package nodes defines the AST node types used to represent Cypher statements.
//
// Every node is immutable once constructed. Nodes take part in rendering
// only through Accept: they announce themselves to a Visitor and forward
// Accept to their children in the order the clause defines. The visitor
// owns all accumulated state.
package nodes

// Node is the interface that all AST nodes implement.
type Node interface {
	Accept(v Visitor)
}

// Visitor is notified as nodes are entered during a traversal. Visitors
// ignore node kinds they have no rule for; the children of such nodes are
// still visited.
type Visitor interface {
	Enter(n Node)
}

// Leaver is implemented by visitors that need a notification once all of
// a node's children have been visited.
type Leaver interface {
	Leave(n Node)
}

// Stopper is implemented by visitors that can abandon a traversal. Once
// Stopped reports true, Visit no longer descends into children, so the
// remaining walk unwinds without recursing further.
type Stopper interface {
	Stopped() bool
}

// Visit performs the traversal contract for n: enter n, accept each
// non-nil child in order, then leave n. Children are skipped once a
// Stopper visitor has stopped. Node kinds defined outside this package
// should implement Accept with Visit.
func Visit(v Visitor, n Node, children ...Node) {
	v.Enter(n)
	stopper, _ := v.(Stopper)
	for _, c := range children {
		if stopper != nil && stopper.Stopped() {
			break
		}
		if c != nil {
			c.Accept(v)
		}
	}
	if l, ok := v.(Leaver); ok {
		l.Leave(n)
	}
}

// Expressions is a convenience for building []Node from typed nodes.
func Expressions[T Node](items ...T) []Node {
	out := make([]Node, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func cloneNodes(in []Node) []Node {
	if len(in) == 0 {
		return nil
	}
	out := make([]Node, len(in))
	copy(out, in)
	return out
}
