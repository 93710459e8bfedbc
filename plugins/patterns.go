package plugins

import (
	"slices"

	"github.com/bawdo/cypherbee/nodes"
)

// NodeRef describes a named node bound by a MATCH clause.
type NodeRef struct {
	Variable *nodes.SymbolicName
	Labels   []string // all labels the variable is given anywhere in the statement
	Clause   int      // index of the first MATCH clause binding the variable
	Optional bool     // whether that clause is an OPTIONAL MATCH
}

// HasLabel reports whether the node carries label.
func (r NodeRef) HasLabel(label string) bool {
	return slices.Contains(r.Labels, label)
}

// nodeCollector gathers named node patterns in traversal order.
type nodeCollector struct {
	found []*nodes.NodePattern
}

func (c *nodeCollector) Enter(n nodes.Node) {
	if np, ok := n.(*nodes.NodePattern); ok && np.Variable() != nil {
		c.found = append(c.found, np)
	}
}

// CollectNodes returns every named node bound by the statement's MATCH
// clauses, one entry per variable in first-binding order. Anonymous nodes
// and nodes introduced by CREATE or MERGE are skipped.
func CollectNodes(stmt *nodes.Statement) []NodeRef {
	var refs []NodeRef
	index := map[string]int{}
	for i, clause := range stmt.Clauses() {
		m, ok := clause.(*nodes.Match)
		if !ok {
			continue
		}
		var c nodeCollector
		m.Pattern().Accept(&c)
		for _, np := range c.found {
			name := np.Variable().Name()
			at, seen := index[name]
			if !seen {
				index[name] = len(refs)
				refs = append(refs, NodeRef{Variable: np.Variable(), Clause: i, Optional: m.IsOptional()})
				at = len(refs) - 1
			}
			for _, l := range np.Labels() {
				if !refs[at].HasLabel(l) {
					refs[at].Labels = append(refs[at].Labels, l)
				}
			}
		}
	}
	return refs
}

// AddCondition returns a copy of stmt with conds ANDed into the WHERE of
// the MATCH clause at index clause. It returns stmt itself when there is
// nothing to add or the clause is not a MATCH.
func AddCondition(stmt *nodes.Statement, clause int, conds ...nodes.Node) *nodes.Statement {
	cond := nodes.AllOf(conds...)
	if cond == nil || clause < 0 || clause >= stmt.Len() {
		return stmt
	}
	m, ok := stmt.Clauses()[clause].(*nodes.Match)
	if !ok {
		return stmt
	}
	return stmt.Replace(clause, m.Where(cond))
}
