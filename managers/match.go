package managers

import (
	"fmt"

	"github.com/bawdo/cypherbee/nodes"
)

// reading holds the MATCH clauses that precede a write, shared by the
// Create, Update and Delete managers.
type reading struct {
	matches []nodes.Node
}

func (r *reading) match(tm *treeManager, optional bool, parts []nodes.PatternElement) {
	if len(parts) == 0 {
		tm.setErr(fmt.Errorf("%w: MATCH needs a pattern", ErrNoClause))
		return
	}
	m := nodes.NewMatch(parts...)
	if optional {
		m = m.Optional()
	}
	r.matches = append(r.matches, m)
}

func (r *reading) where(tm *treeManager, conditions []nodes.Node) {
	cond := nodes.AllOf(conditions...)
	if cond == nil {
		return
	}
	if len(r.matches) == 0 {
		tm.setErr(fmt.Errorf("%w: WHERE needs a preceding MATCH", ErrNoClause))
		return
	}
	last := len(r.matches) - 1
	r.matches[last] = r.matches[last].(*nodes.Match).Where(cond)
}

// whereOn ANDs cond into the WHERE of a MATCH or WITH clause.
func whereOn(clause nodes.Node, cond nodes.Node) (nodes.Node, bool) {
	switch c := clause.(type) {
	case *nodes.Match:
		return c.Where(cond), true
	case *nodes.With:
		return c.Where(cond), true
	}
	return nil, false
}

// returnClause builds RETURN or RETURN DISTINCT.
func returnClause(distinct bool, items []nodes.Node) *nodes.Return {
	r := nodes.NewReturn(items...)
	if distinct {
		r = r.Distinct()
	}
	return r
}
