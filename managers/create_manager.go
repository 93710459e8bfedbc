package managers

import (
	"fmt"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/visitors"
)

// CreateManager provides a fluent API for building CREATE and MERGE
// statements. Any MATCH clauses come first, then the write clause, then
// SET and RETURN.
type CreateManager struct {
	treeManager
	reading
	create  *nodes.Create
	merge   *nodes.Merge
	actions []*nodes.MergeAction
	set     []nodes.Node
	ret     *nodes.Return
}

// NewCreateManager creates a manager for CREATE over the given pattern
// parts.
func NewCreateManager(parts ...nodes.PatternElement) *CreateManager {
	m := &CreateManager{}
	if len(parts) == 0 {
		m.setErr(fmt.Errorf("%w: CREATE needs a pattern", ErrNoClause))
		return m
	}
	m.create = nodes.NewCreate(parts...)
	return m
}

// NewMergeManager creates a manager for MERGE over the given pattern
// parts.
func NewMergeManager(parts ...nodes.PatternElement) *CreateManager {
	m := &CreateManager{}
	if len(parts) == 0 {
		m.setErr(fmt.Errorf("%w: MERGE needs a pattern", ErrNoClause))
		return m
	}
	m.merge = nodes.NewMerge(parts...)
	return m
}

// Match adds a MATCH clause before the write, binding nodes the pattern
// refers to.
func (m *CreateManager) Match(parts ...nodes.PatternElement) *CreateManager {
	m.match(&m.treeManager, false, parts)
	return m
}

// Where ANDs conditions into the most recent MATCH.
func (m *CreateManager) Where(conditions ...nodes.Node) *CreateManager {
	m.where(&m.treeManager, conditions)
	return m
}

// OnCreateSet adds an ON CREATE SET action. It requires MERGE.
func (m *CreateManager) OnCreateSet(items ...nodes.Node) *CreateManager {
	return m.action(nodes.OnCreate, items)
}

// OnMatchSet adds an ON MATCH SET action. It requires MERGE.
func (m *CreateManager) OnMatchSet(items ...nodes.Node) *CreateManager {
	return m.action(nodes.OnMatch, items)
}

func (m *CreateManager) action(mk func(*nodes.Set) *nodes.MergeAction, items []nodes.Node) *CreateManager {
	if m.merge == nil {
		m.setErr(ErrNotMerge)
		return m
	}
	if len(items) > 0 {
		m.actions = append(m.actions, mk(nodes.NewSet(items...)))
	}
	return m
}

// Set appends items to the SET clause following the write.
func (m *CreateManager) Set(items ...nodes.Node) *CreateManager {
	m.set = append(m.set, items...)
	return m
}

// Return sets the RETURN clause. No items means RETURN *.
func (m *CreateManager) Return(items ...nodes.Node) *CreateManager {
	m.ret = nodes.NewReturn(items...)
	return m
}

// Use registers a transformer plugin.
func (m *CreateManager) Use(t plugins.Transformer) *CreateManager {
	m.addTransformer(t)
	return m
}

// Build applies the transformers and returns the statement.
func (m *CreateManager) Build() (*nodes.Statement, error) {
	clauses := append([]nodes.Node(nil), m.matches...)
	switch {
	case m.create != nil:
		clauses = append(clauses, m.create)
	case m.merge != nil:
		clauses = append(clauses, m.merge.On(m.actions...))
	}
	if len(m.set) > 0 {
		clauses = append(clauses, nodes.NewSet(m.set...))
	}
	if m.ret != nil {
		clauses = append(clauses, m.ret)
	}
	return m.finish(clauses)
}

func (m *CreateManager) buildNode() (nodes.Node, error) { return m.Build() }

// ToCypher builds the statement and renders it.
func (m *CreateManager) ToCypher(opts ...visitors.Option) (string, error) {
	return toCypher(m.buildNode, opts)
}

// ToCypherParams builds and renders the statement and returns the
// parameter names it uses.
func (m *CreateManager) ToCypherParams(opts ...visitors.Option) (string, []string, error) {
	return toCypherParams(m.buildNode, opts)
}
