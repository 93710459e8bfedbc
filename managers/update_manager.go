package managers

import (
	"fmt"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/visitors"
)

// UpdateManager provides a fluent API for building MATCH ... SET /
// REMOVE statements.
type UpdateManager struct {
	treeManager
	reading
	set    []nodes.Node
	remove []nodes.Node
	ret    *nodes.Return
}

// NewUpdateManager creates a manager matching the given pattern parts.
func NewUpdateManager(parts ...nodes.PatternElement) *UpdateManager {
	m := &UpdateManager{}
	return m.Match(parts...)
}

// Match appends a MATCH clause.
func (m *UpdateManager) Match(parts ...nodes.PatternElement) *UpdateManager {
	m.match(&m.treeManager, false, parts)
	return m
}

// Where ANDs conditions into the most recent MATCH.
func (m *UpdateManager) Where(conditions ...nodes.Node) *UpdateManager {
	m.where(&m.treeManager, conditions)
	return m
}

// Set appends SetItem nodes to the SET clause.
func (m *UpdateManager) Set(items ...nodes.Node) *UpdateManager {
	m.set = append(m.set, items...)
	return m
}

// SetLabels adds labels to v in the SET clause.
func (m *UpdateManager) SetLabels(v *nodes.SymbolicName, labels ...string) *UpdateManager {
	m.set = append(m.set, nodes.NewLabelOperation(v, labels...))
	return m
}

// Remove appends properties to the REMOVE clause.
func (m *UpdateManager) Remove(props ...*nodes.Property) *UpdateManager {
	m.remove = append(m.remove, nodes.Expressions(props...)...)
	return m
}

// RemoveLabels removes labels from v in the REMOVE clause.
func (m *UpdateManager) RemoveLabels(v *nodes.SymbolicName, labels ...string) *UpdateManager {
	m.remove = append(m.remove, nodes.NewLabelOperation(v, labels...))
	return m
}

// Return sets the RETURN clause. No items means RETURN *.
func (m *UpdateManager) Return(items ...nodes.Node) *UpdateManager {
	m.ret = nodes.NewReturn(items...)
	return m
}

// Use registers a transformer plugin.
func (m *UpdateManager) Use(t plugins.Transformer) *UpdateManager {
	m.addTransformer(t)
	return m
}

// Build applies the transformers and returns the statement.
func (m *UpdateManager) Build() (*nodes.Statement, error) {
	if m.err == nil && len(m.set) == 0 && len(m.remove) == 0 {
		return nil, fmt.Errorf("%w: update has no SET or REMOVE", ErrEmptyStatement)
	}
	clauses := append([]nodes.Node(nil), m.matches...)
	if len(m.set) > 0 {
		clauses = append(clauses, nodes.NewSet(m.set...))
	}
	if len(m.remove) > 0 {
		clauses = append(clauses, nodes.NewRemove(m.remove...))
	}
	if m.ret != nil {
		clauses = append(clauses, m.ret)
	}
	return m.finish(clauses)
}

func (m *UpdateManager) buildNode() (nodes.Node, error) { return m.Build() }

// ToCypher builds the statement and renders it.
func (m *UpdateManager) ToCypher(opts ...visitors.Option) (string, error) {
	return toCypher(m.buildNode, opts)
}

// ToCypherParams builds and renders the statement and returns the
// parameter names it uses.
func (m *UpdateManager) ToCypherParams(opts ...visitors.Option) (string, []string, error) {
	return toCypherParams(m.buildNode, opts)
}
