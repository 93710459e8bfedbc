package managers

import (
	"fmt"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/visitors"
)

// DeleteManager provides a fluent API for building MATCH ... DELETE
// statements.
type DeleteManager struct {
	treeManager
	reading
	targets []nodes.Node
	detach  bool
	ret     *nodes.Return
}

// NewDeleteManager creates a manager matching the given pattern parts.
func NewDeleteManager(parts ...nodes.PatternElement) *DeleteManager {
	m := &DeleteManager{}
	return m.Match(parts...)
}

// Match appends a MATCH clause.
func (m *DeleteManager) Match(parts ...nodes.PatternElement) *DeleteManager {
	m.match(&m.treeManager, false, parts)
	return m
}

// Where ANDs conditions into the most recent MATCH.
func (m *DeleteManager) Where(conditions ...nodes.Node) *DeleteManager {
	m.where(&m.treeManager, conditions)
	return m
}

// Delete appends targets to the DELETE clause.
func (m *DeleteManager) Delete(targets ...nodes.Node) *DeleteManager {
	m.targets = append(m.targets, targets...)
	return m
}

// DetachDelete appends targets and makes the clause DETACH DELETE, which
// also removes the targets' relationships.
func (m *DeleteManager) DetachDelete(targets ...nodes.Node) *DeleteManager {
	m.detach = true
	return m.Delete(targets...)
}

// Return sets the RETURN clause. No items means RETURN *.
func (m *DeleteManager) Return(items ...nodes.Node) *DeleteManager {
	m.ret = nodes.NewReturn(items...)
	return m
}

// Use registers a transformer plugin.
func (m *DeleteManager) Use(t plugins.Transformer) *DeleteManager {
	m.addTransformer(t)
	return m
}

// Build applies the transformers and returns the statement.
func (m *DeleteManager) Build() (*nodes.Statement, error) {
	if m.err == nil && len(m.targets) == 0 {
		return nil, fmt.Errorf("%w: nothing to delete", ErrEmptyStatement)
	}
	clauses := append([]nodes.Node(nil), m.matches...)
	if m.detach {
		clauses = append(clauses, nodes.NewDetachDelete(m.targets...))
	} else {
		clauses = append(clauses, nodes.NewDelete(m.targets...))
	}
	if m.ret != nil {
		clauses = append(clauses, m.ret)
	}
	return m.finish(clauses)
}

func (m *DeleteManager) buildNode() (nodes.Node, error) { return m.Build() }

// ToCypher builds the statement and renders it.
func (m *DeleteManager) ToCypher(opts ...visitors.Option) (string, error) {
	return toCypher(m.buildNode, opts)
}

// ToCypherParams builds and renders the statement and returns the
// parameter names it uses.
func (m *DeleteManager) ToCypherParams(opts ...visitors.Option) (string, []string, error) {
	return toCypherParams(m.buildNode, opts)
}
