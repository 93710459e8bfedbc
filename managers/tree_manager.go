// Package managers provides fluent builders that assemble Cypher
// statements clause by clause.
//
// Managers are mutable while building and not safe for concurrent use.
// Build produces an immutable *nodes.Statement. Construction errors are
// held rather than returned from each call: the first one is reported by
// Build and ToCypher, and no statement is produced.
package managers

import (
	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/visitors"
)

// treeManager is the shared base for all manager types. It holds the
// transformer pipeline and the first construction error.
type treeManager struct {
	transformers []plugins.Transformer
	err          error
}

// addTransformer appends a transformer plugin to the pipeline.
func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	out := make([]plugins.Transformer, len(tm.transformers))
	copy(out, tm.transformers)
	return out
}

// Err returns the first construction error, if any.
func (tm *treeManager) Err() error { return tm.err }

// setErr records err unless an earlier error is already held.
func (tm *treeManager) setErr(err error) {
	if tm.err == nil && err != nil {
		tm.err = err
	}
}

// finish checks the held error, then runs the transformers over the
// assembled clauses.
func (tm *treeManager) finish(clauses []nodes.Node) (*nodes.Statement, error) {
	if tm.err != nil {
		return nil, tm.err
	}
	if len(clauses) == 0 {
		return nil, ErrEmptyStatement
	}
	return plugins.Apply(nodes.NewStatement(clauses...), tm.transformers...)
}

// toCypher renders the result of build with a fresh renderer.
func toCypher(build func() (nodes.Node, error), opts []visitors.Option) (string, error) {
	root, err := build()
	if err != nil {
		return "", err
	}
	return visitors.NewRenderer(opts...).Render(root)
}

// toCypherParams is like toCypher and also returns the parameter names
// the statement uses, in first-use order.
func toCypherParams(build func() (nodes.Node, error), opts []visitors.Option) (string, []string, error) {
	root, err := build()
	if err != nil {
		return "", nil, err
	}
	out, err := visitors.NewRenderer(opts...).Render(root)
	if err != nil {
		return "", nil, err
	}
	return out, visitors.Parameters(root), nil
}
