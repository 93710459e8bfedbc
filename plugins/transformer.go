// Package plugins defines the Transformer interface for statement
// middleware, plus helpers for finding and constraining the nodes a
// statement matches.
package plugins

import "github.com/bawdo/cypherbee/nodes"

// Transformer rewrites a statement before it is rendered. Implementations
// must return a new statement and leave their input untouched; the node
// builders already return copies, so this comes for free when a
// transformer only uses them.
type Transformer interface {
	TransformStatement(stmt *nodes.Statement) (*nodes.Statement, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(stmt *nodes.Statement) (*nodes.Statement, error)

func (f TransformerFunc) TransformStatement(stmt *nodes.Statement) (*nodes.Statement, error) {
	return f(stmt)
}

// Apply runs the transformers over stmt in order, stopping at the first
// error.
func Apply(stmt *nodes.Statement, transformers ...Transformer) (*nodes.Statement, error) {
	for _, t := range transformers {
		var err error
		stmt, err = t.TransformStatement(stmt)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}
