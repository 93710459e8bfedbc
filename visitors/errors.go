package visitors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMaxDepth is returned when a tree nests deeper than the renderer's
	// configured maximum.
	ErrMaxDepth = errors.New("cypherbee: maximum nesting depth exceeded")

	// ErrUnbalanced is returned when a traversal leaves nodes entered but
	// not left, which happens when a node kind skips nodes.Visit.
	ErrUnbalanced = errors.New("cypherbee: unbalanced traversal")

	// ErrNilNode is returned when Render is given no root.
	ErrNilNode = errors.New("cypherbee: nil node")
)

// UnknownNodeError is returned by strict renderers for node kinds without
// a rendering rule.
type UnknownNodeError struct {
	Kind string   // Go type of the node, e.g. "*custom.Call"
	Path []string // kinds from the root down to the parent of the node
}

func (e *UnknownNodeError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("cypherbee: no rendering rule for %s at root", e.Kind)
	}
	return fmt.Sprintf("cypherbee: no rendering rule for %s at %s", e.Kind, strings.Join(e.Path, " > "))
}
