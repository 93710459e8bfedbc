// Package testutil provides shared test helpers for the cypherbee project.
package testutil

import (
	"fmt"

	"github.com/bawdo/cypherbee/nodes"
)

// RecordingVisitor records the Go type of every node it enters and leaves,
// in traversal order. Entries are "+*nodes.Limit" on enter and
// "-*nodes.Limit" on leave.
type RecordingVisitor struct {
	Events []string
}

var (
	_ nodes.Visitor = (*RecordingVisitor)(nil)
	_ nodes.Leaver  = (*RecordingVisitor)(nil)
)

func (rv *RecordingVisitor) Enter(n nodes.Node) { rv.Events = append(rv.Events, fmt.Sprintf("+%T", n)) }
func (rv *RecordingVisitor) Leave(n nodes.Node) { rv.Events = append(rv.Events, fmt.Sprintf("-%T", n)) }

// EnterOnly records entries and has no Leave method.
type EnterOnly struct {
	Entered []nodes.Node
}

func (e *EnterOnly) Enter(n nodes.Node) { e.Entered = append(e.Entered, n) }
