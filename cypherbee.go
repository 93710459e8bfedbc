// Package cypherbee provides a fluent Cypher statement builder for Go.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/cypherbee/managers (statement builders)
//   - github.com/bawdo/cypherbee/nodes (AST nodes)
//   - github.com/bawdo/cypherbee/visitors (Cypher rendering)
//   - github.com/bawdo/cypherbee/plugins (statement transformers)
package cypherbee

import (
	"github.com/bawdo/cypherbee/managers"
	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/visitors"
)

// --- Manager Types ---

// QueryManager provides a fluent API for building reading statements.
type QueryManager = managers.QueryManager

// CreateManager provides a fluent API for building CREATE and MERGE statements.
type CreateManager = managers.CreateManager

// UpdateManager provides a fluent API for building SET and REMOVE statements.
type UpdateManager = managers.UpdateManager

// DeleteManager provides a fluent API for building DELETE statements.
type DeleteManager = managers.DeleteManager

// --- Manager Constructors ---

// NewQuery creates an empty QueryManager.
func NewQuery() *managers.QueryManager {
	return managers.NewQueryManager()
}

// NewCreate creates a CreateManager that creates the given pattern.
func NewCreate(parts ...nodes.PatternElement) *managers.CreateManager {
	return managers.NewCreateManager(parts...)
}

// NewMerge creates a CreateManager that merges the given pattern.
func NewMerge(parts ...nodes.PatternElement) *managers.CreateManager {
	return managers.NewMergeManager(parts...)
}

// NewUpdate creates an UpdateManager matching the given pattern.
func NewUpdate(parts ...nodes.PatternElement) *managers.UpdateManager {
	return managers.NewUpdateManager(parts...)
}

// NewDelete creates a DeleteManager matching the given pattern.
func NewDelete(parts ...nodes.PatternElement) *managers.DeleteManager {
	return managers.NewDeleteManager(parts...)
}

// --- Core Node Types ---

// Node is the base interface all AST nodes implement.
type Node = nodes.Node

// NodePattern represents a node pattern such as (p:Person).
type NodePattern = nodes.NodePattern

// SymbolicName represents a variable bound by a pattern or projection.
type SymbolicName = nodes.SymbolicName

// Property represents a property lookup (e.g., p.name).
type Property = nodes.Property

// --- Common Node Constructors ---

// NewNode creates a node pattern with the given labels.
func NewNode(labels ...string) *nodes.NodePattern {
	return nodes.NewNode(labels...)
}

// Var references a variable by name.
func Var(name string) *nodes.SymbolicName {
	return nodes.Var(name)
}

// Param creates a named parameter ($name).
func Param(name string) *nodes.Parameter {
	return nodes.Param(name)
}

// Literal converts a Go value to a Cypher literal. Values with no Cypher
// representation return an error wrapping nodes.ErrUnsupportedLiteral.
func Literal(value any) (nodes.Literal, error) {
	return nodes.LiteralOf(value)
}

// Case creates a CASE expression, simple when a subject is given.
func Case(subject ...nodes.Node) *nodes.CaseNode {
	return nodes.NewCase(subject...)
}

// Exists creates an EXISTS subquery over a pattern.
func Exists(parts ...nodes.PatternElement) *nodes.ExistsNode {
	return nodes.ExistsPattern(parts...)
}

// Properties creates a map expression from a Go map, with keys sorted.
func Properties(props map[string]any) *nodes.MapExpression {
	return nodes.Properties(props)
}

// Star creates * for RETURN * and count(*).
func Star() *nodes.StarNode {
	return nodes.Star()
}

// AllOf ANDs the conditions together, or returns nil when there are none.
func AllOf(conds ...nodes.Node) nodes.Node {
	return nodes.AllOf(conds...)
}

// --- Aggregate Functions ---

// Count creates a count(expr) aggregate.
func Count(expr nodes.Node) *nodes.FunctionInvocation {
	return nodes.Count(expr)
}

// CountDistinct creates a count(DISTINCT expr) aggregate.
func CountDistinct(expr nodes.Node) *nodes.FunctionInvocation {
	return nodes.CountDistinct(expr)
}

// Collect creates a collect(expr) aggregate.
func Collect(expr nodes.Node) *nodes.FunctionInvocation {
	return nodes.Collect(expr)
}

// Sum creates a sum(expr) aggregate.
func Sum(expr nodes.Node) *nodes.FunctionInvocation {
	return nodes.Sum(expr)
}

// Avg creates an avg(expr) aggregate.
func Avg(expr nodes.Node) *nodes.FunctionInvocation {
	return nodes.Avg(expr)
}

// Min creates a min(expr) aggregate.
func Min(expr nodes.Node) *nodes.FunctionInvocation {
	return nodes.Min(expr)
}

// Max creates a max(expr) aggregate.
func Max(expr nodes.Node) *nodes.FunctionInvocation {
	return nodes.Max(expr)
}

// --- Rendering ---

// Renderer turns a statement tree into Cypher text.
type Renderer = visitors.Renderer

// NewRenderer creates a Renderer.
func NewRenderer(opts ...visitors.Option) *visitors.Renderer {
	return visitors.NewRenderer(opts...)
}

// Render renders root with default options.
func Render(root nodes.Node) (string, error) {
	return visitors.Render(root)
}

// Parameters returns the distinct parameter names used under n, in order
// of first appearance.
func Parameters(n nodes.Node) []string {
	return visitors.Parameters(n)
}

// --- Renderer Options ---

// WithPrettyPrint puts each clause on its own line.
func WithPrettyPrint() visitors.Option {
	return visitors.WithPrettyPrint()
}

// WithStrict makes rendering fail on node types the renderer does not know.
func WithStrict() visitors.Option {
	return visitors.WithStrict()
}

// WithAlwaysEscapeNames quotes every name in backticks, even when it is a
// valid identifier.
func WithAlwaysEscapeNames() visitors.Option {
	return visitors.WithAlwaysEscapeNames()
}
