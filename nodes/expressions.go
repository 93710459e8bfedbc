package nodes

import (
	"fmt"
	"sort"
)

// SymbolicName is a variable bound by a pattern, WITH or UNWIND.
type SymbolicName struct {
	Predications
	Combinable
	Arithmetics
	name string
}

// Var creates a SymbolicName. It panics with ErrEmptyName for an empty name.
func Var(name string) *SymbolicName {
	mustName(name, "variable")
	n := &SymbolicName{name: name}
	n.Predications.self = n
	n.Combinable.self = n
	n.Arithmetics.self = n
	return n
}

func (n *SymbolicName) Name() string { return n.name }

func (n *SymbolicName) Accept(v Visitor) { Visit(v, n) }

// Prop creates a property lookup on this variable: name.key.
func (n *SymbolicName) Prop(key string) *Property {
	return NewProperty(n, key)
}

func mustName(name, what string) {
	if name == "" {
		panic(fmt.Errorf("%w: %s", ErrEmptyName, what))
	}
}

// Property is a property lookup: container.key.
type Property struct {
	Predications
	Combinable
	Arithmetics
	container Node
	key       string
}

// NewProperty creates a Property. The container is usually a SymbolicName
// but may be any map-valued expression.
func NewProperty(container Node, key string) *Property {
	mustName(key, "property key")
	n := &Property{container: container, key: key}
	n.Predications.self = n
	n.Combinable.self = n
	n.Arithmetics.self = n
	return n
}

func (n *Property) Container() Node { return n.container }
func (n *Property) Key() string     { return n.key }

func (n *Property) Accept(v Visitor) { Visit(v, n, n.container) }

// Parameter is a named statement parameter: $name. Its value is bound by
// the execution layer, never embedded in the statement text.
type Parameter struct {
	Predications
	Arithmetics
	name string
}

// Param creates a Parameter.
func Param(name string) *Parameter {
	mustName(name, "parameter")
	n := &Parameter{name: name}
	n.Predications.self = n
	n.Arithmetics.self = n
	return n
}

func (n *Parameter) Name() string { return n.name }

func (n *Parameter) Accept(v Visitor) { Visit(v, n) }

// StarNode is the * projection.
type StarNode struct{}

// Star returns a StarNode.
func Star() *StarNode { return &StarNode{} }

func (n *StarNode) Accept(v Visitor) { Visit(v, n) }

// AliasedExpression names a projected expression: expr AS alias.
type AliasedExpression struct {
	Predications
	expr  Node
	alias string
}

// NewAliasedExpression creates an AliasedExpression.
func NewAliasedExpression(expr Node, alias string) *AliasedExpression {
	mustName(alias, "alias")
	n := &AliasedExpression{expr: expr, alias: alias}
	n.Predications.self = n
	return n
}

func (n *AliasedExpression) Expr() Node    { return n.expr }
func (n *AliasedExpression) Alias() string { return n.alias }

// AsName returns a SymbolicName referring to the alias, for use in later
// clauses.
func (n *AliasedExpression) AsName() *SymbolicName { return Var(n.alias) }

func (n *AliasedExpression) Accept(v Visitor) { Visit(v, n, n.expr) }

// MapEntry is one key: value pair of a MapExpression.
type MapEntry struct {
	key   string
	value Node
}

// Entry creates a MapEntry. Non-node values are converted to literals.
func Entry(key string, value any) *MapEntry {
	mustName(key, "map key")
	return &MapEntry{key: key, value: operand(value)}
}

func (n *MapEntry) Key() string { return n.key }
func (n *MapEntry) Value() Node { return n.value }

func (n *MapEntry) Accept(v Visitor) { Visit(v, n, n.value) }

// MapExpression is a map of keys to arbitrary expressions: {k: v, ...}.
// Entries keep their construction order.
type MapExpression struct {
	entries []*MapEntry
}

// NewMap creates a MapExpression from entries.
func NewMap(entries ...*MapEntry) *MapExpression {
	c := make([]*MapEntry, len(entries))
	copy(c, entries)
	return &MapExpression{entries: c}
}

// Properties creates a MapExpression from a Go map, ordered by key so the
// rendering is deterministic.
func Properties(props map[string]any) *MapExpression {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]*MapEntry, len(keys))
	for i, k := range keys {
		entries[i] = Entry(k, props[k])
	}
	return &MapExpression{entries: entries}
}

// Entries returns a copy of the entries.
func (n *MapExpression) Entries() []*MapEntry {
	out := make([]*MapEntry, len(n.entries))
	copy(out, n.entries)
	return out
}

func (n *MapExpression) Accept(v Visitor) {
	children := make([]Node, len(n.entries))
	for i, e := range n.entries {
		children[i] = e
	}
	Visit(v, n, children...)
}
