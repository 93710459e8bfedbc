package nodes

import (
	"fmt"
	"strconv"
)

// PatternElement is a node, relationship chain or named path that can
// appear in MATCH, CREATE and MERGE patterns.
type PatternElement interface {
	Node
	isPatternElement()
}

// NodePattern matches or creates a graph node: (n:Label {k: v}).
type NodePattern struct {
	variable   *SymbolicName
	labels     []string
	properties *MapExpression
}

// NewNode creates an anonymous NodePattern with the given labels.
func NewNode(labels ...string) *NodePattern {
	for _, l := range labels {
		mustName(l, "label")
	}
	return &NodePattern{labels: cloneStrings(labels)}
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func (n *NodePattern) isPatternElement() {}

func (n *NodePattern) clone() *NodePattern {
	c := *n
	return &c
}

// Named returns a copy of the pattern bound to the variable name.
func (n *NodePattern) Named(name string) *NodePattern {
	c := n.clone()
	c.variable = Var(name)
	return c
}

// WithProperties returns a copy of the pattern with inline properties.
func (n *NodePattern) WithProperties(props *MapExpression) *NodePattern {
	c := n.clone()
	c.properties = props
	return c
}

// Variable returns the bound variable, or nil for an anonymous node.
func (n *NodePattern) Variable() *SymbolicName { return n.variable }

// Labels returns a copy of the labels.
func (n *NodePattern) Labels() []string { return cloneStrings(n.labels) }

// Properties returns the inline properties, or nil.
func (n *NodePattern) Properties() *MapExpression { return n.properties }

// Prop creates a property lookup on the bound variable. It panics for an
// anonymous node.
func (n *NodePattern) Prop(key string) *Property {
	if n.variable == nil {
		panic(fmt.Errorf("%w: property %q on anonymous node", ErrEmptyName, key))
	}
	return n.variable.Prop(key)
}

// RelationshipTo creates an outgoing relationship: (n)-[:T]->(other).
func (n *NodePattern) RelationshipTo(other *NodePattern, types ...string) *RelationshipPattern {
	return newRelationship(n, other, Outgoing, types)
}

// RelationshipFrom creates an incoming relationship: (n)<-[:T]-(other).
func (n *NodePattern) RelationshipFrom(other *NodePattern, types ...string) *RelationshipPattern {
	return newRelationship(n, other, Incoming, types)
}

// RelationshipBetween creates an undirected relationship: (n)-[:T]-(other).
func (n *NodePattern) RelationshipBetween(other *NodePattern, types ...string) *RelationshipPattern {
	return newRelationship(n, other, Undirected, types)
}

func (n *NodePattern) Accept(v Visitor) {
	if n.properties != nil {
		Visit(v, n, n.properties)
		return
	}
	Visit(v, n)
}

// Direction is the direction of a relationship pattern.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Undirected
)

// RelationshipDetails is the bracketed part of a relationship pattern
// together with its arrows: -[r:T*1..3 {k: v}]->.
type RelationshipDetails struct {
	direction  Direction
	variable   *SymbolicName
	types      []string
	properties *MapExpression
	minHops    int
	maxHops    int
	varLength  bool
}

func (d *RelationshipDetails) Direction() Direction       { return d.direction }
func (d *RelationshipDetails) Variable() *SymbolicName    { return d.variable }
func (d *RelationshipDetails) Types() []string            { return cloneStrings(d.types) }
func (d *RelationshipDetails) Properties() *MapExpression { return d.properties }
func (d *RelationshipDetails) IsVariableLength() bool     { return d.varLength }

// HasContent reports whether the relationship needs brackets.
func (d *RelationshipDetails) HasContent() bool {
	return d.variable != nil || len(d.types) > 0 || d.properties != nil || d.varLength
}

// Length renders the variable length range, e.g. "*", "*1..3", "*..5".
// It returns "" for a fixed-length relationship.
func (d *RelationshipDetails) Length() string {
	if !d.varLength {
		return ""
	}
	switch {
	case d.minHops < 0 && d.maxHops < 0:
		return "*"
	case d.maxHops < 0:
		return "*" + strconv.Itoa(d.minHops) + ".."
	case d.minHops < 0:
		return "*.." + strconv.Itoa(d.maxHops)
	case d.minHops == d.maxHops:
		return "*" + strconv.Itoa(d.minHops)
	default:
		return "*" + strconv.Itoa(d.minHops) + ".." + strconv.Itoa(d.maxHops)
	}
}

func (d *RelationshipDetails) Accept(v Visitor) {
	if d.properties != nil {
		Visit(v, d, d.properties)
		return
	}
	Visit(v, d)
}

// RelationshipPattern connects a pattern element to a node. Chains are
// built by calling RelationshipTo on a RelationshipPattern; the left side
// then holds the preceding chain.
type RelationshipPattern struct {
	left    PatternElement
	details *RelationshipDetails
	right   *NodePattern
}

func newRelationship(left PatternElement, right *NodePattern, dir Direction, types []string) *RelationshipPattern {
	for _, t := range types {
		mustName(t, "relationship type")
	}
	return &RelationshipPattern{
		left:    left,
		right:   right,
		details: &RelationshipDetails{direction: dir, types: cloneStrings(types), minHops: -1, maxHops: -1},
	}
}

func (r *RelationshipPattern) isPatternElement() {}

func (r *RelationshipPattern) Left() PatternElement          { return r.left }
func (r *RelationshipPattern) Right() *NodePattern           { return r.right }
func (r *RelationshipPattern) Details() *RelationshipDetails { return r.details }

func (r *RelationshipPattern) withDetails(f func(d *RelationshipDetails)) *RelationshipPattern {
	d := *r.details
	f(&d)
	return &RelationshipPattern{left: r.left, right: r.right, details: &d}
}

// Named returns a copy of the relationship bound to the variable name.
func (r *RelationshipPattern) Named(name string) *RelationshipPattern {
	sym := Var(name)
	return r.withDetails(func(d *RelationshipDetails) { d.variable = sym })
}

// WithProperties returns a copy of the relationship with inline properties.
func (r *RelationshipPattern) WithProperties(props *MapExpression) *RelationshipPattern {
	return r.withDetails(func(d *RelationshipDetails) { d.properties = props })
}

// Unbounded returns a copy matching any number of hops: [*].
func (r *RelationshipPattern) Unbounded() *RelationshipPattern {
	return r.withDetails(func(d *RelationshipDetails) {
		d.varLength = true
		d.minHops, d.maxHops = -1, -1
	})
}

// Length returns a copy matching between minHops and maxHops hops. Pass -1
// to leave a bound open. Bounds below -1, or a minimum above the maximum,
// fail with ErrInvalidAmount.
func (r *RelationshipPattern) Length(minHops, maxHops int) (*RelationshipPattern, error) {
	if minHops < -1 || maxHops < -1 || (minHops >= 0 && maxHops >= 0 && minHops > maxHops) {
		return nil, fmt.Errorf("%w: hops %d..%d", ErrInvalidAmount, minHops, maxHops)
	}
	return r.withDetails(func(d *RelationshipDetails) {
		d.varLength = true
		d.minHops, d.maxHops = minHops, maxHops
	}), nil
}

// Variable returns the bound relationship variable, or nil.
func (r *RelationshipPattern) Variable() *SymbolicName { return r.details.variable }

// Prop creates a property lookup on the bound relationship variable.
func (r *RelationshipPattern) Prop(key string) *Property {
	if r.details.variable == nil {
		panic(fmt.Errorf("%w: property %q on anonymous relationship", ErrEmptyName, key))
	}
	return r.details.variable.Prop(key)
}

// RelationshipTo extends the chain with an outgoing hop.
func (r *RelationshipPattern) RelationshipTo(other *NodePattern, types ...string) *RelationshipPattern {
	return newRelationship(r, other, Outgoing, types)
}

// RelationshipFrom extends the chain with an incoming hop.
func (r *RelationshipPattern) RelationshipFrom(other *NodePattern, types ...string) *RelationshipPattern {
	return newRelationship(r, other, Incoming, types)
}

// RelationshipBetween extends the chain with an undirected hop.
func (r *RelationshipPattern) RelationshipBetween(other *NodePattern, types ...string) *RelationshipPattern {
	return newRelationship(r, other, Undirected, types)
}

func (r *RelationshipPattern) Accept(v Visitor) { Visit(v, r, r.left, r.details, r.right) }

// NamedPath binds a whole pattern element to a path variable: p = (a)-->(b).
type NamedPath struct {
	name    *SymbolicName
	element PatternElement
}

// Path creates a NamedPath.
func Path(name string, element PatternElement) *NamedPath {
	return &NamedPath{name: Var(name), element: element}
}

func (p *NamedPath) isPatternElement() {}

func (p *NamedPath) Name() *SymbolicName     { return p.name }
func (p *NamedPath) Element() PatternElement { return p.element }

func (p *NamedPath) Accept(v Visitor) { Visit(v, p, p.element) }

// Pattern is a comma separated list of pattern elements.
type Pattern struct {
	parts []PatternElement
}

// NewPattern creates a Pattern.
func NewPattern(parts ...PatternElement) *Pattern {
	c := make([]PatternElement, len(parts))
	copy(c, parts)
	return &Pattern{parts: c}
}

// Parts returns a copy of the pattern elements.
func (p *Pattern) Parts() []PatternElement {
	out := make([]PatternElement, len(p.parts))
	copy(out, p.parts)
	return out
}

func (p *Pattern) Accept(v Visitor) { Visit(v, p, Expressions(p.parts...)...) }
