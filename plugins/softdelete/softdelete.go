// Package softdelete provides a Transformer that automatically injects
// "v.property IS NULL" conditions into MATCH clauses, filtering out
// soft-deleted nodes.
//
// By default it appends WHERE v.deleted_at IS NULL for every named,
// labelled node a MATCH binds. Both the property name and the set of
// labels can be customised via options.
//
// # Basic usage
//
//	sd := softdelete.New()
//	query := managers.NewQueryManager().Match(nodes.NewNode("Person").Named("p"))
//	query.Use(sd)
//	// MATCH (p:Person) WHERE p.deleted_at IS NULL ...
//
// # Custom property
//
//	sd := softdelete.New(softdelete.WithProperty("removed_at"))
//	// ... WHERE p.removed_at IS NULL
//
// # Restrict to specific labels
//
//	sd := softdelete.New(softdelete.WithLabels("Person"))
//	// Only Person nodes get the IS NULL condition.
//
// # Per-label properties
//
//	sd := softdelete.New(
//	    softdelete.WithLabelProperty("Person", "deleted_at"),
//	    softdelete.WithLabelProperty("Post", "removed_at"),
//	)
//
// # REPL usage
//
//	cypherbee> plugin softdelete
//	cypherbee> plugin softdelete removed_at
//	cypherbee> plugin softdelete removed_at on Person Post
//	cypherbee> plugin softdelete Person.deleted_at, Post.removed_at
//	cypherbee> plugin off softdelete
//	cypherbee> plugins
package softdelete

import (
	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
)

// SoftDelete is a Transformer that appends IS NULL conditions for a
// soft-delete property on every matched labelled node (or a configured
// subset of labels).
type SoftDelete struct {
	Property   string
	Properties map[string]string // per-label property overrides (label → property)
	labels     map[string]bool   // nil means apply to all labels
	added      []nodes.Node
}

// Option configures a SoftDelete transformer.
type Option func(*SoftDelete)

// WithProperty sets the soft-delete property name. Default is "deleted_at".
func WithProperty(name string) Option {
	return func(sd *SoftDelete) { sd.Property = name }
}

// WithLabels restricts the plugin to nodes carrying one of the labels.
func WithLabels(labels ...string) Option {
	return func(sd *SoftDelete) {
		sd.labels = make(map[string]bool, len(labels))
		for _, l := range labels {
			sd.labels[l] = true
		}
	}
}

// WithLabelProperty sets a per-label property override. The label is
// automatically added to the whitelist, restricting the plugin's scope.
func WithLabelProperty(label, property string) Option {
	return func(sd *SoftDelete) {
		if sd.Properties == nil {
			sd.Properties = make(map[string]string)
		}
		sd.Properties[label] = property
		if sd.labels == nil {
			sd.labels = make(map[string]bool)
		}
		sd.labels[label] = true
	}
}

// New creates a SoftDelete transformer with the given options.
func New(opts ...Option) *SoftDelete {
	sd := &SoftDelete{Property: "deleted_at"}
	for _, o := range opts {
		o(sd)
	}
	return sd
}

// TransformStatement appends "v.property IS NULL" to the WHERE of the
// MATCH that first binds each matching node.
func (sd *SoftDelete) TransformStatement(stmt *nodes.Statement) (*nodes.Statement, error) {
	sd.added = sd.added[:0]
	byClause := map[int][]nodes.Node{}
	var order []int
	for _, ref := range plugins.CollectNodes(stmt) {
		label, ok := sd.appliesTo(ref)
		if !ok {
			continue
		}
		cond := ref.Variable.Prop(sd.propertyFor(label)).IsNull()
		sd.added = append(sd.added, cond)
		if _, seen := byClause[ref.Clause]; !seen {
			order = append(order, ref.Clause)
		}
		byClause[ref.Clause] = append(byClause[ref.Clause], cond)
	}
	for _, clause := range order {
		stmt = plugins.AddCondition(stmt, clause, byClause[clause]...)
	}
	return stmt, nil
}

// Added returns the conditions injected by the most recent
// TransformStatement call, for provenance display.
func (sd *SoftDelete) Added() []nodes.Node {
	out := make([]nodes.Node, len(sd.added))
	copy(out, sd.added)
	return out
}

// appliesTo returns the first label of ref the plugin covers.
func (sd *SoftDelete) appliesTo(ref plugins.NodeRef) (string, bool) {
	for _, l := range ref.Labels {
		if sd.labels == nil || sd.labels[l] {
			return l, true
		}
	}
	return "", false
}

// propertyFor returns the property name to use for the given label.
// It checks Properties for a per-label override, falling back to Property.
func (sd *SoftDelete) propertyFor(label string) string {
	if sd.Properties != nil {
		if p, ok := sd.Properties[label]; ok {
			return p
		}
	}
	return sd.Property
}
