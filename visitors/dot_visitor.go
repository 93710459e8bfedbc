package visitors

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bawdo/cypherbee/nodes"
)

// Color constants for DOT node categories.
const (
	colorClause     = "#6CA6CD" // blue: clauses, statements
	colorVariable   = "#B0D4E8" // light blue: variables, properties, parameters
	colorComparison = "#FFB347" // orange: comparisons, predicates
	colorLogical    = "#FFEB80" // yellow: AND, OR, XOR, NOT, grouping
	colorLiteral    = "#D3D3D3" // grey: literals
	colorPattern    = "#77DD77" // green: node and relationship patterns
	colorOrdering   = "#CDA0E0" // purple: ORDER BY, SKIP, LIMIT
	colorWrite      = "#FF6961" // red: CREATE, MERGE, SET, REMOVE, DELETE
	colorMap        = "#98FB98" // mint green: maps
	colorFunction   = "#87CEEB" // sky blue: function calls
	colorUnknown    = "#FFFFFF" // node kinds defined outside this module
)

// dotNode represents a single node in the DOT graph.
type dotNode struct {
	id    string
	label string
	color string
}

// dotEdge represents a directed edge between two nodes in the DOT graph.
type dotEdge struct {
	from  string
	to    string
	label string
}

// pluginCluster groups nodes added by a plugin into a DOT subgraph cluster.
type pluginCluster struct {
	name    string
	color   string
	nodeIDs []string
}

// PluginProvenance records which nodes were added by which plugin. A
// marked node and everything below it is drawn inside the plugin's
// cluster.
type PluginProvenance struct {
	entries []provenanceEntry
}

type provenanceEntry struct {
	plugin string
	color  string
	node   nodes.Node
}

// NewPluginProvenance creates a new PluginProvenance tracker.
func NewPluginProvenance() *PluginProvenance {
	return &PluginProvenance{}
}

// Mark attributes n, which must be a pointer node, to plugin.
func (pp *PluginProvenance) Mark(plugin, color string, n nodes.Node) {
	pp.entries = append(pp.entries, provenanceEntry{plugin: plugin, color: color, node: n})
}

// Len returns the number of marked nodes.
func (pp *PluginProvenance) Len() int { return len(pp.entries) }

func (pp *PluginProvenance) pluginFor(n nodes.Node) (string, string, bool) {
	if pp == nil || !reflect.TypeOf(n).Comparable() {
		return "", "", false
	}
	for _, e := range pp.entries {
		if reflect.TypeOf(e.node) == reflect.TypeOf(n) && e.node == n {
			return e.plugin, e.color, true
		}
	}
	return "", "", false
}

// dotFrame is one entered node: its DOT id, the cluster it was drawn in
// (-1 for none) and how many children it has so far.
type dotFrame struct {
	node     nodes.Node
	id       string
	cluster  int
	children int
}

// DotVisitor walks the AST and produces Graphviz DOT output.
// It implements nodes.Visitor and nodes.Leaver.
type DotVisitor struct {
	nextID     int
	nodes      []dotNode
	edges      []dotEdge
	clusters   []pluginCluster
	stack      []dotFrame
	provenance *PluginProvenance
}

var (
	_ nodes.Visitor = (*DotVisitor)(nil)
	_ nodes.Leaver  = (*DotVisitor)(nil)
)

// NewDotVisitor creates a new DotVisitor ready to walk an AST.
func NewDotVisitor() *DotVisitor {
	return &DotVisitor{}
}

// SetProvenance configures plugin provenance tracking.
func (dv *DotVisitor) SetProvenance(p *PluginProvenance) {
	dv.provenance = p
}

// addNode creates a new DOT node with the given label and color, returning its ID.
func (dv *DotVisitor) addNode(label, color string) string {
	id := fmt.Sprintf("n%d", dv.nextID)
	dv.nextID++
	dv.nodes = append(dv.nodes, dotNode{id: id, label: label, color: color})
	return id
}

// addEdge records a directed edge from one node to another.
func (dv *DotVisitor) addEdge(from, to, label string) {
	dv.edges = append(dv.edges, dotEdge{from: from, to: to, label: label})
}

// clusterIndex returns the index of the named cluster, creating it.
func (dv *DotVisitor) clusterIndex(name, color string) int {
	for i, c := range dv.clusters {
		if c.name == name {
			return i
		}
	}
	dv.clusters = append(dv.clusters, pluginCluster{name: name, color: color})
	return len(dv.clusters) - 1
}

// Enter adds a DOT node for n and connects it to the enclosing node.
func (dv *DotVisitor) Enter(n nodes.Node) {
	label, color := describe(n)
	id := dv.addNode(label, color)
	cluster := -1
	if len(dv.stack) > 0 {
		parent := &dv.stack[len(dv.stack)-1]
		dv.addEdge(parent.id, id, edgeLabel(parent.node, parent.children))
		parent.children++
		cluster = parent.cluster
	}
	if plugin, pcolor, ok := dv.provenance.pluginFor(n); ok {
		cluster = dv.clusterIndex(plugin, pcolor)
	}
	if cluster >= 0 {
		dv.clusters[cluster].nodeIDs = append(dv.clusters[cluster].nodeIDs, id)
	}
	dv.stack = append(dv.stack, dotFrame{node: n, id: id, cluster: cluster})
}

// Leave closes the node opened by the matching Enter.
func (dv *DotVisitor) Leave(nodes.Node) {
	if len(dv.stack) > 0 {
		dv.stack = dv.stack[:len(dv.stack)-1]
	}
}

// Dot walks n with a fresh DotVisitor and returns the DOT text.
func Dot(n nodes.Node, p *PluginProvenance) string {
	dv := NewDotVisitor()
	dv.SetProvenance(p)
	n.Accept(dv)
	return dv.ToDot()
}

// ToDot returns the complete DOT graph.
func (dv *DotVisitor) ToDot() string {
	var sb strings.Builder

	sb.WriteString("digraph AST {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")

	// Collect IDs that belong to clusters so we can exclude them from the main body.
	clustered := make(map[string]bool)
	for _, c := range dv.clusters {
		for _, id := range c.nodeIDs {
			clustered[id] = true
		}
	}

	byID := make(map[string]dotNode, len(dv.nodes))
	for _, n := range dv.nodes {
		byID[n.id] = n
		if !clustered[n.id] {
			fmt.Fprintf(&sb, "  %s [label=\"%s\", fillcolor=\"%s\"];\n",
				n.id, escapeLabel(n.label), n.color)
		}
	}

	for i, c := range dv.clusters {
		fmt.Fprintf(&sb, "  subgraph cluster_%d_%s {\n", i, c.name)
		fmt.Fprintf(&sb, "    label=\"%s\";\n", escapeLabel(c.name))
		sb.WriteString("    style=dashed;\n")
		fmt.Fprintf(&sb, "    color=\"%s\";\n", c.color)
		sb.WriteString("    fontname=\"Helvetica\";\n")
		for _, id := range c.nodeIDs {
			n := byID[id]
			fmt.Fprintf(&sb, "    %s [label=\"%s\", fillcolor=\"%s\"];\n",
				n.id, escapeLabel(n.label), n.color)
		}
		sb.WriteString("  }\n")
	}

	for _, e := range dv.edges {
		if e.label != "" {
			fmt.Fprintf(&sb, "  %s -> %s [label=\"%s\"];\n", e.from, e.to, e.label)
		} else {
			fmt.Fprintf(&sb, "  %s -> %s;\n", e.from, e.to)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// escapeLabel escapes double quotes in DOT labels.
// Backslash sequences like \n are intentional DOT line breaks and are preserved.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// edgeLabel names the edge to the i-th child of parent, if it has a role.
func edgeLabel(parent nodes.Node, i int) string {
	switch parent.(type) {
	case *nodes.ComparisonNode, *nodes.AndNode, *nodes.OrNode, *nodes.XorNode,
		*nodes.ArithmeticNode:
		if i == 0 {
			return "LEFT"
		}
		return "RIGHT"
	case *nodes.SetItem:
		if i == 0 {
			return "TARGET"
		}
		return "VALUE"
	case *nodes.RelationshipPattern:
		return [...]string{"FROM", "REL", "TO"}[min(i, 2)]
	case *nodes.CaseWhen:
		if i == 0 {
			return "WHEN"
		}
		return "THEN"
	case *nodes.Property:
		return "OF"
	}
	return ""
}

// describe returns the DOT label and fill color for a node.
func describe(n nodes.Node) (string, string) {
	switch n := n.(type) {
	case *nodes.Statement:
		return "Statement", colorClause
	case *nodes.Union:
		if n.IsAll() {
			return "Union\\nALL", colorClause
		}
		return "Union", colorClause
	case *nodes.Match:
		if n.IsOptional() {
			return "OptionalMatch", colorClause
		}
		return "Match", colorClause
	case *nodes.Where:
		return "Where", colorClause
	case *nodes.Return:
		return distinctLabel("Return", n.IsDistinct()), colorClause
	case *nodes.With:
		return distinctLabel("With", n.IsDistinct()), colorClause
	case *nodes.Unwind:
		return "Unwind\\nAS " + n.Alias(), colorClause
	case *nodes.ExpressionList:
		return "Items", colorClause
	case *nodes.OrderBy:
		return "OrderBy", colorOrdering
	case *nodes.SortItem:
		switch n.Direction() {
		case nodes.Ascending:
			return "Sort\\nASC", colorOrdering
		case nodes.Descending:
			return "Sort\\nDESC", colorOrdering
		}
		return "Sort", colorOrdering
	case *nodes.Skip:
		return "Skip", colorOrdering
	case *nodes.Limit:
		return "Limit", colorOrdering
	case *nodes.Create:
		return "Create", colorWrite
	case *nodes.Merge:
		return "Merge", colorWrite
	case *nodes.MergeAction:
		if n.IsOnCreate() {
			return "OnCreate", colorWrite
		}
		return "OnMatch", colorWrite
	case *nodes.Set:
		return "Set", colorWrite
	case *nodes.SetItem:
		if n.Op() == nodes.SetMerge {
			return "SetItem\\n+=", colorWrite
		}
		return "SetItem\\n=", colorWrite
	case *nodes.LabelOperation:
		return "Labels\\n:" + strings.Join(n.Labels(), ":"), colorWrite
	case *nodes.Remove:
		return "Remove", colorWrite
	case *nodes.Delete:
		if n.IsDetach() {
			return "DetachDelete", colorWrite
		}
		return "Delete", colorWrite
	case *nodes.Pattern:
		return "Pattern", colorPattern
	case *nodes.NodePattern:
		return "Node\\n" + nodeSummary(n), colorPattern
	case *nodes.RelationshipPattern:
		return "Relationship", colorPattern
	case *nodes.RelationshipDetails:
		return "Rel\\n" + relSummary(n), colorPattern
	case *nodes.NamedPath:
		return "Path\\n" + n.Name().Name(), colorPattern
	case *nodes.SymbolicName:
		return "Var\\n" + n.Name(), colorVariable
	case *nodes.Property:
		return "Property\\n." + n.Key(), colorVariable
	case *nodes.Parameter:
		return "Param\\n$" + n.Name(), colorVariable
	case *nodes.StarNode:
		return "Star", colorVariable
	case *nodes.AliasedExpression:
		return "As\\n" + n.Alias(), colorVariable
	case *nodes.MapExpression:
		return "Map", colorMap
	case *nodes.MapEntry:
		return "Entry\\n" + n.Key(), colorMap
	case *nodes.FunctionInvocation:
		return distinctLabel("Function\\n"+n.Name(), n.Distinct()), colorFunction
	case *nodes.ComparisonNode:
		return "Comparison\\n" + n.Op().String(), colorComparison
	case *nodes.UnaryNode:
		if n.Op() == nodes.OpIsNotNull {
			return "IS NOT NULL", colorComparison
		}
		return "IS NULL", colorComparison
	case *nodes.AndNode:
		return "AND", colorLogical
	case *nodes.OrNode:
		return "OR", colorLogical
	case *nodes.XorNode:
		return "XOR", colorLogical
	case *nodes.NotNode:
		return "NOT", colorLogical
	case *nodes.GroupingNode:
		return "Grouping", colorLogical
	case *nodes.ExistsNode:
		return "Exists", colorLogical
	case *nodes.ArithmeticNode:
		return "Arithmetic\\n" + n.Op().String(), colorComparison
	case *nodes.CaseNode:
		return "Case", colorFunction
	case *nodes.CaseWhen:
		return "When", colorFunction
	case *nodes.CaseElse:
		return "Else", colorFunction
	case *nodes.ListLiteral:
		return "List\\n" + literalText(n), colorLiteral
	case nodes.Literal:
		return "Literal\\n" + literalText(n), colorLiteral
	}
	return kindOf(n), colorUnknown
}

func distinctLabel(label string, distinct bool) string {
	if distinct {
		return label + "\\nDISTINCT"
	}
	return label
}

func literalText(l nodes.Literal) string {
	s, err := l.AsString()
	if err != nil {
		return "<invalid>"
	}
	return s
}

func nodeSummary(n *nodes.NodePattern) string {
	var sb strings.Builder
	sb.WriteString("(")
	if v := n.Variable(); v != nil {
		sb.WriteString(v.Name())
	}
	for _, l := range n.Labels() {
		sb.WriteString(":" + l)
	}
	sb.WriteString(")")
	return sb.String()
}

func relSummary(d *nodes.RelationshipDetails) string {
	var sb strings.Builder
	if d.Direction() == nodes.Incoming {
		sb.WriteString("<")
	}
	sb.WriteString("-[")
	if v := d.Variable(); v != nil {
		sb.WriteString(v.Name())
	}
	if types := d.Types(); len(types) > 0 {
		sb.WriteString(":" + strings.Join(types, "|"))
	}
	sb.WriteString(d.Length())
	sb.WriteString("]-")
	if d.Direction() == nodes.Outgoing {
		sb.WriteString(">")
	}
	return sb.String()
}
