// Package visitors provides visitors that walk the AST: the Cypher
// renderer, a Graphviz DOT visitor and a parameter collector.
package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/cypherbee/internal/quoting"
	"github.com/bawdo/cypherbee/nodes"
)

// DefaultMaxDepth bounds tree nesting for renderers built without
// WithMaxDepth.
const DefaultMaxDepth = 256

// Option configures a renderer at construction time.
type Option func(*Renderer)

// WithPrettyPrint renders each clause, and each WHERE, ORDER BY, SKIP and
// LIMIT, on its own line.
func WithPrettyPrint() Option {
	return func(r *Renderer) { r.pretty = true }
}

// WithStrict makes the renderer fail with *UnknownNodeError on node kinds
// it has no rule for. By default such nodes produce no text and only
// their children are rendered.
func WithStrict() Option {
	return func(r *Renderer) { r.strict = true }
}

// WithMaxDepth sets the maximum nesting depth. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(r *Renderer) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithAlwaysEscapeNames backtick-quotes every variable, label, type and
// key, not only those that need it.
func WithAlwaysEscapeNames() Option {
	return func(r *Renderer) { r.quoteName = quoting.Backtick }
}

// Extension is implemented by node kinds defined outside this module that
// carry their own rendering rule. Prefix is written when the node is
// entered, Separator between its children and Suffix when it is left. The
// text is written verbatim.
type Extension interface {
	nodes.Node
	Prefix() string
	Separator() string
	Suffix() string
}

// frame is one entered node and the number of its children entered so far.
// unknown marks a kind without a rule; paren marks a node the renderer
// wrapped in parentheses.
type frame struct {
	node     nodes.Node
	children int
	unknown  bool
	paren    bool
}

// Renderer is the default visitor. It accumulates Cypher text while a tree
// is traversed. A Renderer can be reused for any number of sequential
// renders but must not be shared between goroutines.
type Renderer struct {
	sb        strings.Builder
	stack     []frame
	err       error
	pretty    bool
	strict    bool
	maxDepth  int
	quoteName func(string) string
}

var (
	_ nodes.Visitor = (*Renderer)(nil)
	_ nodes.Leaver  = (*Renderer)(nil)
	_ nodes.Stopper = (*Renderer)(nil)
)

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{maxDepth: DefaultMaxDepth, quoteName: quoting.Name}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render walks root and returns its Cypher text. On error no text is
// returned.
func (r *Renderer) Render(root nodes.Node) (string, error) {
	r.reset()
	if root == nil {
		return "", ErrNilNode
	}
	root.Accept(r)
	if r.err == nil && len(r.stack) != 0 {
		r.err = fmt.Errorf("%w: %d nodes not left", ErrUnbalanced, len(r.stack))
	}
	if r.err != nil {
		err := r.err
		r.reset()
		return "", err
	}
	return r.sb.String(), nil
}

func (r *Renderer) reset() {
	r.sb.Reset()
	r.stack = r.stack[:0]
	r.err = nil
}

// Render renders root with a default Renderer.
func Render(root nodes.Node) (string, error) {
	return NewRenderer().Render(root)
}

func (r *Renderer) write(s string) {
	if r.err == nil {
		r.sb.WriteString(s)
	}
}

func (r *Renderer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Stopped reports whether the render has failed. Traversal stops
// descending once it has, which also bounds recursion at the maximum
// depth.
func (r *Renderer) Stopped() bool { return r.err != nil }

// Enter writes the separator owed to the parent, then the node's prefix.
func (r *Renderer) Enter(n nodes.Node) {
	f := frame{node: n}
	if len(r.stack) > 0 {
		parent := &r.stack[len(r.stack)-1]
		if parent.children > 0 {
			r.write(r.separator(parent))
		}
		f.paren = needsParens(parent.node, parent.children, n)
		parent.children++
	}
	r.stack = append(r.stack, f)
	if len(r.stack) > r.maxDepth {
		r.fail(fmt.Errorf("%w (%d)", ErrMaxDepth, r.maxDepth))
	}
	if r.err != nil {
		return
	}
	if f.paren {
		r.write("(")
	}
	r.enter(n)
}

// Leave writes the node's suffix.
func (r *Renderer) Leave(n nodes.Node) {
	if len(r.stack) == 0 {
		return
	}
	if r.err == nil {
		r.leave(n)
		if r.stack[len(r.stack)-1].paren {
			r.write(")")
		}
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// needsParens reports whether child, the i-th child of parent, binds more
// loosely than its position requires.
func needsParens(parent nodes.Node, i int, child nodes.Node) bool {
	switch p := parent.(type) {
	case *nodes.NotNode:
		return logicalRank(child) > 0
	case *nodes.AndNode, *nodes.XorNode, *nodes.OrNode:
		rank := logicalRank(child)
		return rank > 0 && rank < logicalRank(parent)
	case *nodes.ArithmeticNode:
		switch c := child.(type) {
		case *nodes.ArithmeticNode:
			pr, cr := p.Op().Precedence(), c.Op().Precedence()
			return cr < pr || (cr == pr && (i > 0 || p.Op() == nodes.OpPower))
		case *nodes.ComparisonNode, *nodes.UnaryNode, *nodes.NotNode:
			return true
		}
		return logicalRank(child) > 0
	}
	return false
}

// logicalRank orders the binary boolean operators by how tightly they
// bind; 0 means child is not one of them.
func logicalRank(n nodes.Node) int {
	switch n.(type) {
	case *nodes.OrNode:
		return 1
	case *nodes.XorNode:
		return 2
	case *nodes.AndNode:
		return 3
	}
	return 0
}

// clauseBreak separates clauses and the parts of a clause.
func (r *Renderer) clauseBreak() string {
	if r.pretty {
		return "\n"
	}
	return " "
}

// separator returns the text written between two children of parent.
// Children of a kind without a rule are separated like clauses.
func (r *Renderer) separator(parent *frame) string {
	if parent.unknown {
		return r.clauseBreak()
	}
	switch p := parent.node.(type) {
	case Extension:
		return p.Separator()
	case *nodes.Statement, *nodes.Match, *nodes.Return, *nodes.With, *nodes.Merge:
		return r.clauseBreak()
	case *nodes.Union:
		kw := "UNION"
		if p.IsAll() {
			kw = "UNION ALL"
		}
		if r.pretty {
			return "\n" + kw + "\n"
		}
		return " " + kw + " "
	case *nodes.ExpressionList, *nodes.Pattern, *nodes.OrderBy, *nodes.MapExpression,
		*nodes.FunctionInvocation, *nodes.Set, *nodes.Remove, *nodes.Delete:
		return ", "
	case *nodes.ComparisonNode:
		return " " + p.Op().String() + " "
	case *nodes.AndNode:
		return " AND "
	case *nodes.OrNode:
		return " OR "
	case *nodes.XorNode:
		return " XOR "
	case *nodes.SetItem:
		if p.Op() == nodes.SetMerge {
			return " += "
		}
		return " = "
	case *nodes.ArithmeticNode:
		return " " + p.Op().String() + " "
	case *nodes.CaseNode:
		return " "
	case *nodes.CaseWhen:
		return " THEN "
	}
	return ""
}

func (r *Renderer) enter(n nodes.Node) {
	switch n := n.(type) {
	case Extension:
		r.write(n.Prefix())
	case *nodes.Statement, *nodes.Union, *nodes.ExpressionList, *nodes.Pattern,
		*nodes.RelationshipPattern, *nodes.ComparisonNode, *nodes.AndNode,
		*nodes.OrNode, *nodes.XorNode, *nodes.SetItem, *nodes.SortItem,
		*nodes.Property, *nodes.AliasedExpression, *nodes.UnaryNode,
		*nodes.LabelOperation, *nodes.ArithmeticNode:
		// Rendered entirely by separators, children and Leave.
	case nodes.Literal:
		s, err := n.AsString()
		if err != nil {
			r.fail(err)
			return
		}
		r.write(s)
	case *nodes.SymbolicName:
		r.write(r.quoteName(n.Name()))
	case *nodes.Parameter:
		r.write("$" + r.quoteName(n.Name()))
	case *nodes.StarNode:
		r.write("*")
	case *nodes.MapExpression:
		r.write("{")
	case *nodes.MapEntry:
		r.write(r.quoteName(n.Key()) + ": ")
	case *nodes.FunctionInvocation:
		if n.Distinct() && !hasOperand(n.Args()) {
			r.fail(fmt.Errorf("%w: %s(DISTINCT) needs an argument", nodes.ErrMissingOperand, n.Name()))
			return
		}
		r.write(n.Name() + "(")
		if n.Distinct() {
			r.write("DISTINCT ")
		}
	case *nodes.NotNode:
		r.write("NOT ")
	case *nodes.GroupingNode:
		r.write("(")
	case *nodes.CaseNode:
		r.write("CASE ")
	case *nodes.CaseWhen:
		r.write("WHEN ")
	case *nodes.CaseElse:
		r.write("ELSE ")
	case *nodes.ExistsNode:
		r.write("EXISTS { ")
	case *nodes.NodePattern:
		r.enterNodePattern(n)
	case *nodes.RelationshipDetails:
		r.enterRelationship(n)
	case *nodes.NamedPath:
		r.write(r.quoteName(n.Name().Name()) + " = ")
	case *nodes.Match:
		if n.IsOptional() {
			r.write("OPTIONAL ")
		}
		r.write("MATCH ")
	case *nodes.Where:
		r.write("WHERE ")
	case *nodes.Return:
		r.write("RETURN ")
		if n.IsDistinct() {
			r.write("DISTINCT ")
		}
	case *nodes.With:
		r.write("WITH ")
		if n.IsDistinct() {
			r.write("DISTINCT ")
		}
	case *nodes.OrderBy:
		r.write("ORDER BY ")
	case *nodes.Skip:
		r.write("SKIP ")
	case *nodes.Limit:
		r.write("LIMIT ")
	case *nodes.Unwind:
		r.write("UNWIND ")
	case *nodes.Create:
		r.write("CREATE ")
	case *nodes.Merge:
		r.write("MERGE ")
	case *nodes.MergeAction:
		if n.IsOnCreate() {
			r.write("ON CREATE ")
		} else {
			r.write("ON MATCH ")
		}
	case *nodes.Set:
		r.write("SET ")
	case *nodes.Remove:
		r.write("REMOVE ")
	case *nodes.Delete:
		if n.IsDetach() {
			r.write("DETACH ")
		}
		r.write("DELETE ")
	default:
		r.stack[len(r.stack)-1].unknown = true
		if r.strict {
			r.fail(&UnknownNodeError{Kind: kindOf(n), Path: r.path()})
		}
	}
}

func hasOperand(args []nodes.Node) bool {
	for _, a := range args {
		if a != nil {
			return true
		}
	}
	return false
}

func (r *Renderer) leave(n nodes.Node) {
	switch n := n.(type) {
	case Extension:
		r.write(n.Suffix())
	case *nodes.CaseNode:
		r.write(" END")
	case *nodes.ExistsNode:
		r.write(" }")
	case *nodes.Property:
		r.write("." + r.quoteName(n.Key()))
	case *nodes.AliasedExpression:
		r.write(" AS " + r.quoteName(n.Alias()))
	case *nodes.MapExpression:
		r.write("}")
	case *nodes.FunctionInvocation, *nodes.GroupingNode, *nodes.NodePattern:
		r.write(")")
	case *nodes.UnaryNode:
		if n.Op() == nodes.OpIsNotNull {
			r.write(" IS NOT NULL")
		} else {
			r.write(" IS NULL")
		}
	case *nodes.SortItem:
		switch n.Direction() {
		case nodes.Ascending:
			r.write(" ASC")
		case nodes.Descending:
			r.write(" DESC")
		}
	case *nodes.RelationshipDetails:
		if n.HasContent() {
			r.write("]")
		}
		if n.Direction() == nodes.Outgoing {
			r.write("->")
		} else {
			r.write("-")
		}
	case *nodes.Unwind:
		r.write(" AS " + r.quoteName(n.Alias()))
	case *nodes.LabelOperation:
		r.write(r.labels(n.Labels(), ":"))
	}
}

func (r *Renderer) labels(names []string, sep string) string {
	var sb strings.Builder
	for i, l := range names {
		if i == 0 || sep == ":" {
			sb.WriteString(":")
		} else {
			sb.WriteString(sep)
		}
		sb.WriteString(r.quoteName(l))
	}
	return sb.String()
}

func (r *Renderer) enterNodePattern(n *nodes.NodePattern) {
	r.write("(")
	named := n.Variable() != nil
	if named {
		r.write(r.quoteName(n.Variable().Name()))
	}
	labels := n.Labels()
	r.write(r.labels(labels, ":"))
	if n.Properties() != nil && (named || len(labels) > 0) {
		r.write(" ")
	}
}

func (r *Renderer) enterRelationship(d *nodes.RelationshipDetails) {
	if d.Direction() == nodes.Incoming {
		r.write("<-")
	} else {
		r.write("-")
	}
	if !d.HasContent() {
		return
	}
	r.write("[")
	prefix := false
	if d.Variable() != nil {
		r.write(r.quoteName(d.Variable().Name()))
		prefix = true
	}
	if types := d.Types(); len(types) > 0 {
		r.write(r.labels(types, "|"))
		prefix = true
	}
	if l := d.Length(); l != "" {
		r.write(l)
		prefix = true
	}
	if d.Properties() != nil && prefix {
		r.write(" ")
	}
}

func (r *Renderer) path() []string {
	// The last frame is the unknown node itself.
	out := make([]string, 0, len(r.stack))
	for _, f := range r.stack[:len(r.stack)-1] {
		out = append(out, kindOf(f.node))
	}
	return out
}

func kindOf(n nodes.Node) string {
	return fmt.Sprintf("%T", n)
}
