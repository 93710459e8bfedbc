package nodes

// Where is a WHERE sub-clause of MATCH or WITH.
type Where struct {
	condition Node
}

// NewWhere creates a Where. A nil condition yields nil.
func NewWhere(condition Node) *Where {
	if condition == nil {
		return nil
	}
	return &Where{condition: condition}
}

func (n *Where) Condition() Node { return n.condition }

func (n *Where) Accept(v Visitor) { Visit(v, n, n.condition) }

// Match is a MATCH or OPTIONAL MATCH clause.
type Match struct {
	optional bool
	pattern  *Pattern
	where    *Where
}

// NewMatch creates a MATCH clause over the given pattern elements.
func NewMatch(parts ...PatternElement) *Match {
	return &Match{pattern: NewPattern(parts...)}
}

// Optional returns an OPTIONAL MATCH copy of the clause.
func (n *Match) Optional() *Match {
	c := *n
	c.optional = true
	return &c
}

// Where returns a copy of the clause with its condition ANDed with cond.
func (n *Match) Where(cond Node) *Match {
	c := *n
	c.where = NewWhere(andWhere(n.where, cond))
	return &c
}

func andWhere(w *Where, cond Node) Node {
	if w == nil {
		return cond
	}
	return AllOf(w.condition, cond)
}

func (n *Match) IsOptional() bool    { return n.optional }
func (n *Match) Pattern() *Pattern   { return n.pattern }
func (n *Match) WhereClause() *Where { return n.where }

func (n *Match) Accept(v Visitor) {
	if n.where != nil {
		Visit(v, n, n.pattern, n.where)
		return
	}
	Visit(v, n, n.pattern)
}

// ExpressionList is a comma separated list of expressions.
type ExpressionList struct {
	items []Node
}

// NewExpressionList creates an ExpressionList.
func NewExpressionList(items ...Node) *ExpressionList {
	return &ExpressionList{items: cloneNodes(items)}
}

func (n *ExpressionList) Items() []Node { return cloneNodes(n.items) }
func (n *ExpressionList) Len() int      { return len(n.items) }

func (n *ExpressionList) Accept(v Visitor) { Visit(v, n, n.items...) }

// SortDirection is the direction of a sort item.
type SortDirection int

const (
	Unsorted SortDirection = iota
	Ascending
	Descending
)

// SortItem is an expression with an optional ASC/DESC.
type SortItem struct {
	expr      Node
	direction SortDirection
}

// NewSortItem creates a SortItem.
func NewSortItem(expr Node, dir SortDirection) *SortItem {
	return &SortItem{expr: expr, direction: dir}
}

func (n *SortItem) Expr() Node               { return n.expr }
func (n *SortItem) Direction() SortDirection { return n.direction }

func (n *SortItem) Accept(v Visitor) { Visit(v, n, n.expr) }

// OrderBy is the ORDER BY part of RETURN or WITH.
type OrderBy struct {
	items []*SortItem
}

// NewOrderBy creates an OrderBy. It returns nil for no items.
func NewOrderBy(items ...*SortItem) *OrderBy {
	if len(items) == 0 {
		return nil
	}
	c := make([]*SortItem, len(items))
	copy(c, items)
	return &OrderBy{items: c}
}

func (n *OrderBy) Items() []*SortItem {
	out := make([]*SortItem, len(n.items))
	copy(out, n.items)
	return out
}

func (n *OrderBy) Accept(v Visitor) { Visit(v, n, Expressions(n.items...)...) }

// projection is the body shared by RETURN and WITH.
type projection struct {
	distinct bool
	items    *ExpressionList
	order    *OrderBy
	skip     *Skip
	limit    *Limit
}

func (p *projection) children() []Node {
	out := []Node{p.items}
	if p.order != nil {
		out = append(out, p.order)
	}
	if p.skip != nil {
		out = append(out, p.skip)
	}
	if p.limit != nil {
		out = append(out, p.limit)
	}
	return out
}

func (p *projection) IsDistinct() bool       { return p.distinct }
func (p *projection) Items() *ExpressionList { return p.items }
func (p *projection) Order() *OrderBy        { return p.order }
func (p *projection) SkipClause() *Skip      { return p.skip }
func (p *projection) LimitClause() *Limit    { return p.limit }

// Return is the RETURN clause with its optional ORDER BY, SKIP and LIMIT.
type Return struct {
	projection
}

// NewReturn creates a RETURN clause. No items means RETURN *.
func NewReturn(items ...Node) *Return {
	if len(items) == 0 {
		items = []Node{Star()}
	}
	return &Return{projection{items: NewExpressionList(items...)}}
}

func (n *Return) with(f func(p *projection)) *Return {
	c := *n
	f(&c.projection)
	return &c
}

// Distinct returns a RETURN DISTINCT copy.
func (n *Return) Distinct() *Return {
	return n.with(func(p *projection) { p.distinct = true })
}

// OrderBy returns a copy ordered by the given items.
func (n *Return) OrderBy(items ...*SortItem) *Return {
	return n.with(func(p *projection) { p.order = NewOrderBy(items...) })
}

// Skip returns a copy with the given SKIP.
func (n *Return) Skip(s *Skip) *Return {
	return n.with(func(p *projection) { p.skip = s })
}

// Limit returns a copy with the given LIMIT.
func (n *Return) Limit(l *Limit) *Return {
	return n.with(func(p *projection) { p.limit = l })
}

func (n *Return) Accept(v Visitor) { Visit(v, n, n.children()...) }

// With is the WITH clause: a projection plus an optional WHERE.
type With struct {
	projection
	where *Where
}

// NewWith creates a WITH clause. No items means WITH *.
func NewWith(items ...Node) *With {
	if len(items) == 0 {
		items = []Node{Star()}
	}
	return &With{projection: projection{items: NewExpressionList(items...)}}
}

func (n *With) with(f func(c *With)) *With {
	c := *n
	f(&c)
	return &c
}

// Distinct returns a WITH DISTINCT copy.
func (n *With) Distinct() *With {
	return n.with(func(c *With) { c.distinct = true })
}

// OrderBy returns a copy ordered by the given items.
func (n *With) OrderBy(items ...*SortItem) *With {
	return n.with(func(c *With) { c.order = NewOrderBy(items...) })
}

// Skip returns a copy with the given SKIP.
func (n *With) Skip(s *Skip) *With {
	return n.with(func(c *With) { c.skip = s })
}

// Limit returns a copy with the given LIMIT.
func (n *With) Limit(l *Limit) *With {
	return n.with(func(c *With) { c.limit = l })
}

// Where returns a copy with its condition ANDed with cond.
func (n *With) Where(cond Node) *With {
	return n.with(func(c *With) { c.where = NewWhere(andWhere(n.where, cond)) })
}

func (n *With) WhereClause() *Where { return n.where }

func (n *With) Accept(v Visitor) {
	children := n.children()
	if n.where != nil {
		children = append(children, n.where)
	}
	Visit(v, n, children...)
}

// Unwind expands a list into rows: UNWIND expr AS alias.
type Unwind struct {
	expr  Node
	alias string
}

// NewUnwind creates an Unwind.
func NewUnwind(expr Node, alias string) *Unwind {
	mustName(alias, "unwind alias")
	return &Unwind{expr: expr, alias: alias}
}

func (n *Unwind) Expr() Node    { return n.expr }
func (n *Unwind) Alias() string { return n.alias }

func (n *Unwind) Accept(v Visitor) { Visit(v, n, n.expr) }

// Create is the CREATE clause.
type Create struct {
	pattern *Pattern
}

// NewCreate creates a CREATE clause.
func NewCreate(parts ...PatternElement) *Create {
	return &Create{pattern: NewPattern(parts...)}
}

func (n *Create) Pattern() *Pattern { return n.pattern }

func (n *Create) Accept(v Visitor) { Visit(v, n, n.pattern) }

// MergeAction is ON CREATE SET or ON MATCH SET attached to a MERGE.
type MergeAction struct {
	onCreate bool
	set      *Set
}

// OnCreate creates an ON CREATE SET action.
func OnCreate(set *Set) *MergeAction { return &MergeAction{onCreate: true, set: set} }

// OnMatch creates an ON MATCH SET action.
func OnMatch(set *Set) *MergeAction { return &MergeAction{set: set} }

func (n *MergeAction) IsOnCreate() bool { return n.onCreate }
func (n *MergeAction) Set() *Set        { return n.set }

func (n *MergeAction) Accept(v Visitor) { Visit(v, n, n.set) }

// Merge is the MERGE clause with its actions.
type Merge struct {
	pattern *Pattern
	actions []*MergeAction
}

// NewMerge creates a MERGE clause.
func NewMerge(parts ...PatternElement) *Merge {
	return &Merge{pattern: NewPattern(parts...)}
}

// On returns a copy with the actions appended.
func (n *Merge) On(actions ...*MergeAction) *Merge {
	c := &Merge{pattern: n.pattern}
	c.actions = append(append(c.actions, n.actions...), actions...)
	return c
}

func (n *Merge) Pattern() *Pattern { return n.pattern }

func (n *Merge) Actions() []*MergeAction {
	out := make([]*MergeAction, len(n.actions))
	copy(out, n.actions)
	return out
}

func (n *Merge) Accept(v Visitor) {
	children := append([]Node{n.pattern}, Expressions(n.actions...)...)
	Visit(v, n, children...)
}

// SetOp distinguishes property replacement from map merging.
type SetOp int

const (
	SetReplace SetOp = iota // =
	SetMerge                // +=
)

// SetItem assigns a value to a property or variable.
type SetItem struct {
	target Node
	value  Node
	op     SetOp
}

// Assign creates target = value. Non-node values become literals.
func Assign(target Node, value any) *SetItem {
	return &SetItem{target: target, value: operand(value), op: SetReplace}
}

// MergeProperties creates target += props.
func MergeProperties(target *SymbolicName, props *MapExpression) *SetItem {
	return &SetItem{target: target, value: props, op: SetMerge}
}

func (n *SetItem) Target() Node { return n.target }
func (n *SetItem) Value() Node  { return n.value }
func (n *SetItem) Op() SetOp    { return n.op }

func (n *SetItem) Accept(v Visitor) { Visit(v, n, n.target, n.value) }

// LabelOperation adds or removes labels on a variable: n:Label:Other.
type LabelOperation struct {
	variable *SymbolicName
	labels   []string
}

// NewLabelOperation creates a LabelOperation.
func NewLabelOperation(variable *SymbolicName, labels ...string) *LabelOperation {
	for _, l := range labels {
		mustName(l, "label")
	}
	return &LabelOperation{variable: variable, labels: cloneStrings(labels)}
}

func (n *LabelOperation) Variable() *SymbolicName { return n.variable }
func (n *LabelOperation) Labels() []string        { return cloneStrings(n.labels) }

func (n *LabelOperation) Accept(v Visitor) { Visit(v, n, n.variable) }

// Set is the SET clause. Items are SetItem or LabelOperation nodes.
type Set struct {
	items []Node
}

// NewSet creates a SET clause.
func NewSet(items ...Node) *Set { return &Set{items: cloneNodes(items)} }

func (n *Set) Items() []Node { return cloneNodes(n.items) }

func (n *Set) Accept(v Visitor) { Visit(v, n, n.items...) }

// Remove is the REMOVE clause. Items are Property or LabelOperation nodes.
type Remove struct {
	items []Node
}

// NewRemove creates a REMOVE clause.
func NewRemove(items ...Node) *Remove { return &Remove{items: cloneNodes(items)} }

func (n *Remove) Items() []Node { return cloneNodes(n.items) }

func (n *Remove) Accept(v Visitor) { Visit(v, n, n.items...) }

// Delete is DELETE or DETACH DELETE.
type Delete struct {
	detach bool
	items  []Node
}

// NewDelete creates a DELETE clause.
func NewDelete(items ...Node) *Delete { return &Delete{items: cloneNodes(items)} }

// NewDetachDelete creates a DETACH DELETE clause.
func NewDetachDelete(items ...Node) *Delete {
	return &Delete{detach: true, items: cloneNodes(items)}
}

func (n *Delete) IsDetach() bool { return n.detach }
func (n *Delete) Items() []Node  { return cloneNodes(n.items) }

func (n *Delete) Accept(v Visitor) { Visit(v, n, n.items...) }
