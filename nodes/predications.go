package nodes

// Predications provides comparison methods to types that embed it.
// The self field must be set to the embedding node so that comparisons
// reference the correct left-hand side.
//
// Operands that are not already a Node are converted with LiteralOf. An
// unsupported Go type does not panic: the operand fails when rendered.
type Predications struct {
	self Node
}

// operand returns val as a node, converting plain Go values to literals.
func operand(val any) Node {
	if n, ok := val.(Node); ok {
		return n
	}
	return literalOperand(val)
}

// literalOperand converts val, standing in an invalidLiteral on failure.
func literalOperand(val any) Literal {
	lit, err := LiteralOf(val)
	if err != nil {
		return &invalidLiteral{err: err}
	}
	return lit
}

func (p Predications) compare(op ComparisonOp, val any) *ComparisonNode {
	return NewComparisonNode(p.self, operand(val), op)
}

// Eq creates an equality comparison: self = val.
func (p Predications) Eq(val any) *ComparisonNode { return p.compare(OpEq, val) }

// NotEq creates an inequality comparison: self <> val.
func (p Predications) NotEq(val any) *ComparisonNode { return p.compare(OpNotEq, val) }

// Gt creates a greater-than comparison: self > val.
func (p Predications) Gt(val any) *ComparisonNode { return p.compare(OpGt, val) }

// GtEq creates a greater-than-or-equal comparison: self >= val.
func (p Predications) GtEq(val any) *ComparisonNode { return p.compare(OpGtEq, val) }

// Lt creates a less-than comparison: self < val.
func (p Predications) Lt(val any) *ComparisonNode { return p.compare(OpLt, val) }

// LtEq creates a less-than-or-equal comparison: self <= val.
func (p Predications) LtEq(val any) *ComparisonNode { return p.compare(OpLtEq, val) }

// MatchesRegexp creates a regular expression match: self =~ val.
func (p Predications) MatchesRegexp(val any) *ComparisonNode {
	return p.compare(OpRegexp, val)
}

// StartsWith creates a prefix match: self STARTS WITH val.
func (p Predications) StartsWith(val any) *ComparisonNode {
	return p.compare(OpStartsWith, val)
}

// EndsWith creates a suffix match: self ENDS WITH val.
func (p Predications) EndsWith(val any) *ComparisonNode {
	return p.compare(OpEndsWith, val)
}

// Contains creates a substring match: self CONTAINS val.
func (p Predications) Contains(val any) *ComparisonNode {
	return p.compare(OpContains, val)
}

// In creates a list membership test: self IN [vals...]. A single Node
// argument (a parameter or list expression) is used as the list itself.
func (p Predications) In(vals ...any) *ComparisonNode {
	if len(vals) == 1 {
		if n, ok := vals[0].(Node); ok && !isScalarLiteral(n) {
			return NewComparisonNode(p.self, n, OpIn)
		}
	}
	elems := make([]Literal, len(vals))
	for i, v := range vals {
		elems[i] = literalOperand(v)
	}
	return NewComparisonNode(p.self, List(elems...), OpIn)
}

func isScalarLiteral(n Node) bool {
	switch n.(type) {
	case *NumberLiteral, *StringLiteral, *BooleanLiteral, *NullLiteral:
		return true
	}
	return false
}

// IsNull creates an IS NULL predicate.
func (p Predications) IsNull() *UnaryNode {
	return NewUnaryNode(p.self, OpIsNull)
}

// IsNotNull creates an IS NOT NULL predicate.
func (p Predications) IsNotNull() *UnaryNode {
	return NewUnaryNode(p.self, OpIsNotNull)
}

// As aliases self: self AS name.
func (p Predications) As(name string) *AliasedExpression {
	return NewAliasedExpression(p.self, name)
}

// Asc creates an ascending sort item.
func (p Predications) Asc() *SortItem {
	return NewSortItem(p.self, Ascending)
}

// Desc creates a descending sort item.
func (p Predications) Desc() *SortItem {
	return NewSortItem(p.self, Descending)
}
