package nodes

// CaseWhen is one WHEN ... THEN ... branch of a CASE expression.
type CaseWhen struct {
	condition Node
	result    Node
}

func (n *CaseWhen) Condition() Node { return n.condition }
func (n *CaseWhen) Result() Node    { return n.result }

func (n *CaseWhen) Accept(v Visitor) { Visit(v, n, n.condition, n.result) }

// CaseElse is the ELSE branch of a CASE expression.
type CaseElse struct {
	result Node
}

func (n *CaseElse) Result() Node { return n.result }

func (n *CaseElse) Accept(v Visitor) { Visit(v, n, n.result) }

// CaseNode represents a CASE expression:
//
//	CASE [subject] WHEN cond THEN result ... [ELSE value] END
//
// Without a subject it is a generic CASE whose WHEN branches are
// predicates.
type CaseNode struct {
	Predications
	Combinable
	Arithmetics
	subject Node
	whens   []*CaseWhen
	els     *CaseElse
}

// NewCase creates a CaseNode. Pass a subject for a simple CASE, or nothing
// for a generic one.
func NewCase(subject ...Node) *CaseNode {
	n := &CaseNode{}
	if len(subject) > 0 {
		n.subject = subject[0]
	}
	return n.init()
}

func (n *CaseNode) init() *CaseNode {
	n.Predications.self = n
	n.Combinable.self = n
	n.Arithmetics.self = n
	return n
}

func (n *CaseNode) clone() *CaseNode {
	c := &CaseNode{subject: n.subject, els: n.els}
	c.whens = make([]*CaseWhen, len(n.whens), len(n.whens)+1)
	copy(c.whens, n.whens)
	return c.init()
}

// When returns a copy with a WHEN cond THEN result branch appended.
// Plain Go values are converted to literals.
func (n *CaseNode) When(cond, result any) *CaseNode {
	c := n.clone()
	c.whens = append(c.whens, &CaseWhen{condition: operand(cond), result: operand(result)})
	return c
}

// Else returns a copy with the ELSE branch set.
func (n *CaseNode) Else(result any) *CaseNode {
	c := n.clone()
	c.els = &CaseElse{result: operand(result)}
	return c
}

func (n *CaseNode) Subject() Node { return n.subject }

func (n *CaseNode) Whens() []*CaseWhen {
	out := make([]*CaseWhen, len(n.whens))
	copy(out, n.whens)
	return out
}

func (n *CaseNode) ElseBranch() *CaseElse { return n.els }

func (n *CaseNode) Accept(v Visitor) {
	children := make([]Node, 0, len(n.whens)+2)
	if n.subject != nil {
		children = append(children, n.subject)
	}
	for _, w := range n.whens {
		children = append(children, w)
	}
	if n.els != nil {
		children = append(children, n.els)
	}
	Visit(v, n, children...)
}
