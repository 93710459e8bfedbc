package nodes

// Statement is one complete single query: its clauses in order. Cross
// clause legality (a RETURN being present, MATCH before WITH) is the
// assembler's responsibility.
type Statement struct {
	clauses []Node
}

// NewStatement creates a Statement.
func NewStatement(clauses ...Node) *Statement {
	return &Statement{clauses: cloneNodes(clauses)}
}

// Clauses returns a copy of the clauses.
func (s *Statement) Clauses() []Node { return cloneNodes(s.clauses) }

// Len returns the number of clauses.
func (s *Statement) Len() int { return len(s.clauses) }

// Replace returns a copy of the statement with the clause at i replaced.
func (s *Statement) Replace(i int, clause Node) *Statement {
	c := cloneNodes(s.clauses)
	c[i] = clause
	return &Statement{clauses: c}
}

func (s *Statement) Accept(v Visitor) { Visit(v, s, s.clauses...) }

// Union combines statements with UNION or UNION ALL.
type Union struct {
	all        bool
	statements []*Statement
}

// NewUnion creates a UNION of the statements.
func NewUnion(all bool, statements ...*Statement) *Union {
	c := make([]*Statement, len(statements))
	copy(c, statements)
	return &Union{all: all, statements: c}
}

func (u *Union) IsAll() bool { return u.all }

func (u *Union) Statements() []*Statement {
	out := make([]*Statement, len(u.statements))
	copy(out, u.statements)
	return out
}

func (u *Union) Accept(v Visitor) { Visit(v, u, Expressions(u.statements...)...) }
