package managers

import (
	"fmt"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/visitors"
)

type unionMode int

const (
	noUnion unionMode = iota
	unionDistinct
	unionAll
)

// QueryManager provides a fluent API for building read queries:
// MATCH, WITH, UNWIND and RETURN clauses in the order they are added,
// optionally combined with other queries by UNION.
type QueryManager struct {
	treeManager
	clauses []nodes.Node
	unions  []*QueryManager
	mode    unionMode
}

// NewQueryManager creates an empty QueryManager.
func NewQueryManager() *QueryManager {
	return &QueryManager{}
}

func (m *QueryManager) last() nodes.Node {
	if len(m.clauses) == 0 {
		return nil
	}
	return m.clauses[len(m.clauses)-1]
}

func (m *QueryManager) replaceLast(n nodes.Node) {
	m.clauses[len(m.clauses)-1] = n
}

// Match appends a MATCH clause over the given pattern parts.
func (m *QueryManager) Match(parts ...nodes.PatternElement) *QueryManager {
	return m.match(false, parts)
}

// OptionalMatch appends an OPTIONAL MATCH clause.
func (m *QueryManager) OptionalMatch(parts ...nodes.PatternElement) *QueryManager {
	return m.match(true, parts)
}

func (m *QueryManager) match(optional bool, parts []nodes.PatternElement) *QueryManager {
	var r reading
	r.match(&m.treeManager, optional, parts)
	m.clauses = append(m.clauses, r.matches...)
	return m
}

// Where ANDs conditions into the WHERE of the most recent MATCH or WITH.
// Multiple calls accumulate.
func (m *QueryManager) Where(conditions ...nodes.Node) *QueryManager {
	cond := nodes.AllOf(conditions...)
	if cond == nil {
		return m
	}
	c, ok := whereOn(m.last(), cond)
	if !ok {
		m.setErr(fmt.Errorf("%w: WHERE needs a preceding MATCH or WITH", ErrNoClause))
		return m
	}
	m.replaceLast(c)
	return m
}

// With appends a WITH clause. No items means WITH *.
func (m *QueryManager) With(items ...nodes.Node) *QueryManager {
	m.clauses = append(m.clauses, nodes.NewWith(items...))
	return m
}

// WithDistinct appends a WITH DISTINCT clause.
func (m *QueryManager) WithDistinct(items ...nodes.Node) *QueryManager {
	m.clauses = append(m.clauses, nodes.NewWith(items...).Distinct())
	return m
}

// Unwind appends UNWIND expr AS alias.
func (m *QueryManager) Unwind(expr nodes.Node, alias string) *QueryManager {
	m.clauses = append(m.clauses, nodes.NewUnwind(expr, alias))
	return m
}

// Return appends a RETURN clause. No items means RETURN *.
func (m *QueryManager) Return(items ...nodes.Node) *QueryManager {
	m.clauses = append(m.clauses, returnClause(false, items))
	return m
}

// ReturnDistinct appends a RETURN DISTINCT clause.
func (m *QueryManager) ReturnDistinct(items ...nodes.Node) *QueryManager {
	m.clauses = append(m.clauses, returnClause(true, items))
	return m
}

// projection applies f or g to the most recent RETURN or WITH.
func (m *QueryManager) projection(clause string, f func(*nodes.Return) *nodes.Return, g func(*nodes.With) *nodes.With) *QueryManager {
	switch c := m.last().(type) {
	case *nodes.Return:
		m.replaceLast(f(c))
	case *nodes.With:
		m.replaceLast(g(c))
	default:
		m.setErr(fmt.Errorf("%w: %s needs a preceding RETURN or WITH", ErrNoClause, clause))
	}
	return m
}

// OrderBy sets the ORDER BY of the most recent RETURN or WITH.
func (m *QueryManager) OrderBy(items ...*nodes.SortItem) *QueryManager {
	return m.projection("ORDER BY",
		func(r *nodes.Return) *nodes.Return { return r.OrderBy(items...) },
		func(w *nodes.With) *nodes.With { return w.OrderBy(items...) })
}

// Skip sets the SKIP of the most recent RETURN or WITH. A negative
// amount is held as an error.
func (m *QueryManager) Skip(n int) *QueryManager {
	s, err := nodes.NewSkip(n)
	if err != nil {
		m.setErr(err)
		return m
	}
	return m.projection("SKIP",
		func(r *nodes.Return) *nodes.Return { return r.Skip(s) },
		func(w *nodes.With) *nodes.With { return w.Skip(s) })
}

// Limit sets the LIMIT of the most recent RETURN or WITH. A negative
// amount is held as an error.
func (m *QueryManager) Limit(n int) *QueryManager {
	l, err := nodes.NewLimit(n)
	if err != nil {
		m.setErr(err)
		return m
	}
	return m.projection("LIMIT",
		func(r *nodes.Return) *nodes.Return { return r.Limit(l) },
		func(w *nodes.With) *nodes.With { return w.Limit(l) })
}

// Union combines this query with other using UNION.
func (m *QueryManager) Union(other *QueryManager) *QueryManager {
	return m.union(unionDistinct, other)
}

// UnionAll combines this query with other using UNION ALL.
func (m *QueryManager) UnionAll(other *QueryManager) *QueryManager {
	return m.union(unionAll, other)
}

func (m *QueryManager) union(mode unionMode, other *QueryManager) *QueryManager {
	if m.mode != noUnion && m.mode != mode {
		m.setErr(ErrMixedUnion)
		return m
	}
	m.mode = mode
	m.unions = append(m.unions, other)
	return m
}

// Use registers a transformer plugin. Transformers are applied to every
// part of a union, after the part's own transformers.
func (m *QueryManager) Use(t plugins.Transformer) *QueryManager {
	m.addTransformer(t)
	return m
}

// Build applies the transformers and returns the statement. It fails if
// the query is combined by UNION; use BuildNode for those.
func (m *QueryManager) Build() (*nodes.Statement, error) {
	if len(m.unions) > 0 {
		return nil, fmt.Errorf("%w: query has UNION parts", ErrMixedUnion)
	}
	return m.finish(m.clauses)
}

// BuildNode returns the statement, or a *nodes.Union when the query has
// UNION parts.
func (m *QueryManager) BuildNode() (nodes.Node, error) {
	head, err := m.finish(m.clauses)
	if err != nil {
		return nil, err
	}
	if len(m.unions) == 0 {
		return head, nil
	}
	parts := []*nodes.Statement{head}
	for i, u := range m.unions {
		part, err := u.BuildNode()
		if err != nil {
			return nil, fmt.Errorf("union part %d: %w", i+1, err)
		}
		stmt, ok := part.(*nodes.Statement)
		if !ok {
			return nil, fmt.Errorf("union part %d: %w", i+1, ErrMixedUnion)
		}
		if stmt, err = plugins.Apply(stmt, m.transformers...); err != nil {
			return nil, fmt.Errorf("union part %d: %w", i+1, err)
		}
		parts = append(parts, stmt)
	}
	return nodes.NewUnion(m.mode == unionAll, parts...), nil
}

// ToCypher builds the query and renders it.
func (m *QueryManager) ToCypher(opts ...visitors.Option) (string, error) {
	return toCypher(m.BuildNode, opts)
}

// ToCypherParams builds and renders the query and returns the parameter
// names it uses.
func (m *QueryManager) ToCypherParams(opts ...visitors.Option) (string, []string, error) {
	return toCypherParams(m.BuildNode, opts)
}
