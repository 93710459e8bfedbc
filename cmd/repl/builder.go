package main

import (
	"errors"
	"fmt"

	"github.com/bawdo/cypherbee/managers"
	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
)

var errNoQuery = errors.New("no statement defined (use 'match <pattern>' or 'create <pattern>' first)")

// stmtMode tracks which kind of statement the REPL is currently building.
type stmtMode int

const (
	modeQuery stmtMode = iota
	modeCreate
	modeMerge
	modeUpdate
	modeDelete
)

func (m stmtMode) String() string {
	switch m {
	case modeCreate:
		return "CREATE"
	case modeMerge:
		return "MERGE"
	case modeUpdate:
		return "UPDATE"
	case modeDelete:
		return "DELETE"
	}
	return "QUERY"
}

// step is one statement-building command. The statement is rebuilt by
// replaying every step onto fresh managers, so a failing command can be
// dropped without leaving a manager in its error state.
type step struct {
	line  string
	apply func(b *builder) error
}

// prelude is a MATCH or WHERE entered before the statement turned into
// a write. It is replayed onto the write manager when the mode changes.
type prelude struct {
	parts []nodes.PatternElement
	cond  nodes.Node
}

// unionPart is a completed query waiting to be combined by UNION.
type unionPart struct {
	all   bool
	query *managers.QueryManager
}

// builder holds the managers one replay of the steps produces.
type builder struct {
	mode     stmtMode
	query    *managers.QueryManager
	readOnly bool // the query holds nothing but MATCH and WHERE
	preludes []prelude
	unions   []unionPart
	create   *managers.CreateManager
	update   *managers.UpdateManager
	del      *managers.DeleteManager
}

func newBuilder() *builder {
	return &builder{readOnly: true}
}

// replay applies steps in order to a fresh builder.
func replay(steps []step) (*builder, error) {
	b := newBuilder()
	for _, st := range steps {
		if err := st.apply(b); err != nil {
			return nil, err
		}
		if err := b.err(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *builder) readQuery() *managers.QueryManager {
	if b.query == nil {
		b.query = managers.NewQueryManager()
	}
	return b.query
}

func (b *builder) err() error {
	switch b.mode {
	case modeCreate, modeMerge:
		return b.create.Err()
	case modeUpdate:
		return b.update.Err()
	case modeDelete:
		return b.del.Err()
	}
	if b.query == nil {
		return nil
	}
	return b.query.Err()
}

func (b *builder) empty() bool {
	return b.mode == modeQuery && b.query == nil && len(b.unions) == 0
}

// match adds a MATCH to whichever statement is being built.
func (b *builder) match(optional bool, parts []nodes.PatternElement) error {
	switch b.mode {
	case modeCreate, modeMerge:
		if optional {
			return fmt.Errorf("OPTIONAL MATCH is not supported before %s", b.mode)
		}
		b.create.Match(parts...)
	case modeUpdate:
		if optional {
			return fmt.Errorf("OPTIONAL MATCH is not supported before %s", b.mode)
		}
		b.update.Match(parts...)
	case modeDelete:
		if optional {
			return fmt.Errorf("OPTIONAL MATCH is not supported before %s", b.mode)
		}
		b.del.Match(parts...)
	default:
		q := b.readQuery()
		if optional {
			q.OptionalMatch(parts...)
			b.readOnly = false
		} else {
			q.Match(parts...)
			if b.readOnly {
				b.preludes = append(b.preludes, prelude{parts: parts})
			}
		}
	}
	return nil
}

func (b *builder) where(cond nodes.Node) {
	switch b.mode {
	case modeCreate, modeMerge:
		b.create.Where(cond)
	case modeUpdate:
		b.update.Where(cond)
	case modeDelete:
		b.del.Where(cond)
	default:
		b.readQuery().Where(cond)
		if b.readOnly {
			b.preludes = append(b.preludes, prelude{cond: cond})
		}
	}
}

// reading returns the read query, rejecting the call once the statement
// has become a write.
func (b *builder) reading(clause string) (*managers.QueryManager, error) {
	if b.mode != modeQuery {
		return nil, fmt.Errorf("%s is not available in a %s statement", clause, b.mode)
	}
	b.readOnly = false
	return b.readQuery(), nil
}

// convert turns a read query into an update or delete. The MATCH and
// WHERE entered so far move onto the write manager; other read clauses
// cannot precede a write here.
func (b *builder) convert(mode stmtMode, clause string) error {
	if b.mode == mode {
		return nil
	}
	if b.mode != modeQuery {
		return fmt.Errorf("%s cannot be added to a %s statement (use 'reset' first)", clause, b.mode)
	}
	if !b.readOnly || len(b.unions) > 0 {
		return fmt.Errorf("%s can only follow MATCH and WHERE", clause)
	}
	if len(b.preludes) == 0 {
		return fmt.Errorf("%w: %s needs a preceding MATCH", managers.ErrNoClause, clause)
	}
	pre := b.preludes
	b.mode = mode
	switch mode {
	case modeUpdate:
		b.update = managers.NewUpdateManager(pre[0].parts...)
		pre = pre[1:]
	case modeDelete:
		b.del = managers.NewDeleteManager(pre[0].parts...)
		pre = pre[1:]
	}
	for _, p := range pre {
		if p.cond != nil {
			b.where(p.cond)
			continue
		}
		if err := b.match(false, p.parts); err != nil {
			return err
		}
	}
	b.query = nil
	b.preludes = nil
	return nil
}

// startWrite begins a CREATE or MERGE, carrying over earlier matches.
func (b *builder) startWrite(merge bool, parts []nodes.PatternElement) error {
	mode, clause := modeCreate, "CREATE"
	if merge {
		mode, clause = modeMerge, "MERGE"
	}
	if b.mode != modeQuery {
		return fmt.Errorf("%s cannot be added to a %s statement (use 'reset' first)", clause, b.mode)
	}
	if !b.readOnly || len(b.unions) > 0 {
		return fmt.Errorf("%s can only follow MATCH and WHERE", clause)
	}
	if merge {
		b.create = managers.NewMergeManager(parts...)
	} else {
		b.create = managers.NewCreateManager(parts...)
	}
	pre := b.preludes
	b.mode = mode
	b.preludes = nil
	for _, p := range pre {
		if p.cond != nil {
			b.where(p.cond)
			continue
		}
		if err := b.match(false, p.parts); err != nil {
			return err
		}
	}
	b.query = nil
	return nil
}

// set adds SET items, turning a read query into an update.
func (b *builder) set(items []nodes.Node) error {
	switch b.mode {
	case modeCreate, modeMerge:
		b.create.Set(items...)
		return nil
	case modeDelete:
		return errors.New("SET is not available in a DELETE statement")
	}
	if err := b.convert(modeUpdate, "SET"); err != nil {
		return err
	}
	b.update.Set(items...)
	return nil
}

func (b *builder) remove(items []removeItem) error {
	if err := b.convert(modeUpdate, "REMOVE"); err != nil {
		return err
	}
	for _, it := range items {
		if it.prop != nil {
			b.update.Remove(it.prop)
		} else {
			b.update.RemoveLabels(it.v, it.labels...)
		}
	}
	return nil
}

func (b *builder) delete(detach bool, targets []nodes.Node) error {
	if err := b.convert(modeDelete, "DELETE"); err != nil {
		return err
	}
	if detach {
		b.del.DetachDelete(targets...)
	} else {
		b.del.Delete(targets...)
	}
	return nil
}

func (b *builder) mergeAction(onCreate bool, items []nodes.Node) error {
	if b.mode != modeMerge {
		return fmt.Errorf("%w (use 'merge <pattern>' first)", managers.ErrNotMerge)
	}
	if onCreate {
		b.create.OnCreateSet(items...)
	} else {
		b.create.OnMatchSet(items...)
	}
	return nil
}

func (b *builder) returning(distinct bool, items []nodes.Node) error {
	switch b.mode {
	case modeCreate, modeMerge:
		if distinct {
			return fmt.Errorf("RETURN DISTINCT is not supported after %s", b.mode)
		}
		b.create.Return(items...)
	case modeUpdate:
		if distinct {
			return fmt.Errorf("RETURN DISTINCT is not supported after %s", b.mode)
		}
		b.update.Return(items...)
	case modeDelete:
		if distinct {
			return fmt.Errorf("RETURN DISTINCT is not supported after %s", b.mode)
		}
		b.del.Return(items...)
	default:
		b.readOnly = false
		if distinct {
			b.readQuery().ReturnDistinct(items...)
		} else {
			b.readQuery().Return(items...)
		}
	}
	return nil
}

// union closes the current query and starts the next part.
func (b *builder) union(all bool) error {
	if b.mode != modeQuery {
		return fmt.Errorf("UNION is not available in a %s statement", b.mode)
	}
	if b.query == nil {
		return errNoQuery
	}
	b.unions = append(b.unions, unionPart{all: all, query: b.query})
	b.query = nil
	b.readOnly = true
	b.preludes = nil
	return nil
}

// build produces the statement with the transformers applied.
func (b *builder) build(transformers []plugins.Transformer) (nodes.Node, error) {
	switch b.mode {
	case modeCreate, modeMerge:
		for _, t := range transformers {
			b.create.Use(t)
		}
		return b.create.Build()
	case modeUpdate:
		for _, t := range transformers {
			b.update.Use(t)
		}
		return b.update.Build()
	case modeDelete:
		for _, t := range transformers {
			b.del.Use(t)
		}
		return b.del.Build()
	}
	if b.query == nil {
		if len(b.unions) > 0 {
			return nil, errors.New("UNION needs a query after it")
		}
		return nil, errNoQuery
	}
	if len(b.unions) == 0 {
		for _, t := range transformers {
			b.query.Use(t)
		}
		return b.query.BuildNode()
	}
	head := b.unions[0].query
	for i, part := range b.unions {
		next := b.query
		if i+1 < len(b.unions) {
			next = b.unions[i+1].query
		}
		if part.all {
			head.UnionAll(next)
		} else {
			head.Union(next)
		}
	}
	for _, t := range transformers {
		head.Use(t)
	}
	return head.BuildNode()
}
