package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/visitors"
)

// tracer records the order transformers run in and reports a fixed
// condition as added.
type tracer struct {
	name  string
	order *[]string
	cond  nodes.Node
}

func (t *tracer) TransformStatement(stmt *nodes.Statement) (*nodes.Statement, error) {
	*t.order = append(*t.order, t.name)
	return stmt, nil
}

func (t *tracer) Added() []nodes.Node { return []nodes.Node{t.cond} }

func tracedPlugin(name string, rank int, order *[]string) enabledPlugin {
	return enabledPlugin{
		name:    name,
		rank:    rank,
		factory: func() plugins.Transformer { return &tracer{name: name, order: order, cond: nodes.Var(name).IsNull()} },
		status:  func() string { return name },
		color:   "#000000",
	}
}

func TestPluginsApplyInRankOrder(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	var order []string
	sess.plugins.enable(tracedPlugin("late", rankOPA, &order))
	sess.plugins.enable(tracedPlugin("early", rankSoftDelete, &order))
	assert.Equal(t, []string{"early", "late"}, sess.plugins.names())

	mustExec(t, sess, "match (p:Person)", "return p")
	_, err := sess.current()
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, order)
}

func TestPluginEnableReplacesByName(t *testing.T) {
	t.Parallel()
	var ps pluginSet
	var order []string
	ps.enable(tracedPlugin("a", 1, &order))
	ps.enable(tracedPlugin("b", 2, &order))
	ps.enable(tracedPlugin("a", 3, &order))
	assert.Equal(t, []string{"b", "a"}, ps.names())

	p, ok := ps.lookup("a")
	require.True(t, ok)
	assert.Equal(t, 3, p.rank)

	assert.True(t, ps.disable("b"))
	assert.False(t, ps.disable("b"))
	assert.False(t, ps.empty())
	ps.disableAll()
	assert.True(t, ps.empty())
	_, ok = ps.lookup("a")
	assert.False(t, ok)
}

func TestTracedMarksAddedConditions(t *testing.T) {
	t.Parallel()
	var ps pluginSet
	var order []string
	ps.enable(tracedPlugin("a", 1, &order))
	ps.enable(tracedPlugin("b", 2, &order))

	prov := visitors.NewPluginProvenance()
	ts, mark := ps.traced(prov)
	require.Len(t, ts, 2)
	assert.Equal(t, 0, prov.Len())
	mark()
	assert.Equal(t, 2, prov.Len())

	ts, mark = ps.traced(nil)
	require.Len(t, ts, 2)
	mark()
	assert.Len(t, ps.transformers(), 2)
}
