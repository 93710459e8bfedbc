package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completions(c *replCompleter, line string) []string {
	cands, _ := c.Do([]rune(line), len([]rune(line)))
	out := make([]string, len(cands))
	for i, r := range cands {
		out[i] = string(r)
	}
	return out
}

func TestParseContext(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	c := &replCompleter{sess: sess}
	tests := []struct {
		line   string
		ctx    completionContext
		prefix string
	}{
		{"ma", contextCommand, "ma"},
		{"match (p:Per", contextLabel, "Per"},
		{"match (p)-[:", contextLabel, ""},
		{"match (p", contextVariable, "p"},
		{"where p.age ", contextOperator, ""},
		{"where co", contextVariable, "co"},
		{"order by p.name ", contextOrderDir, ""},
		{"order by p.name de", contextOrderDir, "de"},
		{"plugin so", contextPlugin, "so"},
		{"plugin off o", contextPluginOff, "o"},
		{"opa explain Pe", contextLabel, "Pe"},
		{"create (m:Mo", contextLabel, "Mo"},
	}
	for _, tt := range tests {
		ctx, prefix := c.parseContext(tt.line)
		assert.Equal(t, tt.ctx, ctx, tt.line)
		assert.Equal(t, tt.prefix, prefix, tt.line)
	}
}

func TestCompleteCommands(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	c := &replCompleter{sess: sess}
	assert.Equal(t, []string{"l match "}, completions(c, "optiona"))
	assert.Contains(t, completions(c, "det"), "ach delete ")
	assert.NotContains(t, sess.commandNames(), "tocypher")
	assert.Contains(t, sess.commandNames(), "exit")
}

func TestCompleteLabels(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	sess.labels = []string{"Movie", "Person"}
	c := &replCompleter{sess: sess}
	assert.Equal(t, []string{"son "}, completions(c, "match (p:Per"))
	assert.Equal(t, []string{"Movie ", "Person "}, completions(c, "match (p:"))
}

func TestCompleteVariables(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (person:Person)-[r:ACTED_IN]->(m:Movie)")
	c := &replCompleter{sess: sess}
	got := completions(c, "return pe")
	assert.Equal(t, []string{"rson "}, got)
	assert.Contains(t, completions(c, "return co"), "unt(")
	assert.Empty(t, completions(c, "return person.na"))
}

func TestCompletePlugins(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "plugin softdelete")
	c := &replCompleter{sess: sess}
	assert.Equal(t, []string{"ftdelete "}, completions(c, "plugin so"))
	assert.Equal(t, []string{"softdelete "}, completions(c, "plugin off "))
}

func TestCompleteOperators(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	c := &replCompleter{sess: sess}
	assert.Contains(t, completions(c, "where p.name "), "STARTS WITH ")
	assert.Equal(t, []string{"artNode("}, completions(c, "where p.name st"))
}

func TestFilterPrefix(t *testing.T) {
	t.Parallel()
	items := []string{"Movie", "movie_star", "Person"}
	assert.Equal(t, []string{"Movie", "movie_star"}, filterPrefix(items, "mo"))
	assert.Equal(t, items, filterPrefix(items, ""))
	assert.Empty(t, filterPrefix(items, "x"))
}

func TestLastTokens(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "c", lastToken("a, b,c"))
	assert.Equal(t, "", lastToken("a "))
	assert.Equal(t, "p:Per", lastPatternToken("(a)-[:KNOWS]->(p:Per"))
	assert.Equal(t, "na", lastPatternToken("{na"))
}

func TestDedup(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b"}, dedup([]string{"a", "b", "a"}))
}
