package softdelete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/visitors"
)

func transform(t *testing.T, sd *SoftDelete, stmt *nodes.Statement) string {
	t.Helper()
	out, err := sd.TransformStatement(stmt)
	require.NoError(t, err)
	cypher, err := visitors.Render(out)
	require.NoError(t, err)
	return cypher
}

func personQuery() *nodes.Statement {
	return nodes.NewStatement(
		nodes.NewMatch(nodes.NewNode("Person").Named("p")),
		nodes.NewReturn(nodes.Var("p")),
	)
}

// --- Default behaviour ---

func TestDefaultPropertyDeletedAt(t *testing.T) {
	t.Parallel()
	got := transform(t, New(), personQuery())
	assert.Equal(t, "MATCH (p:Person) WHERE p.deleted_at IS NULL RETURN p", got)
}

func TestCustomPropertyName(t *testing.T) {
	t.Parallel()
	got := transform(t, New(WithProperty("removed_at")), personQuery())
	assert.Equal(t, "MATCH (p:Person) WHERE p.removed_at IS NULL RETURN p", got)
}

// --- Preserves existing WHERE conditions ---

func TestPreservesExistingWhere(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewStatement(
		nodes.NewMatch(nodes.NewNode("Person").Named("p")).Where(nodes.Var("p").Prop("active").Eq(true)),
		nodes.NewReturn(nodes.Var("p")),
	)
	got := transform(t, New(), stmt)
	assert.Equal(t, "MATCH (p:Person) WHERE p.active = true AND p.deleted_at IS NULL RETURN p", got)
}

// --- Relationships and multiple clauses ---

func TestAppliedToEveryMatchedNode(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewStatement(
		nodes.NewMatch(nodes.NewNode("Person").Named("p").RelationshipTo(nodes.NewNode("Post").Named("x"), "WROTE")),
		nodes.NewMatch(nodes.NewNode("Tag").Named("t")).Optional(),
		nodes.NewReturn(nodes.Var("p"), nodes.Var("x"), nodes.Var("t")),
	)
	got := transform(t, New(), stmt)
	assert.Equal(t,
		"MATCH (p:Person)-[:WROTE]->(x:Post) WHERE p.deleted_at IS NULL AND x.deleted_at IS NULL "+
			"OPTIONAL MATCH (t:Tag) WHERE t.deleted_at IS NULL RETURN p, x, t",
		got)
}

func TestSkipsAnonymousAndUnlabelledNodes(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewStatement(
		nodes.NewMatch(nodes.NewNode().Named("n").RelationshipTo(nodes.NewNode("Person"))),
		nodes.NewReturn(nodes.Var("n")),
	)
	got := transform(t, New(), stmt)
	assert.Equal(t, "MATCH (n)-->(:Person) RETURN n", got)
}

func TestSkipsCreatedNodes(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewStatement(nodes.NewCreate(nodes.NewNode("Person").Named("p")))
	got := transform(t, New(), stmt)
	assert.Equal(t, "CREATE (p:Person)", got)
}

// --- Label filtering ---

func TestWithLabels(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewStatement(
		nodes.NewMatch(nodes.NewNode("Person").Named("p"), nodes.NewNode("Post").Named("x")),
		nodes.NewReturn(),
	)
	got := transform(t, New(WithLabels("Post")), stmt)
	assert.Equal(t, "MATCH (p:Person), (x:Post) WHERE x.deleted_at IS NULL RETURN *", got)
}

func TestWithLabelProperty(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewStatement(
		nodes.NewMatch(nodes.NewNode("Person").Named("p"), nodes.NewNode("Post").Named("x"), nodes.NewNode("Tag").Named("t")),
		nodes.NewReturn(),
	)
	sd := New(WithLabelProperty("Person", "deleted_at"), WithLabelProperty("Post", "removed_at"))
	got := transform(t, sd, stmt)
	assert.Equal(t, "MATCH (p:Person), (x:Post), (t:Tag) WHERE p.deleted_at IS NULL AND x.removed_at IS NULL RETURN *", got)
}

func TestInputIsUntouched(t *testing.T) {
	t.Parallel()
	stmt := personQuery()
	_ = transform(t, New(), stmt)
	got, err := visitors.Render(stmt)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (p:Person) RETURN p", got)
}

func TestAddedConditions(t *testing.T) {
	t.Parallel()
	sd := New()
	_ = transform(t, sd, personQuery())
	require.Len(t, sd.Added(), 1)
	got, err := visitors.Render(sd.Added()[0])
	require.NoError(t, err)
	assert.Equal(t, "p.deleted_at IS NULL", got)
}
