package managers

import (
	"errors"
	"testing"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins/softdelete"
)

func TestDelete(t *testing.T) {
	t.Parallel()
	p := nodes.Var("p")
	m := NewDeleteManager(person()).Where(p.Prop("name").Eq("Ada")).Delete(p)
	assertQuery(t, m, "MATCH (p:Person) WHERE p.name = 'Ada' DELETE p")
}

func TestDetachDelete(t *testing.T) {
	t.Parallel()
	m := NewDeleteManager(person()).DetachDelete(nodes.Var("p"))
	assertQuery(t, m, "MATCH (p:Person) DETACH DELETE p")
}

func TestDeleteRelationship(t *testing.T) {
	t.Parallel()
	pattern := nodes.NewNode("Person").Named("p").RelationshipTo(nodes.NewNode("Movie").Named("m"), "ACTED_IN").Named("r")
	m := NewDeleteManager(pattern).Delete(nodes.Var("r")).Return(nodes.Count(nodes.Var("r")))
	assertQuery(t, m, "MATCH (p:Person)-[r:ACTED_IN]->(m:Movie) DELETE r RETURN count(r)")
}

func TestDeleteMultipleTargetsDetachSticky(t *testing.T) {
	t.Parallel()
	m := NewDeleteManager(person(), nodes.NewNode("Movie").Named("m")).
		DetachDelete(nodes.Var("p")).
		Delete(nodes.Var("m"))
	assertQuery(t, m, "MATCH (p:Person), (m:Movie) DETACH DELETE p, m")
}

func TestDeleteWithoutTargets(t *testing.T) {
	t.Parallel()
	if _, err := NewDeleteManager(person()).Build(); !errors.Is(err, ErrEmptyStatement) {
		t.Errorf("expected ErrEmptyStatement, got %v", err)
	}
}

func TestDeleteWithSoftDeleteFilter(t *testing.T) {
	t.Parallel()
	m := NewDeleteManager(person()).Delete(nodes.Var("p")).Use(softdelete.New())
	assertQuery(t, m, "MATCH (p:Person) WHERE p.deleted_at IS NULL DELETE p")
}
