package visitors

import (
	"errors"
	"math"
	"testing"

	"github.com/bawdo/cypherbee/internal/testutil"
	"github.com/bawdo/cypherbee/nodes"
)

func TestRenderCacheHit(t *testing.T) {
	t.Parallel()
	rc, err := NewRenderCache(2)
	testutil.AssertNoError(t, err)

	stmt := nodes.NewStatement(nodes.NewMatch(nodes.NewNode().Named("n")), nodes.NewReturn(nodes.Var("n")))
	testutil.AssertCypher(t, rc, stmt, "MATCH (n) RETURN n")
	testutil.AssertCypher(t, rc, stmt, "MATCH (n) RETURN n")
	testutil.AssertEqual(t, rc.Len(), 1)

	// Equal content, different identity.
	other := nodes.NewStatement(nodes.NewMatch(nodes.NewNode().Named("n")), nodes.NewReturn(nodes.Var("n")))
	testutil.AssertCypher(t, rc, other, "MATCH (n) RETURN n")
	testutil.AssertEqual(t, rc.Len(), 2)

	rc.Purge()
	testutil.AssertEqual(t, rc.Len(), 0)
}

func TestRenderCacheEviction(t *testing.T) {
	t.Parallel()
	rc, err := NewRenderCache(1)
	testutil.AssertNoError(t, err)
	testutil.AssertCypher(t, rc, nodes.MustLimit(1), "LIMIT 1")
	testutil.AssertCypher(t, rc, nodes.MustLimit(2), "LIMIT 2")
	testutil.AssertEqual(t, rc.Len(), 1)
}

func TestRenderCacheOptions(t *testing.T) {
	t.Parallel()
	rc, err := NewRenderCache(4, WithAlwaysEscapeNames())
	testutil.AssertNoError(t, err)
	testutil.AssertCypher(t, rc, nodes.Var("n"), "`n`")
}

func TestRenderCacheErrorsAreNotCached(t *testing.T) {
	t.Parallel()
	rc, err := NewRenderCache(4)
	testutil.AssertNoError(t, err)
	_, err = rc.Render(nodes.Number(math.Inf(1)))
	if !errors.Is(err, nodes.ErrUnrepresentable) {
		t.Errorf("expected ErrUnrepresentable, got %v", err)
	}
	testutil.AssertEqual(t, rc.Len(), 0)
}

func TestRenderCacheNonComparableRoot(t *testing.T) {
	t.Parallel()
	rc, err := NewRenderCache(4)
	testutil.AssertNoError(t, err)
	testutil.AssertCypher(t, rc, valueNode{items: []nodes.Node{nodes.Var("a")}}, "a")
	testutil.AssertEqual(t, rc.Len(), 0)
}

func TestRenderCacheInvalidSize(t *testing.T) {
	t.Parallel()
	_, err := NewRenderCache(0)
	testutil.AssertError(t, err)
}
