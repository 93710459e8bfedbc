package nodes

import (
	"errors"
	"testing"
)

func assertPanics(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected a panic", name)
		}
	}()
	f()
}

func TestEmptyNamesPanic(t *testing.T) {
	t.Parallel()
	assertPanics(t, "Var", func() { Var("") })
	assertPanics(t, "Param", func() { Param("") })
	assertPanics(t, "label", func() { NewNode("") })
	assertPanics(t, "type", func() { NewNode().RelationshipTo(NewNode(), "") })
	assertPanics(t, "entry", func() { Entry("", 1) })
	assertPanics(t, "alias", func() { Var("n").As("") })
	assertPanics(t, "unwind", func() { NewUnwind(Var("xs"), "") })
	assertPanics(t, "anonymous prop", func() { NewNode("A").Prop("x") })
	assertPanics(t, "unsupported literal", func() { MustLiteral(struct{}{}) })
}

func TestFunctionNameValidation(t *testing.T) {
	t.Parallel()
	assertPanics(t, "empty", func() { NewFunction("") })
	assertPanics(t, "injection", func() { NewFunction("count(n)) MATCH (m") })
	assertPanics(t, "leading dot", func() { NewFunction(".x") })
	assertPanics(t, "trailing dot", func() { NewFunction("x.") })
	if f := NewFunction("apoc.text.join"); f.Name() != "apoc.text.join" {
		t.Errorf("unexpected name %s", f.Name())
	}
}

func TestBuildersReturnCopies(t *testing.T) {
	t.Parallel()
	base := NewMatch(NewNode("A").Named("a"))
	optional := base.Optional()
	filtered := base.Where(Var("a").Prop("x").Eq(1))
	if base.IsOptional() || base.WhereClause() != nil {
		t.Error("expected the original MATCH to be unchanged")
	}
	if !optional.IsOptional() || filtered.WhereClause() == nil {
		t.Error("expected the copies to carry the change")
	}

	ret := NewReturn(Var("a"))
	limited := ret.Limit(MustLimit(1))
	if ret.LimitClause() != nil || limited.LimitClause() == nil {
		t.Error("expected Limit to return a copy")
	}

	n := NewNode("A")
	named := n.Named("a")
	if n.Variable() != nil || named.Variable().Name() != "a" {
		t.Error("expected Named to return a copy")
	}
}

func TestWhereIsAndedAcrossCalls(t *testing.T) {
	t.Parallel()
	a, b := Var("a").Prop("x").Eq(1), Var("a").Prop("y").Eq(2)
	m := NewMatch(NewNode().Named("a")).Where(a).Where(b)
	and, ok := m.WhereClause().Condition().(*AndNode)
	if !ok {
		t.Fatalf("expected AndNode, got %T", m.WhereClause().Condition())
	}
	if and.Left() != Node(a) || and.Right() != Node(b) {
		t.Error("expected conditions in call order")
	}
}

func TestAllOf(t *testing.T) {
	t.Parallel()
	if AllOf() != nil {
		t.Error("expected nil for no conditions")
	}
	c := Var("a").Eq(1)
	if AllOf(nil, c) != Node(c) {
		t.Error("expected a single condition to be returned as-is")
	}
}

func TestRelationshipLength(t *testing.T) {
	t.Parallel()
	rel := NewNode().Named("a").RelationshipTo(NewNode().Named("b"))
	if _, err := rel.Length(3, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for min > max, got %v", err)
	}
	if _, err := rel.Length(-2, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for min < -1, got %v", err)
	}
	ranged, err := rel.Length(1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ranged.Details().Length(); got != "*1..3" {
		t.Errorf("expected *1..3, got %s", got)
	}
	if rel.Details().IsVariableLength() {
		t.Error("expected the original relationship to be unchanged")
	}
}

func TestInWithSingleScalarBuildsList(t *testing.T) {
	t.Parallel()
	cmp := Var("n").In(5)
	if _, ok := cmp.Right().(*ListLiteral); !ok {
		t.Errorf("expected a list for a single scalar, got %T", cmp.Right())
	}
	cmp = Var("n").In(Param("xs"))
	if _, ok := cmp.Right().(*Parameter); !ok {
		t.Errorf("expected the parameter itself, got %T", cmp.Right())
	}
}

func TestStatementReplace(t *testing.T) {
	t.Parallel()
	s := NewStatement(NewMatch(NewNode().Named("n")), NewReturn(Var("n")))
	r := s.Replace(1, NewReturn(Var("n")).Limit(MustLimit(1)))
	if s.Clauses()[1].(*Return).LimitClause() != nil {
		t.Error("expected the original statement to be unchanged")
	}
	if r.Clauses()[1].(*Return).LimitClause() == nil {
		t.Error("expected the replaced clause")
	}
}

func TestUnsupportedOperandsDoNotPanic(t *testing.T) {
	t.Parallel()
	n := Var("n")
	values := []Node{
		n.Prop("a").Eq(struct{}{}).Right(),
		Entry("a", struct{}{}).Value(),
		Assign(n.Prop("a"), struct{}{}).Value(),
		n.Prop("a").Plus(struct{}{}).Right(),
	}
	for i, v := range values {
		lit, ok := v.(Literal)
		if !ok {
			t.Fatalf("value %d: expected a literal, got %T", i, v)
		}
		if _, err := lit.AsString(); !errors.Is(err, ErrUnsupportedLiteral) {
			t.Errorf("value %d: expected ErrUnsupportedLiteral, got %v", i, err)
		}
	}
}

func TestCaseBuildersReturnCopies(t *testing.T) {
	t.Parallel()
	base := NewCase(Var("n").Prop("k")).When(1, "one")
	two := base.When(2, "two")
	withElse := base.Else("other")
	if len(base.Whens()) != 1 || base.ElseBranch() != nil {
		t.Errorf("base mutated: %d whens, else %v", len(base.Whens()), base.ElseBranch())
	}
	if len(two.Whens()) != 2 || two.ElseBranch() != nil {
		t.Errorf("unexpected copy: %d whens", len(two.Whens()))
	}
	if len(withElse.Whens()) != 1 || withElse.ElseBranch() == nil {
		t.Errorf("else not set on copy")
	}
	if base.Subject() == nil || NewCase().Subject() != nil {
		t.Errorf("unexpected subject")
	}
}

func TestArithmeticBuilders(t *testing.T) {
	t.Parallel()
	sum := Var("n").Prop("a").Plus(1).Multiply(Param("k"))
	if sum.Op() != OpMultiply {
		t.Errorf("unexpected op %v", sum.Op())
	}
	inner, ok := sum.Left().(*ArithmeticNode)
	if !ok || inner.Op() != OpPlus {
		t.Fatalf("unexpected left operand %T", sum.Left())
	}
	if _, ok := sum.Right().(*Parameter); !ok {
		t.Errorf("unexpected right operand %T", sum.Right())
	}
	if OpPower.Precedence() <= OpModulo.Precedence() || OpDivide.Precedence() <= OpMinus.Precedence() {
		t.Errorf("unexpected precedence ordering")
	}
	if OpModulo.String() != "%" || ArithmeticOp(99).String() != "?" {
		t.Errorf("unexpected operator text")
	}
}

func TestExistsBody(t *testing.T) {
	t.Parallel()
	if _, ok := ExistsPattern(NewNode("A")).Body().(*Pattern); !ok {
		t.Errorf("pattern body expected")
	}
	stmt := NewStatement(NewMatch(NewNode("A").Named("a")), NewReturn())
	if Exists(stmt).Body() != Node(stmt) {
		t.Errorf("statement body expected")
	}
}
