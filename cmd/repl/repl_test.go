package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bawdo/cypherbee/managers"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	sess := NewSession(Config{}, nil, nil)
	out := &bytes.Buffer{}
	sess.out = out
	return sess, out
}

func mustExec(t *testing.T, sess *Session, commands ...string) {
	t.Helper()
	for _, cmd := range commands {
		if err := sess.Execute(cmd); err != nil {
			t.Fatalf("command %q failed: %v", cmd, err)
		}
	}
}

// execCypher runs the commands and renders the resulting statement.
func execCypher(t *testing.T, commands ...string) string {
	t.Helper()
	sess, _ := newTestSession(t)
	mustExec(t, sess, commands...)
	return render(t, sess)
}

func render(t *testing.T, sess *Session) string {
	t.Helper()
	n, err := sess.current()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	text, err := sess.cache.Render(n)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return text
}

func assertCypher(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("expected:\n  %s\ngot:\n  %s", want, got)
	}
}

// --- Reading clauses ---

func TestMatchWhereReturn(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "match (p:Person)", "where p.age > 30", "return p.name")
	assertCypher(t, got, "MATCH (p:Person) WHERE p.age > 30 RETURN p.name")
}

func TestMatchOnly(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "match (p:Person)-[:ACTED_IN]->(m:Movie)")
	assertCypher(t, got, "MATCH (p:Person)-[:ACTED_IN]->(m:Movie)")
}

func TestOptionalMatch(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"match (p:Person)",
		"optional match (p)-[:ACTED_IN]->(m:Movie)",
		"return p, m")
	assertCypher(t, got, "MATCH (p:Person) OPTIONAL MATCH (p)-[:ACTED_IN]->(m:Movie) RETURN p, m")
}

func TestWhereConditionsAreANDed(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"match (p:Person)",
		"where p.age > 30",
		"where p.name STARTS WITH 'A'",
		"return p")
	assertCypher(t, got, "MATCH (p:Person) WHERE p.age > 30 AND p.name STARTS WITH 'A' RETURN p")
}

func TestWhereOrIsGrouped(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"match (p:Person)",
		"where p.age > 30 or p.name = 'Ada'",
		"return p")
	assertCypher(t, got, "MATCH (p:Person) WHERE (p.age > 30 OR p.name = 'Ada') RETURN p")
}

func TestWithAggregateAndWhere(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"match (p:Person)",
		"with p, count(*) as movies",
		"where movies > 2",
		"return movies")
	assertCypher(t, got, "MATCH (p:Person) WITH p, count(*) AS movies WHERE movies > 2 RETURN movies")
}

func TestReturnOrderSkipLimit(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"match (p:Person)",
		"return p.name",
		"order by p.name desc",
		"skip 5",
		"limit 10")
	assertCypher(t, got, "MATCH (p:Person) RETURN p.name ORDER BY p.name DESC SKIP 5 LIMIT 10")
}

func TestBareReturnIsStar(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "match (p:Person)", "return")
	assertCypher(t, got, "MATCH (p:Person) RETURN *")
}

func TestReturnDistinct(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "match (p:Person)", "return distinct p.city")
	assertCypher(t, got, "MATCH (p:Person) RETURN DISTINCT p.city")
}

func TestUnwind(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "unwind [1, 2, 3] as x", "return x")
	assertCypher(t, got, "UNWIND [1,2,3] AS x RETURN x")
}

func TestUnionAll(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"match (n:A)", "return n",
		"union all",
		"match (n:B)", "return n")
	assertCypher(t, got, "MATCH (n:A) RETURN n UNION ALL MATCH (n:B) RETURN n")
}

func TestUnionWithoutSecondQueryFails(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (n:A)", "return n", "union")
	if _, err := sess.current(); err == nil {
		t.Error("expected an error for a dangling UNION")
	}
}

// --- Writing clauses ---

func TestCreate(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "create (p:Person {name: 'Ada'})", "return p")
	assertCypher(t, got, "CREATE (p:Person {name: 'Ada'}) RETURN p")
}

func TestMatchThenCreate(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"match (a:Person), (b:Person)",
		"where a.name = 'Ada'",
		"create (a)-[:KNOWS]->(b)")
	assertCypher(t, got, "MATCH (a:Person), (b:Person) WHERE a.name = 'Ada' CREATE (a)-[:KNOWS]->(b)")
}

func TestMergeActions(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"merge (p:Person {email: $email})",
		"on create set p.visits = 1",
		"on match set p.seen = true",
		"return p")
	assertCypher(t, got, "MERGE (p:Person {email: $email}) ON CREATE SET p.visits = 1 ON MATCH SET p.seen = true RETURN p")
}

func TestMergeActionOutsideMerge(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "create (p:Person)")
	err := sess.Execute("on create set p.visits = 1")
	if !errors.Is(err, managers.ErrNotMerge) {
		t.Errorf("expected ErrNotMerge, got %v", err)
	}
}

func TestSetTurnsMatchIntoUpdate(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess,
		"match (p:Person)",
		"where p.name = 'Ada'",
		"set p.age = 36",
		"return p")
	assertCypher(t, render(t, sess), "MATCH (p:Person) WHERE p.name = 'Ada' SET p.age = 36 RETURN p")
	if sess.built.mode != modeUpdate {
		t.Errorf("expected UPDATE mode, got %s", sess.built.mode)
	}
}

func TestSetAndRemoveLabels(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "match (p:Person)", "set p:Mathematician:Writer", "remove p:Draft")
	assertCypher(t, got, "MATCH (p:Person) SET p:Mathematician:Writer REMOVE p:Draft")
}

func TestRemoveProperties(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "match (p:Person)", "remove p.age, p.nickname")
	assertCypher(t, got, "MATCH (p:Person) REMOVE p.age, p.nickname")
}

func TestSetMergeProperties(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "match (p:Person)", "set p += {age: $age}")
	assertCypher(t, got, "MATCH (p:Person) SET p += {age: $age}")
}

func TestDetachDelete(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "match (p:Person), (m:Movie)", "detach delete p, m")
	assertCypher(t, got, "MATCH (p:Person), (m:Movie) DETACH DELETE p, m")
}

func TestDeleteCarriesEveryMatch(t *testing.T) {
	t.Parallel()
	got := execCypher(t,
		"match (p:Person)",
		"where p.name = 'Ada'",
		"match (p)-[r:ACTED_IN]->(m:Movie)",
		"delete r")
	assertCypher(t, got, "MATCH (p:Person) WHERE p.name = 'Ada' MATCH (p)-[r:ACTED_IN]->(m:Movie) DELETE r")
}

func TestSetAfterWithIsRejected(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "with p")
	if err := sess.Execute("set p.age = 1"); err == nil {
		t.Fatal("expected SET after WITH to fail")
	}
	if len(sess.steps) != 2 {
		t.Errorf("expected the rejected command to be dropped, have %d steps", len(sess.steps))
	}
}

func TestReadClauseInWriteIsRejected(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "create (p:Person)")
	if err := sess.Execute("with p"); err == nil {
		t.Error("expected WITH in a CREATE statement to fail")
	}
	assertCypher(t, render(t, sess), "CREATE (p:Person)")
}

// --- Errors ---

func TestWhereWithoutStatement(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	if err := sess.Execute("where p.age > 1"); !errors.Is(err, errNoQuery) {
		t.Errorf("expected errNoQuery, got %v", err)
	}
}

func TestCypherWithoutStatement(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	if err := sess.Execute("cypher"); !errors.Is(err, errNoQuery) {
		t.Errorf("expected errNoQuery, got %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	err := sess.Execute("select * from users")
	if err == nil || !strings.Contains(err.Error(), "unknown command: select") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestParseErrorKeepsStatement(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (p:Person)")
	if err := sess.Execute("where p.age >"); err == nil {
		t.Fatal("expected a parse error")
	}
	assertCypher(t, render(t, sess), "MATCH (p:Person)")
}

func TestNegativeLimit(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "return p")
	if err := sess.Execute("limit -1"); err == nil {
		t.Error("expected negative LIMIT to fail")
	}
	if err := sess.Execute("limit ten"); err == nil {
		t.Error("expected non-integer LIMIT to fail")
	}
}

// --- Session commands ---

func TestCommandsAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "MATCH (p:Person)", "RETURN p")
	assertCypher(t, got, "MATCH (p:Person) RETURN p")
}

func TestUndo(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "where p.age > 30", "undo")
	assertCypher(t, render(t, sess), "MATCH (p:Person)")
	if !strings.Contains(out.String(), "Removed: WHERE p.age > 30") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestUndoEmpty(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	if err := sess.Execute("undo"); err == nil {
		t.Error("expected undo on an empty session to fail")
	}
}

func TestSteps(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "return p")
	out.Reset()
	mustExec(t, sess, "steps")
	want := "   1. MATCH (p:Person)\n   2. RETURN p\n"
	if out.String() != want {
		t.Errorf("expected:\n%q\ngot:\n%q", want, out.String())
	}
}

func TestReset(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "reset")
	if _, err := sess.current(); !errors.Is(err, errNoQuery) {
		t.Errorf("expected errNoQuery after reset, got %v", err)
	}
}

func TestCaseNormalisation(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "case", "match (p:person)-[:acted_in]->(m:movie)")
	assertCypher(t, got, "MATCH (p:Person)-[:ACTED_IN]->(m:Movie)")
}

func TestCypherOutput(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "where p.name = $name", "return p")
	out.Reset()
	mustExec(t, sess, "cypher")
	want := "  MATCH (p:Person) WHERE p.name = $name RETURN p;\n" +
		"  Params: $name\n" +
		"  Unbound: $name (use 'param <name> <value>')\n"
	if out.String() != want {
		t.Errorf("expected:\n%q\ngot:\n%q", want, out.String())
	}
}

func TestPrettyToggle(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "return p", "pretty")
	out.Reset()
	mustExec(t, sess, "cypher")
	want := "  MATCH (p:Person)\n  RETURN p;\n"
	if out.String() != want {
		t.Errorf("expected:\n%q\ngot:\n%q", want, out.String())
	}
}

func TestEscapeToggle(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "return p", "escape")
	assertCypher(t, render(t, sess), "MATCH (`p`:`Person`) RETURN `p`")
}

func TestParams(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "where p.name = $name", "param name 'Ada'")
	if got := sess.params["name"]; got != "Ada" {
		t.Errorf("expected Ada, got %v", got)
	}
	out.Reset()
	mustExec(t, sess, "params")
	if !strings.Contains(out.String(), `$name = "Ada"`) {
		t.Errorf("missing value:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Unbound") {
		t.Errorf("name should be bound:\n%s", out.String())
	}
	mustExec(t, sess, "unparam name")
	if _, ok := sess.params["name"]; ok {
		t.Error("expected the value to be removed")
	}
}

func TestExpr(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "expr p.age >= 18 and p.name starts with 'A'")
	if out.String() != "  p.age >= 18 AND p.name STARTS WITH 'A'\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestAST(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "where p.age > 1", "return p.name as name", "limit 3")
	out.Reset()
	mustExec(t, sess, "ast")
	got := out.String()
	for _, want := range []string{
		"Mode: QUERY",
		"[1] MATCH",
		"patterns=1 where=yes",
		"[2] RETURN",
		"items=1 limit=3",
		"Variables: p, name",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestDot(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	path := filepath.Join(t.TempDir(), "query.dot")
	mustExec(t, sess, "plugin softdelete", "match (p:Person)", "return p", "dot "+path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read DOT: %v", err)
	}
	if !strings.HasPrefix(string(data), "digraph") {
		t.Errorf("expected a digraph, got:\n%s", data)
	}
	if !strings.Contains(string(data), "softdelete") {
		t.Errorf("expected a softdelete cluster, got:\n%s", data)
	}
	if !strings.Contains(out.String(), "Wrote DOT to "+path) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestDotRequiresPath(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	if err := sess.Execute("dot"); err == nil {
		t.Error("expected usage error")
	}
}

func TestHelpListsCommands(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "help")
	for _, want := range []string{"optional match", "detach delete", "opa explain", "history"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help is missing %q", want)
		}
	}
}

// --- Plugins ---

func TestSoftdeleteDefault(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "plugin softdelete", "match (p:Person)", "return p")
	assertCypher(t, got, "MATCH (p:Person) WHERE p.deleted_at IS NULL RETURN p")
}

func TestSoftdeleteOnLabels(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "plugin softdelete removed_at on Movie", "match (p:Person), (m:Movie)")
	assertCypher(t, got, "MATCH (p:Person), (m:Movie) WHERE m.removed_at IS NULL")
}

func TestSoftdeletePerLabel(t *testing.T) {
	t.Parallel()
	got := execCypher(t, "plugin softdelete Person.archived", "match (p:Person), (m:Movie)")
	assertCypher(t, got, "MATCH (p:Person), (m:Movie) WHERE p.archived IS NULL")
}

func TestPluginEnabledAfterStatement(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "return p")
	assertCypher(t, render(t, sess), "MATCH (p:Person) RETURN p")
	mustExec(t, sess, "plugin softdelete")
	assertCypher(t, render(t, sess), "MATCH (p:Person) WHERE p.deleted_at IS NULL RETURN p")
	mustExec(t, sess, "plugin off softdelete")
	assertCypher(t, render(t, sess), "MATCH (p:Person) RETURN p")
}

func TestPluginsListing(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "plugin softdelete", "plugins")
	if !strings.Contains(out.String(), "softdelete     on   (property: deleted_at)") {
		t.Errorf("unexpected listing:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "opa            off") {
		t.Errorf("unexpected listing:\n%s", out.String())
	}
}

func TestUnknownPlugin(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	if err := sess.Execute("plugin audit"); err == nil {
		t.Error("expected unknown plugin error")
	}
}

// --- OPA ---

const opaTenantResponse = `{
	"result": {
		"queries": [[{
			"index": 0,
			"terms": [
				{"type": "ref", "value": [{"type": "var", "value": "eq"}]},
				{"type": "ref", "value": [
					{"type": "var", "value": "data"},
					{"type": "string", "value": "Person"},
					{"type": "var", "value": "$0"},
					{"type": "string", "value": "tenant_id"}
				]},
				{"type": "number", "value": 42}
			]
		}]]
	}
}`

func opaSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(opaTenantResponse))
	}))
	t.Cleanup(srv.Close)
	sess, out := newTestSession(t)
	sess.opaDefaults = OPAConfig{URL: srv.URL, Policy: "data.app.allow"}
	return sess, out
}

func TestOPAPluginFromConfig(t *testing.T) {
	t.Parallel()
	sess, _ := opaSession(t)
	mustExec(t, sess, "plugin opa", "match (p:Person)", "return p")
	assertCypher(t, render(t, sess), "MATCH (p:Person) WHERE p.tenant_id = 42 RETURN p")
}

func TestOPAWithoutConfig(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	if err := sess.Execute("plugin opa"); err == nil {
		t.Error("expected an error without OPA settings")
	}
	if err := sess.Execute("opa status"); err != nil {
		t.Errorf("status should work while off: %v", err)
	}
}

func TestOPAConditions(t *testing.T) {
	t.Parallel()
	sess, out := opaSession(t)
	mustExec(t, sess, "plugin opa", "match (p:Person)", "return p")
	out.Reset()
	mustExec(t, sess, "opa conditions")
	if !strings.Contains(out.String(), "(p:Person) p.tenant_id = 42") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestOPAExplain(t *testing.T) {
	t.Parallel()
	sess, out := opaSession(t)
	mustExec(t, sess, "plugin opa")
	out.Reset()
	mustExec(t, sess, "opa explain Person p")
	if !strings.Contains(out.String(), "[1] eq tenant_id -> p.tenant_id = 42") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestOPAInputs(t *testing.T) {
	t.Parallel()
	sess, out := opaSession(t)
	mustExec(t, sess, "plugin opa", "opa input subject.role admin", "opa input subject.level 3")
	out.Reset()
	mustExec(t, sess, "opa inputs")
	want := "  subject:\n    level: 3\n    role: \"admin\"\n"
	if out.String() != want {
		t.Errorf("expected:\n%q\ngot:\n%q", want, out.String())
	}
	mustExec(t, sess, "opa input subject.role")
	if getNestedValue(sess.opaConfig.input, "subject.role") != nil {
		t.Error("expected subject.role to be removed")
	}
	mustExec(t, sess, "opa off")
	if _, ok := sess.plugins.lookup("opa"); ok {
		t.Error("expected opa to be deregistered")
	}
}

func TestOPASetupNeedsTerminal(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	if err := sess.Execute("opa setup"); err == nil {
		t.Error("expected opa setup to need an interactive session")
	}
}

// --- Database commands without a connection ---

func TestRunWithoutConnection(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	mustExec(t, sess, "match (p:Person)", "return p")
	if err := sess.Execute("run"); !errors.Is(err, errNotConnected) {
		t.Errorf("expected errNotConnected, got %v", err)
	}
	if err := sess.Execute("labels"); !errors.Is(err, errNotConnected) {
		t.Errorf("expected errNotConnected, got %v", err)
	}
}

func TestConnectWithoutDSN(t *testing.T) {
	t.Parallel()
	sess, _ := newTestSession(t)
	if err := sess.Execute("connect"); err == nil {
		t.Error("expected usage error without a DSN")
	}
}

func TestGraphCommand(t *testing.T) {
	t.Parallel()
	sess, out := newTestSession(t)
	mustExec(t, sess, "graph movies", "graph")
	if sess.graph != "movies" {
		t.Errorf("expected graph movies, got %s", sess.graph)
	}
	if !strings.Contains(out.String(), "Graph: movies") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if err := sess.Execute("graph bad-name"); err == nil {
		t.Error("expected invalid graph name to fail")
	}
}
