package opa

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/visitors"
)

func toCypher(t *testing.T, n nodes.Node) string {
	t.Helper()
	out, err := visitors.Render(n)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return out
}

func opRef(op string) compileTerm {
	return compileTerm{Type: "ref", Value: []compileTerm{{Type: "var", Value: op}}}
}

func dataRef(label, key string) compileTerm {
	return compileTerm{Type: "ref", Value: []compileTerm{
		{Type: "var", Value: "data"},
		{Type: "string", Value: label},
		{Type: "var", Value: "$0"},
		{Type: "string", Value: key},
	}}
}

const tenantResponse = `{
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

// --- Compile response parsing ---

func TestCompileResponseParsesTerms(t *testing.T) {
	resp, err := parseCompileResponse([]byte(tenantResponse))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Result.Queries) != 1 || len(resp.Result.Queries[0]) != 1 {
		t.Fatalf("expected 1 query with 1 expression, got %v", resp.Result.Queries)
	}
	terms := resp.Result.Queries[0][0].Terms
	if len(terms) != 3 {
		t.Fatalf("expected 3 terms, got %d", len(terms))
	}
	if v, ok := terms[2].Value.(int); !ok || v != 42 {
		t.Errorf("expected whole number stored as int 42, got %T %v", terms[2].Value, terms[2].Value)
	}
}

func TestCompileTermKinds(t *testing.T) {
	tests := []struct {
		json string
		want any
	}{
		{`{"type": "string", "value": "x"}`, "x"},
		{`{"type": "number", "value": 1.5}`, 1.5},
		{`{"type": "boolean", "value": true}`, true},
		{`{"type": "null"}`, nil},
	}
	for _, tt := range tests {
		var ct compileTerm
		if err := json.Unmarshal([]byte(tt.json), &ct); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.json, err)
		}
		if ct.Value != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.json, tt.want, ct.Value)
		}
	}
}

func TestCompileTermUnknownType(t *testing.T) {
	var ct compileTerm
	if err := json.Unmarshal([]byte(`{"type": "set", "value": []}`), &ct); err == nil {
		t.Error("expected error for unknown term type")
	}
}

// --- Translate single expressions ---

func TestTranslateOperators(t *testing.T) {
	p := nodes.Var("p")
	tests := []struct {
		op   string
		val  compileTerm
		want string
	}{
		{"eq", compileTerm{Type: "number", Value: 42}, "p.tenant_id = 42"},
		{"equal", compileTerm{Type: "string", Value: "x"}, "p.tenant_id = 'x'"},
		{"neq", compileTerm{Type: "string", Value: "draft"}, "p.tenant_id <> 'draft'"},
		{"lt", compileTerm{Type: "number", Value: 5}, "p.tenant_id < 5"},
		{"lte", compileTerm{Type: "number", Value: 5}, "p.tenant_id <= 5"},
		{"gt", compileTerm{Type: "number", Value: 1.5}, "p.tenant_id > 1.5"},
		{"gte", compileTerm{Type: "boolean", Value: true}, "p.tenant_id >= true"},
		{"startswith", compileTerm{Type: "string", Value: "ab"}, "p.tenant_id STARTS WITH 'ab'"},
		{"endswith", compileTerm{Type: "string", Value: "yz"}, "p.tenant_id ENDS WITH 'yz'"},
		{"contains", compileTerm{Type: "string", Value: "mid"}, "p.tenant_id CONTAINS 'mid'"},
		{"re_match", compileTerm{Type: "string", Value: "^a"}, "p.tenant_id =~ '^a'"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			expr := compileExpression{Terms: []compileTerm{opRef(tt.op), dataRef("Person", "tenant_id"), tt.val}}
			n, err := translateExpression(expr, p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := toCypher(t, n); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTranslateSwappedOperands(t *testing.T) {
	expr := compileExpression{Terms: []compileTerm{
		opRef("eq"), {Type: "string", Value: "acme"}, dataRef("Company", "name"),
	}}
	n, err := translateExpression(expr, nodes.Var("c"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := toCypher(t, n); got != "c.name = 'acme'" {
		t.Errorf("unexpected translation %s", got)
	}
}

func TestTranslateRejects(t *testing.T) {
	v := nodes.Var("p")
	tests := []struct {
		name string
		expr compileExpression
	}{
		{"too few terms", compileExpression{Terms: []compileTerm{opRef("eq")}}},
		{"no data ref", compileExpression{Terms: []compileTerm{opRef("eq"), {Type: "number", Value: 1}, {Type: "number", Value: 2}}}},
		{"unsupported op", compileExpression{Terms: []compileTerm{opRef("walk"), dataRef("P", "x"), {Type: "number", Value: 1}}}},
		{"non-string startswith", compileExpression{Terms: []compileTerm{opRef("startswith"), dataRef("P", "x"), {Type: "number", Value: 1}}}},
		{"ref value", compileExpression{Terms: []compileTerm{opRef("eq"), dataRef("P", "x"), dataRef("P", "y")}}},
		{"operator not a ref", compileExpression{Terms: []compileTerm{{Type: "string", Value: "eq"}, dataRef("P", "x"), {Type: "number", Value: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := translateExpression(tt.expr, v); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// --- Query sets ---

func TestTranslateQueriesSingleQuery(t *testing.T) {
	q := [][]compileExpression{{
		{Terms: []compileTerm{opRef("eq"), dataRef("P", "tenant_id"), {Type: "number", Value: 1}}},
		{Terms: []compileTerm{opRef("neq"), dataRef("P", "status"), {Type: "string", Value: "draft"}}},
	}}
	conds, err := translateQueries(q, nodes.Var("p"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conds) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conds))
	}
	if got := toCypher(t, conds[1]); got != "p.status <> 'draft'" {
		t.Errorf("unexpected second condition %s", got)
	}
}

func TestTranslateQueriesOrGroups(t *testing.T) {
	q := [][]compileExpression{
		{
			{Terms: []compileTerm{opRef("eq"), dataRef("P", "owner"), {Type: "string", Value: "alice"}}},
			{Terms: []compileTerm{opRef("eq"), dataRef("P", "public"), {Type: "boolean", Value: false}}},
		},
		{
			{Terms: []compileTerm{opRef("eq"), dataRef("P", "public"), {Type: "boolean", Value: true}}},
		},
	}
	conds, err := translateQueries(q, nodes.Var("p"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(p.owner = 'alice' AND p.public = false OR p.public = true)"
	if got := toCypher(t, conds[0]); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestTranslateQueriesAllowAndDeny(t *testing.T) {
	conds, err := translateQueries([][]compileExpression{{}}, nodes.Var("p"))
	if err != nil || conds != nil {
		t.Errorf("expected unconditional allow, got %v, %v", conds, err)
	}
	if _, err := translateQueries(nil, nodes.Var("p")); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

// --- HTTP client ---

func TestClientCompileSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/compile" {
			t.Errorf("expected path /v1/compile, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		var req compileRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("failed to parse request body: %v", err)
		}
		if req.Query != "data.app.allow == true" {
			t.Errorf("expected query 'data.app.allow == true', got %q", req.Query)
		}
		if len(req.Unknowns) != 1 || req.Unknowns[0] != "data.Person" {
			t.Errorf("expected unknowns [data.Person], got %v", req.Unknowns)
		}
		_, _ = w.Write([]byte(tenantResponse))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app.allow", map[string]any{"subject": map[string]any{"role": "admin"}})
	conditions, err := client.Compile(context.Background(), "Person", nodes.Var("p"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conditions) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(conditions))
	}
	if got := toCypher(t, conditions[0]); got != "p.tenant_id = 42" {
		t.Errorf("unexpected condition %s", got)
	}
}

func TestClientCompileDeny(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "data.app.allow", nil)
	_, err := client.Compile(context.Background(), "Secret", nodes.Var("s"))
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if !strings.Contains(err.Error(), "Secret") {
		t.Errorf("expected label in error, got: %v", err)
	}
}

func TestClientCompileServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code": "internal_error"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "data.app.allow", nil)
	_, err := client.Compile(context.Background(), "Person", nodes.Var("p"))
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status code 500 in error, got: %v", err)
	}
}

func TestClientCompileCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tenantResponse))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewClient(srv.URL, "data.app.allow", nil)
	if _, err := client.Compile(ctx, "Person", nodes.Var("p")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClientExplain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tenantResponse))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "data.app.allow", nil)
	res, err := client.Explain(context.Background(), "Person", nodes.Var("p"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.QueryCount != 1 || len(res.Translations) != 1 {
		t.Fatalf("unexpected explain result %+v", res)
	}
	tr := res.Translations[0]
	if tr.Operator != "eq" || tr.Property != "tenant_id" || tr.Cypher != "p.tenant_id = 42" || tr.Err != nil {
		t.Errorf("unexpected translation %+v", tr)
	}
	if !strings.Contains(res.RawJSON, "tenant_id") {
		t.Error("expected raw JSON to be kept")
	}
}

func TestClientExplainAccessDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {"queries": []}}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "data.app.allow", nil).Explain(context.Background(), "Person", nodes.Var("p"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.AccessDenied {
		t.Error("expected AccessDenied")
	}
}
