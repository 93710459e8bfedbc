package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/visitors"
)

// ErrAccessDenied is returned when the policy cannot be satisfied for a
// label under any property values.
var ErrAccessDenied = errors.New("opa: access denied")

// Client communicates with an OPA server's Compile API.
type Client struct {
	baseURL    string
	policyPath string
	input      map[string]any
	httpClient *http.Client
}

// NewClient creates an OPA Client with the given base URL, policy path, and input.
// The policy path is normalized to include the "data." prefix if not already present.
//
// SECURITY: The baseURL is used as-is for HTTP requests. In production, use HTTPS
// to prevent policy decisions and input data from being transmitted in plain text.
func NewClient(baseURL, policyPath string, input map[string]any) *Client {
	if !strings.HasPrefix(policyPath, "data.") {
		policyPath = "data." + policyPath
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		policyPath: policyPath,
		input:      input,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// postJSON sends a POST request with JSON body to the given path and returns
// the response body. Returns an error if the request fails or returns a
// non-200 status code.
func (c *Client) postJSON(ctx context.Context, path string, reqBody []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// --- Compile API types ---

type compileRequest struct {
	Query    string   `json:"query"`
	Input    any      `json:"input,omitempty"`
	Unknowns []string `json:"unknowns"`
}

type compileResponse struct {
	Result compileResult `json:"result"`
}

type compileResult struct {
	Queries [][]compileExpression `json:"queries"`
}

type compileExpression struct {
	Index int           `json:"index"`
	Terms []compileTerm `json:"terms"`
}

type compileTerm struct {
	Type  string `json:"type"`
	Value any    // string, int, float64, bool, or []compileTerm (for ref)
}

// UnmarshalJSON handles polymorphic deserialization of compileTerm.Value
// based on the Type field.
func (ct *compileTerm) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ct.Type = raw.Type

	switch raw.Type {
	case "string", "var":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("opa: failed to unmarshal %s value: %w", raw.Type, err)
		}
		ct.Value = s
	case "number":
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("opa: failed to unmarshal number value: %w", err)
		}
		// Store whole numbers as int.
		if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) {
			ct.Value = int(f)
		} else {
			ct.Value = f
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("opa: failed to unmarshal boolean value: %w", err)
		}
		ct.Value = b
	case "null":
		ct.Value = nil
	case "ref":
		var terms []compileTerm
		if err := json.Unmarshal(raw.Value, &terms); err != nil {
			return fmt.Errorf("opa: failed to unmarshal ref value: %w", err)
		}
		ct.Value = terms
	default:
		return fmt.Errorf("opa: unknown term type %q", raw.Type)
	}
	return nil
}

// parseCompileResponse parses a raw JSON body from the OPA Compile API.
func parseCompileResponse(data []byte) (*compileResponse, error) {
	var resp compileResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("opa: failed to parse compile response: %w", err)
	}
	return &resp, nil
}

// --- Expression translation ---

// refParts returns the elements of a ref term.
func refParts(term compileTerm) ([]compileTerm, bool) {
	if term.Type != "ref" {
		return nil, false
	}
	parts, ok := term.Value.([]compileTerm)
	return parts, ok && len(parts) > 0
}

// extractOperator pulls the operator name from the first term of an expression,
// which is expected to be a ref containing a single var.
func extractOperator(term compileTerm) (string, error) {
	parts, ok := refParts(term)
	if !ok {
		return "", fmt.Errorf("opa: operator term must be a non-empty ref, got %s", term.Type)
	}
	if parts[0].Type != "var" {
		return "", fmt.Errorf("opa: operator ref[0] must be var, got %s", parts[0].Type)
	}
	name, ok := parts[0].Value.(string)
	if !ok {
		return "", errors.New("opa: operator var value is not a string")
	}
	return name, nil
}

// extractPropertyName pulls the property key from a data ref term.
// The key is the last string-typed element in the ref.
func extractPropertyName(term compileTerm) (string, error) {
	parts, ok := refParts(term)
	if !ok {
		return "", fmt.Errorf("opa: property term must be a non-empty ref, got %s", term.Type)
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].Type == "string" {
			s, ok := parts[i].Value.(string)
			if !ok {
				return "", errors.New("opa: property ref string value is not a string")
			}
			return s, nil
		}
	}
	return "", errors.New("opa: property ref has no string-typed element")
}

// isDataRef returns true if the term is a ref starting with var "data".
func isDataRef(term compileTerm) bool {
	parts, ok := refParts(term)
	if !ok || parts[0].Type != "var" {
		return false
	}
	name, ok := parts[0].Value.(string)
	return ok && name == "data"
}

// translateExpression converts an OPA compile expression into a condition
// on a property of v. OPA does not guarantee operand order, so the data
// ref and value term are identified by type rather than position.
func translateExpression(expr compileExpression, v *nodes.SymbolicName) (nodes.Node, error) {
	if len(expr.Terms) < 3 {
		return nil, fmt.Errorf("opa: expression has %d terms, need at least 3", len(expr.Terms))
	}

	op, err := extractOperator(expr.Terms[0])
	if err != nil {
		return nil, err
	}

	var propTerm, valTerm compileTerm
	switch {
	case isDataRef(expr.Terms[1]):
		propTerm, valTerm = expr.Terms[1], expr.Terms[2]
	case isDataRef(expr.Terms[2]):
		propTerm, valTerm = expr.Terms[2], expr.Terms[1]
	default:
		return nil, errors.New("opa: expression has no data ref term")
	}

	key, err := extractPropertyName(propTerm)
	if err != nil {
		return nil, err
	}
	if _, isRef := valTerm.Value.([]compileTerm); isRef {
		return nil, fmt.Errorf("opa: %s on %s compares against a reference, not a value", op, key)
	}

	prop := v.Prop(key)
	val := valTerm.Value

	switch op {
	case "eq", "equal":
		return prop.Eq(val), nil
	case "neq":
		return prop.NotEq(val), nil
	case "lt":
		return prop.Lt(val), nil
	case "lte":
		return prop.LtEq(val), nil
	case "gt":
		return prop.Gt(val), nil
	case "gte":
		return prop.GtEq(val), nil
	case "startswith", "endswith", "contains":
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("opa: %s requires string value, got %T", op, val)
		}
		switch op {
		case "startswith":
			return prop.StartsWith(s), nil
		case "endswith":
			return prop.EndsWith(s), nil
		}
		return prop.Contains(s), nil
	case "re_match", "regex.match":
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("opa: %s requires string value, got %T", op, val)
		}
		return prop.MatchesRegexp(s), nil
	default:
		return nil, fmt.Errorf("opa: unsupported operator %q", op)
	}
}

// translateQuery ANDs the expressions of one query together.
func translateQuery(query []compileExpression, v *nodes.SymbolicName) (nodes.Node, error) {
	conds := make([]nodes.Node, 0, len(query))
	for _, expr := range query {
		n, err := translateExpression(expr, v)
		if err != nil {
			return nil, err
		}
		conds = append(conds, n)
	}
	return nodes.AllOf(conds...), nil
}

// translateQueries converts the full query set from an OPA Compile response
// into conditions on v suitable for a WHERE clause.
//
// Semantics:
//   - nil or empty queries = access denied (error)
//   - an empty query anywhere = unconditional allow (nil conditions, no error)
//   - single query = each expression returned separately (ANDed by the caller)
//   - multiple queries = each query ANDed internally, then ORed together
func translateQueries(queries [][]compileExpression, v *nodes.SymbolicName) ([]nodes.Node, error) {
	if len(queries) == 0 {
		return nil, ErrAccessDenied
	}
	for _, q := range queries {
		if len(q) == 0 {
			return nil, nil
		}
	}

	if len(queries) == 1 {
		conditions := make([]nodes.Node, 0, len(queries[0]))
		for _, expr := range queries[0] {
			n, err := translateExpression(expr, v)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, n)
		}
		return conditions, nil
	}

	var result nodes.Node
	for _, query := range queries {
		group, err := translateQuery(query, v)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = group
		} else {
			result = nodes.NewOr(result, group)
		}
	}
	return []nodes.Node{nodes.NewGrouping(result)}, nil
}

func (c *Client) compile(ctx context.Context, label string) ([]byte, *compileResponse, error) {
	reqBody := compileRequest{
		Query:    c.policyPath + " == true",
		Input:    c.input,
		Unknowns: []string{"data." + label},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("opa: failed to marshal compile request: %w", err)
	}

	body, err := c.postJSON(ctx, "/v1/compile", data)
	if err != nil {
		return nil, nil, fmt.Errorf("opa: compile request failed: %w", err)
	}

	parsed, err := parseCompileResponse(body)
	if err != nil {
		return nil, nil, err
	}
	return body, parsed, nil
}

// Compile calls the OPA Compile API with data.<label> unknown and returns
// conditions on the properties of v.
func (c *Client) Compile(ctx context.Context, label string, v *nodes.SymbolicName) ([]nodes.Node, error) {
	_, parsed, err := c.compile(ctx, label)
	if err != nil {
		return nil, err
	}
	conds, err := translateQueries(parsed.Result.Queries, v)
	if err != nil {
		return nil, fmt.Errorf("%w: label %s", err, label)
	}
	return conds, nil
}

// --- Explain ---

// ExplainTranslation records how a single OPA expression was translated.
type ExplainTranslation struct {
	Operator string // OPA operator (eq, neq, lt, etc.)
	Property string // property key from the data ref
	Cypher   string // resulting Cypher fragment, empty if translation failed
	Err      error
}

// ExplainResult holds the diagnostic output from an Explain call.
type ExplainResult struct {
	RawJSON            string
	QueryCount         int
	Translations       []ExplainTranslation
	UnconditionalAllow bool
	AccessDenied       bool
}

// Explain calls the OPA Compile API and reports how each returned
// expression translates to Cypher for a node bound to v.
func (c *Client) Explain(ctx context.Context, label string, v *nodes.SymbolicName) (*ExplainResult, error) {
	body, parsed, err := c.compile(ctx, label)
	if err != nil {
		return nil, err
	}
	queries := parsed.Result.Queries
	result := &ExplainResult{RawJSON: string(body), QueryCount: len(queries)}
	if len(queries) == 0 {
		result.AccessDenied = true
		return result, nil
	}
	for _, query := range queries {
		if len(query) == 0 {
			result.UnconditionalAllow = true
		}
		for _, expr := range query {
			tr := ExplainTranslation{}
			if len(expr.Terms) > 0 {
				tr.Operator, _ = extractOperator(expr.Terms[0])
			}
			for _, term := range expr.Terms[min(1, len(expr.Terms)):] {
				if isDataRef(term) {
					tr.Property, _ = extractPropertyName(term)
				}
			}
			n, err := translateExpression(expr, v)
			if err == nil {
				tr.Cypher, err = visitors.Render(n)
			}
			tr.Err = err
			result.Translations = append(result.Translations, tr)
		}
	}
	return result, nil
}
