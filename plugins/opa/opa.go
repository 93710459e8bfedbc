// Package opa provides a Transformer that enforces Open Policy Agent
// policies on statements by injecting policy-derived WHERE conditions.
//
// You supply a [PolicyFunc] that is called once per named node the
// statement's MATCH clauses bind. The function inspects the node's
// variable and labels and returns zero or more conditions to AND into
// that MATCH's WHERE. If the function returns an error the statement is
// rejected entirely, which suits hard "access denied" rules.
//
// # Basic usage
//
//	policy := func(ref plugins.NodeRef) ([]nodes.Node, error) {
//	    if ref.HasLabel("Secret") {
//	        return nil, errors.New("access denied")
//	    }
//	    if ref.HasLabel("Person") {
//	        return []nodes.Node{ref.Variable.Prop("tenant_id").Eq(42)}, nil
//	    }
//	    return nil, nil // no extra conditions
//	}
//
//	query := managers.NewQueryManager().Match(nodes.NewNode("Person").Named("p"))
//	query.Use(opa.New(policy))
//	// MATCH (p:Person) WHERE p.tenant_id = 42 ...
//
// # Server mode
//
// [NewFromServer] asks an OPA server's Compile API for the residual
// policy of each label, treating data.<Label> as unknown, and translates
// the residual expressions into property conditions.
//
// # Combining with other plugins
//
// OPA composes with any other Transformer. Register multiple plugins
// with successive Use calls and they are applied in order:
//
//	query.Use(softdelete.New())
//	query.Use(opa.New(policy))
//
// The REPL exposes server mode through "plugin opa" and "opa setup".
package opa

import (
	"context"
	"fmt"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
)

// PolicyFunc evaluates a policy for a matched node and returns conditions
// to inject into the MATCH's WHERE clause. Returning a non-nil error
// rejects the statement entirely.
type PolicyFunc func(ref plugins.NodeRef) ([]nodes.Node, error)

// Option configures an OPA transformer.
type Option func(*OPA)

// WithContext sets the context used for server requests. The default is
// context.Background.
func WithContext(ctx context.Context) Option {
	return func(o *OPA) { o.ctx = ctx }
}

// OPA is a Transformer that evaluates a policy against every matched node
// and injects the resulting conditions. It supports two modes:
//   - PolicyFunc mode (via [New]): calls a Go function to evaluate policy
//   - Server mode (via [NewFromServer]): calls an OPA server's Compile API
type OPA struct {
	evalPolicy PolicyFunc
	client     *Client
	ctx        context.Context
}

var _ plugins.Transformer = (*OPA)(nil)

// New creates an OPA transformer with the given policy function.
func New(policy PolicyFunc, opts ...Option) *OPA {
	o := &OPA{evalPolicy: policy, ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewFromServer creates an OPA transformer that calls an OPA server's
// Compile API to evaluate policies. The url is the base URL of the OPA
// server (e.g., "http://localhost:8181"), policyPath is the Rego policy
// path (e.g., "data.authz.allow"), and input is the input document to
// send with each request.
func NewFromServer(url, policyPath string, input map[string]any, opts ...Option) *OPA {
	o := &OPA{client: NewClient(url, policyPath, input), ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TransformStatement evaluates the policy for each matched node and ANDs
// any returned conditions into the WHERE of the MATCH that binds it. In
// server mode every label of the node is compiled; unlabelled nodes are
// left alone.
func (o *OPA) TransformStatement(stmt *nodes.Statement) (*nodes.Statement, error) {
	for _, ref := range plugins.CollectNodes(stmt) {
		conditions, err := o.evaluate(ref)
		if err != nil {
			return nil, err
		}
		stmt = plugins.AddCondition(stmt, ref.Clause, conditions...)
	}
	return stmt, nil
}

func (o *OPA) evaluate(ref plugins.NodeRef) ([]nodes.Node, error) {
	if o.client == nil {
		conds, err := o.evalPolicy(ref)
		if err != nil {
			return nil, fmt.Errorf("opa: policy for %s: %w", ref.Variable.Name(), err)
		}
		return conds, nil
	}
	var all []nodes.Node
	for _, label := range ref.Labels {
		conds, err := o.client.Compile(o.ctx, label, ref.Variable)
		if err != nil {
			return nil, err
		}
		all = append(all, conds...)
	}
	return all, nil
}
