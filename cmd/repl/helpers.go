package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/visitors"
)

var (
	titleCaser = cases.Title(language.Und, cases.NoLower)
	upperCaser = cases.Upper(language.Und)
)

// normalizeLabel title-cases a label: person becomes Person. Letters
// after the first keep their case.
func normalizeLabel(label string) string {
	return titleCaser.String(label)
}

// normalizeRelType upper-cases a relationship type: acted_in becomes
// ACTED_IN.
func normalizeRelType(relType string) string {
	return upperCaser.String(relType)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func itemCount(items []nodes.Node) string {
	if len(items) == 0 {
		return "*"
	}
	return fmt.Sprintf("%d %s", len(items), plural(len(items), "item"))
}

// parseAmount parses a SKIP or LIMIT argument.
func parseAmount(cmd, args string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return 0, fmt.Errorf("%s requires an integer, got %q", cmd, strings.TrimSpace(args))
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", cmd, n)
	}
	return n, nil
}

// formatValue prints a parameter value the way it would be written.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}

// clauseKind names a clause for the AST summary.
func clauseKind(n nodes.Node) string {
	switch c := n.(type) {
	case *nodes.Match:
		if c.IsOptional() {
			return "OPTIONAL MATCH"
		}
		return "MATCH"
	case *nodes.With:
		return "WITH"
	case *nodes.Unwind:
		return "UNWIND"
	case *nodes.Return:
		return "RETURN"
	case *nodes.Create:
		return "CREATE"
	case *nodes.Merge:
		return "MERGE"
	case *nodes.Set:
		return "SET"
	case *nodes.Remove:
		return "REMOVE"
	case *nodes.Delete:
		if c.IsDetach() {
			return "DETACH DELETE"
		}
		return "DELETE"
	}
	return fmt.Sprintf("%T", n)
}

// clauseDetail summarises the parts of a clause that are easy to miss in
// the rendered text.
func clauseDetail(n nodes.Node) string {
	var details []string
	switch c := n.(type) {
	case *nodes.Match:
		details = append(details, fmt.Sprintf("patterns=%d", len(c.Pattern().Parts())))
		if w := c.WhereClause(); w != nil {
			details = append(details, "where=yes")
		}
	case *nodes.With:
		details = append(details, projectionDetail(c.Items(), c.IsDistinct(), c.Order(), c.SkipClause(), c.LimitClause())...)
		if c.WhereClause() != nil {
			details = append(details, "where=yes")
		}
	case *nodes.Return:
		details = append(details, projectionDetail(c.Items(), c.IsDistinct(), c.Order(), c.SkipClause(), c.LimitClause())...)
	case *nodes.Merge:
		details = append(details, fmt.Sprintf("actions=%d", len(c.Actions())))
	case *nodes.Set:
		details = append(details, fmt.Sprintf("items=%d", len(c.Items())))
	case *nodes.Remove:
		details = append(details, fmt.Sprintf("items=%d", len(c.Items())))
	case *nodes.Delete:
		details = append(details, fmt.Sprintf("targets=%d", len(c.Items())))
	}
	return strings.Join(details, " ")
}

func projectionDetail(items *nodes.ExpressionList, distinct bool, order *nodes.OrderBy, skip *nodes.Skip, limit *nodes.Limit) []string {
	details := []string{fmt.Sprintf("items=%d", items.Len())}
	if distinct {
		details = append(details, "distinct")
	}
	if order != nil {
		details = append(details, fmt.Sprintf("order=%d", len(order.Items())))
	}
	if skip != nil {
		s, _ := skip.Amount().AsString()
		details = append(details, "skip="+s)
	}
	if limit != nil {
		l, _ := limit.Amount().AsString()
		details = append(details, "limit="+l)
	}
	return details
}

func (s *Session) printASTClauses(stmt *nodes.Statement, indent string) {
	r := visitors.NewRenderer()
	for i, clause := range stmt.Clauses() {
		text, err := r.Render(clause)
		if err != nil {
			text = "<" + err.Error() + ">"
		}
		_, _ = fmt.Fprintf(s.out, "%s[%d] %-14s %s\n", indent, i+1, clauseKind(clause), clauseDetail(clause))
		_, _ = fmt.Fprintf(s.out, "%s      %s\n", indent, text)
	}
	if names := boundNames(stmt); len(names) > 0 {
		_, _ = fmt.Fprintf(s.out, "%sVariables: %s\n", indent, strings.Join(names, ", "))
	}
}

func (s *Session) printASTFooter() {
	if !s.plugins.empty() {
		_, _ = fmt.Fprintf(s.out, "  Plugins: %s\n", strings.Join(s.plugins.names(), ", "))
	}
	if len(s.params) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Param values: %d\n", len(s.params))
	}
}

// nameCollector gathers the variable names a statement introduces.
type nameCollector struct {
	seen  map[string]bool
	names []string
}

func (c *nameCollector) add(name string) {
	if name == "" || c.seen[name] {
		return
	}
	c.seen[name] = true
	c.names = append(c.names, name)
}

func (c *nameCollector) Enter(n nodes.Node) {
	switch t := n.(type) {
	case *nodes.NodePattern:
		if v := t.Variable(); v != nil {
			c.add(v.Name())
		}
	case *nodes.RelationshipDetails:
		if v := t.Variable(); v != nil {
			c.add(v.Name())
		}
	case *nodes.NamedPath:
		c.add(t.Name().Name())
	case *nodes.AliasedExpression:
		c.add(t.Alias())
	case *nodes.Unwind:
		c.add(t.Alias())
	}
}

// boundNames returns the variables, path names and aliases n introduces,
// in the order they first appear.
func boundNames(n nodes.Node) []string {
	c := &nameCollector{seen: map[string]bool{}}
	n.Accept(c)
	return c.names
}
