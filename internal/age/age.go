// Package age runs rendered statements against PostgreSQL with the
// Apache AGE extension.
//
// AGE exposes Cypher through the cypher() set-returning function, so a
// statement is wrapped in a SQL SELECT whose column list mirrors the
// statement's RETURN items:
//
//	SELECT * FROM cypher('movies', $$ MATCH (p:Person) RETURN p.name $$) AS (name agtype)
//
// Statement parameters travel as a single agtype map in the third
// argument of cypher().
package age

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bawdo/cypherbee/internal/quoting"
	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/visitors"
)

// MaxRows bounds the rows read by Run.
const MaxRows = 1000

var (
	// ErrDollarQuote is returned when the statement text would terminate
	// the $$ quoting used to embed it.
	ErrDollarQuote = errors.New("age: statement contains $$")

	// ErrMissingParameter is returned by Run when a parameter used by the
	// statement has no value.
	ErrMissingParameter = errors.New("age: missing parameter")
)

// Wrap embeds cypher in the AGE cypher() call for graph. With params set
// the call takes the parameter map as $1.
func Wrap(graph, cypher string, columns []string, params bool) (string, error) {
	if !quoting.IsIdentifier(graph) {
		return "", fmt.Errorf("age: invalid graph name %q", graph)
	}
	if strings.Contains(cypher, "$$") {
		return "", ErrDollarQuote
	}
	if len(columns) == 0 {
		columns = []string{"result"}
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = sqlIdent(c) + " agtype"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM cypher('%s', $$ %s $$", graph, cypher)
	if params {
		b.WriteString(", $1")
	}
	fmt.Fprintf(&b, ") AS (%s)", strings.Join(defs, ", "))
	return b.String(), nil
}

func sqlIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Columns names the result columns of root after its final RETURN:
// aliases and variables keep their names, property lookups use the key
// and anything else is numbered. A union takes the names of its first
// part. Statements without RETURN yield nil.
func Columns(root nodes.Node) []string {
	var stmt *nodes.Statement
	switch n := root.(type) {
	case *nodes.Statement:
		stmt = n
	case *nodes.Union:
		parts := n.Statements()
		if len(parts) == 0 {
			return nil
		}
		stmt = parts[0]
	default:
		return nil
	}
	clauses := stmt.Clauses()
	if len(clauses) == 0 {
		return nil
	}
	ret, ok := clauses[len(clauses)-1].(*nodes.Return)
	if !ok {
		return nil
	}
	items := ret.Items().Items()
	seen := make(map[string]bool, len(items))
	cols := make([]string, 0, len(items))
	for i, it := range items {
		name := columnName(it)
		if name == "" || seen[name] {
			name = fmt.Sprintf("col%d", i+1)
		}
		seen[name] = true
		cols = append(cols, name)
	}
	return cols
}

func columnName(n nodes.Node) string {
	switch n := n.(type) {
	case *nodes.AliasedExpression:
		return n.Alias()
	case *nodes.SymbolicName:
		return n.Name()
	case *nodes.Property:
		return n.Key()
	case *nodes.StarNode:
		return "result"
	}
	return ""
}

// Conn is a database handle whose sessions have AGE loaded and
// ag_catalog on the search path.
type Conn struct {
	db    *sql.DB
	graph string
	dsn   string
}

// Open connects to dsn and verifies the connection. Every pooled session
// loads AGE before first use.
func Open(ctx context.Context, dsn, graph string) (*Conn, error) {
	if !quoting.IsIdentifier(graph) {
		return nil, fmt.Errorf("age: invalid graph name %q", graph)
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("age: parse dsn: %w", err)
	}
	db := stdlib.OpenDB(*cfg, stdlib.OptionAfterConnect(loadAGE))
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("age: ping: %w", err)
	}
	return &Conn{db: db, graph: graph, dsn: dsn}, nil
}

func loadAGE(ctx context.Context, conn *pgx.Conn) error {
	if _, err := conn.Exec(ctx, "LOAD 'age'"); err != nil {
		return fmt.Errorf("age: load extension: %w", err)
	}
	if _, err := conn.Exec(ctx, `SET search_path = ag_catalog, "$user", public`); err != nil {
		return fmt.Errorf("age: search path: %w", err)
	}
	return nil
}

// Graph returns the graph statements run against.
func (c *Conn) Graph() string { return c.graph }

// DSN returns the connection string with any password masked.
func (c *Conn) DSN() string { return RedactDSN(c.dsn) }

// UseGraph switches the graph later statements run against.
func (c *Conn) UseGraph(graph string) error {
	if !quoting.IsIdentifier(graph) {
		return fmt.Errorf("age: invalid graph name %q", graph)
	}
	c.graph = graph
	return nil
}

// Labels returns the vertex and edge labels of the graph, without AGE's
// internal default labels.
func (c *Conn) Labels(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT l.name FROM ag_catalog.ag_label l
		JOIN ag_catalog.ag_graph g ON l.graph = g.graphid
		WHERE g.name = $1 AND l.name NOT LIKE '\_ag\_%'
		ORDER BY l.name`, c.graph)
	if err != nil {
		return nil, fmt.Errorf("age: list labels: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var labels []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("age: list labels: %w", err)
		}
		labels = append(labels, name)
	}
	return labels, rows.Err()
}

// Close closes the underlying pool.
func (c *Conn) Close() error { return c.db.Close() }

// EnsureGraph creates the graph if it does not exist yet. It reports
// whether the graph was created.
func (c *Conn) EnsureGraph(ctx context.Context) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT count(*) FROM ag_catalog.ag_graph WHERE name = $1", c.graph).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("age: lookup graph: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := c.db.ExecContext(ctx, "SELECT ag_catalog.create_graph($1)", c.graph); err != nil {
		return false, fmt.Errorf("age: create graph: %w", err)
	}
	return true, nil
}

// Run renders root, wraps it for AGE and executes it. Every parameter the
// statement uses must have a value in args.
func (c *Conn) Run(ctx context.Context, root nodes.Node, args map[string]any, opts ...visitors.Option) (*Result, error) {
	if missing := visitors.MissingParameters(root, args); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}
	cypher, err := visitors.NewRenderer(opts...).Render(root)
	if err != nil {
		return nil, err
	}
	used := len(visitors.Parameters(root)) > 0
	query, err := Wrap(c.graph, cypher, Columns(root), used)
	if err != nil {
		return nil, err
	}
	var qargs []any
	if used {
		encoded, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("age: encode parameters: %w", err)
		}
		qargs = append(qargs, string(encoded))
	}
	rows, err := c.db.QueryContext(ctx, query, qargs...)
	if err != nil {
		return nil, fmt.Errorf("age: query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return ReadRows(rows, MaxRows)
}

// RedactDSN masks the password of a URL-style connection string.
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.User == nil {
		return dsn
	}
	if _, hasPass := u.User.Password(); !hasPass {
		return dsn
	}
	// Rebuilt by hand to avoid percent-encoding the mask.
	masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
	if u.RawQuery != "" {
		masked += "?" + u.RawQuery
	}
	return masked
}
