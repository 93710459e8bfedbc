package main

import (
	"errors"
	"fmt"
	"net/url"
	"os/user"
	"strings"

	"github.com/ergochat/readline"

	"github.com/bawdo/cypherbee/internal/age"
	"github.com/bawdo/cypherbee/internal/quoting"
	"github.com/bawdo/cypherbee/visitors"
)

var errNotConnected = errors.New("not connected (use 'connect <dsn>' first)")

func (s *Session) cmdConnect(args string) error {
	dsn := strings.TrimSpace(args)
	if dsn == "" {
		dsn = s.lastDSN
	}
	if dsn == "" {
		dsn = s.dsn
	}
	if dsn == "" {
		if s.rl == nil {
			return errors.New("usage: connect <dsn>")
		}
		dsn = buildPostgresDSN(s.rl)
	}
	return s.connectWithDSN(dsn)
}

func (s *Session) connectWithDSN(dsn string) error {
	conn, err := age.Open(s.ctx, dsn, s.graph)
	if err != nil {
		return err
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.conn = conn
	s.lastDSN = dsn
	s.log.Info("connected", "dsn", conn.DSN(), "graph", s.graph)
	_, _ = fmt.Fprintf(s.out, "  Connected to %s\n", conn.DSN())
	return s.ensureGraph()
}

// ensureGraph creates the session graph when missing and refreshes the
// labels used for completion.
func (s *Session) ensureGraph() error {
	created, err := s.conn.EnsureGraph(s.ctx)
	if err != nil {
		return err
	}
	if created {
		_, _ = fmt.Fprintf(s.out, "  Created graph %q\n", s.graph)
	} else {
		_, _ = fmt.Fprintf(s.out, "  Using graph %q\n", s.graph)
	}
	s.refreshLabels()
	return nil
}

func (s *Session) refreshLabels() {
	labels, err := s.conn.Labels(s.ctx)
	if err != nil {
		s.log.Warn("label lookup failed", "err", err)
		return
	}
	s.labels = labels
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	err := s.conn.Close()
	s.conn = nil
	s.labels = nil
	_, _ = fmt.Fprintln(s.out, "  Disconnected")
	return err
}

func (s *Session) cmdGraph(args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		_, _ = fmt.Fprintf(s.out, "  Graph: %s\n", s.graph)
		return nil
	}
	if !quoting.IsIdentifier(name) {
		return fmt.Errorf("invalid graph name %q", name)
	}
	s.graph = name
	if s.conn == nil {
		_, _ = fmt.Fprintf(s.out, "  Graph set to %q\n", name)
		return nil
	}
	if err := s.conn.UseGraph(name); err != nil {
		return err
	}
	return s.ensureGraph()
}

func (s *Session) cmdLabels() error {
	if s.conn == nil {
		return errNotConnected
	}
	s.refreshLabels()
	if len(s.labels) == 0 {
		_, _ = fmt.Fprintf(s.out, "  Graph %q has no labels\n", s.graph)
		return nil
	}
	for _, l := range s.labels {
		_, _ = fmt.Fprintf(s.out, "  %s\n", l)
	}
	return nil
}

// cmdRun renders the current statement, runs it through AGE and prints
// the result table.
func (s *Session) cmdRun() error {
	if s.conn == nil {
		return errNotConnected
	}
	n, err := s.current()
	if err != nil {
		return err
	}
	text, err := s.cache.Render(n)
	if err != nil {
		return err
	}
	s.printCypher(text)
	names := visitors.Parameters(n)

	// AGE embeds the statement in SQL, so it is always sent unformatted.
	var opts []visitors.Option
	if s.escape {
		opts = append(opts, visitors.WithAlwaysEscapeNames())
	}
	if s.strict {
		opts = append(opts, visitors.WithStrict())
	}
	res, runErr := s.conn.Run(s.ctx, n, s.params, opts...)
	s.record(text, names, runErr)
	if runErr != nil {
		return runErr
	}
	_, _ = fmt.Fprint(s.out, res.Table())
	s.log.Debug("run", "rows", len(res.Rows), "truncated", res.Truncated)
	return nil
}

func buildPostgresDSN(rl *readline.Instance) string {
	fmt.Println("[Config] PostgreSQL (Apache AGE) connection setup:")

	defaultUser := "postgres"
	if u, err := user.Current(); err == nil && u.Username != "" {
		defaultUser = u.Username
	}

	dbUser := prompt(rl, "User", defaultUser)
	dbPass := prompt(rl, "Password", "")
	host := prompt(rl, "Host", "localhost")
	port := prompt(rl, "Port", "5432")
	dbName := prompt(rl, "Database", dbUser)
	sslMode := prompt(rl, "SSL mode (disable/require/verify-full)", "disable")

	var userInfo *url.Userinfo
	if dbPass != "" {
		userInfo = url.UserPassword(dbUser, dbPass)
	} else {
		userInfo = url.User(dbUser)
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     host + ":" + port,
		Path:     "/" + dbName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}
