// Package journal records the statements a REPL session renders or runs
// in a local SQLite database, so earlier statements can be listed and
// recalled across sessions.
package journal

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by Get for an unknown entry id.
var ErrNotFound = errors.New("journal: entry not found")

// Entry is one recorded statement.
type Entry struct {
	ID      ulid.ULID
	Session uuid.UUID
	At      time.Time
	Cypher  string
	Params  []string // parameter names the statement uses
	Err     string   // execution error, empty on success or when not run
}

// Journal is a SQLite-backed statement log. Entries are ordered by their
// ULID, which sorts by creation time.
type Journal struct {
	db      *sql.DB
	session uuid.UUID

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// Open creates or opens the journal at path and starts a new session.
// Use ":memory:" for a journal that lives only as long as the process.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: connect: %w", err)
	}
	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", schemaSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: schema: %w", err)
		}
	}

	session, err := uuid.NewRandom()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: session id: %w", err)
	}
	return &Journal{
		db:      db,
		session: session,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}, nil
}

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }

// Session returns the id shared by all entries recorded through j.
func (j *Journal) Session() uuid.UUID { return j.session }

func (j *Journal) newID() (ulid.ULID, time.Time, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	at := j.now()
	id, err := ulid.New(ulid.Timestamp(at), j.entropy)
	return id, at, err
}

// Record appends a statement. runErr is the execution error, if the
// statement was run and failed.
func (j *Journal) Record(ctx context.Context, cypher string, params []string, runErr error) (Entry, error) {
	id, at, err := j.newID()
	if err != nil {
		return Entry{}, fmt.Errorf("journal: entry id: %w", err)
	}
	encoded, err := encodeParams(params)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: params: %w", err)
	}
	e := Entry{ID: id, Session: j.session, At: at, Cypher: cypher, Params: params}
	if runErr != nil {
		e.Err = runErr.Error()
	}
	_, err = j.db.ExecContext(ctx,
		"INSERT INTO entries (id, session_id, created_at, cypher, params, error) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID.String(), e.Session.String(), at.UnixMilli(), e.Cypher, encoded, e.Err)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: insert: %w", err)
	}
	return e, nil
}

const selectEntries = "SELECT id, session_id, created_at, cypher, params, error FROM entries"

// Recent returns up to n entries from any session, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	return j.query(ctx, selectEntries+" ORDER BY id DESC LIMIT ?", n)
}

// SessionEntries returns the entries of the current session, oldest
// first.
func (j *Journal) SessionEntries(ctx context.Context) ([]Entry, error) {
	return j.query(ctx, selectEntries+" WHERE session_id = ? ORDER BY id", j.session.String())
}

// Get returns the entry with the given id.
func (j *Journal) Get(ctx context.Context, id ulid.ULID) (Entry, error) {
	entries, err := j.query(ctx, selectEntries+" WHERE id = ?", id.String())
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entries[0], nil
}

func (j *Journal) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			id, session, params string
			millis              int64
			e                   Entry
		)
		if err := rows.Scan(&id, &session, &millis, &e.Cypher, &params, &e.Err); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		if e.ID, err = ulid.ParseStrict(id); err != nil {
			return nil, fmt.Errorf("journal: entry id %q: %w", id, err)
		}
		if e.Session, err = uuid.Parse(session); err != nil {
			return nil, fmt.Errorf("journal: session id %q: %w", session, err)
		}
		e.At = time.UnixMilli(millis)
		if e.Params, err = decodeParams(params); err != nil {
			return nil, fmt.Errorf("journal: entry %s params: %w", id, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// encodeParams stores parameter names as a JSON array. No names is the
// empty string.
func encodeParams(params []string) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeParams reads a JSON array of names. Journals written before names
// were JSON encoded hold a comma separated list.
func decodeParams(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") {
		return strings.Split(s, ","), nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}
