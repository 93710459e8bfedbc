package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/cypherbee/internal/journal"
)

func journalSession(t *testing.T) (*Session, *bytes.Buffer, *journal.Journal) {
	t.Helper()
	j, err := journal.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	sess, out := newTestSession(t)
	sess.journal = j
	return sess, out, j
}

func TestCypherIsJournalled(t *testing.T) {
	t.Parallel()
	sess, out, j := journalSession(t)
	mustExec(t, sess, "match (p:Person)", "where p.name = $name", "return p", "cypher")

	entries, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "MATCH (p:Person) WHERE p.name = $name RETURN p", entries[0].Cypher)
	assert.Equal(t, []string{"name"}, entries[0].Params)

	out.Reset()
	mustExec(t, sess, "history")
	assert.Contains(t, out.String(), entries[0].ID.String())
	assert.Contains(t, out.String(), "MATCH (p:Person) WHERE p.name = $name RETURN p")
}

func TestHistoryFlattensPrettyStatements(t *testing.T) {
	t.Parallel()
	sess, out, _ := journalSession(t)
	mustExec(t, sess, "pretty", "match (p:Person)", "return p", "cypher")
	out.Reset()
	mustExec(t, sess, "history 5")
	assert.Contains(t, out.String(), "MATCH (p:Person) RETURN p")
}

func TestRecall(t *testing.T) {
	t.Parallel()
	sess, out, j := journalSession(t)
	mustExec(t, sess, "match (p:Person)", "return p", "cypher")
	entries, err := j.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	out.Reset()
	mustExec(t, sess, "recall "+strings.ToLower(entries[0].ID.String()))
	assert.Contains(t, out.String(), "  MATCH (p:Person) RETURN p;\n")
}

func TestRecallErrors(t *testing.T) {
	t.Parallel()
	sess, _, _ := journalSession(t)
	assert.Error(t, sess.Execute("recall not-an-id"))
	err := sess.Execute("recall 01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.True(t, errors.Is(err, journal.ErrNotFound), "got %v", err)
}

func TestHistoryEmptyAndDisabled(t *testing.T) {
	t.Parallel()
	sess, out, _ := journalSession(t)
	mustExec(t, sess, "history")
	assert.Equal(t, "  Journal is empty\n", out.String())
	assert.Error(t, sess.Execute("history 0"))

	plain, _ := newTestSession(t)
	assert.ErrorIs(t, plain.Execute("history"), errNoJournal)
}
