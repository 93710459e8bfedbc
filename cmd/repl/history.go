package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/bawdo/cypherbee/internal/journal"
)

const defaultHistoryLimit = 20

var errNoJournal = errors.New("journal disabled (set 'journal' in the config file)")

func (s *Session) cmdHistory(args string) error {
	if s.journal == nil {
		return errNoJournal
	}
	n := defaultHistoryLimit
	if a := strings.TrimSpace(args); a != "" {
		v, err := strconv.Atoi(a)
		if err != nil || v <= 0 {
			return fmt.Errorf("history requires a positive integer, got %q", a)
		}
		n = v
	}
	entries, err := s.journal.Recent(s.ctx, n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(s.out, "  Journal is empty")
		return nil
	}
	printEntries(s.out, entries)
	return nil
}

func (s *Session) cmdRecall(args string) error {
	if s.journal == nil {
		return errNoJournal
	}
	id, err := ulid.ParseStrict(strings.ToUpper(strings.TrimSpace(args)))
	if err != nil {
		return fmt.Errorf("recall: invalid entry id %q: %w", strings.TrimSpace(args), err)
	}
	e, err := s.journal.Get(s.ctx, id)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s  %s\n", e.ID, e.At.Local().Format("2006-01-02 15:04:05"))
	s.printCypher(e.Cypher)
	if len(e.Params) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Params: $%s\n", strings.Join(e.Params, ", $"))
	}
	if e.Err != "" {
		_, _ = fmt.Fprintf(s.out, "  Error: %s\n", e.Err)
	}
	return nil
}

// printEntries lists journal entries one per line, flattening pretty
// printed statements.
func printEntries(w io.Writer, entries []journal.Entry) {
	for _, e := range entries {
		status := ""
		if e.Err != "" {
			status = "  [error]"
		}
		text := strings.ReplaceAll(e.Cypher, "\n", " ")
		_, _ = fmt.Fprintf(w, "  %s  %s  %s%s\n", e.ID, e.At.Local().Format("15:04:05"), text, status)
	}
}
