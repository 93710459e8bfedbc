package main

import (
	"errors"
	"fmt"
	"strings"
)

// --- Write command handlers ---
//
// CREATE and MERGE start a write statement; SET, REMOVE and DELETE turn a
// query that so far holds only MATCH and WHERE into an update or delete.

func (s *Session) cmdCreate(args string, merge bool) error {
	clause := "CREATE"
	if merge {
		clause = "MERGE"
	}
	if strings.TrimSpace(args) == "" {
		return fmt.Errorf("usage: %s <pattern>", strings.ToLower(clause))
	}
	parts, err := s.parsePatterns(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(clause), err)
	}
	err = s.addStep(clause+" "+args, func(b *builder) error { return b.startWrite(merge, parts) })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s started (%d %s)\n", clause, len(parts), plural(len(parts), "pattern"))
	return nil
}

func (s *Session) cmdMergeAction(args string, onCreate bool) error {
	clause := "ON MATCH SET"
	if onCreate {
		clause = "ON CREATE SET"
	}
	items, err := s.parseSetItems(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(clause), err)
	}
	err = s.addStep(clause+" "+args, func(b *builder) error { return b.mergeAction(onCreate, items) })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s added (%d %s)\n", clause, len(items), plural(len(items), "item"))
	return nil
}

func (s *Session) cmdSet(args string) error {
	items, err := s.parseSetItems(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if s.built.empty() {
		return errors.New("SET needs a statement (use 'match <pattern>' first)")
	}
	err = s.addStep("SET "+args, func(b *builder) error { return b.set(items) })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  SET added (%d %s)\n", len(items), plural(len(items), "item"))
	return nil
}

func (s *Session) cmdRemove(args string) error {
	items, err := s.parseRemoveItems(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	if s.built.empty() {
		return errors.New("REMOVE needs a statement (use 'match <pattern>' first)")
	}
	err = s.addStep("REMOVE "+args, func(b *builder) error { return b.remove(items) })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  REMOVE added (%d %s)\n", len(items), plural(len(items), "item"))
	return nil
}

func (s *Session) cmdDelete(args string, detach bool) error {
	clause := "DELETE"
	if detach {
		clause = "DETACH DELETE"
	}
	targets, err := s.parseVariables(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(clause), err)
	}
	if s.built.empty() {
		return fmt.Errorf("%s needs a statement (use 'match <pattern>' first)", clause)
	}
	err = s.addStep(clause+" "+args, func(b *builder) error { return b.delete(detach, targets) })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s added (%d %s)\n", clause, len(targets), plural(len(targets), "target"))
	return nil
}
