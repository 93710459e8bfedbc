package managers

import "errors"

var (
	// ErrNoClause is held when a builder call needs a preceding clause
	// that is missing, such as Where before any MATCH.
	ErrNoClause = errors.New("cypherbee: no clause to apply to")

	// ErrMixedUnion is held when UNION and UNION ALL are combined in one
	// query.
	ErrMixedUnion = errors.New("cypherbee: cannot mix UNION and UNION ALL")

	// ErrEmptyStatement is returned by Build when the manager has nothing
	// to produce.
	ErrEmptyStatement = errors.New("cypherbee: empty statement")

	// ErrNotMerge is held when ON CREATE or ON MATCH actions are added to
	// a CREATE.
	ErrNotMerge = errors.New("cypherbee: ON CREATE and ON MATCH require MERGE")
)
