package nodes

import "errors"

var (
	// ErrInvalidAmount is returned by amount-taking factories (LIMIT, SKIP,
	// variable-length bounds) for negative, non-finite, fractional or
	// out-of-range values.
	ErrInvalidAmount = errors.New("cypherbee: invalid amount")

	// ErrUnrepresentable is returned when a literal's content has no Cypher
	// representation (NaN, infinities).
	ErrUnrepresentable = errors.New("cypherbee: value cannot be represented in cypher")

	// ErrUnsupportedLiteral is returned by LiteralOf for Go types that have
	// no literal node kind. Builders that accept plain Go values defer it to
	// render time.
	ErrUnsupportedLiteral = errors.New("cypherbee: unsupported literal type")

	// ErrEmptyName is returned by factories that require a non-empty
	// identifier (variables, labels, property keys, parameters).
	ErrEmptyName = errors.New("cypherbee: empty name")

	// ErrMissingOperand is returned at render time for an expression built
	// without a required operand, such as count(DISTINCT) with no argument.
	ErrMissingOperand = errors.New("cypherbee: missing operand")
)
