package nodes

import (
	"fmt"
	"math"
	"reflect"
)

// Limit is the LIMIT clause. It wraps exactly one integer NumberLiteral.
type Limit struct {
	amount *NumberLiteral
}

// NewLimit creates a Limit for a non-negative, finite, integral amount.
// Anything else fails with ErrInvalidAmount; no Limit is created.
func NewLimit[N Numeric](v N) (*Limit, error) {
	amount, err := newAmount("LIMIT", v)
	if err != nil {
		return nil, err
	}
	return &Limit{amount: amount}, nil
}

// MustLimit is like NewLimit but panics on an invalid amount.
func MustLimit[N Numeric](v N) *Limit {
	l, err := NewLimit(v)
	if err != nil {
		panic(err)
	}
	return l
}

// Amount returns the wrapped literal.
func (n *Limit) Amount() *NumberLiteral { return n.amount }

// Accept enters the Limit, then forwards to the wrapped amount.
func (n *Limit) Accept(v Visitor) { Visit(v, n, n.amount) }

// Skip is the SKIP clause. It follows the same construction rules as Limit.
type Skip struct {
	amount *NumberLiteral
}

// NewSkip creates a Skip for a non-negative, finite, integral amount.
func NewSkip[N Numeric](v N) (*Skip, error) {
	amount, err := newAmount("SKIP", v)
	if err != nil {
		return nil, err
	}
	return &Skip{amount: amount}, nil
}

// MustSkip is like NewSkip but panics on an invalid amount.
func MustSkip[N Numeric](v N) *Skip {
	s, err := NewSkip(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Amount returns the wrapped literal.
func (n *Skip) Amount() *NumberLiteral { return n.amount }

func (n *Skip) Accept(v Visitor) { Visit(v, n, n.amount) }

// newAmount validates a row count and wraps it as an int64 literal.
// Floats must be whole numbers; 10.0 becomes 10.
func newAmount[N Numeric](clause string, v N) (*NumberLiteral, error) {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Float32, reflect.Float64:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: %s %v", ErrInvalidAmount, clause, f)
		}
		return Number(int64(f)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if uint64(v) > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %s %v", ErrInvalidAmount, clause, v)
		}
		return Number(int64(v)), nil
	default:
		if int64(v) < 0 {
			return nil, fmt.Errorf("%w: %s %v", ErrInvalidAmount, clause, v)
		}
		return Number(int64(v)), nil
	}
}
