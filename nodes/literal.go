package nodes

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/bawdo/cypherbee/internal/quoting"
)

// Literal is a leaf node that renders itself as Cypher syntax.
type Literal interface {
	Node
	AsString() (string, error)
}

// Value holds the single immutable content of a literal.
type Value[T any] struct {
	content T
}

// Content returns the wrapped value.
func (v Value[T]) Content() T { return v.content }

// Numeric is the set of Go types a NumberLiteral can wrap.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// NumberLiteral wraps an integer or floating point value.
type NumberLiteral struct {
	Predications
	Arithmetics
	Value[any]
}

// Number creates a NumberLiteral. The content keeps its Go kind so that
// integers render as Cypher integers and floats as Cypher floats.
func Number[N Numeric](v N) *NumberLiteral {
	n := &NumberLiteral{Value: Value[any]{content: normalizeNumber(v)}}
	n.Predications.self = n
	n.Arithmetics.self = n
	return n
}

// normalizeNumber folds every numeric kind onto int64, uint64 (beyond
// MaxInt64 only), float32 or float64.
func normalizeNumber[N Numeric](v N) any {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Float32:
		return float32(v)
	case reflect.Float64:
		return float64(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := uint64(v); u > math.MaxInt64 {
			return u
		}
	}
	return int64(v)
}

func (n *NumberLiteral) Accept(v Visitor) { Visit(v, n) }

// AsString renders the number without locale-dependent grouping or
// separators. Floats always carry a fraction or exponent.
func (n *NumberLiteral) AsString() (string, error) {
	switch c := n.content.(type) {
	case int64:
		return strconv.FormatInt(c, 10), nil
	case uint64:
		return strconv.FormatUint(c, 10), nil
	case float32:
		return formatFloat(float64(c), 32)
	case float64:
		return formatFloat(c, 64)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedLiteral, c)
	}
}

func formatFloat(f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrUnrepresentable, f)
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	// Cypher exponents take no plus sign.
	s = strings.Replace(s, "e+", "e", 1)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}

// StringLiteral wraps a string, rendered single-quoted and escaped.
type StringLiteral struct {
	Predications
	Value[string]
}

// String creates a StringLiteral.
func String(s string) *StringLiteral {
	n := &StringLiteral{Value: Value[string]{content: s}}
	n.Predications.self = n
	return n
}

func (n *StringLiteral) Accept(v Visitor) { Visit(v, n) }

func (n *StringLiteral) AsString() (string, error) {
	return "'" + quoting.EscapeString(n.content) + "'", nil
}

// BooleanLiteral wraps true or false.
type BooleanLiteral struct {
	Value[bool]
}

// Boolean creates a BooleanLiteral.
func Boolean(b bool) *BooleanLiteral {
	return &BooleanLiteral{Value: Value[bool]{content: b}}
}

func (n *BooleanLiteral) Accept(v Visitor) { Visit(v, n) }

func (n *BooleanLiteral) AsString() (string, error) {
	return strconv.FormatBool(n.content), nil
}

// NullLiteral is the Cypher NULL.
type NullLiteral struct{}

// Null returns a NullLiteral.
func Null() *NullLiteral { return &NullLiteral{} }

func (n *NullLiteral) Accept(v Visitor) { Visit(v, n) }

func (n *NullLiteral) AsString() (string, error) { return "NULL", nil }

// ListLiteral is an ordered sequence of literals. Elements may be of
// different kinds; each renders independently of its siblings.
type ListLiteral struct {
	Predications
	Value[[]Literal]
}

// List creates a ListLiteral. The element slice is copied.
func List(elems ...Literal) *ListLiteral {
	c := make([]Literal, len(elems))
	copy(c, elems)
	n := &ListLiteral{Value: Value[[]Literal]{content: c}}
	n.Predications.self = n
	return n
}

// Content returns a copy of the elements.
func (n *ListLiteral) Content() []Literal {
	out := make([]Literal, len(n.content))
	copy(out, n.content)
	return out
}

// Len returns the number of elements.
func (n *ListLiteral) Len() int { return len(n.content) }

// The list is a leaf: its elements render through AsString, not through
// separate visits.
func (n *ListLiteral) Accept(v Visitor) { Visit(v, n) }

func (n *ListLiteral) AsString() (string, error) {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range n.content {
		if i > 0 {
			sb.WriteByte(',')
		}
		s, err := e.AsString()
		if err != nil {
			return "", fmt.Errorf("list element %d: %w", i, err)
		}
		sb.WriteString(s)
	}
	sb.WriteByte(']')
	return sb.String(), nil
}

// LiteralOf converts a Go value into a literal node. Existing literals are
// returned as-is; nil becomes NULL and slices become lists.
func LiteralOf(val any) (Literal, error) {
	switch v := val.(type) {
	case nil:
		return Null(), nil
	case Literal:
		return v, nil
	case string:
		return String(v), nil
	case bool:
		return Boolean(v), nil
	case int:
		return Number(v), nil
	case int8:
		return Number(v), nil
	case int16:
		return Number(v), nil
	case int32:
		return Number(v), nil
	case int64:
		return Number(v), nil
	case uint:
		return Number(v), nil
	case uint8:
		return Number(v), nil
	case uint16:
		return Number(v), nil
	case uint32:
		return Number(v), nil
	case uint64:
		return Number(v), nil
	case float32:
		return Number(v), nil
	case float64:
		return Number(v), nil
	case []string:
		return listOf(v)
	case []int:
		return listOf(v)
	case []int64:
		return listOf(v)
	case []float64:
		return listOf(v)
	case []any:
		return listOf(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedLiteral, val)
	}
}

func listOf[T any](vals []T) (Literal, error) {
	elems := make([]Literal, len(vals))
	for i, e := range vals {
		lit, err := LiteralOf(e)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
		elems[i] = lit
	}
	return List(elems...), nil
}

// invalidLiteral holds a value LiteralOf rejected. Rendering it returns
// the conversion error.
type invalidLiteral struct {
	err error
}

func (n *invalidLiteral) AsString() (string, error) { return "", n.err }

func (n *invalidLiteral) Accept(v Visitor) { Visit(v, n) }

// MustLiteral is like LiteralOf but panics on unsupported types. It is meant
// for values known at compile time.
func MustLiteral(val any) Literal {
	lit, err := LiteralOf(val)
	if err != nil {
		panic(err)
	}
	return lit
}
