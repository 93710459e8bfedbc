package nodes

import (
	"fmt"
	"unicode"
)

// FunctionInvocation is a call of a named Cypher function, optionally
// namespaced (apoc.coll.sum).
type FunctionInvocation struct {
	Predications
	Combinable
	Arithmetics
	name     string
	args     []Node
	distinct bool
}

// NewFunction creates a FunctionInvocation. It panics if name is not a
// dotted sequence of identifiers.
func NewFunction(name string, args ...Node) *FunctionInvocation {
	validateFunctionName(name)
	n := &FunctionInvocation{name: name, args: cloneNodes(args)}
	n.Predications.self = n
	n.Combinable.self = n
	n.Arithmetics.self = n
	return n
}

// validateFunctionName panics if the name contains characters outside
// letters, digits, underscores and dots. Function names are rendered
// verbatim.
func validateFunctionName(name string) {
	mustName(name, "function")
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case r == '.' && i > 0 && i < len(name)-1:
		case unicode.IsDigit(r) && i > 0:
		default:
			panic(fmt.Sprintf("cypherbee: invalid function name %q", name))
		}
	}
}

func (n *FunctionInvocation) Name() string   { return n.name }
func (n *FunctionInvocation) Args() []Node   { return cloneNodes(n.args) }
func (n *FunctionInvocation) Distinct() bool { return n.distinct }

func (n *FunctionInvocation) Accept(v Visitor) { Visit(v, n, n.args...) }

func distinctCall(name string, expr Node) *FunctionInvocation {
	n := NewFunction(name, expr)
	n.distinct = true
	return n
}

// Count creates count(expr). Pass nil for count(*).
func Count(expr Node) *FunctionInvocation {
	if expr == nil {
		expr = Star()
	}
	return NewFunction("count", expr)
}

// CountDistinct creates count(DISTINCT expr). expr is required; a nil
// expr fails at render time with ErrMissingOperand.
func CountDistinct(expr Node) *FunctionInvocation { return distinctCall("count", expr) }

// Collect creates collect(expr).
func Collect(expr Node) *FunctionInvocation { return NewFunction("collect", expr) }

// CollectDistinct creates collect(DISTINCT expr). A nil expr fails at render
// with ErrMissingOperand.
func CollectDistinct(expr Node) *FunctionInvocation { return distinctCall("collect", expr) }

// Sum creates sum(expr).
func Sum(expr Node) *FunctionInvocation { return NewFunction("sum", expr) }

// Avg creates avg(expr).
func Avg(expr Node) *FunctionInvocation { return NewFunction("avg", expr) }

// Min creates min(expr).
func Min(expr Node) *FunctionInvocation { return NewFunction("min", expr) }

// Max creates max(expr).
func Max(expr Node) *FunctionInvocation { return NewFunction("max", expr) }

// ID creates id(expr).
func ID(expr Node) *FunctionInvocation { return NewFunction("id", expr) }

// ElementID creates elementId(expr).
func ElementID(expr Node) *FunctionInvocation { return NewFunction("elementId", expr) }

// Labels creates labels(expr).
func Labels(expr Node) *FunctionInvocation { return NewFunction("labels", expr) }

// Type creates type(expr) for a relationship.
func Type(expr Node) *FunctionInvocation { return NewFunction("type", expr) }

// Size creates size(expr).
func Size(expr Node) *FunctionInvocation { return NewFunction("size", expr) }

// ToLower creates toLower(expr).
func ToLower(expr Node) *FunctionInvocation { return NewFunction("toLower", expr) }

// ToUpper creates toUpper(expr).
func ToUpper(expr Node) *FunctionInvocation { return NewFunction("toUpper", expr) }

// Coalesce creates coalesce(args...).
func Coalesce(args ...Node) *FunctionInvocation { return NewFunction("coalesce", args...) }
