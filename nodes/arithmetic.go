package nodes

// ArithmeticOp identifies a binary arithmetic operator.
type ArithmeticOp int

const (
	OpPlus ArithmeticOp = iota
	OpMinus
	OpMultiply
	OpDivide
	OpModulo
	OpPower
)

var arithmeticOpNames = [...]string{
	OpPlus:     "+",
	OpMinus:    "-",
	OpMultiply: "*",
	OpDivide:   "/",
	OpModulo:   "%",
	OpPower:    "^",
}

// String returns the Cypher operator.
func (op ArithmeticOp) String() string {
	if int(op) < len(arithmeticOpNames) {
		return arithmeticOpNames[op]
	}
	return "?"
}

// Precedence ranks the operator: ^ binds tighter than * / %, which bind
// tighter than + and -.
func (op ArithmeticOp) Precedence() int {
	switch op {
	case OpPower:
		return 3
	case OpMultiply, OpDivide, OpModulo:
		return 2
	}
	return 1
}

// ArithmeticNode represents a binary arithmetic expression: left op right.
// Renderers parenthesise nested operands where precedence requires it.
type ArithmeticNode struct {
	Predications
	Combinable
	Arithmetics
	left  Node
	right Node
	op    ArithmeticOp
}

// NewArithmetic creates an ArithmeticNode.
func NewArithmetic(left, right Node, op ArithmeticOp) *ArithmeticNode {
	n := &ArithmeticNode{left: left, right: right, op: op}
	n.Predications.self = n
	n.Combinable.self = n
	n.Arithmetics.self = n
	return n
}

func (n *ArithmeticNode) Left() Node       { return n.left }
func (n *ArithmeticNode) Right() Node      { return n.right }
func (n *ArithmeticNode) Op() ArithmeticOp { return n.op }

func (n *ArithmeticNode) Accept(v Visitor) { Visit(v, n, n.left, n.right) }

// Arithmetics provides arithmetic methods to types that embed it.
// The self field must be set to the embedding node.
type Arithmetics struct {
	self Node
}

func (a Arithmetics) arithmetic(op ArithmeticOp, val any) *ArithmeticNode {
	return NewArithmetic(a.self, operand(val), op)
}

// Plus creates self + val.
func (a Arithmetics) Plus(val any) *ArithmeticNode { return a.arithmetic(OpPlus, val) }

// Minus creates self - val.
func (a Arithmetics) Minus(val any) *ArithmeticNode { return a.arithmetic(OpMinus, val) }

// Multiply creates self * val.
func (a Arithmetics) Multiply(val any) *ArithmeticNode { return a.arithmetic(OpMultiply, val) }

// Divide creates self / val.
func (a Arithmetics) Divide(val any) *ArithmeticNode { return a.arithmetic(OpDivide, val) }

// Mod creates self % val.
func (a Arithmetics) Mod(val any) *ArithmeticNode { return a.arithmetic(OpModulo, val) }

// Pow creates self ^ val.
func (a Arithmetics) Pow(val any) *ArithmeticNode { return a.arithmetic(OpPower, val) }
