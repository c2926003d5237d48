package model

// Operator is the arithmetic operator of an equation
type Operator string

const (
	OperatorMultiply Operator = "x"
	OperatorAdd      Operator = "+"
	OperatorSubtract Operator = "-"
)

// Operators lists every valid operator
var Operators = []Operator{OperatorMultiply, OperatorAdd, OperatorSubtract}

// Valid reports whether the operator is one of the known three
func (o Operator) Valid() bool {
	switch o {
	case OperatorMultiply, OperatorAdd, OperatorSubtract:
		return true
	}
	return false
}

// UnknownOperand is the placeholder sent in place of the missing operand
const UnknownOperand = "?"

// Equation is a single arithmetic challenge. The right operand is hidden
// from players; they submit a candidate for it. Equations are immutable
// once generated and replaced wholesale on each turn advance.
type Equation struct {
	Left     int      `json:"left"`
	Operator Operator `json:"operator"`
	Right    string   `json:"right"`
	Result   int      `json:"result"`
}

// Equation result bounds. Generation rejects draws outside this range.
const (
	MinResult = 1
	MaxResult = 81
)
