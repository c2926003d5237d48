package equation

import "github.com/mathrush/mathrush-go/internal/model"

// Validate reports whether the selected number is the equation's missing
// operand, i.e. whether left OP selected equals the stored result. An
// unknown operator never validates.
func Validate(selected int, eq model.Equation) bool {
	switch eq.Operator {
	case model.OperatorMultiply:
		return eq.Left*selected == eq.Result
	case model.OperatorAdd:
		return eq.Left+selected == eq.Result
	case model.OperatorSubtract:
		return eq.Left-selected == eq.Result
	default:
		return false
	}
}
