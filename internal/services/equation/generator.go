package equation

import (
	"github.com/mathrush/mathrush-go/internal/dependencies/random"
	"github.com/mathrush/mathrush-go/internal/model"
)

const maxOperand = 9

// Generator produces random solvable equations
type Generator struct {
	random random.Random
}

// NewGenerator creates a Generator using the given randomness source
func NewGenerator(rnd random.Random) *Generator {
	return &Generator{random: rnd}
}

// Generate draws an operator and two operands uniformly, swapping the
// operands for subtraction so the result is non-negative, and redraws
// until the result lands in [MinResult, MaxResult]. Only an equal-operand
// subtraction (result 0) is ever rejected, so termination is immediate in
// practice.
func (g *Generator) Generate() model.Equation {
	for {
		op := model.Operators[g.random.Intn(len(model.Operators))]
		left := g.random.Intn(maxOperand) + 1
		right := g.random.Intn(maxOperand) + 1

		if op == model.OperatorSubtract && left < right {
			left, right = right, left
		}

		var result int
		switch op {
		case model.OperatorMultiply:
			result = left * right
		case model.OperatorAdd:
			result = left + right
		case model.OperatorSubtract:
			result = left - right
		}

		if result >= model.MinResult && result <= model.MaxResult {
			return model.Equation{
				Left:     left,
				Operator: op,
				Right:    model.UnknownOperand,
				Result:   result,
			}
		}
	}
}
