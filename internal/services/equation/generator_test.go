package equation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathrush/mathrush-go/internal/dependencies/mocks"
	"github.com/mathrush/mathrush-go/internal/dependencies/random"
	"github.com/mathrush/mathrush-go/internal/model"
)

func TestGenerateMultiplication(t *testing.T) {
	rnd := mocks.NewMockRandom()
	// operator index 0 (multiply), left 3, right 7
	rnd.QueueIntn(0, 2, 6)

	eq := NewGenerator(rnd).Generate()

	assert.Equal(t, model.OperatorMultiply, eq.Operator)
	assert.Equal(t, 3, eq.Left)
	assert.Equal(t, model.UnknownOperand, eq.Right)
	assert.Equal(t, 21, eq.Result)
}

func TestGenerateSubtractionSwapsOperands(t *testing.T) {
	rnd := mocks.NewMockRandom()
	// operator index 2 (subtract), left 2, right 8: operands swap to 8-2
	rnd.QueueIntn(2, 1, 7)

	eq := NewGenerator(rnd).Generate()

	assert.Equal(t, model.OperatorSubtract, eq.Operator)
	assert.Equal(t, 8, eq.Left)
	assert.Equal(t, 6, eq.Result)
}

func TestGenerateRejectsZeroResult(t *testing.T) {
	rnd := mocks.NewMockRandom()
	// First draw is 5-5=0, rejected; second draw is 4+4=8
	rnd.QueueIntn(2, 4, 4, 1, 3, 3)

	eq := NewGenerator(rnd).Generate()

	assert.Equal(t, model.OperatorAdd, eq.Operator)
	assert.Equal(t, 8, eq.Result)
}

func TestGenerateBoundsHold(t *testing.T) {
	gen := NewGenerator(random.New())

	for i := 0; i < 1000; i++ {
		eq := gen.Generate()

		require.True(t, eq.Operator.Valid(), "operator %q", eq.Operator)
		require.GreaterOrEqual(t, eq.Result, model.MinResult)
		require.LessOrEqual(t, eq.Result, model.MaxResult)
		require.GreaterOrEqual(t, eq.Left, 1)
		require.LessOrEqual(t, eq.Left, 9)
		require.Equal(t, model.UnknownOperand, eq.Right)
	}
}
