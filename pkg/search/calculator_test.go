package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorReturnsLegalMoveUnderTightDeadline(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	calc := search.NewCalculator(b, search.NoTranspositionTable{}, 4)

	result := calc.Calculate(ctx, 20*time.Millisecond)

	assert.False(t, result.Move.IsNull())
}

func TestCalculatorFindsMateInOne(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, "6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	calc := search.NewCalculator(b, search.NewTranspositionTable(), 3)

	result := calc.Calculate(ctx, 500*time.Millisecond)

	require.False(t, result.Move.IsNull())
	assert.True(t, eval.IsMating(result.Score))
	assert.Greater(t, result.Score, eval.Score(0))
}

func TestCalculatorRespectsMaxDepth(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	calc := search.NewCalculator(b, search.NewTranspositionTable(), 2)

	result := calc.Calculate(ctx, 2*time.Second)

	assert.False(t, result.Move.IsNull())
	assert.LessOrEqual(t, result.DepthReached, 2)
}
