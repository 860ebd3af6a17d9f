package eval_test

import (
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/stretchr/testify/assert"
)

func TestMateInIsMonotonicallyDecreasing(t *testing.T) {
	assert.Greater(t, eval.MateIn(1), eval.MateIn(2))
	assert.Greater(t, eval.MateIn(2), eval.MateIn(3))
	assert.True(t, eval.IsMating(eval.MateIn(1)))
}

func TestIsMatingBoundary(t *testing.T) {
	assert.False(t, eval.IsMating(0))
	assert.False(t, eval.IsMating(1000))
	assert.True(t, eval.IsMating(eval.MaxEval))
	assert.True(t, eval.IsMating(eval.MinEval))
}

func TestUnit(t *testing.T) {
	assert.Equal(t, eval.Score(1), eval.Unit(board.White))
	assert.Equal(t, eval.Score(-1), eval.Unit(board.Black))
}

func TestCrop(t *testing.T) {
	assert.Equal(t, eval.MaxEval, eval.Crop(eval.MaxEval+1000))
	assert.Equal(t, eval.MinEval, eval.Crop(eval.MinEval-1000))
	assert.Equal(t, eval.Score(42), eval.Crop(42))
}
