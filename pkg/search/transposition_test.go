package search_test

import (
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranspositionTableReadWrite(t *testing.T) {
	tt := search.NewTranspositionTable()

	var h board.ZobristHash = 0xC0FFEE

	_, ok := tt.Read(h, board.White)
	assert.False(t, ok, "empty table should miss")

	m := board.Move{From: board.E2, To: board.E4, Piece: board.Pawn}
	tt.Write(h, search.Result{Score: 120, Bound: search.ExactBound, Depth: 4, Side: board.White, Best: m})

	res, ok := tt.Read(h, board.White)
	require.True(t, ok)
	assert.Equal(t, eval.Score(120), res.Score)
	assert.Equal(t, search.ExactBound, res.Bound)
	assert.True(t, m.Equals(res.Best))
}

func TestTranspositionTableNegatesForOppositeSide(t *testing.T) {
	tt := search.NewTranspositionTable()
	var h board.ZobristHash = 42

	tt.Write(h, search.Result{Score: 50, Bound: search.LowerBound, Depth: 3, Side: board.White})

	res, ok := tt.Read(h, board.Black)
	require.True(t, ok)
	assert.Equal(t, eval.Score(-50), res.Score)
	assert.Equal(t, search.UpperBound, res.Bound, "bound flips when viewed from the opposite side")

	same, ok := tt.Read(h, board.White)
	require.True(t, ok)
	assert.Equal(t, eval.Score(50), same.Score)
	assert.Equal(t, search.LowerBound, same.Bound)
}

func TestTranspositionTableKeepsDeeperEntry(t *testing.T) {
	tt := search.NewTranspositionTable()
	var h board.ZobristHash = 7

	tt.Write(h, search.Result{Score: 10, Bound: search.ExactBound, Depth: 6, Side: board.White})
	tt.Write(h, search.Result{Score: 999, Bound: search.ExactBound, Depth: 2, Side: board.White})

	res, ok := tt.Read(h, board.White)
	require.True(t, ok)
	assert.Equal(t, eval.Score(10), res.Score, "shallower write must not overwrite a deeper entry")
}

func TestNoTranspositionTableAlwaysMisses(t *testing.T) {
	var tt search.NoTranspositionTable
	tt.Write(1, search.Result{Score: 5})
	_, ok := tt.Read(1, board.White)
	assert.False(t, ok)
}
