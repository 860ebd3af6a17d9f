package search_test

import (
	"context"
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphaBetaReturnsLegalPVInMiddlegame(t *testing.T) {
	ctx := context.Background()

	// Exercises a depth-3 search on a tactical middlegame FEN: it must return a non-empty
	// principal variation that starts with a real move, and visit at least one node.
	b := newBoard(t, "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4")
	c := eval.NewBoardCache(b)
	tt := search.NewTranspositionTable()

	ab := search.NewAlphaBeta(b, c, tt)
	score, pv := ab.Search(ctx, 3, board.White, eval.MinEval, eval.MaxEval, search.Params{UseTT: true, SortMoves: true})

	require.NotEmpty(t, pv)
	assert.False(t, pv[0].IsNull())
	assert.Greater(t, ab.Nodes(), uint64(0))
	_ = score
}

func TestAlphaBetaFindsMateInOne(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, "6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	c := eval.NewBoardCache(b)
	tt := search.NewTranspositionTable()

	ab := search.NewAlphaBeta(b, c, tt)
	score, pv := ab.Search(ctx, 1, board.White, eval.MinEval, eval.MaxEval, search.Params{UseTT: true, SortMoves: true})

	require.NotEmpty(t, pv)
	assert.True(t, eval.IsMating(score), "a depth-1 search over a mate-in-1 position should find the mating score")
	assert.True(t, score > 0, "mate score must favor White, the side to move delivering it")
}

func TestAlphaBetaRespectsDepthOneFilter(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	c := eval.NewBoardCache(b)
	tt := search.NewTranspositionTable()

	ab := search.NewAlphaBeta(b, c, tt)
	onlyNull := func(m board.Move) bool { return m.IsNull() }

	_, pv := ab.Search(ctx, 1, board.White, eval.MinEval, eval.MaxEval, search.Params{Filter: onlyNull, UseTT: true})

	assert.Empty(t, pv, "filtering out every non-null move leaves nothing to report as best")
}
