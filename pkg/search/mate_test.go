package search_test

import (
	"context"
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/stretchr/testify/assert"
)

func TestProbeGettingMatedFindsBackRankMate(t *testing.T) {
	ctx := context.Background()

	// White to move, mate in one: Ra8# (rook out of the king's reach along the back rank,
	// pawns on f7/g7/h7 seal every escape square).
	b := newBoard(t, "6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	c := eval.NewBoardCache(b)

	score, mated := search.ProbeGettingMated(ctx, b, c, board.Black, 3)

	assert.True(t, mated)
	assert.Equal(t, -eval.MateIn(1), score, "mate-in-1 relative to the mated side (Black)")
}

func TestProbeGettingMatedFromInitialPositionFindsNothing(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	c := eval.NewBoardCache(b)

	_, mated := search.ProbeGettingMated(ctx, b, c, board.Black, 3)
	assert.False(t, mated, "no forced mate exists from the initial position")
}
