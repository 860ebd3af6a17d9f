package search_test

import (
	"context"
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/stretchr/testify/assert"
)

func TestTacticalExtensionFindsWinningCapture(t *testing.T) {
	ctx := context.Background()

	// White to move and can win the undefended black queen on e5 with the rook on e1.
	b := newBoard(t, "4k3/8/8/4q3/8/8/8/4R1K1 w - - 0 1")
	c := eval.NewBoardCache(b)

	te := search.NewTacticalExtension(b, c, board.White, 0)
	score, _ := te.Search(ctx, board.White)

	assert.Greater(t, score, eval.Score(0), "capturing the hanging queen should improve White's score")
}

func TestTacticalExtensionQuietPositionReturnsBaseline(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	c := eval.NewBoardCache(b)

	te := search.NewTacticalExtension(b, c, board.White, 0)
	score, pv := te.Search(ctx, board.White)

	assert.Equal(t, eval.Score(0), score)
	assert.Empty(t, pv, "no tactical move should be selected from a symmetric quiet position")
}
