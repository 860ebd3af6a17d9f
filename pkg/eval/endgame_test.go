package eval_test

import (
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/board/fen"
	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePosition(t *testing.T, f string) *board.Position {
	t.Helper()
	pos, _, _, _, err := fen.Decode(f)
	require.NoError(t, err)
	return pos
}

func TestIsEndgameByMaterial(t *testing.T) {
	assert.True(t, eval.IsEndgame(decodePosition(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")), "king and pawn ending has no non-pawn material")
	assert.False(t, eval.IsEndgame(decodePosition(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")), "the starting position is not an endgame")
}

func TestEvaluateEndgamePrefersCentralizedKing(t *testing.T) {
	b, err := boardOf(t, "4k3/8/8/8/3K4/8/8/8 w - - 0 1")
	require.NoError(t, err)
	centralCache := eval.NewBoardCache(b)

	b2, err := boardOf(t, "4k3/8/8/8/8/8/8/K7 w - - 0 1")
	require.NoError(t, err)
	cornerCache := eval.NewBoardCache(b2)

	central := eval.EvaluateEndgame(centralCache, board.White)
	corner := eval.EvaluateEndgame(cornerCache, board.White)

	assert.Greater(t, central, corner, "a centralized king should score higher than a cornered one")
}

func boardOf(t *testing.T, f string) (*board.Board, error) {
	t.Helper()
	pos, turn, noprogress, fullmoves, err := fen.Decode(f)
	if err != nil {
		return nil, err
	}
	zt := board.NewZobristTable(0)
	return board.NewBoard(zt, pos, turn, noprogress, fullmoves), nil
}
