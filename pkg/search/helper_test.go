package search_test

import (
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/board/fen"
	"github.com/stretchr/testify/require"
)

// newBoard builds a fresh Board (with its own Zobrist table) from a FEN string, the shape
// every test in this package starts from.
func newBoard(t *testing.T, f string) *board.Board {
	t.Helper()
	pos, turn, noprogress, fullmoves, err := fen.Decode(f)
	require.NoError(t, err)
	zt := board.NewZobristTable(0)
	return board.NewBoard(zt, pos, turn, noprogress, fullmoves)
}
