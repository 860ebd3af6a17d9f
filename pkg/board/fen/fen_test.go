package fen_test

import (
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInitialPosition(t *testing.T) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	assert.Equal(t, board.White, turn)
	assert.Equal(t, 0, noprogress)
	assert.Equal(t, 1, fullmoves)

	wk, pt, ok := pos.PieceAt(board.E1)
	require.True(t, ok)
	assert.Equal(t, board.White, wk)
	assert.Equal(t, board.King, pt)

	bk, pt, ok := pos.PieceAt(board.E8)
	require.True(t, ok)
	assert.Equal(t, board.Black, bk)
	assert.Equal(t, board.King, pt)

	assert.True(t, pos.IsEmpty(board.E4))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	encoded := fen.Encode(pos, turn, noprogress, fullmoves)
	assert.Equal(t, fen.Initial, encoded)
}

func TestDecodeRejectsMalformedFEN(t *testing.T) {
	_, _, _, _, err := fen.Decode("not a fen string")
	assert.Error(t, err)
}

func TestDecodeArbitraryPosition(t *testing.T) {
	const f = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	pos, turn, _, _, err := fen.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, board.White, turn)

	c, pt, ok := pos.PieceAt(board.D5)
	require.True(t, ok)
	assert.Equal(t, board.White, c)
	assert.Equal(t, board.Pawn, pt)
}
