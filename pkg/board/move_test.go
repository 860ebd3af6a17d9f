package board_test

import (
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoveCoordinateNotation(t *testing.T) {
	m, err := board.ParseMove("e2e4")
	require.NoError(t, err)
	assert.Equal(t, board.E2, m.From)
	assert.Equal(t, board.E4, m.To)
	assert.False(t, m.Promotion.IsValid())
}

func TestParseMovePromotion(t *testing.T) {
	m, err := board.ParseMove("a7a8q")
	require.NoError(t, err)
	assert.Equal(t, board.Queen, m.Promotion)
	assert.Equal(t, "a7a8q", m.String())
}

func TestParseMoveRejectsInvalid(t *testing.T) {
	_, err := board.ParseMove("e2")
	assert.Error(t, err)
	_, err = board.ParseMove("e2e4k") // king promotion is not legal
	assert.Error(t, err)
}

func TestNullMove(t *testing.T) {
	assert.True(t, board.Null().IsNull())
	assert.False(t, board.Move{From: board.E2, To: board.E4}.IsNull())
}

func TestMoveEqualsIgnoresDerivedMetadata(t *testing.T) {
	a := board.Move{Type: board.Normal, From: board.E2, To: board.E4, Piece: board.Pawn}
	b := board.Move{Type: board.Jump, From: board.E2, To: board.E4, Piece: board.Pawn}
	assert.True(t, a.Equals(b))

	c := board.Move{From: board.E2, To: board.E3}
	assert.False(t, a.Equals(c))
}
