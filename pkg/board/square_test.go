package board_test

import (
	"testing"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquareNumberingMatchesA1Origin(t *testing.T) {
	assert.Equal(t, board.Square(0), board.A1)
	assert.Equal(t, board.Square(7), board.H1)
	assert.Equal(t, board.Square(56), board.A8)
	assert.Equal(t, board.Square(63), board.H8)
}

func TestSquareRankAndFile(t *testing.T) {
	assert.Equal(t, board.Rank1, board.A1.Rank())
	assert.Equal(t, board.File(0), board.A1.File())
	assert.Equal(t, board.Rank8, board.H8.Rank())
	assert.Equal(t, board.File(7), board.H8.File())
}

func TestParseSquareStrRoundTrips(t *testing.T) {
	for _, s := range []board.Square{board.A1, board.E4, board.H8, board.D5} {
		str := s.String()
		parsed, err := board.ParseSquareStr(str)
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestParseSquareStrRejectsInvalid(t *testing.T) {
	_, err := board.ParseSquareStr("z9")
	assert.Error(t, err)
}

func TestColorOpponent(t *testing.T) {
	assert.Equal(t, board.Black, board.White.Opponent())
	assert.Equal(t, board.White, board.Black.Opponent())
}
