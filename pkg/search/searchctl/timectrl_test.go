package searchctl_test

import (
	"testing"
	"time"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/search/searchctl"
	"github.com/stretchr/testify/assert"
)

func TestMaxThinkTimeSplitsRemainingClock(t *testing.T) {
	// 20s left, early game (fullMoves=1): remaining-moves estimate caps at 20, so the
	// budget is 20000/20 = 1000ms = 1s, plus no increment.
	seconds := searchctl.MaxThinkTime(board.White, 1, 20_000, 0, 20_000, 0)
	assert.InDelta(t, 1.0, seconds, 1e-9)
}

func TestMaxThinkTimeUsesBlackClock(t *testing.T) {
	seconds := searchctl.MaxThinkTime(board.Black, 1, 99_000, 0, 20_000, 0)
	assert.InDelta(t, 1.0, seconds, 1e-9)
}

func TestMaxThinkTimeAddsIncrement(t *testing.T) {
	seconds := searchctl.MaxThinkTime(board.White, 1, 20_000, 500, 20_000, 0)
	assert.InDelta(t, 1.5, seconds, 1e-9)
}

func TestMaxThinkTimeNeverZeroOrNegative(t *testing.T) {
	seconds := searchctl.MaxThinkTime(board.White, 500, 0, 0, 0, 0)
	assert.Greater(t, seconds, 0.0)
}

func TestDeadlineMatchesThinkTime(t *testing.T) {
	d := searchctl.Deadline(board.White, 1, 20_000, 0, 20_000, 0)
	assert.Equal(t, time.Second, d)
}
