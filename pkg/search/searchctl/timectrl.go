// Package searchctl contains the think-time heuristic and search-launching harness that sit
// above the Move Calculator (spec 6.3, 9: Design Notes).
package searchctl

import (
	"time"

	"github.com/mwkent/chess-ai/pkg/board"
)

// maxRemainingMoves caps the "remaining moves in the game" estimate (80 minus the full-move
// number) used to divide the side-to-move's clock (spec 6.3). From full move 79 on, the
// estimate is 1, so the whole remaining clock plus increment is budgeted for one move.
const maxRemainingMoves = 20

// MaxThinkTime returns the time budget, in seconds, for a move given the side to move's
// clock and increment and the game's current full-move number (spec 6.3). The result is
// always strictly positive.
func MaxThinkTime(turn board.Color, fullMoves int, wtimeMS, wincMS, btimeMS, bincMS int) float64 {
	timeMS, incMS := wtimeMS, wincMS
	if turn == board.Black {
		timeMS, incMS = btimeMS, bincMS
	}

	remaining := 80 - fullMoves
	if remaining < 0 {
		remaining = 0
	}
	if remaining > maxRemainingMoves {
		remaining = maxRemainingMoves
	}
	if remaining == 0 {
		remaining = 1 // avoid dividing by zero; treat as one move left.
	}

	budgetMS := float64(timeMS)/float64(remaining) + float64(incMS)
	seconds := budgetMS / 1000.0
	if seconds < 0.001 {
		seconds = 0.001
	}
	return seconds
}

// Deadline converts MaxThinkTime's seconds into a time.Duration for use as a search
// deadline.
func Deadline(turn board.Color, fullMoves int, wtimeMS, wincMS, btimeMS, bincMS int) time.Duration {
	seconds := MaxThinkTime(turn, fullMoves, wtimeMS, wincMS, btimeMS, bincMS)
	return time.Duration(seconds * float64(time.Second))
}
