// Package eval contains position evaluation logic: the static Position Evaluator, the
// incremental per-piece evaluator, the board cache of derived facts, and move
// classification predicates used by the search layer (spec 4.1-4.4).
package eval

import (
	"fmt"

	"github.com/mwkent/chess-ai/pkg/board"
)

// Score is a signed centipawn evaluation, positive favors the evaluating side (spec 3,
// Piece-value tables; spec 4.2).
type Score int32

const (
	MaxEval  Score = 1_000_000
	MinEval  Score = -1_000_000
	DrawEval Score = 0

	// mateThreshold is the boundary of the mating band: any score closer to MinEval/MaxEval
	// than this many centipawns represents a forced mate rather than a material evaluation
	// (spec 4.2, mating band = [MIN_EVAL+10, ...)). Set comfortably above any plausible
	// material score and comfortably above any plausible search depth in plies.
	mateThreshold = 100_000
)

func (s Score) String() string {
	return fmt.Sprintf("%d", s)
}

// Unit returns the signed unit for color c: +1 for White, -1 for Black.
func Unit(c board.Color) Score {
	if c == board.White {
		return 1
	}
	return -1
}

// Crop clamps a score into [MinEval, MaxEval].
func Crop(s Score) Score {
	switch {
	case s > MaxEval:
		return MaxEval
	case s < MinEval:
		return MinEval
	default:
		return s
	}
}

func Max(a, b Score) Score {
	if a < b {
		return b
	}
	return a
}

func Min(a, b Score) Score {
	if a < b {
		return a
	}
	return b
}

// IsMating reports whether s falls in the mating band, i.e., represents a forced mate
// rather than a material score (spec 4.2).
func IsMating(s Score) bool {
	return s >= MaxEval-mateThreshold || s <= MinEval+mateThreshold
}

// MateIn returns the score, relative to the mate deliverer, for forcing mate in the given
// number of plies: strictly decreasing in magnitude as plies grows, so mate-in-1 is
// preferred to mate-in-2 (spec 4.5, 8: Mate preference). Like every other Score in this
// package, the result is side-relative, not an absolute White/Black value -- callers
// evaluating from the mated side's perspective negate it.
func MateIn(plies int) Score {
	return MaxEval - Score(plies)
}
