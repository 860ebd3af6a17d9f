package search

import (
	"context"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/seekerror/stdlib/pkg/util/contextx"
)

// ProbeGettingMated reports whether side is forcibly checkmated within maxChecks plies on
// b's current position, searching only the opponent's checking moves and side's replies
// (spec 4.5, Forced-Mate Prober). It is a narrow, cheap probe: unlike the full Alpha-Beta
// Searcher it does not consider quiet moves for the attacker, since a forced mate is by
// definition delivered by a sequence of checks.
//
// Returns the mating score, relative to side (very negative, since side is the one being
// mated), and true if a forced mate was found; otherwise false. Iterative deepening from 1
// ply up to maxChecks lets the shortest mate win ties against a longer one found at a
// deeper probe (spec 8: mate preference).
func ProbeGettingMated(ctx context.Context, b *board.Board, c *eval.BoardCache, side board.Color, maxChecks int) (eval.Score, bool) {
	for depth := 1; depth <= maxChecks; depth++ {
		if isCancelled(ctx) {
			return 0, false
		}
		if score, mated := probeMateAt(ctx, b, c, side, depth, 0); mated {
			return score, true
		}
	}
	return 0, false
}

// probeMateAt searches depth plies of checks-only (attacker) / any-reply (defender) play,
// returning the mate score if every defender reply at every remaining depth still loses.
// ply counts moves already made from the root, used to prefer shorter mates (spec 4.5).
func probeMateAt(ctx context.Context, b *board.Board, c *eval.BoardCache, side board.Color, depth, ply int) (eval.Score, bool) {
	cl := eval.NewClassifier(c)
	turn := b.Turn()

	if turn == side {
		// side to be mated: if it has no legal moves, this is the terminus of the line.
		moves := b.Position().LegalMoves(turn)
		if len(moves) == 0 {
			if b.Position().IsChecked(turn) {
				return -eval.MateIn(ply), true
			}
			return 0, false // stalemate escapes the mating net.
		}
		if depth == 0 {
			return 0, false
		}
		// Every one of side's replies must still lead to mate for the probe to succeed;
		// side (as the defender) then picks whichever reply delays mate the longest, i.e.
		// the child score nearest zero (least bad, relative to side).
		best := eval.MinEval
		haveBest := false
		for _, m := range moves {
			if isCancelled(ctx) {
				return 0, false
			}
			c.PushMove(m) // pushes onto b, which the cache wraps
			score, mated := probeMateAt(ctx, b, c, side, depth-1, ply+1)
			c.PopMove()
			if !mated {
				return 0, false
			}
			if !haveBest || score > best {
				best, haveBest = score, true
			}
		}
		return best, true
	}

	// opponent to move: only checking moves are considered (spec 4.5, "checking moves
	// only" for the attacker's side of the probe).
	if depth == 0 {
		return 0, false
	}
	moves := b.Position().LegalMoves(turn)
	found := false
	for _, m := range moves {
		if !cl.IsCheck(turn, m) {
			continue
		}
		if isCancelled(ctx) {
			return 0, false
		}
		c.PushMove(m) // pushes onto b, which the cache wraps
		score, mated := probeMateAt(ctx, b, c, side, depth-1, ply+1)
		c.PopMove()
		if mated {
			found = true
			return score, true
		}
	}
	return 0, found
}

// isCancelled is shared across the search package; delegates to the ambient cancellation
// idiom (spec 5, Concurrency & Resource Model).
func isCancelled(ctx context.Context) bool {
	return contextx.IsCancelled(ctx)
}
