package search

import (
	"context"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
)

// Budget bounds how far the Tactical Extension recurses past a main-search leaf, carried
// down the recursion and decremented per category (spec 4.6).
type Budget struct {
	Checks         int
	Promos         int
	Captures       int
	AttacksDefends int
	MaxPlies       int
}

// DefaultBudget is the entry-point budget for a fresh extension call (spec 4.6, "Default
// entry parameters").
func DefaultBudget() Budget {
	return Budget{Checks: 0, Promos: 1, Captures: 8, AttacksDefends: 0, MaxPlies: 8}
}

const (
	defaultMaxLoss         = 200
	defaultForcedMateDepth = 2
)

func (b Budget) exhausted() bool {
	return b.Checks == 0 && b.Promos == 0 && b.Captures == 0 && b.AttacksDefends == 0
}

// TacticalExtension expands a filtered subset of tactical moves at a main-search leaf
// instead of returning a bare static evaluation (spec 4.6). One instance is scoped to a
// single search tree: its IncrementalEvaluator must be pushed/popped in lockstep with b/c.
type TacticalExtension struct {
	b  *board.Board
	c  *eval.BoardCache
	cl *eval.Classifier
	ie *eval.IncrementalEvaluator

	maxLoss         int
	forcedMateDepth int
	startEval       eval.Score // the incremental score where this extension was entered, for the max-loss check

	memo map[board.ZobristHash]extMemoEntry
}

type extMemoEntry struct {
	score eval.Score
	pv    []board.Move
}

// NewTacticalExtension constructs an extension scoped to b/c, with the default budgets and
// a one-time max-loss baseline taken from the current incremental score (spec 4.6).
// forcedMateDepth of 0 uses the spec's default entry parameter.
func NewTacticalExtension(b *board.Board, c *eval.BoardCache, side board.Color, forcedMateDepth int) *TacticalExtension {
	if forcedMateDepth <= 0 {
		forcedMateDepth = defaultForcedMateDepth
	}
	ie := eval.NewIncrementalEvaluator(c, side)
	return &TacticalExtension{
		b:               b,
		c:               c,
		cl:              eval.NewClassifier(c),
		ie:              ie,
		maxLoss:         defaultMaxLoss,
		forcedMateDepth: forcedMateDepth,
		startEval:       ie.Score(),
		memo:            map[board.ZobristHash]extMemoEntry{},
	}
}

// Search runs the extension for evaluatingSide from the current leaf, per spec 4.6 steps
// 1-6, and returns the resulting score and principal variation of tactical moves explored.
func (te *TacticalExtension) Search(ctx context.Context, evaluatingSide board.Color) (eval.Score, []board.Move) {
	return te.search(ctx, evaluatingSide, DefaultBudget(), 0)
}

func (te *TacticalExtension) search(ctx context.Context, side board.Color, budget Budget, ply int) (eval.Score, []board.Move) {
	if key, ok := te.memoKey(); ok {
		if hit, found := te.memo[key]; found {
			return hit.score, hit.pv
		}
	}

	// Step 1: forced-mate probe.
	if score, mated := ProbeGettingMated(ctx, te.b, te.c, side, te.forcedMateDepth); mated {
		return te.remember(score, nil)
	}
	if score, mated := ProbeGettingMated(ctx, te.b, te.c, side.Opponent(), te.forcedMateDepth); mated {
		return te.remember(-score, nil)
	}

	// Step 2: endgame bypass -- use the general evaluator, not the incremental one.
	if eval.IsEndgame(te.b.Position()) {
		pe := eval.NewPositionEvaluator(te.c)
		return te.remember(pe.Evaluate(side), nil)
	}

	// Step 3: incremental baseline.
	baseline := te.ie.Score()

	turn := te.b.Turn()
	pos := te.b.Position()
	legal := pos.LegalMoves(turn)
	if len(legal) == 0 || pos.HasInsufficientMaterial() || te.b.CanClaimDraw() {
		return te.remember(baseline, nil)
	}

	// Step 5: max-loss early exit collapses the remaining budget before move selection.
	budget = te.applyMaxLossExit(side, baseline, budget)

	if budget.exhausted() && !pos.IsChecked(turn) {
		return te.remember(baseline, nil)
	}
	if budget.MaxPlies <= 0 {
		return te.remember(baseline, nil)
	}

	best := baseline
	var bestPV []board.Move
	haveBest := false

	maximizing := turn == side
	updateBest := func(score eval.Score, pv []board.Move) {
		if !haveBest {
			best, bestPV, haveBest = score, pv, true
			return
		}
		if (maximizing && score > best) || (!maximizing && score < best) {
			best, bestPV = score, pv
		}
	}

	inCheck := pos.IsChecked(turn)
	for _, m := range legal {
		if isCancelled(ctx) {
			break
		}
		if !inCheck {
			next, ok := te.classify(turn, m, &budget)
			if !ok {
				continue
			}
			budget = next
		}

		before := pos
		te.c.PushMove(m) // pushes onto te.b, which the cache wraps
		te.ie.EvaluateAfterMove(before, m)

		score, pv := te.search(ctx, side, budget, ply+1)

		te.ie.UndoMove()
		te.c.PopMove()

		updateBest(score, append([]board.Move{m}, pv...))

		if eval.IsMating(best) {
			break // short-circuit on a mating line (spec 4.6 step 4, final bullet).
		}
	}

	return te.remember(best, bestPV)
}

// classify decides whether move m qualifies for extension under the current budget and, if
// so, returns the decremented budget to use for the recursive call (spec 4.6 step 4).
func (te *TacticalExtension) classify(turn board.Color, m board.Move, budget *Budget) (Budget, bool) {
	b := *budget
	b.MaxPlies--

	switch {
	case te.cl.IsCheck(turn, m) && b.Checks > 0:
		// A check with no check budget left falls through to the cases below, so a
		// capturing check can still qualify as a good capture.
		b.Checks--
		if !m.IsCapture() {
			if b.Captures > 0 {
				b.Captures--
			}
		}
		return b, true
	case m.IsCapture() && te.cl.IsGoodCapture(turn, m):
		if b.Captures == 0 {
			return b, false
		}
		b.Captures--
		if b.Checks > 0 {
			b.Checks--
		}
		return b, true
	case te.cl.IsPawnPromotion(m):
		if b.Promos == 0 {
			return b, false
		}
		b.Promos--
		return b, true
	case te.cl.MakeOrRelieveThreat(turn, m):
		if b.AttacksDefends == 0 {
			return b, false
		}
		b.AttacksDefends--
		return b, true
	default:
		return b, false
	}
}

// applyMaxLossExit collapses the remaining budget if the side to move has already lost
// maxLoss centipawns relative to the extension's starting evaluation (spec 4.6 step 5).
// Scores are relative to side, so the loss is negated when the opponent is to move.
func (te *TacticalExtension) applyMaxLossExit(side board.Color, current eval.Score, budget Budget) Budget {
	loss := te.startEval - current
	if te.b.Turn() != side {
		loss = -loss
	}
	if int(loss) < te.maxLoss {
		return budget
	}
	budget.Checks = 0
	budget.Promos = 0
	budget.AttacksDefends = 0
	if budget.Captures > 1 {
		budget.Captures = 1
	}
	budget.MaxPlies = 1
	return budget
}

// memoKey returns the current position's Zobrist hash as a memo key, so transpositions
// within one extension invocation are coalesced (spec 4.6 step 6, "FEN memoization";
// the Zobrist hash serves the same role here without the string-formatting cost). The
// table is bounded: once it grows large, new positions simply aren't cached.
func (te *TacticalExtension) memoKey() (board.ZobristHash, bool) {
	if len(te.memo) > 4096 {
		return 0, false
	}
	return te.b.Hash(), true
}

func (te *TacticalExtension) remember(score eval.Score, pv []board.Move) (eval.Score, []board.Move) {
	if key, ok := te.memoKey(); ok {
		te.memo[key] = extMemoEntry{score: score, pv: pv}
	}
	return score, pv
}
