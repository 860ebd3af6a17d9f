package search

import (
	"context"
	"time"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
)

// additionalDepthFactor estimates the multiplicative branching-factor cost of searching
// one depth deeper, used to decide whether there is time left to attempt it (spec 4.9,
// stop condition (b)).
const additionalDepthFactor = 5.0

// Calculation is the result of one call to Calculate (spec 4.9).
type Calculation struct {
	Score        eval.Score
	Move         board.Move
	DepthReached int
	Elapsed      time.Duration
}

// Calculator drives iterative-deepening search to a move decision: the top-level search
// loop of the engine (spec 4.9, Move Calculator).
type Calculator struct {
	b  *board.Board
	c  *eval.BoardCache
	tt TranspositionTable

	MaxDepth        int // 0 means unbounded (bounded only by the deadline)
	ForcedMateDepth int // 0 uses the tactical extension's default (spec 4.5)
}

// NewCalculator constructs a calculator over a board the caller owns exclusively for the
// duration of the search (spec 5: "the search operates on a copy").
func NewCalculator(b *board.Board, tt TranspositionTable, maxDepth int) *Calculator {
	return &Calculator{b: b, c: eval.NewBoardCache(b), tt: tt, MaxDepth: maxDepth}
}

// Calculate runs iterative deepening up to a soft deadline and returns the best move found
// (spec 4.9). ctx carries the deadline/stop cancellation (spec 5).
func (calc *Calculator) Calculate(ctx context.Context, deadline time.Duration) Calculation {
	start := time.Now()
	turn := calc.b.Turn()
	cl := eval.NewClassifier(calc.c)

	// Step 1: single legal move shortcut.
	legal := calc.b.Position().LegalMoves(turn)
	if len(legal) == 1 {
		return Calculation{Move: legal[0], DepthReached: 0, Elapsed: time.Since(start)}
	}
	if len(legal) == 0 {
		return Calculation{Elapsed: time.Since(start)}
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	calc.tt.NewGeneration()
	ab := NewAlphaBeta(calc.b, calc.c, calc.tt)
	ab.ForcedMateDepth = calc.ForcedMateDepth

	var result Calculation
	haveResult := false

	// Step 3: pass 0 -- depth 1, no filter, no extension budget beyond the default --
	// establishes a fallback move before any deeper, more expensive pass.
	if score, pv := ab.Search(ctx, 1, turn, eval.MinEval, eval.MaxEval, Params{UseTT: true, SortMoves: true}); len(pv) > 0 {
		result = Calculation{Score: score, Move: pv[0], DepthReached: 1, Elapsed: time.Since(start)}
		haveResult = true
	}

	// Step 4: iterative deepening with the filter sequence [is_soft_tactic, None]; depth 1
	// uses only None, since pass 0 already covered the unfiltered depth-1 case.
	maxDepth := calc.MaxDepth
	for depth := 2; maxDepth == 0 || depth <= maxDepth; depth++ {
		if isCancelled(ctx) {
			break
		}

		softTactic := func(m board.Move) bool { return cl.IsSoftTactic(turn, m) }
		filters := []board.MovePredicateFn{softTactic, nil}
		var (
			passScore eval.Score
			passPV    []board.Move
			passed    bool
		)
		for _, f := range filters {
			if isCancelled(ctx) {
				break
			}
			score, pv := ab.Search(ctx, depth, turn, eval.MinEval, eval.MaxEval, Params{Filter: f, UseTT: true, SortMoves: true})
			if len(pv) == 0 {
				continue
			}
			passScore, passPV, passed = score, pv, true
		}

		elapsed := time.Since(start)
		if passed {
			// Step 5: set_result -- replace iff the new move is non-null and either
			// improves on the previous result or the previous move was null.
			if !haveResult || result.Move.IsNull() || passScore > result.Score {
				result = Calculation{Score: passScore, Move: passPV[0], DepthReached: depth, Elapsed: elapsed}
				haveResult = true
			}
		}

		// Step 6: stop conditions.
		if haveResult && !result.Move.IsNull() && eval.IsMating(result.Score) && depth > 1 {
			break
		}
		if elapsed > time.Duration(float64(deadline)/additionalDepthFactor) {
			break
		}
		if elapsed >= deadline {
			break
		}
	}

	if !haveResult {
		// Failure-to-find fallback: first legal move, depth 0.
		return Calculation{Move: legal[0], DepthReached: 0, Elapsed: time.Since(start)}
	}
	result.Elapsed = time.Since(start)
	return result
}
