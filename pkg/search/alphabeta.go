package search

import (
	"context"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
)

// mateDepthPenalty is subtracted from (the magnitude of) a mating score per ply of search
// already consumed, so that a shallower forced mate is always preferred to a deeper one
// found at a later node (spec 4.7 step 7).
const mateDepthPenalty = 1

// AlphaBeta is the main-search driver: minimax with alpha-beta pruning, iterative-
// deepening-friendly (a fresh call per depth), optional transposition table lookups, move
// filtering at depth 1, and move ordering (spec 4.7).
type AlphaBeta struct {
	b  *board.Board
	c  *eval.BoardCache
	tt TranspositionTable

	// ForcedMateDepth is passed through to the tactical extension at every leaf; 0 uses
	// the spec's default entry parameter (spec 4.5).
	ForcedMateDepth int

	nodes uint64
}

// NewAlphaBeta constructs a searcher over b/c, consulting tt when UseTT is set on a call.
func NewAlphaBeta(b *board.Board, c *eval.BoardCache, tt TranspositionTable) *AlphaBeta {
	if tt == nil {
		tt = NoTranspositionTable{}
	}
	return &AlphaBeta{b: b, c: c, tt: tt}
}

// Nodes returns the number of nodes visited by the most recent Search call.
func (ab *AlphaBeta) Nodes() uint64 { return ab.nodes }

// Params bundles the per-call knobs spec 4.7's signature lists beyond (board, depth, side,
// alpha, beta): the move filter, whether to consult/store in the transposition table, and
// whether to sort moves before exploring them.
type Params struct {
	Filter    board.MovePredicateFn
	UseTT     bool
	SortMoves bool
}

// Search runs alpha-beta to depth plies from the current position, relative to
// evaluatingSide, and returns the score and principal variation (spec 4.7).
func (ab *AlphaBeta) Search(ctx context.Context, depth int, evaluatingSide board.Color, alpha, beta eval.Score, p Params) (eval.Score, []board.Move) {
	ab.nodes = 0
	return ab.search(ctx, depth, evaluatingSide, alpha, beta, p)
}

func (ab *AlphaBeta) search(ctx context.Context, depth int, side board.Color, alpha, beta eval.Score, p Params) (eval.Score, []board.Move) {
	ab.nodes++

	pos := ab.b.Position()
	turn := ab.b.Turn()

	// Step 1: leaf or game over -> hand off to the tactical extension.
	gameOver := len(pos.LegalMoves(turn)) == 0 || pos.HasInsufficientMaterial() || ab.b.CanClaimDraw()
	if depth == 0 || gameOver {
		te := NewTacticalExtension(ab.b, ab.c, side, ab.ForcedMateDepth)
		return te.Search(ctx, side)
	}

	hash := ab.b.Hash()

	// Step 2: transposition table probe.
	if p.UseTT {
		if res, ok := ab.tt.Read(hash, side); ok && ab.ttMoveLegal(res.Best, pos, turn) {
			switch {
			case res.Bound == ExactBound && res.Depth >= depth:
				return res.Score, ab.pvFor(res.Best)
			case res.Bound == LowerBound && res.Score >= beta:
				return res.Score, ab.pvFor(res.Best)
			case res.Bound == UpperBound && res.Score <= alpha:
				return res.Score, ab.pvFor(res.Best)
			}
		}
	}

	// Step 3: enumerate legal moves, applying the shallow-depth filter. The null move is not
	// among the legal moves, so the filter never sees it and the side cannot pass here; only
	// when no move passes does the node fall back to the tactical extension below.
	moves := pos.LegalMoves(turn)
	if depth == 1 && p.Filter != nil {
		moves = filterMoves(moves, p.Filter)
	}

	var ttMove board.Move
	if p.UseTT {
		if res, ok := ab.tt.Read(hash, side); ok {
			ttMove = res.Best
		}
	}

	// Step 4: move ordering.
	if p.SortMoves || !ttMove.IsNull() {
		fn := ab.mvvLvaPriority(turn)
		if !ttMove.IsNull() {
			fn = board.First(ttMove, fn)
		}
		moves = orderMoves(moves, fn)
	}

	maximizing := turn == side
	best := alpha
	if !maximizing {
		best = beta
	}
	var bestMove board.Move
	var bestPV []board.Move
	haveBest := false

	a, bt := alpha, beta
	for _, m := range moves {
		if isCancelled(ctx) {
			break
		}

		ab.c.PushMove(m) // pushes onto ab.b, which the cache wraps
		score, pv := ab.search(ctx, depth-1, side, a, bt, p)
		ab.c.PopMove()

		if maximizing {
			if !haveBest || score > best {
				best, bestMove, bestPV, haveBest = score, m, pv, true
			}
			if best > a {
				a = best
			}
		} else {
			if !haveBest || score < best {
				best, bestMove, bestPV, haveBest = score, m, pv, true
			}
			if best < bt {
				bt = best
			}
		}
		if bt <= a {
			break // beta <= alpha: prune.
		}
	}

	if !haveBest {
		// No move passed the filter (or the search was cancelled before the first move):
		// fall back to the tactical extension's judgement of the current position.
		te := NewTacticalExtension(ab.b, ab.c, side, ab.ForcedMateDepth)
		return te.Search(ctx, side)
	}

	// Step 7: mate-depth penalty, applied only here so it compounds once per ply of the
	// main search (not inside the tactical extension, per the spec's Open Question
	// resolution recorded in DESIGN.md).
	if eval.IsMating(best) {
		if best > 0 {
			best -= mateDepthPenalty
		} else {
			best += mateDepthPenalty
		}
	}

	if p.UseTT {
		bound := ExactBound
		switch {
		case best <= alpha:
			bound = UpperBound
		case best >= beta:
			bound = LowerBound
		}
		ab.tt.Write(hash, Result{Score: best, Bound: bound, Depth: depth, Side: side, Best: bestMove})
	}

	return best, append([]board.Move{bestMove}, bestPV...)
}

// ttMoveLegal reports whether m is either the null move or still legal in pos, the lookup
// precondition from spec 4.8 ("first matching-zobrist slot whose best_move is either null
// or still legal").
func (ab *AlphaBeta) ttMoveLegal(m board.Move, pos *board.Position, turn board.Color) bool {
	if m.IsNull() {
		return true
	}
	for _, lm := range pos.LegalMoves(turn) {
		if lm.Equals(m) {
			return true
		}
	}
	return false
}

// pvFor renders a single-move principal variation for a transposition table hit; deeper PV
// moves were not retained by the table, so the PV truncates to the hash move.
func (ab *AlphaBeta) pvFor(m board.Move) []board.Move {
	if m.IsNull() {
		return nil
	}
	return []board.Move{m}
}

func filterMoves(moves []board.Move, pred board.MovePredicateFn) []board.Move {
	out := make([]board.Move, 0, len(moves))
	for _, m := range moves {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

func orderMoves(moves []board.Move, fn board.MovePriorityFn) []board.Move {
	ml := board.NewMoveList(moves, fn)
	out := make([]board.Move, 0, len(moves))
	for {
		m, ok := ml.Next()
		if !ok {
			break
		}
		out = append(out, m)
	}
	return out
}

// mvvLvaPriority orders checks first (priority 1000), then captures by victim-minus-
// attacker value (most-valuable-victim, least-valuable-attacker), then quiet moves last at
// priority -1000 (spec 4.7 step 4).
func (ab *AlphaBeta) mvvLvaPriority(turn board.Color) board.MovePriorityFn {
	cl := eval.NewClassifier(ab.c)
	return func(m board.Move) board.MovePriority {
		switch {
		case cl.IsCheck(turn, m):
			return 1000
		case m.IsCapture():
			return board.MovePriority(m.Capture.Value() - m.Piece.Value())
		default:
			return -1000
		}
	}
}
