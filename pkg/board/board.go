package board

import "fmt"

const (
	repetition3Limit   = 3
	repetition5Limit   = 5
	noprogressPlyLimit = 100 // fifty-move rule: 50 full moves with no progress (spec 4.2)
)

type node struct {
	pos        *Position
	hash       ZobristHash
	noprogress int

	next Move // if not current
	prev *node
}

// Board represents a chess board together with the game history needed to correctly
// adjudicate draws (repetition, fifty-move rule, insufficient material) and to provide
// an incremental Zobrist hash (spec 3, Position (Board); spec 6.1, consumed interface).
// Not thread-safe: the search layer works on a Fork of the board it is given (spec 3).
type Board struct {
	zt          *ZobristTable
	repetitions map[ZobristHash]int

	fullmoves int
	turn      Color
	result    Result
	chess960  bool
	current   *node
}

// NewBoard constructs a board from a starting position.
func NewBoard(zt *ZobristTable, pos *Position, turn Color, noprogress, fullmoves int) *Board {
	current := &node{
		pos:        pos,
		noprogress: noprogress,
		hash:       zt.Hash(pos, turn),
	}

	return &Board{
		zt:          zt,
		repetitions: map[ZobristHash]int{current.hash: 1},
		fullmoves:   fullmoves,
		turn:        turn,
		current:     current,
	}
}

// Fork branches off a new board sharing the node history for past positions. The shared
// history must not be mutated (via PopMove past the fork point) because the forward
// move link (next) would become stale for the original board.
func (b *Board) Fork() *Board {
	fork := &Board{
		zt:          b.zt,
		repetitions: map[ZobristHash]int{},
		fullmoves:   b.fullmoves,
		turn:        b.turn,
		result:      b.result,
		chess960:    b.chess960,
		current: &node{
			pos:        b.current.pos,
			hash:       b.current.hash,
			noprogress: b.current.noprogress,
			prev:       b.current.prev,
		},
	}
	for k, v := range b.repetitions {
		fork.repetitions[k] = v
	}
	return fork
}

func (b *Board) Position() *Position { return b.current.pos }
func (b *Board) Turn() Color         { return b.turn }
func (b *Board) NoProgress() int     { return b.current.noprogress }
func (b *Board) FullMoves() int      { return b.fullmoves }
func (b *Board) Result() Result      { return b.result }
func (b *Board) Chess960() bool      { return b.chess960 }
func (b *Board) Hash() ZobristHash   { return b.current.hash }

func (b *Board) SetChess960(on bool) { b.chess960 = on }

// IsRepetition reports whether the current position has recurred at least count times
// (spec 6.1, is_repetition).
func (b *Board) IsRepetition(count int) bool {
	return b.identicalPositionCount(b.current, b.turn, count) >= count
}

// CanClaimDraw reports whether a claimable draw (3-fold repetition or fifty-move rule)
// is available, distinct from a draw forced by the position itself (spec 4.2, 6.1).
func (b *Board) CanClaimDraw() bool {
	return b.IsRepetition(repetition3Limit) || b.current.noprogress >= noprogressPlyLimit
}

// PushMove attempts to make a pseudo-legal move. Returns false if m would leave the
// mover's own king in check, i.e., it was not actually legal (spec 6.1, push).
func (b *Board) PushMove(m Move) bool {
	if b.result.Outcome != Undecided && b.result.Reason != NoReason &&
		(b.result.Reason == Checkmate || b.result.Reason == Stalemate) {
		return false // there are no legal moves
	} // else: ignore draws that are not always claimed immediately.

	ep, hadEp := b.current.pos.EnPassant()
	if !hadEp {
		ep = ZeroSquare
	}

	next, ok := b.current.pos.Move(b.turn, m)
	if !ok {
		return false
	}

	nextEp, hasEp := next.EnPassant()
	if !hasEp {
		nextEp = ZeroSquare
	}

	n := &node{
		pos:        next,
		hash:       b.zt.Move(b.current.hash, b.current.pos, b.turn, m, next.Castling(), nextEp, ep),
		noprogress: updateNoProgress(b.current.noprogress, m),
		prev:       b.current,
	}

	b.current.next = m
	b.current = n

	b.turn = b.turn.Opponent()
	b.repetitions[b.current.hash]++
	if b.turn == White {
		b.fullmoves++
	}

	b.updateResult(m)

	return true
}

// PushUCI parses and pushes a move given in coordinate notation (spec 6.1, push_uci).
func (b *Board) PushUCI(s string) (Move, bool) {
	m, err := ParseMove(s)
	if err != nil {
		return Move{}, false
	}
	for _, legal := range b.Position().LegalMoves(b.turn) {
		if legal.Equals(m) {
			return legal, b.PushMove(legal)
		}
	}
	return Move{}, false
}

func (b *Board) updateResult(m Move) {
	if b.repetitions[b.current.hash] >= repetition3Limit {
		actual := b.identicalPositionCount(b.current, b.turn, repetition5Limit)
		switch {
		case actual >= repetition5Limit:
			b.result = Result{Outcome: Draw, Reason: Repetition5}
		case actual >= repetition3Limit:
			b.result = Result{Outcome: Draw, Reason: Repetition3}
		default:
			// zobrist collision, not an actual repetition
		}
	}

	if b.current.noprogress >= noprogressPlyLimit {
		b.result = Result{Outcome: Draw, Reason: FiftyMoveRule}
	}

	if m.IsCapture() || (m.IsPromotion() && (m.Promotion == Bishop || m.Promotion == Knight)) {
		if b.current.pos.HasInsufficientMaterial() {
			b.result = Result{Outcome: Draw, Reason: InsufficientMaterial}
		}
	}
}

// PopMove undoes the last move, if any.
func (b *Board) PopMove() (Move, bool) {
	if b.current.prev == nil {
		return Move{}, false
	}

	b.turn = b.turn.Opponent()
	b.repetitions[b.current.hash]--
	b.result = Result{Outcome: Undecided}
	if b.turn == Black {
		b.fullmoves--
	}

	b.current = b.current.prev
	m := b.current.next
	b.current.next = Move{}
	return m, true
}

// AdjudicateNoLegalMoves adjudicates the position assuming there are no legal moves:
// checkmate if the side to move is in check, stalemate otherwise (spec 4.1/6.1).
func (b *Board) AdjudicateNoLegalMoves() Result {
	result := Result{Outcome: Draw, Reason: Stalemate}
	if b.Position().IsChecked(b.Turn()) {
		result = Result{Outcome: Loss(b.Turn()), Reason: Checkmate}
	}
	b.Adjudicate(result)
	return result
}

// Adjudicate forces the current result, e.g. after a resignation or adjudication outside
// the rules embodied by Board (time forfeiture, agreement).
func (b *Board) Adjudicate(result Result) {
	b.result = result
}

func (b *Board) identicalPositionCount(n *node, turn Color, limit int) int {
	ret := 1
	tmp := n.prev
	t := turn.Opponent()

	for tmp != nil && ret < limit {
		if tmp.hash == n.hash && t == turn && *tmp.pos == *n.pos {
			ret++
		}
		tmp = tmp.prev
		t = t.Opponent()
	}
	return ret
}

// LastMove returns the last move made, if any.
func (b *Board) LastMove() (Move, bool) {
	if b.current.prev != nil {
		return b.current.prev.next, true
	}
	return Move{}, false
}

// HasCastled returns true iff color c has castled at some point in the game's history.
func (b *Board) HasCastled(c Color) bool {
	t := b.turn.Opponent()
	cur := b.current.prev

	for cur != nil {
		if t == c && cur.next.IsCastle() {
			return true
		}
		t = t.Opponent()
		cur = cur.prev
	}
	return false
}

func (b *Board) String() string {
	return fmt.Sprintf("board{pos=%v, turn=%v, hash=%x (%v) noprogress=%v, fullmoves=%v, result=%v}",
		b.current.pos, b.turn, b.current.hash, b.repetitions[b.current.hash], b.current.noprogress, b.fullmoves, b.result)
}

func updateNoProgress(old int, m Move) int {
	if m.Piece == Pawn || m.IsCapture() {
		return 0
	}
	return old + 1
}
