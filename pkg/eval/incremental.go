package eval

import "github.com/mwkent/chess-ai/pkg/board"

// undoFrame captures what evaluate_after_move changed, to be restored by UndoMove (spec 4.3).
type undoFrame struct {
	deltas       map[board.Square]int // prior piece_value[sq], for squares touched this move
	priorSum     int
	priorFinal   Score
}

// IncrementalEvaluator maintains a per-piece score keyed by square so that re-evaluating
// after a move only touches the pieces the move could plausibly have affected (spec 4.3).
// Scoped to a single search tree; its undo stack must be matched push-for-pop with the
// Board's (spec 5, Scoped resources).
type IncrementalEvaluator struct {
	c    *BoardCache
	side board.Color // the "evaluating side": piece_value is signed so this side is positive

	pieceValue map[board.Square]int
	piecesSum  int
	finalValue Score

	undo []undoFrame
}

// NewIncrementalEvaluator constructs the evaluator and performs the initial full evaluation.
func NewIncrementalEvaluator(c *BoardCache, side board.Color) *IncrementalEvaluator {
	ie := &IncrementalEvaluator{c: c, side: side, pieceValue: map[board.Square]int{}}
	ie.evaluateAll()
	return ie
}

func (ie *IncrementalEvaluator) Score() Score { return ie.finalValue }

func (ie *IncrementalEvaluator) evaluateAll() {
	pos := ie.c.Board().Position()
	occ := pos.Occupied()
	for _, sq := range occ.ToSquares() {
		ie.pieceValue[sq] = ie.pieceScore(sq)
	}
	ie.piecesSum = 0
	for _, v := range ie.pieceValue {
		ie.piecesSum += v
	}
	ie.finalValue = ie.computeFinal()
}

// pieceScore is the signed contribution of the piece on sq: positive if it belongs to
// ie.side. Uses a simplified subset of the static evaluator's per-piece-type terms,
// restricted to the single square; PositionEvaluator is not consulted, and the equivalence
// tests compare against a fresh IncrementalEvaluator built on the resulting position.
func (ie *IncrementalEvaluator) pieceScore(sq board.Square) int {
	pos := ie.c.Board().Position()
	color, pt, ok := pos.PieceAt(sq)
	if !ok {
		return 0
	}

	unit := 1
	if color != ie.side {
		unit = -1
	}

	v := pt.Value()
	phase := ie.c.Phase(color)
	switch pt {
	case board.Pawn:
		if isCenterSquare(sq) {
			v += 15
		}
		v += int(fileBias(sq))
		if IsPassedPawn(pos, color, sq) {
			v += interpolate(phase, 10, 60)
		}
	case board.Knight, board.Bishop:
		v += int(ringBonus(sq)) / 2
	case board.Rook:
		file := board.BitFile(sq.File())
		if file&(pos.Piece(board.White, board.Pawn)|pos.Piece(board.Black, board.Pawn)) == 0 {
			v += 20
		}
	}
	return unit * v
}

// EvaluateAfterMove recomputes only the affected pieces after a move has already been
// pushed onto the board, pushing an undo frame (spec 4.3).
func (ie *IncrementalEvaluator) EvaluateAfterMove(before *board.Position, m board.Move) {
	pos := ie.c.Board().Position()

	affected := map[board.Square]bool{m.To: true}
	for _, sq := range before.Attacks(m.From).ToSquares() {
		affected[sq] = true
	}
	for _, sq := range pos.Attacks(m.To).ToSquares() {
		affected[sq] = true
	}
	for color := board.ZeroColor; color < board.NumColors; color++ {
		for _, sq := range pos.Attackers(color, m.From).ToSquares() {
			affected[sq] = true
		}
		for _, sq := range pos.Attackers(color, m.To).ToSquares() {
			affected[sq] = true
		}
	}
	if m.IsEnPassant() {
		affected[m.EnPassantCaptureSquare()] = true
	}
	affected[m.From] = true // the vacated square's prior occupant must be zeroed out

	frame := undoFrame{deltas: map[board.Square]int{}, priorSum: ie.piecesSum, priorFinal: ie.finalValue}

	for sq := range affected {
		old, had := ie.pieceValue[sq]
		if !had {
			old = 0
		}
		frame.deltas[sq] = old

		if pos.IsEmpty(sq) {
			delete(ie.pieceValue, sq)
			ie.piecesSum -= old
			continue
		}
		nv := ie.pieceScore(sq)
		ie.pieceValue[sq] = nv
		ie.piecesSum += nv - old
	}

	ie.finalValue = ie.computeFinal()
	ie.undo = append(ie.undo, frame)
}

// UndoMove restores the prior piece_value/sum/final state; the caller pops the board
// separately (spec 4.3).
func (ie *IncrementalEvaluator) UndoMove() {
	n := len(ie.undo)
	if n == 0 {
		panic("incremental evaluator: undo stack empty")
	}
	frame := ie.undo[n-1]
	ie.undo = ie.undo[:n-1]

	for sq, old := range frame.deltas {
		if old == 0 {
			delete(ie.pieceValue, sq)
			continue
		}
		ie.pieceValue[sq] = old
	}
	ie.piecesSum = frame.priorSum
	ie.finalValue = frame.priorFinal
}

// computeFinal applies the game-over/repetition adjustment on top of piecesSum (spec 4.3,
// step 4).
func (ie *IncrementalEvaluator) computeFinal() Score {
	b := ie.c.Board()
	pos := b.Position()
	turn := b.Turn()

	if len(pos.LegalMoves(turn)) == 0 {
		if pos.IsChecked(turn) {
			if ie.side == turn {
				return MinEval
			}
			return MaxEval
		}
		return DrawEval
	}
	if pos.HasInsufficientMaterial() || b.CanClaimDraw() {
		return DrawEval
	}

	score := Score(ie.piecesSum)
	if b.IsRepetition(2) {
		score /= 2
	}
	if b.IsRepetition(3) {
		if ie.side == turn {
			score = Max(score, 0)
		} else {
			score = Min(score, 0)
		}
	}
	return Crop(score)
}
