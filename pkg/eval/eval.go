package eval

import "github.com/mwkent/chess-ai/pkg/board"

// interpolate blends an (opening, endgame) pair of values by phase in [0,1] (spec 3, Phase).
func interpolate(phase float64, opening, endgame int) int {
	return int(float64(opening) + phase*float64(endgame-opening))
}

// PositionEvaluator is the static evaluator: a phase-interpolated, side-relative centipawn
// score (spec 4.2).
type PositionEvaluator struct {
	c  *BoardCache
	cl *Classifier
}

func NewPositionEvaluator(c *BoardCache) *PositionEvaluator {
	return &PositionEvaluator{c: c, cl: NewClassifier(c)}
}

// Evaluate returns the position score in centipawns, positive favors evaluatingSide
// (spec 4.2).
func (pe *PositionEvaluator) Evaluate(evaluatingSide board.Color) Score {
	b := pe.c.Board()
	pos := b.Position()
	turn := b.Turn()

	// (1) Terminal short-circuits, in order.
	if len(pos.LegalMoves(turn)) == 0 {
		if pos.IsChecked(turn) {
			if evaluatingSide == turn {
				return MinEval
			}
			return MaxEval
		}
		return DrawEval // stalemate
	}
	if pos.HasInsufficientMaterial() || b.CanClaimDraw() {
		return DrawEval
	}
	// Low-material positions use the specialized endgame evaluator instead of the sum below.
	if IsEndgame(pos) {
		return Crop(EvaluateEndgame(pe.c, evaluatingSide))
	}

	// (2) Weighted per-piece sum, computed symmetrically (side minus not-side).
	score := pe.materialAndPositionalScore(evaluatingSide)

	// (3) Repetition shaping (spec 4.2).
	if b.IsRepetition(2) {
		score /= 2
	}
	if b.IsRepetition(3) {
		if evaluatingSide == turn {
			score = Max(score, 0)
		} else {
			score = Min(score, 0)
		}
	}

	return Crop(score)
}

func (pe *PositionEvaluator) materialAndPositionalScore(side board.Color) Score {
	var total Score
	for _, c := range [2]board.Color{board.White, board.Black} {
		unit := Score(1)
		if c != side {
			unit = -1
		}
		total += unit * pe.sideScore(c)
	}
	return total
}

// sideScore computes color c's own positional+material contribution (always positive-
// oriented for c; the caller applies the +/- side sign).
func (pe *PositionEvaluator) sideScore(c board.Color) Score {
	phase := pe.c.Phase(c)

	var s Score
	s += pe.pawnScore(c, phase)
	s += pe.knightScore(c, phase)
	s += pe.bishopScore(c, phase)
	s += pe.rookScore(c, phase)
	s += pe.queenScore(c, phase)
	s += pe.kingScore(c, phase)
	s += pe.hangingPieceScore(c)
	return s
}

func (pe *PositionEvaluator) pawnScore(c board.Color, phase float64) Score {
	pos := pe.c.Board().Position()
	pawns := pos.Piece(c, board.Pawn)

	var s Score
	for _, sq := range pawns.ToSquares() {
		s += board.PawnValue

		if isCenterSquare(sq) {
			s += 15
		}
		s += fileBias(sq)

		rank := sq.AdjustedRank(c)
		s += Score(interpolate(phase, int(rank)*2, int(rank)*6))

		if isIsolated(pos, c, sq) {
			s -= 15
		}
		if IsPassedPawn(pos, c, sq) {
			bonus := interpolate(phase, 10, 60)
			s += Score(bonus) + Score(rank)*Score(interpolate(phase, 2, 10))
			if isUnstoppable(pos, c, sq, pe.c.Board().Turn()) {
				s += Score(interpolate(phase, 0, 120))
			}
		}

		front := pawnFrontSquare(c, sq)
		if front.IsValid() {
			if cc, pt, ok := pos.PieceAt(front); ok {
				if pt == board.Rook && cc == c {
					s += 10
				} else if pt != board.NoPiece && cc != c {
					s -= 5 // blockaded
				}
			}
			if cc, pt, ok := pos.PieceAt(rookBehindSquare(c, sq)); ok && pt == board.Rook {
				if cc != c {
					s -= 10
				}
			}
		}

		firstAtt, _, firstDef, _ := pe.c.AttackersAndDefenders(c.Opponent(), sq)
		nonPawnDef := 0
		for _, d := range firstDef {
			if d.Piece != board.Pawn {
				nonPawnDef++
			}
		}
		if len(firstAtt) == 1 && nonPawnDef == 1 {
			s -= 5
		}
	}
	return s
}

func isCenterSquare(sq board.Square) bool {
	return sq == board.D4 || sq == board.D5 || sq == board.E4 || sq == board.E5
}

func fileBias(sq board.Square) Score {
	f := int(sq.File())
	d := f - 3
	if d < 0 {
		d = -d
	}
	if d > 3 {
		d = 3
	}
	return Score(3 - d)
}

func isIsolated(pos *board.Position, c board.Color, sq board.Square) bool {
	f := sq.File()
	var neighbors board.Bitboard
	if f > board.FileA {
		neighbors |= board.BitFile(f - 1)
	}
	if f < board.FileH {
		neighbors |= board.BitFile(f + 1)
	}
	return neighbors&pos.Piece(c, board.Pawn) == 0
}

// IsPassedPawn reports whether no enemy pawn occupies the same or an adjacent file ahead of
// sq (spec 4.2, Pawn).
func IsPassedPawn(pos *board.Position, c board.Color, sq board.Square) bool {
	f := sq.File()
	var files board.Bitboard
	files |= board.BitFile(f)
	if f > board.FileA {
		files |= board.BitFile(f - 1)
	}
	if f < board.FileH {
		files |= board.BitFile(f + 1)
	}

	var ahead board.Bitboard
	if c == board.White {
		for r := sq.Rank() + 1; r < board.NumRanks; r++ {
			ahead |= board.BitRank(r)
		}
	} else {
		for r := int(sq.Rank()) - 1; r >= 0; r-- {
			ahead |= board.BitRank(board.Rank(r))
		}
	}
	return files&ahead&pos.Piece(c.Opponent(), board.Pawn) == 0
}

// isUnstoppable approximates "opponent cannot stop promotion": no enemy minor/major pieces
// and the enemy king is outside the square of the pawn (spec 4.2, 6.1; Glossary, Square of
// the pawn).
func isUnstoppable(pos *board.Position, c board.Color, sq board.Square, turn board.Color) bool {
	opp := c.Opponent()
	if pos.Piece(opp, board.Knight)|pos.Piece(opp, board.Bishop)|pos.Piece(opp, board.Rook)|pos.Piece(opp, board.Queen) != 0 {
		return false
	}

	promoRank := board.Rank8
	if c == board.Black {
		promoRank = board.Rank1
	}
	promoSq := board.NewSquare(sq.File(), promoRank)

	distToPromo := int(promoRank) - int(sq.Rank())
	if distToPromo < 0 {
		distToPromo = -distToPromo
	}
	kingDist := board.Distance(pos.King(opp), promoSq)
	toMoveBonus := 0
	if opp != turn {
		toMoveBonus = 1
	}
	return kingDist > distToPromo+toMoveBonus
}

// invalidSquare is the sentinel for "no such square" (e.g., off the back rank), distinct
// from A1 (square 0).
const invalidSquare = board.NumSquares

func pawnFrontSquare(c board.Color, sq board.Square) board.Square {
	if c == board.White {
		if sq.Rank() == board.Rank8 {
			return invalidSquare
		}
		return board.NewSquare(sq.File(), sq.Rank()+1)
	}
	if sq.Rank() == board.Rank1 {
		return invalidSquare
	}
	return board.NewSquare(sq.File(), sq.Rank()-1)
}

func rookBehindSquare(c board.Color, sq board.Square) board.Square {
	if c == board.White {
		if sq.Rank() == board.Rank1 {
			return invalidSquare
		}
		return board.NewSquare(sq.File(), sq.Rank()-1)
	}
	if sq.Rank() == board.Rank8 {
		return invalidSquare
	}
	return board.NewSquare(sq.File(), sq.Rank()+1)
}

func (pe *PositionEvaluator) knightScore(c board.Color, phase float64) Score {
	pos := pe.c.Board().Position()
	knights := pos.Piece(c, board.Knight)

	var s Score
	for _, sq := range knights.ToSquares() {
		s += board.KnightValue
		attacks := pos.Attacks(sq)
		s += Score(attacks.PopCount()) * 4
		s += ringBonus(sq)

		if phase < 0.5 && sq.AdjustedRank(c) > 0 {
			s += 10 // development bonus, opening only
		}
		if canBeKickedByPawn(pos, c, sq) {
			s -= 8
		}
		if isControlledByEnemyPawn(pos, c, forwardOf(c, sq)) {
			s -= 4
		}

		victims, second := forkVictims(pos, sq, c)
		if victims >= 2 && !pe.cl.IsFreeToTake(c.Opponent(), sq) {
			if ray, pinned := pos.Pin(c, sq); !pinned || ray == 0 {
				s += Score(second - board.KnightValue)
			}
		}
	}
	return s
}

func ringBonus(sq board.Square) Score {
	f, r := int(sq.File()), int(sq.Rank())
	df, dr := f-3, r-3
	if df < 0 {
		df = -df
	}
	if dr < 0 {
		dr = -dr
	}
	ring := df
	if dr > ring {
		ring = dr
	}
	switch ring {
	case 0, 1:
		return 15
	case 2:
		return 5
	default:
		return -10
	}
}

func canBeKickedByPawn(pos *board.Position, c board.Color, sq board.Square) bool {
	opp := c.Opponent()
	attackers := board.PawnCaptureboard(opp, pos.Piece(opp, board.Pawn))
	return attackers.IsSet(sq)
}

func forwardOf(c board.Color, sq board.Square) board.Square {
	if f := pawnFrontSquare(c, sq); f.IsValid() {
		return f
	}
	return sq
}

func isControlledByEnemyPawn(pos *board.Position, c board.Color, sq board.Square) bool {
	opp := c.Opponent()
	return board.PawnCaptureboard(opp, pos.Piece(opp, board.Pawn)).IsSet(sq)
}

func forkVictims(pos *board.Position, sq board.Square, c board.Color) (int, int) {
	attacks := pos.Attacks(sq)
	count := 0
	highest, second := 0, 0
	for _, t := range attacks.ToSquares() {
		tc, pt, ok := pos.PieceAt(t)
		if !ok || tc == c {
			continue
		}
		if pt.RoughValue() >= board.RoughRookValue || pt == board.King {
			count++
			v := pt.RoughValue()
			if pt == board.King {
				v = board.RoughKingValue
			}
			if v > highest {
				second = highest
				highest = v
			} else if v > second {
				second = v
			}
		}
	}
	return count, second
}

func (pe *PositionEvaluator) bishopScore(c board.Color, phase float64) Score {
	pos := pe.c.Board().Position()
	bishops := pos.Piece(c, board.Bishop)

	var s Score
	for _, sq := range bishops.ToSquares() {
		s += board.BishopValue
		attacks := pos.Attacks(sq)
		s += Score(attacks.PopCount()) * 4

		if phase < 0.5 {
			if ray, pinned := pos.Pin(c, sq); !pinned || isDiagonalRay(sq, ray) {
				s += ringBonus(sq) / 2
			}
		}
		if onLongDiagonal(sq) {
			s += 10
		}
		if isOnFirstRank(c, sq) && pos.Occupied().IsSet(forwardOf(c, sq)) {
			s -= 10 // undeveloped and blocked
		}

		battery := board.Attackboard(pos.Occupied(), sq, board.Bishop) & (pos.Piece(c, board.Queen) | pos.Piece(c, board.Bishop))
		if battery != 0 {
			s += 6
		}
	}

	if hasBishopPair(pos, c) {
		s += 30
	}
	return s
}

func isDiagonalRay(sq board.Square, ray board.Bitboard) bool {
	return ray != 0 && ray&board.BitRank(sq.Rank()) == 0 && ray&board.BitFile(sq.File()) == 0
}

func onLongDiagonal(sq board.Square) bool {
	f, r := int(sq.File()), int(sq.Rank())
	return f == r || f+r == 7
}

func isOnFirstRank(c board.Color, sq board.Square) bool {
	return sq.AdjustedRank(c) == 0
}

func hasBishopPair(pos *board.Position, c board.Color) bool {
	bishops := pos.Piece(c, board.Bishop)
	if bishops.PopCount() < 2 {
		return false
	}
	light, dark := false, false
	for _, sq := range bishops.ToSquares() {
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			dark = true
		} else {
			light = true
		}
	}
	return light && dark
}

func (pe *PositionEvaluator) rookScore(c board.Color, phase float64) Score {
	pos := pe.c.Board().Position()
	rooks := pos.Piece(c, board.Rook)
	opp := c.Opponent()

	minors := pos.Piece(opp, board.Knight).PopCount() + pos.Piece(opp, board.Bishop).PopCount()
	enemyBishops := pos.Piece(opp, board.Bishop)
	monochrome := enemyBishops.PopCount() >= 2 && !hasBishopPair(pos, opp)

	var s Score
	for _, sq := range rooks.ToSquares() {
		s += board.RookValue
		attacks := pos.Attacks(sq)
		s += Score(attacks.PopCount()) * 3

		file := board.BitFile(sq.File())
		if file&(pos.Piece(board.White, board.Pawn)|pos.Piece(board.Black, board.Pawn)) == 0 {
			s += 20 // open file
		} else if file&pos.Piece(c, board.Pawn) == 0 {
			s += 10 // half-open file
		}

		if sq.AdjustedRank(c) > 2 && minors >= 3 {
			s -= 10 // too aggressive
		}
		if monochrome && (int(sq.File())+int(sq.Rank()))%2 == boolToInt(enemyBishops.ToSquares()[0]) {
			s -= 5
		}

		if throughOnePiece(pos, sq, pos.King(opp)) {
			s -= 8
		}
	}

	if rooks.PopCount() == 2 {
		r := rooks.ToSquares()
		if r[0].Rank() == r[1].Rank() || r[0].File() == r[1].File() {
			if board.Between(r[0], r[1])&pos.Occupied() == 0 {
				s += 10 // connected
			}
		}
	}
	return s
}

func boolToInt(sq board.Square) int {
	return (int(sq.File()) + int(sq.Rank())) % 2
}

// throughOnePiece reports whether the piece on sq attacks target through exactly one
// intervening piece (aligned-through-one-piece penalty, spec 4.2, Rook/Queen).
func throughOnePiece(pos *board.Position, sq, target board.Square) bool {
	ray := board.Ray(sq, target)
	if ray == 0 {
		return false
	}
	between := board.Between(sq, target)
	return (between & pos.Occupied()).PopCount() == 1
}

func (pe *PositionEvaluator) queenScore(c board.Color, phase float64) Score {
	pos := pe.c.Board().Position()
	queens := pos.Piece(c, board.Queen)
	opp := c.Opponent()

	var s Score
	for _, sq := range queens.ToSquares() {
		s += board.QueenValue
		attacks := pos.Attacks(sq)
		s += Score(attacks.PopCount()) * 1

		if throughOnePiece(pos, sq, pos.King(opp)) {
			s -= 10
		}
		enemyBishops := pos.Piece(opp, board.Bishop)
		for _, b := range enemyBishops.ToSquares() {
			if throughOnePiece(pos, sq, b) {
				s -= 6
			}
		}
		enemyRooks := pos.Piece(opp, board.Rook)
		for _, r := range enemyRooks.ToSquares() {
			if throughOnePiece(pos, sq, r) {
				s -= 6
			}
		}
	}
	return s
}

func (pe *PositionEvaluator) kingScore(c board.Color, phase float64) Score {
	pos := pe.c.Board().Position()
	king := pos.King(c)

	var s Score
	if phase > 0.6 {
		pawns := pos.Piece(board.White, board.Pawn) | pos.Piece(board.Black, board.Pawn)
		for _, p := range pawns.ToSquares() {
			s += Score(7 - board.Distance(king, p))
		}
		s += Score(king.AdjustedRank(c)) * 3
		return s
	}

	attacked := 0
	around := board.KingAttackboard(king)
	for _, sq := range around.ToSquares() {
		if pos.IsAttacked(c, sq) {
			attacked++
		}
	}
	frac := float64(attacked) / 8.0
	s -= Score(frac * float64(interpolate(phase, 40, 0)))

	if isCornerSquare(king) {
		s += 10
	}

	close, far := pawnWallSquares(c, king)
	closeCount, farCount := 0, 0
	for _, sq := range close {
		if pos.Piece(c, board.Pawn).IsSet(sq) {
			closeCount++
		}
	}
	for _, sq := range far {
		if pos.Piece(c, board.Pawn).IsSet(sq) {
			farCount++
		}
	}
	s += Score(interpolate(phase, closeCount*8, 0))
	s += Score(interpolate(phase, farCount*4, 0))

	kingFiles := adjacentFiles(king.File())
	for _, f := range kingFiles {
		if board.BitFile(f)&pos.Piece(c, board.Pawn) == 0 {
			s -= Score(interpolate(phase, 10, 0))
		}
	}

	return s
}

func isCornerSquare(sq board.Square) bool {
	return sq == board.G1 || sq == board.C1 || sq == board.G8 || sq == board.C8 ||
		sq == board.B1 || sq == board.B8
}

func pawnWallSquares(c board.Color, king board.Square) ([]board.Square, []board.Square) {
	var close, far []board.Square
	f := king.File()
	files := []board.File{f}
	if f > board.FileA {
		files = append(files, f-1)
	}
	if f < board.FileH {
		files = append(files, f+1)
	}

	closeRank, farRank := king.Rank()+1, king.Rank()+2
	if c == board.Black {
		closeRank, farRank = king.Rank()-1, king.Rank()-2
	}
	for _, file := range files {
		if closeRank.IsValid() {
			close = append(close, board.NewSquare(file, closeRank))
		}
		if farRank.IsValid() {
			far = append(far, board.NewSquare(file, farRank))
		}
	}
	return close, far
}

func adjacentFiles(f board.File) []board.File {
	ret := []board.File{f}
	if f > board.FileA {
		ret = append(ret, f-1)
	}
	if f < board.FileH {
		ret = append(ret, f+1)
	}
	return ret
}

// hangingPieceScore applies the discount/credit described in spec 4.2: before the sums, find
// the most valuable free-to-take and free-to-trade pieces of the side not-to-move, and
// attribute a single swap -- whichever yields the larger material gain.
func (pe *PositionEvaluator) hangingPieceScore(c board.Color) Score {
	b := pe.c.Board()
	turn := b.Turn()
	notToMove := turn.Opponent()
	if c != notToMove {
		return 0
	}

	bestFreeVal := -1
	pieces := pe.c.Board().Position().Color(c)
	for _, sq := range pieces.ToSquares() {
		if pe.cl.IsFreeToTake(c.Opponent(), sq) {
			_, pt, _ := pe.c.Board().Position().PieceAt(sq)
			if pt.RoughValue() > bestFreeVal {
				bestFreeVal = pt.RoughValue()
			}
		}
	}

	bestTradeGain := -1
	for _, sq := range pieces.ToSquares() {
		if _, gain, ok := pe.cl.IsFreeToTrade(c.Opponent(), sq); ok && gain > bestTradeGain {
			bestTradeGain = gain
		}
	}

	var s Score
	if bestFreeVal >= 0 && (bestTradeGain < 0 || bestFreeVal >= bestTradeGain) {
		discount := 0.9
		if c == turn {
			discount = 0.1
		}
		s -= Score(float64(bestFreeVal) * (1 - discount))
	} else if bestTradeGain >= 0 {
		s -= Score(float64(bestTradeGain) * 1.1)
	}
	return s
}
