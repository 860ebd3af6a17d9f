package eval

import "github.com/mwkent/chess-ai/pkg/board"

// Classifier evaluates predicates over (board, move), used both to filter moves at shallow
// plies of main search and to decide tactical extensions (spec 4.4).
type Classifier struct {
	c *BoardCache
}

func NewClassifier(c *BoardCache) *Classifier {
	return &Classifier{c: c}
}

// IsCheck reports whether m delivers check.
func (cl *Classifier) IsCheck(turn board.Color, m board.Move) bool {
	if !cl.c.PushMove(m) {
		return false
	}
	defer cl.c.PopMove()
	return cl.c.Board().Position().IsChecked(turn.Opponent())
}

// IsCapture reports whether m is a standard capture or en passant.
func (cl *Classifier) IsCapture(m board.Move) bool {
	return m.IsCapture()
}

// IsGoodCapture reports a capture where the attacker's rough value is at most the
// victim's, or the victim is hanging (spec 4.4).
func (cl *Classifier) IsGoodCapture(turn board.Color, m board.Move) bool {
	if !m.IsCapture() {
		return false
	}
	if m.Piece.RoughValue() <= m.Capture.RoughValue() {
		return true
	}
	return cl.IsFreeToTake(turn, m.To)
}

// IsPawnPromotion reports whether m is a promotion move.
func (cl *Classifier) IsPawnPromotion(m board.Move) bool {
	return m.IsPromotion()
}

// IsPawnAdvanceToPromote reports whether the mover is a pawn and the pawn is passed
// (spec 4.4; see Pawn "passed-pawn detection" in the evaluator).
func (cl *Classifier) IsPawnAdvanceToPromote(turn board.Color, m board.Move) bool {
	if m.Piece != board.Pawn {
		return false
	}
	return IsPassedPawn(cl.c.Board().Position(), turn, m.From)
}

// IsHangingPieceCapture reports whether the captured square is free to take.
func (cl *Classifier) IsHangingPieceCapture(turn board.Color, m board.Move) bool {
	if !m.IsCapture() {
		return false
	}
	return cl.IsFreeToTake(turn, m.To)
}

// IsCheckFork reports whether, after the move, the moving piece both gives check and
// attacks a hanging or higher-valued enemy piece (spec 4.4).
func (cl *Classifier) IsCheckFork(turn board.Color, m board.Move) bool {
	if !cl.c.PushMove(m) {
		return false
	}
	defer cl.c.PopMove()

	pos := cl.c.Board().Position()
	opp := turn.Opponent()
	if !pos.IsChecked(opp) {
		return false
	}

	attacks := pos.Attacks(m.To)
	for _, sq := range attacks.ToSquares() {
		c, pt, ok := pos.PieceAt(sq)
		if !ok || c != opp || pt == board.King {
			continue
		}
		if pt.RoughValue() > m.Piece.RoughValue() || cl.IsFreeToTake(turn, sq) {
			return true
		}
	}
	return false
}

// MakeOrRelieveThreat reports whether the move changes the set of stronger/hanging
// pieces attacked by the mover, rescues a piece that was hanging or under-attacked, opens
// a battery behind the vacated square, or defends a friendly piece under attack (spec 4.4).
//
// This is the set-difference variant, the one actually wired into the Move Calculator; the
// source's alternate `is_attack_or_defend2`/`is_attack_or_defend3` predicates are not
// reproduced here -- they were never wired to a caller distinct from this one (spec 9, Open
// Questions).
func (cl *Classifier) MakeOrRelieveThreat(turn board.Color, m board.Move) bool {
	pos := cl.c.Board().Position()
	opp := turn.Opponent()

	before := attackedStrongerOrHanging(cl, turn, opp, pos.Attacks(m.From), m.From)
	wasUnderAttack := cl.IsFreeToTake(opp, m.From) || isUnderAttackByWeaker(cl, turn, m.From, m.Piece)

	if !cl.c.PushMove(m) {
		return false
	}
	defer cl.c.PopMove()
	after := attackedStrongerOrHanging(cl, turn, opp, cl.c.Board().Position().Attacks(m.To), m.To)

	if !before.Equal(after) {
		return true
	}
	if wasUnderAttack {
		return true
	}
	if opensBattery(cl, turn, m) {
		return true
	}
	return defendsAttackedFriendly(cl, turn, m)
}

type squareSet map[board.Square]bool

func (s squareSet) Equal(o squareSet) bool {
	if len(s) != len(o) {
		return false
	}
	for sq := range s {
		if !o[sq] {
			return false
		}
	}
	return true
}

func attackedStrongerOrHanging(cl *Classifier, turn, opp board.Color, attacks board.Bitboard, from board.Square) squareSet {
	ret := squareSet{}
	pos := cl.c.Board().Position()
	_, mover, _ := pos.PieceAt(from)
	for _, sq := range attacks.ToSquares() {
		c, pt, ok := pos.PieceAt(sq)
		if !ok || c != opp {
			continue
		}
		if pt.RoughValue() > mover.RoughValue() || cl.IsFreeToTake(turn, sq) {
			ret[sq] = true
		}
	}
	return ret
}

func isUnderAttackByWeaker(cl *Classifier, turn board.Color, sq board.Square, piece board.PieceType) bool {
	_, firstAtt, _, _ := cl.c.AttackersAndDefenders(turn.Opponent(), sq)
	for _, a := range firstAtt {
		if a.Piece.RoughValue() < piece.RoughValue() {
			return true
		}
	}
	return false
}

// opensBattery reports whether vacating m.From exposes a friendly slider behind it that now
// attacks a new enemy target.
func opensBattery(cl *Classifier, turn board.Color, m board.Move) bool {
	pos := cl.c.Board().Position()
	opp := turn.Opponent()

	ray := board.Ray(m.From, pos.King(opp))
	if ray == 0 {
		return false
	}
	behind := pos.Attackers(turn, m.From) & ray
	for _, sq := range behind.ToSquares() {
		_, pt, _ := pos.PieceAt(sq)
		if pt == board.Bishop || pt == board.Rook || pt == board.Queen {
			return true
		}
	}
	return false
}

// defendsAttackedFriendly reports whether m adds a defender to a friendly piece that was
// under attack.
func defendsAttackedFriendly(cl *Classifier, turn board.Color, m board.Move) bool {
	pos := cl.c.Board().Position()
	targets := pos.Color(turn) &^ board.BitMask(m.From)
	for _, sq := range targets.ToSquares() {
		if sq == m.To {
			continue
		}
		_, firstAtt, _, _ := cl.c.AttackersAndDefenders(turn.Opponent(), sq)
		if len(firstAtt) == 0 {
			continue
		}
		if cl.c.PushMove(m) {
			defends := cl.c.Board().Position().Attackers(turn, sq).IsSet(m.To)
			cl.c.PopMove()
			if defends {
				return true
			}
		}
	}
	return false
}

// IsDrawing reports whether the position after m is a draw: stalemate, insufficient
// material, or repetition (spec 4.4).
func (cl *Classifier) IsDrawing(turn board.Color, m board.Move) bool {
	if !cl.c.PushMove(m) {
		return false
	}
	defer cl.c.PopMove()

	b := cl.c.Board()
	if len(b.Position().LegalMoves(b.Turn())) == 0 {
		return !b.Position().IsChecked(b.Turn())
	}
	return b.Position().HasInsufficientMaterial() || b.IsRepetition(3)
}

// IsHardTactic reports: in check, or a good capture, or a pawn promotion (spec 4.4).
func (cl *Classifier) IsHardTactic(turn board.Color, m board.Move) bool {
	if m.IsNull() {
		return true // every filter must admit the null move (spec 4.7, 8)
	}
	if cl.c.Board().Position().IsChecked(turn) {
		return true
	}
	return cl.IsGoodCapture(turn, m) || cl.IsPawnPromotion(m)
}

// IsSoftTactic is the broader shallow-depth filter (spec 4.4).
func (cl *Classifier) IsSoftTactic(turn board.Color, m board.Move) bool {
	if m.IsNull() {
		return true // spec 8: soft-tactic filter admits null-move fallback
	}
	if cl.c.Board().Position().IsChecked(turn) {
		return true
	}
	if cl.IsCheck(turn, m) || cl.IsCapture(m) || cl.IsPawnPromotion(m) || cl.IsPawnAdvanceToPromote(turn, m) {
		return true
	}
	if cl.MakeOrRelieveThreat(turn, m) {
		return true
	}
	return cl.IsDrawing(turn, m)
}

// IsBadMove reports an apparently pointless move: not in check, the mover is a minor/major
// piece, it is not a capture, the piece is not currently attacked, but after the move it is
// undefended and attacked by an unpinned piece (spec 4.4).
func (cl *Classifier) IsBadMove(turn board.Color, m board.Move) bool {
	if m.IsNull() || m.IsCapture() {
		return false
	}
	if !(m.Piece == board.Knight || m.Piece == board.Bishop || m.Piece == board.Rook || m.Piece == board.Queen) {
		return false
	}
	pos := cl.c.Board().Position()
	if pos.IsChecked(turn) {
		return false
	}
	if cl.IsFreeToTake(turn.Opponent(), m.From) {
		return false // already hanging before the move: not newly "bad"
	}

	if !cl.c.PushMove(m) {
		return false
	}
	defer cl.c.PopMove()

	npos := cl.c.Board().Position()
	_, firstAtt, firstDef, _ := cl.c.AttackersAndDefenders(turn.Opponent(), m.To)
	if len(firstAtt) == 0 {
		return false
	}
	if len(firstDef) > 0 {
		return false // defended
	}
	for _, a := range firstAtt {
		if ray, pinned := npos.Pin(turn.Opponent(), a.Square); !pinned || ray.IsSet(m.To) {
			return true
		}
	}
	return false
}

// IsFreeToTake reports whether the piece of the opponent (relative to attackingSide) on sq
// can be won by best play: `attackingSide`'s pieces attacking sq (spec 4.2, is_free_to_take).
//
// Side-to-move rule: a piece belonging to the side to move is never free-to-take in the
// current position, since it gets to move first.
func (cl *Classifier) IsFreeToTake(attackingSide board.Color, sq board.Square) bool {
	pos := cl.c.Board().Position()
	if pos.IsEmpty(sq) {
		return false
	}
	victimColor, victim, _ := pos.PieceAt(sq)
	if victimColor != attackingSide.Opponent() {
		return false
	}
	if victimColor == cl.c.Board().Turn() {
		return false // side to move moves first: never "free" against it right now
	}

	firstAtt, secondAtt, firstDef, secondDef := cl.c.AttackersAndDefenders(attackingSide, sq)
	if len(firstAtt) == 0 {
		return false
	}

	allDefenders := append(append([]board.Placement{}, firstDef...), secondDef...)
	allAttackers := append(append([]board.Placement{}, firstAtt...), secondAtt...)

	// (1) Both lowest attackers combined are strictly less valuable than every defender, and
	// there are >= 2 first attackers.
	if len(firstAtt) >= 2 && len(allDefenders) > 0 {
		combined := firstAtt[0].Piece.RoughValue() + firstAtt[1].Piece.RoughValue()
		allWeaker := true
		for _, d := range allDefenders {
			if combined >= d.Piece.RoughValue() {
				allWeaker = false
				break
			}
		}
		if allWeaker {
			return true
		}
	}

	// (2) #attackers > #defenders, with sub-cases.
	if len(allAttackers) > len(allDefenders) {
		switch {
		case len(allDefenders) == 0:
			return true
		case len(firstDef) == 0:
			return true
		case len(allDefenders) == 1 && allDefenders[0].Piece == board.King:
			return true
		default:
			cheapestAttacker := firstAtt[0].Piece.RoughValue()
			cheapestDefender := allDefenders[0].Piece.RoughValue()
			for _, d := range allDefenders {
				if d.Piece.RoughValue() < cheapestDefender {
					cheapestDefender = d.Piece.RoughValue()
				}
			}
			if cheapestAttacker+victim.RoughValue() < cheapestDefender+victim.RoughValue() {
				return true
			}
		}
	}
	return false
}

// IsFreeToTrade reports whether attackingSide can capture the piece on sq with a lower-
// valued piece than the victim, winning material even if recaptured (spec 4.2).
func (cl *Classifier) IsFreeToTrade(attackingSide board.Color, sq board.Square) (board.PieceType, int, bool) {
	pos := cl.c.Board().Position()
	if pos.IsEmpty(sq) {
		return board.NoPiece, 0, false
	}
	victimColor, victim, _ := pos.PieceAt(sq)
	if victimColor != attackingSide.Opponent() {
		return board.NoPiece, 0, false
	}

	firstAtt, _, _, _ := cl.c.AttackersAndDefenders(attackingSide, sq)
	if len(firstAtt) == 0 {
		return board.NoPiece, 0, false
	}
	attacker := firstAtt[0]
	if attacker.Piece.RoughValue() >= victim.RoughValue() {
		return board.NoPiece, 0, false
	}
	return victim, victim.RoughValue() - attacker.Piece.RoughValue(), true
}
