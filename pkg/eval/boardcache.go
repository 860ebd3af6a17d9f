package eval

import (
	"sort"

	"github.com/mwkent/chess-ai/pkg/board"
)

// BoardCache wraps a Board with per-position memoized derived facts: game phase and
// attacker/defender sets. Reimplemented as composition rather than inheritance: the cache
// lives next to the Board and forwards the primitive interface, instead of extending it
// (spec 9, Design Notes: "Deep inheritance on Board"). Caches are invalidated on every
// push/pop (spec 3, BoardCache).
type BoardCache struct {
	b *board.Board

	phase     [board.NumColors]*int // nil until computed; in permille, 0..1000
	attackers [board.NumSquares]*attackersAndDefenders
	soft      [board.NumSquares]*attackersAndDefenders
}

// AttackersAndDefenders is the memoized 4-tuple for a square (spec 3, BoardCache).
type attackersAndDefenders struct {
	firstAttackers, secondAttackers []board.Placement
	firstDefenders, secondDefenders []board.Placement
}

func NewBoardCache(b *board.Board) *BoardCache {
	return &BoardCache{b: b}
}

func (c *BoardCache) Board() *board.Board { return c.b }

func (c *BoardCache) clear() {
	c.phase = [board.NumColors]*int{}
	c.attackers = [board.NumSquares]*attackersAndDefenders{}
	c.soft = [board.NumSquares]*attackersAndDefenders{}
}

// PushMove pushes a move through the underlying board and invalidates all caches.
func (c *BoardCache) PushMove(m board.Move) bool {
	ok := c.b.PushMove(m)
	if ok {
		c.clear()
	}
	return ok
}

// PopMove pops a move from the underlying board and invalidates all caches.
func (c *BoardCache) PopMove() (board.Move, bool) {
	m, ok := c.b.PopMove()
	if ok {
		c.clear()
	}
	return m, ok
}

// Phase returns the memoized game phase for color, derived from the non-pawn material of
// the side *not* color: 0 = full opening material, 1 = endgame (spec 3, Phase).
func (c *BoardCache) Phase(color board.Color) float64 {
	if c.phase[color] != nil {
		return float64(*c.phase[color]) / 1000.0
	}

	opp := color.Opponent()
	pos := c.b.Position()

	r := pos.Piece(opp, board.Rook).PopCount() * board.RookValue
	b := pos.Piece(opp, board.Bishop).PopCount() * board.BishopValue
	n := pos.Piece(opp, board.Knight).PopCount() * board.KnightValue
	q := pos.Piece(opp, board.Queen).PopCount() * board.QueenValue
	total := r + b + n + q

	rb := 2*board.RookValue + 2*board.BishopValue + 2*board.KnightValue // "(R+B)" of the starting army, minor+major baseline
	twoQ := 2 * board.QueenValue
	span := twoQ - rb
	if span <= 0 {
		span = 1
	}

	clamped := total - rb
	if clamped < 0 {
		clamped = 0
	}
	if clamped > span {
		clamped = span
	}
	phase := 1.0 - float64(clamped)/float64(span)

	millis := int(phase * 1000)
	c.phase[color] = &millis
	return phase
}

// AttackersAndDefenders returns the four ordered attacker/defender sequences for sq, where
// color is the "attacking" side under consideration (spec 4.1).
func (c *BoardCache) AttackersAndDefenders(color board.Color, sq board.Square) ([]board.Placement, []board.Placement, []board.Placement, []board.Placement) {
	cached := c.attackers[sq]
	if cached == nil {
		cached = c.computeAttackersAndDefenders(sq, false)
		c.attackers[sq] = cached
	}
	return placementsOf(cached.firstAttackers, color), placementsOf(cached.secondAttackers, color),
		placementsOf(cached.firstDefenders, color.Opponent()), placementsOf(cached.secondDefenders, color.Opponent())
}

// SoftAttackersAndDefenders is the variant excluding soft-pinned defenders (spec 3).
func (c *BoardCache) SoftAttackersAndDefenders(color board.Color, sq board.Square) ([]board.Placement, []board.Placement, []board.Placement, []board.Placement) {
	cached := c.soft[sq]
	if cached == nil {
		cached = c.computeAttackersAndDefenders(sq, true)
		c.soft[sq] = cached
	}
	return placementsOf(cached.firstAttackers, color), placementsOf(cached.secondAttackers, color),
		placementsOf(cached.firstDefenders, color.Opponent()), placementsOf(cached.secondDefenders, color.Opponent())
}

// placementsOf filters a combined (both colors) sequence to a single color, preserving
// ascending value order.
func placementsOf(all []board.Placement, color board.Color) []board.Placement {
	var ret []board.Placement
	for _, p := range all {
		if p.Color == color {
			ret = append(ret, p)
		}
	}
	return ret
}

// computeAttackersAndDefenders builds the tuple for both colors at once (defenders of
// White are attackers of Black, from the square's point of view).
func (c *BoardCache) computeAttackersAndDefenders(sq board.Square, excludeSoftPinned bool) *attackersAndDefenders {
	ret := &attackersAndDefenders{}

	for color := board.ZeroColor; color < board.NumColors; color++ {
		first := c.firstAttackers(color, sq)
		if excludeSoftPinned {
			first = filterOutSoftPinned(c, color, first)
		}
		second := c.secondAttackers(color, sq, first)

		ret.firstAttackers = append(ret.firstAttackers, first...)
		ret.secondAttackers = append(ret.secondAttackers, second...)
	}
	// Defenders of a square, from a color's perspective, are simply the attackers of the
	// opposite color converted into the "can legally recapture here" frame: the caller picks
	// out attacker/defender by color relative to the square's occupant, so both sequences
	// below actually carry the same data, split by color, as attackers does.
	ret.firstDefenders = ret.firstAttackers
	ret.secondDefenders = ret.secondAttackers
	return ret
}

// firstAttackers returns color's pieces that attack sq and are either not absolutely
// pinned, or pinned along a ray that still contains sq (spec 4.1). A king only counts if
// recapturing there would be legal, i.e., sq is not defended by the opponent; callers treat
// the king as an attacker of effectively infinite value for swap evaluation.
func (c *BoardCache) firstAttackers(color board.Color, sq board.Square) []board.Placement {
	pos := c.b.Position()
	bb := pos.Attackers(color, sq)

	var ret []board.Placement
	for _, from := range bb.ToSquares() {
		_, pt, ok := pos.PieceAt(from)
		if !ok {
			continue
		}
		if pt == board.King {
			if pos.IsAttacked(color, sq) && pos.Attackers(color.Opponent(), sq) != 0 {
				// opponent still defends sq: the king may not legally capture there.
				continue
			}
		}
		if ray, pinned := pos.Pin(color, from); pinned && !ray.IsSet(sq) {
			continue // absolutely pinned, and sq is not along the pin ray
		}
		ret = append(ret, board.Placement{Square: from, Color: color, Piece: pt})
	}
	return SortByNominalValue(ret)
}

// secondAttackers finds battery members behind first-rank attackers, plus pieces excluded
// from first only because they are pinned from the opposite side of the x-ray (spec 4.1).
func (c *BoardCache) secondAttackers(color board.Color, sq board.Square, first []board.Placement) []board.Placement {
	pos := c.b.Position()
	occ := pos.Occupied()
	firstSquares := board.EmptyBitboard
	for _, p := range first {
		firstSquares |= board.BitMask(p.Square)
	}

	var ret []board.Placement
	seen := map[board.Square]bool{}
	for _, p := range first {
		if p.Piece != board.Bishop && p.Piece != board.Rook && p.Piece != board.Queen && p.Piece != board.Pawn {
			continue
		}
		ray := board.Ray(sq, p.Square)
		if ray == 0 {
			continue
		}
		// Pieces of color on the ray beyond p, not shielded by anything else (x-ray): remove
		// p's own square from occupancy and look for the next slider along the ray.
		occWithoutP := occ &^ board.BitMask(p.Square)
		beyond := board.Attackboard(occWithoutP, sq, sliderKind(p.Piece)) & ray & pos.Color(color) &^ firstSquares
		for _, from := range beyond.ToSquares() {
			if seen[from] {
				continue
			}
			_, pt, ok := pos.PieceAt(from)
			if !ok || (pt != board.Bishop && pt != board.Rook && pt != board.Queen) {
				continue
			}
			if ray2, pinned := pos.Pin(color, from); pinned && !ray2.IsSet(sq) {
				continue
			}
			seen[from] = true
			ret = append(ret, board.Placement{Square: from, Color: color, Piece: pt})
		}
	}

	// Pieces pinned from the far side of the square's x-ray: legal recapturers only once the
	// pinner is removed.
	bb := pos.Color(color)
	for _, from := range bb.ToSquares() {
		if firstSquares.IsSet(from) {
			continue
		}
		_, pt, _ := pos.PieceAt(from)
		if pt == board.NoPiece {
			continue
		}
		if !pos.Attacks(from).IsSet(sq) {
			continue
		}
		if ray, pinned := pos.Pin(color, from); pinned && !ray.IsSet(sq) {
			if !seen[from] {
				seen[from] = true
				ret = append(ret, board.Placement{Square: from, Color: color, Piece: pt})
			}
		}
	}

	return SortByNominalValue(ret)
}

// filterOutSoftPinned drops placements whose piece is soft pinned, for the "soft" variant
// of attackers/defenders that excludes soft-pinned defenders (spec 3, soft_attackers_defenders).
func filterOutSoftPinned(c *BoardCache, color board.Color, placements []board.Placement) []board.Placement {
	var ret []board.Placement
	for _, p := range placements {
		if !c.SoftPinned(color, p.Square) {
			ret = append(ret, p)
		}
	}
	return ret
}

func sliderKind(p board.PieceType) board.PieceType {
	if p == board.Pawn {
		return board.Rook // pawns only enter batteries along a file, like a rook
	}
	return p
}

// SoftPinned reports whether the piece of color c on sq is soft pinned: some enemy slider
// x-rays through it to a piece of color c that is either undefended or strictly more
// valuable than the pinner (spec 4.1).
func (c *BoardCache) SoftPinned(color board.Color, sq board.Square) bool {
	pos := c.b.Position()
	if !pos.Color(color).IsSet(sq) {
		return false
	}

	opp := color.Opponent()
	occWithoutSq := pos.Occupied() &^ board.BitMask(sq)

	for _, dirPiece := range []board.PieceType{board.Bishop, board.Rook} {
		sliders := board.Attackboard(pos.Occupied(), sq, dirPiece) & (pos.Piece(opp, dirPiece) | pos.Piece(opp, board.Queen))
		for _, pinner := range sliders.ToSquares() {
			ray := board.Ray(sq, pinner)
			behind := board.Attackboard(occWithoutSq, sq, dirPiece) &^ board.Attackboard(pos.Occupied(), sq, dirPiece) & ray
			for _, target := range behind.ToSquares() {
				tc, tp, ok := pos.PieceAt(target)
				if !ok || tc != color {
					continue
				}
				_, pinnerType, _ := pos.PieceAt(pinner)
				if !c.hasDefender(color, target) || tp.RoughValue() > pinnerType.RoughValue() {
					return true
				}
			}
		}
	}
	return false
}

func (c *BoardCache) hasDefender(color board.Color, sq board.Square) bool {
	_, _, firstDef, _ := c.AttackersAndDefenders(color.Opponent(), sq)
	for _, d := range firstDef {
		if ray, pinned := c.b.Position().Pin(color, d.Square); !pinned || ray.IsSet(sq) {
			return true
		}
	}
	return false
}

// GivesCheckmate reports whether playing m results in checkmate (spec 4.1).
func (c *BoardCache) GivesCheckmate(m board.Move) bool {
	if !c.PushMove(m) {
		return false
	}
	defer c.PopMove()

	turn := c.b.Turn()
	isMate := len(c.b.Position().LegalMoves(turn)) == 0 && c.b.Position().IsChecked(turn)
	return isMate
}

// GetCastlingRook returns the rook squares for a castling move, scanning the backrank by
// side rather than assuming the A/H files so Chess960 games castle correctly; kept in the
// cache rather than the primitives layer (spec 4.1, 9: Chess960 castling).
func (c *BoardCache) GetCastlingRook(turn board.Color, m board.Move) board.CastlingRook {
	if !c.b.Chess960() {
		return board.StandardRookSquares(turn, m.Type == board.KingSideCastle)
	}

	pos := c.b.Position()
	rank := board.Rank1
	if turn == board.Black {
		rank = board.Rank8
	}

	rooks := pos.Piece(turn, board.Rook) & board.BitRank(rank)
	squares := rooks.ToSquares()
	sort.Slice(squares, func(i, j int) bool { return squares[i] < squares[j] })

	if len(squares) == 0 {
		return board.StandardRookSquares(turn, m.Type == board.KingSideCastle)
	}
	if m.Type == board.KingSideCastle {
		from := squares[len(squares)-1]
		return board.CastlingRook{From: from, To: board.NewSquare(board.FileF, rank)}
	}
	from := squares[0]
	return board.CastlingRook{From: from, To: board.NewSquare(board.FileD, rank)}
}

// SortByNominalValue orders placements by rough piece value, low to high, the order
// least-valuable-attacker logic depends on (spec 4.1).
func SortByNominalValue(pieces []board.Placement) []board.Placement {
	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].Piece.RoughValue() < pieces[j].Piece.RoughValue()
	})
	return pieces
}
