package eval

import "github.com/mwkent/chess-ai/pkg/board"

// endgameMaterialThreshold is the total non-king, non-pawn material (in centipawns, summed
// over both sides) below which the specialized endgame terms take over from the general
// evaluator's piece-square terms: "below one minor piece per side" (SPEC_FULL supplemented
// feature, grounded on the original's endgame.py).
const endgameMaterialThreshold = 2 * board.BishopValue

// IsEndgame reports whether pos has little enough non-pawn material that the specialized
// endgame evaluation (king activity/opposition, pawn races) should be used in place of the
// general piece-square evaluator.
func IsEndgame(pos *board.Position) bool {
	return nonPawnMaterial(pos, board.White)+nonPawnMaterial(pos, board.Black) < endgameMaterialThreshold
}

func nonPawnMaterial(pos *board.Position, c board.Color) int {
	total := 0
	for _, pt := range []board.PieceType{board.Knight, board.Bishop, board.Rook, board.Queen} {
		total += pos.Piece(c, pt).PopCount() * pt.Value()
	}
	return total
}

// EvaluateEndgame scores a low-material position by king activity/opposition and pawn-race
// distance to promotion rather than the general evaluator's middlegame terms, which
// overvalue piece mobility/safety that no longer matters once material is this thin.
func EvaluateEndgame(c *BoardCache, evaluatingSide board.Color) Score {
	pos := c.Board().Position()

	var score Score
	for col := board.ZeroColor; col < board.NumColors; col++ {
		unit := Unit(col)
		if col != evaluatingSide {
			unit = -unit
		}

		king := pos.King(col)
		score += unit * Score(kingActivityScore(king))

		for _, sq := range pos.Piece(col, board.Pawn).ToSquares() {
			score += unit * Score(pawnRaceScore(pos, col, sq))
		}
		for _, pt := range []board.PieceType{board.Knight, board.Bishop, board.Rook, board.Queen} {
			score += unit * Score(pos.Piece(col, pt).PopCount()*pt.Value())
		}
	}

	if oppOpposition(pos) {
		// The side NOT to move holds the opposition: a small bonus since it constrains the
		// side to move's king in king-and-pawn endings.
		if pos.Piece(board.White, board.Pawn).PopCount()+pos.Piece(board.Black, board.Pawn).PopCount() > 0 {
			turn := c.Board().Turn()
			unit := Unit(turn)
			if turn != evaluatingSide {
				unit = -unit
			}
			score -= unit * 10
		}
	}

	return Crop(score)
}

// kingActivityScore rewards central king squares: in the endgame the king is an attacking
// piece, the opposite of its opening-phase safety incentive.
func kingActivityScore(sq board.Square) int {
	fileDist := centerDistance(int(sq.File()))
	rankDist := centerDistance(int(sq.Rank()))
	return (6 - fileDist - rankDist) * 5
}

func centerDistance(f int) int {
	d := f - 3
	if d < 0 {
		d = -d
	}
	if f >= 4 {
		d = f - 4
		if d < 0 {
			d = -d
		}
	}
	return d
}

// pawnRaceScore rewards pawns by distance-to-promotion, steeply for passed pawns.
func pawnRaceScore(pos *board.Position, c board.Color, sq board.Square) int {
	rank := int(sq.Rank())
	dist := 7 - rank
	if c == board.Black {
		dist = rank
	}
	bonus := (6 - dist) * (6 - dist)
	if IsPassedPawn(pos, c, sq) {
		bonus *= 3
	}
	return bonus
}

// oppOpposition is a coarse opposition check: true when the kings face each other on the
// same file or rank with exactly one square between them.
func oppOpposition(pos *board.Position) bool {
	w := pos.King(board.White)
	b := pos.King(board.Black)
	if w.File() == b.File() {
		return abs(int(w.Rank())-int(b.Rank())) == 2
	}
	if w.Rank() == b.Rank() {
		return abs(int(w.File())-int(b.File())) == 2
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
