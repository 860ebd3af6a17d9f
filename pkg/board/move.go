package board

import "fmt"

// MoveType indicates the kind of move, which in turn drives castling/en-passant/promotion
// bookkeeping. The no-progress (50-move) counter resets on any pawn move or capture.
type MoveType uint8

const (
	Normal MoveType = iota
	Jump             // pawn 2-square advance; sets the en passant target
	EnPassant
	KingSideCastle
	QueenSideCastle
	Capture
	Promotion
	CapturePromotion
)

// Move represents a not-necessarily-legal move along with contextual metadata needed to
// make/unmake it cheaply and to classify it without re-deriving facts from the board. A
// null move (From == To == NullSquare) is a legal placeholder meaning "no move" (spec 3).
// Every move filter predicate admits it, but it is never among Position.LegalMoves.
type Move struct {
	Type      MoveType
	From, To  Square
	Piece     PieceType // piece being moved
	Promotion PieceType // desired piece for promotion, if any
	Capture   PieceType // captured piece type, if any (set even for en passant)
}

// Null returns the null move.
func Null() Move {
	return Move{}
}

func (m Move) IsNull() bool {
	return m.From == m.To
}

// ParseMove parses a move in pure algebraic coordinate notation, e.g. "a2a4" or "a7a8q". The
// parsed move carries no contextual metadata (type/piece/capture) -- it must be reconciled
// against a position's legal moves before use.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)
	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: %q", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from square in %q: %w", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to square in %q: %w", str, err)
	}

	if len(runes) == 5 {
		promo, ok := ParsePieceType(runes[4])
		if !ok || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("invalid promotion in %q", str)
		}
		return Move{From: from, To: to, Promotion: promo}, nil
	}
	return Move{From: from, To: to}, nil
}

// Equals compares moves by the fields that make them distinguishable on the wire (uci),
// ignoring derived metadata like Type/Capture that a caller may not have filled in.
func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) IsCapture() bool {
	return m.Type == Capture || m.Type == CapturePromotion || m.Type == EnPassant
}

func (m Move) IsPromotion() bool {
	return m.Type == Promotion || m.Type == CapturePromotion
}

func (m Move) IsCastle() bool {
	return m.Type == KingSideCastle || m.Type == QueenSideCastle
}

func (m Move) IsEnPassant() bool {
	return m.Type == EnPassant
}

// EnPassantCaptureSquare returns the square of the pawn captured en passant -- the rank
// behind the target square, not the target square itself (spec 4.1).
func (m Move) EnPassantCaptureSquare() Square {
	if m.To.Rank() == Rank6 {
		return NewSquare(m.To.File(), Rank5)
	}
	return NewSquare(m.To.File(), Rank4)
}

func (m Move) String() string {
	if m.Promotion.IsValid() {
		return fmt.Sprintf("%v%v%v", m.From, m.To, m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}

// PrintMoves renders a move sequence in coordinate notation, space separated.
func PrintMoves(moves []Move) string {
	s := ""
	for i, m := range moves {
		if i > 0 {
			s += " "
		}
		s += m.String()
	}
	return s
}

// MovePriority assigns a move an ordering weight: higher explored first (spec 4.7, move ordering).
type MovePriority int32

// MovePriorityFn assigns a search-order priority to a move.
type MovePriorityFn func(m Move) MovePriority

// MovePredicateFn is a boolean test over a move, used for shallow-depth move filtering
// (spec 4.7) and tactical classification (spec 4.4). Every predicate used as a search
// move filter must admit the null move (spec 4.7, 8: "soft-tactic filter admits null-move
// fallback") so that the side to move may always pass when no tactical move qualifies.
type MovePredicateFn func(m Move) bool

// AnyMove is the trivial predicate accepting every move, including the null move.
func AnyMove(m Move) bool {
	return true
}

// NoMove is the trivial predicate rejecting every move, including the null move. Used to
// disable an exploration/extension pass entirely.
func NoMove(m Move) bool {
	return false
}
