package board

// Move packs from (bits 0-5), to (bits 6-11) and a 4-bit flag (bits 12-15).
type Move uint16

// Move flags. Bit 2 marks captures, bit 3 promotions; the low two bits of a
// promotion flag select the piece (knight..queen).
const (
	FlagQuiet        = 0
	FlagDoublePush   = 1
	FlagKingCastle   = 2
	FlagQueenCastle  = 3
	FlagCapture      = 4
	FlagEnPassant    = 5
	FlagPromotion    = 8
	FlagPromoCapture = 12
)

const (
	// NoMove is the zero move; it is never legal.
	NoMove Move = 0
	// NullMove passes the turn. It is b1b1, which is never legal either.
	NullMove Move = 1 | 1<<6
)

// MaxMoves bounds the number of legal moves in any position.
const MaxMoves = 256

// NewMove builds a move from its parts.
func NewMove(from, to Square, flag int) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12
}

func (m Move) From() Square { return Square(m & 63) }
func (m Move) To() Square   { return Square(m >> 6 & 63) }
func (m Move) Flag() int    { return int(m >> 12) }

func (m Move) IsCapture() bool   { return m.Flag()&FlagCapture != 0 }
func (m Move) IsPromotion() bool { return m.Flag()&FlagPromotion != 0 }
func (m Move) IsEnPassant() bool { return m.Flag() == FlagEnPassant }

func (m Move) IsCastle() bool {
	f := m.Flag()
	return f == FlagKingCastle || f == FlagQueenCastle
}

// IsQuiet reports moves that neither capture nor promote.
func (m Move) IsQuiet() bool {
	return m.Flag()&(FlagCapture|FlagPromotion) == 0
}

// Promotion returns the promoted piece type, or NoPieceType.
func (m Move) Promotion() PieceType {
	if !m.IsPromotion() {
		return NoPieceType
	}
	return Knight + PieceType(m.Flag()&3)
}

// String returns the move in UCI coordinate notation.
func (m Move) String() string {
	switch m {
	case NoMove:
		return "0000"
	case NullMove:
		return "null"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}
