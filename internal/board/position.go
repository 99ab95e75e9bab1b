package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a 4-bit set of the remaining castling options.
type CastlingRights uint8

const (
	WhiteOO CastlingRights = 1 << iota
	WhiteOOO
	BlackOO
	BlackOOO
	AllCastling = WhiteOO | WhiteOOO | BlackOO | BlackOOO
)

// castlingKeep[sq] holds the rights that survive a move touching sq.
var castlingKeep [64]CastlingRights

func init() {
	for sq := range castlingKeep {
		castlingKeep[sq] = AllCastling
	}
	castlingKeep[E1] &^= WhiteOO | WhiteOOO
	castlingKeep[H1] &^= WhiteOO
	castlingKeep[A1] &^= WhiteOOO
	castlingKeep[E8] &^= BlackOO | BlackOOO
	castlingKeep[H8] &^= BlackOO
	castlingKeep[A8] &^= BlackOOO
}

// Observer receives piece placement changes made by MakeMove so that an
// evaluator can keep incremental features in sync. Push is called before a
// move changes the board and Pop when UndoMove restores it; Activate and
// Deactivate are only reported between the two.
type Observer interface {
	Push()
	Pop()
	Activate(pc Piece, sq Square)
	Deactivate(pc Piece, sq Square)
}

// StateInfo is the irreversible part of a position, one entry per ply.
type StateInfo struct {
	Key           uint64
	PawnKey       uint64
	Castling      CastlingRights
	EnPassant     Square
	HalfMove      int
	PliesFromNull int
	Captured      Piece
	Checkers      Bitboard
}

// Position is a chess position together with the history that led to it.
type Position struct {
	board      [64]Piece
	pieces     [2][6]Bitboard
	occupied   [2]Bitboard
	sideToMove Color
	fullMove   int
	states     []StateInfo
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// Clone returns a deep copy, history included.
func (p *Position) Clone() *Position {
	c := *p
	c.states = make([]StateInfo, len(p.states), len(p.states)+2*MaxMoves)
	copy(c.states, p.states)
	return &c
}

func (p *Position) st() *StateInfo {
	return &p.states[len(p.states)-1]
}

func (p *Position) SideToMove() Color        { return p.sideToMove }
func (p *Position) Key() uint64              { return p.st().Key }
func (p *Position) PawnKey() uint64          { return p.st().PawnKey }
func (p *Position) HalfMoveClock() int       { return p.st().HalfMove }
func (p *Position) EnPassant() Square        { return p.st().EnPassant }
func (p *Position) Castling() CastlingRights { return p.st().Castling }
func (p *Position) Checkers() Bitboard       { return p.st().Checkers }
func (p *Position) InCheck() bool            { return p.st().Checkers != 0 }
func (p *Position) PieceOn(sq Square) Piece  { return p.board[sq] }

// Pieces returns the squares holding pieces of type pt and color c.
func (p *Position) Pieces(c Color, pt PieceType) Bitboard {
	return p.pieces[c][pt]
}

// PiecesOfType returns pieces of type pt for both colors.
func (p *Position) PiecesOfType(pt PieceType) Bitboard {
	return p.pieces[White][pt] | p.pieces[Black][pt]
}

func (p *Position) Occupied(c Color) Bitboard {
	return p.occupied[c]
}

func (p *Position) All() Bitboard {
	return p.occupied[White] | p.occupied[Black]
}

// KingSquare returns the square of c's king.
func (p *Position) KingSquare(c Color) Square {
	return p.pieces[c][King].LSB()
}

// GamePly counts half moves since the start of the game.
func (p *Position) GamePly() int {
	ply := 2 * (p.fullMove - 1)
	if p.sideToMove == Black {
		ply++
	}
	return ply
}

// HasNonPawnMaterial reports whether c has anything besides pawns and king.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	return p.pieces[c][Knight]|p.pieces[c][Bishop]|p.pieces[c][Rook]|p.pieces[c][Queen] != 0
}

// AttackersTo returns pieces of both colors attacking sq when the board
// occupancy is occ. Sliders are resolved against occ, so callers removing
// pieces from occ see x-ray attackers; they must mask removed pieces out.
func (p *Position) AttackersTo(sq Square, occ Bitboard) Bitboard {
	bishops := p.PiecesOfType(Bishop) | p.PiecesOfType(Queen)
	rooks := p.PiecesOfType(Rook) | p.PiecesOfType(Queen)
	return pawnAttacks[Black][sq]&p.pieces[White][Pawn] |
		pawnAttacks[White][sq]&p.pieces[Black][Pawn] |
		knightAttacks[sq]&p.PiecesOfType(Knight) |
		kingAttacks[sq]&p.PiecesOfType(King) |
		BishopAttacks(sq, occ)&bishops |
		RookAttacks(sq, occ)&rooks
}

func (p *Position) attacked(sq Square, by Color) bool {
	return p.AttackersTo(sq, p.All())&p.occupied[by] != 0
}

func (p *Position) put(pc Piece, sq Square, obs Observer) {
	b := SquareBB(sq)
	p.board[sq] = pc
	p.pieces[pc.Color()][pc.Type()] |= b
	p.occupied[pc.Color()] |= b
	if obs != nil {
		obs.Activate(pc, sq)
	}
}

func (p *Position) remove(sq Square, obs Observer) Piece {
	pc := p.board[sq]
	b := SquareBB(sq)
	p.board[sq] = NoPiece
	p.pieces[pc.Color()][pc.Type()] &^= b
	p.occupied[pc.Color()] &^= b
	if obs != nil {
		obs.Deactivate(pc, sq)
	}
	return pc
}

func (p *Position) relocate(from, to Square, obs Observer) {
	p.put(p.remove(from, obs), to, obs)
}

func castleRookSquares(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// MakeMove plays a legal move. obs may be nil.
func (p *Position) MakeMove(m Move, obs Observer) {
	from, to, flag := m.From(), m.To(), m.Flag()
	pc := p.board[from]
	if pc == NoPiece {
		panic(fmt.Sprintf("board: move %s from empty square in %s", m, p.FEN()))
	}
	us, them := p.sideToMove, p.sideToMove.Other()

	prev := p.st()
	st := StateInfo{
		Key:           prev.Key ^ sideKey,
		PawnKey:       prev.PawnKey,
		Castling:      prev.Castling,
		EnPassant:     NoSquare,
		HalfMove:      prev.HalfMove + 1,
		PliesFromNull: prev.PliesFromNull + 1,
		Captured:      NoPiece,
	}
	if prev.EnPassant != NoSquare {
		st.Key ^= enPassantKeys[prev.EnPassant.File()]
	}
	if obs != nil {
		obs.Push()
	}

	if m.IsCastle() {
		rookFrom, rookTo := castleRookSquares(to)
		rook := NewPiece(Rook, us)
		p.relocate(rookFrom, rookTo, obs)
		st.Key ^= pieceKeys[rook][rookFrom] ^ pieceKeys[rook][rookTo]
	} else if m.IsCapture() {
		capSq := to
		if flag == FlagEnPassant {
			capSq = to ^ 8
		}
		captured := p.remove(capSq, obs)
		st.Captured = captured
		st.Key ^= pieceKeys[captured][capSq]
		if captured.Type() == Pawn {
			st.PawnKey ^= pieceKeys[captured][capSq]
		}
		st.HalfMove = 0
	}

	p.relocate(from, to, obs)
	st.Key ^= pieceKeys[pc][from] ^ pieceKeys[pc][to]

	if pc.Type() == Pawn {
		st.HalfMove = 0
		st.PawnKey ^= pieceKeys[pc][from] ^ pieceKeys[pc][to]
		if flag == FlagDoublePush {
			ep := (from + to) / 2
			if pawnAttacks[us][ep]&p.pieces[them][Pawn] != 0 {
				st.EnPassant = ep
				st.Key ^= enPassantKeys[ep.File()]
			}
		} else if m.IsPromotion() {
			promo := NewPiece(m.Promotion(), us)
			p.remove(to, obs)
			p.put(promo, to, obs)
			st.Key ^= pieceKeys[pc][to] ^ pieceKeys[promo][to]
			st.PawnKey ^= pieceKeys[pc][to]
		}
	}

	if st.Castling != 0 {
		st.Castling &= castlingKeep[from] & castlingKeep[to]
		st.Key ^= castlingKeys[prev.Castling] ^ castlingKeys[st.Castling]
	}

	p.sideToMove = them
	if us == Black {
		p.fullMove++
	}
	st.Checkers = p.AttackersTo(p.KingSquare(them), p.All()) & p.occupied[us]
	p.states = append(p.states, st)
}

// UndoMove takes back m, which must be the last move made. obs must be the
// observer passed to the matching MakeMove.
func (p *Position) UndoMove(m Move, obs Observer) {
	st := p.states[len(p.states)-1]
	p.states = p.states[:len(p.states)-1]
	p.sideToMove = p.sideToMove.Other()
	us := p.sideToMove
	if us == Black {
		p.fullMove--
	}

	from, to := m.From(), m.To()
	if m.IsPromotion() {
		p.remove(to, nil)
		p.put(NewPiece(Pawn, us), to, nil)
	}
	p.relocate(to, from, nil)

	if m.IsCastle() {
		rookFrom, rookTo := castleRookSquares(to)
		p.relocate(rookTo, rookFrom, nil)
	} else if st.Captured != NoPiece {
		capSq := to
		if m.IsEnPassant() {
			capSq = to ^ 8
		}
		p.put(st.Captured, capSq, nil)
	}
	if obs != nil {
		obs.Pop()
	}
}

// MakeNullMove passes the turn. The side to move must not be in check.
func (p *Position) MakeNullMove() {
	st := *p.st()
	st.Key ^= sideKey
	if st.EnPassant != NoSquare {
		st.Key ^= enPassantKeys[st.EnPassant.File()]
		st.EnPassant = NoSquare
	}
	st.HalfMove++
	st.PliesFromNull = 0
	st.Captured = NoPiece
	st.Checkers = 0
	p.sideToMove = p.sideToMove.Other()
	p.states = append(p.states, st)
}

func (p *Position) UndoNullMove() {
	p.states = p.states[:len(p.states)-1]
	p.sideToMove = p.sideToMove.Other()
}

// KeyAfter approximates the key after m. Castling, en passant and
// promotion details are ignored; it is meant for prefetching only.
func (p *Position) KeyAfter(m Move) uint64 {
	from, to := m.From(), m.To()
	pc := p.board[from]
	k := p.st().Key ^ sideKey ^ pieceKeys[pc][from] ^ pieceKeys[pc][to]
	if captured := p.board[to]; captured != NoPiece {
		k ^= pieceKeys[captured][to]
	}
	return k
}

// IsDraw reports fifty-move, insufficient material and repetition draws.
// A PV node only counts a threefold repetition; elsewhere one earlier
// occurrence is enough.
func (p *Position) IsDraw(pvNode bool) bool {
	st := p.st()
	if st.HalfMove >= 100 {
		if st.Checkers == 0 {
			return true
		}
		var buf [MaxMoves]Move
		return len(p.GenerateMoves(buf[:0])) > 0
	}
	if p.insufficientMaterial() {
		return true
	}

	need := 1
	if pvNode {
		need = 2
	}
	window := min(st.HalfMove, st.PliesFromNull)
	count := 0
	for i := 4; i <= window; i += 2 {
		idx := len(p.states) - 1 - i
		if idx < 0 {
			break
		}
		if p.states[idx].Key == st.Key {
			count++
			if count >= need {
				return true
			}
		}
	}
	return false
}

func (p *Position) insufficientMaterial() bool {
	if p.PiecesOfType(Pawn)|p.PiecesOfType(Rook)|p.PiecesOfType(Queen) != 0 {
		return false
	}
	return (p.PiecesOfType(Knight) | p.PiecesOfType(Bishop)).Count() <= 1
}

// ParseMove finds the legal move written in UCI notation.
func (p *Position) ParseMove(s string) (Move, error) {
	var buf [MaxMoves]Move
	for _, m := range p.GenerateMoves(buf[:0]) {
		if m.String() == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

// String draws the board, white at the bottom.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteString(" +---+---+---+---+---+---+---+---+\n |")
		for file := 0; file < 8; file++ {
			fmt.Fprintf(&sb, " %s |", p.board[NewSquare(file, rank)])
		}
		fmt.Fprintf(&sb, " %d\n", rank+1)
	}
	sb.WriteString(" +---+---+---+---+---+---+---+---+\n   a   b   c   d   e   f   g   h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\nKey: %016X\n", p.FEN(), p.Key())
	return sb.String()
}
