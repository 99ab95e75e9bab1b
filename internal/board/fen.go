package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrIllegalMove = errors.New("illegal move")
)

// ParseFEN builds a position from Forsyth-Edwards Notation. The halfmove and
// fullmove fields are optional.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: expected at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}

	p := &Position{fullMove: 1}
	for i := range p.board {
		p.board[i] = NoPiece
	}

	rank, file := 7, 0
	for i := 0; i < len(fields[0]); i++ {
		c := fields[0][i]
		switch {
		case c == '/':
			if file != 8 || rank == 0 {
				return nil, fmt.Errorf("%w: malformed rank %d", ErrInvalidFEN, rank+1)
			}
			rank, file = rank-1, 0
		case c >= '1' && c <= '8':
			file += int(c - '0')
		default:
			pc := pieceFromChar(c)
			if pc == NoPiece || file > 7 {
				return nil, fmt.Errorf("%w: unexpected %q in placement", ErrInvalidFEN, c)
			}
			p.put(pc, NewSquare(file, rank), nil)
			file++
		}
		if file > 8 {
			return nil, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, rank+1)
		}
	}
	if rank != 0 || file != 8 {
		return nil, fmt.Errorf("%w: placement does not cover 64 squares", ErrInvalidFEN)
	}
	if p.pieces[White][King].Count() != 1 || p.pieces[Black][King].Count() != 1 {
		return nil, fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	if (p.PiecesOfType(Pawn) & (Rank1 | Rank8)) != 0 {
		return nil, fmt.Errorf("%w: pawn on back rank", ErrInvalidFEN)
	}

	switch fields[1] {
	case "w":
		p.sideToMove = White
	case "b":
		p.sideToMove = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	st := StateInfo{EnPassant: NoSquare, Captured: NoPiece}
	if fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			switch fields[2][i] {
			case 'K':
				st.Castling |= WhiteOO
			case 'Q':
				st.Castling |= WhiteOOO
			case 'k':
				st.Castling |= BlackOO
			case 'q':
				st.Castling |= BlackOOO
			default:
				return nil, fmt.Errorf("%w: castling %q", ErrInvalidFEN, fields[2])
			}
		}
	}
	st.Castling &= p.possibleCastling()

	if fields[3] != "-" {
		ep, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
		}
		if pawnAttacks[p.sideToMove.Other()][ep]&p.pieces[p.sideToMove][Pawn] != 0 {
			st.EnPassant = ep
		}
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: halfmove clock %q", ErrInvalidFEN, fields[4])
		}
		st.HalfMove = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: fullmove number %q", ErrInvalidFEN, fields[5])
		}
		p.fullMove = n
	}

	if p.attacked(p.KingSquare(p.sideToMove.Other()), p.sideToMove) {
		return nil, fmt.Errorf("%w: side not to move is in check", ErrInvalidFEN)
	}

	st.Key, st.PawnKey = p.computeKeys(st)
	st.Checkers = p.AttackersTo(p.KingSquare(p.sideToMove), p.All()) & p.occupied[p.sideToMove.Other()]
	p.states = make([]StateInfo, 1, 2*MaxMoves)
	p.states[0] = st
	return p, nil
}

// possibleCastling drops rights whose king or rook is not at home.
func (p *Position) possibleCastling() CastlingRights {
	var rights CastlingRights
	for c := White; c <= Black; c++ {
		for _, cs := range castleSpecs[c] {
			rookFrom, _ := castleRookSquares(cs.to)
			if p.board[cs.king] == NewPiece(King, c) && p.board[rookFrom] == NewPiece(Rook, c) {
				rights |= cs.right
			}
		}
	}
	return rights
}

func (p *Position) computeKeys(st StateInfo) (key, pawnKey uint64) {
	for b := p.All(); b != 0; {
		sq := b.PopLSB()
		pc := p.board[sq]
		key ^= pieceKeys[pc][sq]
		if pc.Type() == Pawn {
			pawnKey ^= pieceKeys[pc][sq]
		}
	}
	key ^= castlingKeys[st.Castling]
	if st.EnPassant != NoSquare {
		key ^= enPassantKeys[st.EnPassant.File()]
	}
	if p.sideToMove == Black {
		key ^= sideKey
	}
	return key, pawnKey
}

// FEN returns the position in Forsyth-Edwards Notation.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	st := p.st()
	sb.WriteByte(' ')
	sb.WriteString(p.sideToMove.String())
	sb.WriteByte(' ')
	if st.Castling == 0 {
		sb.WriteByte('-')
	}
	for i, c := range "KQkq" {
		if st.Castling&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	fmt.Fprintf(&sb, " %s %d %d", st.EnPassant, st.HalfMove, p.fullMove)
	return sb.String()
}
