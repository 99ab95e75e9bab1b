package engine

import "github.com/hailam/whitecore/internal/board"

// seeValue is the exchange value of each piece type; the king is free
// because capturing it never happens.
var seeValue = [board.NoPieceType + 1]int{100, 300, 300, 500, 900, 0, 0}

// SEE reports whether the exchange started by m on its destination square
// nets at least threshold for the side making it, with both sides always
// recapturing with their least valuable attacker and free to stop early.
// Promotions and en passant are always accepted.
func SEE(pos *board.Position, m board.Move, threshold int) bool {
	if m.IsPromotion() || m.IsEnPassant() {
		return true
	}
	from, to := m.From(), m.To()

	swap := seeValue[pos.PieceOn(to).Type()] - threshold
	if swap < 0 {
		return false
	}
	swap = seeValue[pos.PieceOn(from).Type()] - swap
	if swap <= 0 {
		return true
	}

	occ := pos.All() ^ board.SquareBB(from) ^ board.SquareBB(to)
	attackers := pos.AttackersTo(to, occ)
	bishops := pos.PiecesOfType(board.Bishop) | pos.PiecesOfType(board.Queen)
	rooks := pos.PiecesOfType(board.Rook) | pos.PiecesOfType(board.Queen)

	stm := pos.SideToMove()
	res := 1
	for {
		stm = stm.Other()
		attackers &= occ
		stmAttackers := attackers & pos.Occupied(stm)
		if stmAttackers == 0 {
			break
		}
		res ^= 1

		pt := board.Pawn
		for ; pt < board.King; pt++ {
			if stmAttackers&pos.Pieces(stm, pt) != 0 {
				break
			}
		}
		if pt == board.King {
			// The king may only take last; if the other side still has an
			// attacker the capture is illegal and the side flips back.
			if attackers&^pos.Occupied(stm) != 0 {
				return res^1 == 1
			}
			return res == 1
		}

		swap = seeValue[pt] - swap
		if swap < res {
			break
		}
		occ ^= board.SquareBB((stmAttackers & pos.Pieces(stm, pt)).LSB())

		switch pt {
		case board.Pawn, board.Bishop:
			attackers |= board.BishopAttacks(to, occ) & bishops
		case board.Rook:
			attackers |= board.RookAttacks(to, occ) & rooks
		case board.Queen:
			attackers |= board.BishopAttacks(to, occ)&bishops | board.RookAttacks(to, occ)&rooks
		}
	}
	return res == 1
}
