package board

// GenerateMoves appends all legal moves to buf and returns the extended slice.
func (p *Position) GenerateMoves(buf []Move) []Move {
	start := len(buf)
	return p.filterLegal(p.generate(buf, false), start)
}

// GenerateNoisy appends legal captures and queen promotions to buf.
func (p *Position) GenerateNoisy(buf []Move) []Move {
	start := len(buf)
	return p.filterLegal(p.generate(buf, true), start)
}

// HasLegalMove reports whether the side to move can move at all.
func (p *Position) HasLegalMove() bool {
	var buf [MaxMoves]Move
	return len(p.GenerateMoves(buf[:0])) > 0
}

func (p *Position) filterLegal(moves []Move, start int) []Move {
	n := start
	for _, m := range moves[start:] {
		if p.legal(m) {
			moves[n] = m
			n++
		}
	}
	return moves[:n]
}

// legal checks that a pseudo-legal move does not leave the own king attacked.
// Castling is fully validated by the generator.
func (p *Position) legal(m Move) bool {
	us, them := p.sideToMove, p.sideToMove.Other()
	from, to := m.From(), m.To()

	if p.board[from].Type() == King {
		if m.IsCastle() {
			return true
		}
		occ := p.All() ^ SquareBB(from)
		return p.AttackersTo(to, occ)&p.occupied[them] == 0
	}

	captured := SquareBB(to)
	occ := p.All()&^SquareBB(from) | SquareBB(to)
	if m.IsEnPassant() {
		captured = SquareBB(to ^ 8)
		occ &^= captured
	}
	return p.AttackersTo(p.KingSquare(us), occ)&p.occupied[them]&^captured == 0
}

func (p *Position) generate(buf []Move, noisy bool) []Move {
	us, them := p.sideToMove, p.sideToMove.Other()
	own, enemies := p.occupied[us], p.occupied[them]
	occ := own | enemies

	buf = p.generatePawnMoves(buf, noisy)

	targets := ^own
	if noisy {
		targets = enemies
	}
	for pt := Knight; pt <= King; pt++ {
		for pieces := p.pieces[us][pt]; pieces != 0; {
			from := pieces.PopLSB()
			var attacks Bitboard
			switch pt {
			case Knight:
				attacks = knightAttacks[from]
			case Bishop:
				attacks = BishopAttacks(from, occ)
			case Rook:
				attacks = RookAttacks(from, occ)
			case Queen:
				attacks = QueenAttacks(from, occ)
			case King:
				attacks = kingAttacks[from]
			}
			for a := attacks & targets; a != 0; {
				to := a.PopLSB()
				flag := FlagQuiet
				if enemies.Has(to) {
					flag = FlagCapture
				}
				buf = append(buf, NewMove(from, to, flag))
			}
		}
	}

	if !noisy && !p.InCheck() {
		buf = p.generateCastles(buf)
	}
	return buf
}

func (p *Position) generatePawnMoves(buf []Move, noisy bool) []Move {
	us, them := p.sideToMove, p.sideToMove.Other()
	pawns := p.pieces[us][Pawn]
	empty := ^p.All()
	enemies := p.occupied[them]

	up, promoRank, thirdRank := 8, Rank8, Rank1<<16
	if us == Black {
		up, promoRank, thirdRank = -8, Rank1, Rank1<<40
	}

	single := pawns.Forward(us) & empty
	for b := single & promoRank; b != 0; {
		to := b.PopLSB()
		buf = appendPromotions(buf, Square(int(to)-up), to, FlagPromotion, noisy)
	}
	if !noisy {
		for b := single &^ promoRank; b != 0; {
			to := b.PopLSB()
			buf = append(buf, NewMove(Square(int(to)-up), to, FlagQuiet))
		}
		for b := (single & thirdRank).Forward(us) & empty; b != 0; {
			to := b.PopLSB()
			buf = append(buf, NewMove(Square(int(to)-2*up), to, FlagDoublePush))
		}
	}

	for b := pawns; b != 0; {
		from := b.PopLSB()
		for a := pawnAttacks[us][from] & enemies; a != 0; {
			to := a.PopLSB()
			if promoRank.Has(to) {
				buf = appendPromotions(buf, from, to, FlagPromoCapture, noisy)
			} else {
				buf = append(buf, NewMove(from, to, FlagCapture))
			}
		}
	}

	if ep := p.st().EnPassant; ep != NoSquare {
		for b := pawnAttacks[them][ep] & pawns; b != 0; {
			buf = append(buf, NewMove(b.PopLSB(), ep, FlagEnPassant))
		}
	}
	return buf
}

func appendPromotions(buf []Move, from, to Square, base int, queenOnly bool) []Move {
	if queenOnly {
		return append(buf, NewMove(from, to, base|3))
	}
	for i := 3; i >= 0; i-- {
		buf = append(buf, NewMove(from, to, base|i))
	}
	return buf
}

type castleSpec struct {
	right    CastlingRights
	king, to Square
	empty    Bitboard
	safe     [2]Square
	flag     int
}

var castleSpecs = [2][2]castleSpec{
	{
		{WhiteOO, E1, G1, SquareBB(F1) | SquareBB(G1), [2]Square{F1, G1}, FlagKingCastle},
		{WhiteOOO, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [2]Square{D1, C1}, FlagQueenCastle},
	},
	{
		{BlackOO, E8, G8, SquareBB(F8) | SquareBB(G8), [2]Square{F8, G8}, FlagKingCastle},
		{BlackOOO, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [2]Square{D8, C8}, FlagQueenCastle},
	},
}

func (p *Position) generateCastles(buf []Move) []Move {
	us, them := p.sideToMove, p.sideToMove.Other()
	rights := p.st().Castling
	for _, cs := range castleSpecs[us] {
		if rights&cs.right == 0 || p.All()&cs.empty != 0 {
			continue
		}
		if p.attacked(cs.safe[0], them) || p.attacked(cs.safe[1], them) {
			continue
		}
		buf = append(buf, NewMove(cs.king, cs.to, cs.flag))
	}
	return buf
}
