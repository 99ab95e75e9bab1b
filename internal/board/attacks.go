package board

// Ray directions. The first four grow square indices, so their nearest
// blocker is the lowest set bit; the last four shrink them.
const (
	dirN = iota
	dirE
	dirNE
	dirNW
	dirS
	dirW
	dirSE
	dirSW
)

var (
	pawnAttacks   [2][64]Bitboard
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	rays          [8][64]Bitboard
)

func init() {
	steps := [8][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}, {0, -1}, {-1, 0}, {1, -1}, {-1, -1}}
	knightSteps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}

	for s := Square(0); s < 64; s++ {
		f, r := s.File(), s.Rank()
		b := SquareBB(s)

		pawnAttacks[White][s] = b.North().East() | b.North().West()
		pawnAttacks[Black][s] = b.South().East() | b.South().West()

		for _, d := range knightSteps {
			if onBoard(f+d[0], r+d[1]) {
				knightAttacks[s] |= SquareBB(NewSquare(f+d[0], r+d[1]))
			}
		}
		for dir, d := range steps {
			if onBoard(f+d[0], r+d[1]) {
				kingAttacks[s] |= SquareBB(NewSquare(f+d[0], r+d[1]))
			}
			for nf, nr := f+d[0], r+d[1]; onBoard(nf, nr); nf, nr = nf+d[0], nr+d[1] {
				rays[dir][s] |= SquareBB(NewSquare(nf, nr))
			}
		}
	}
	initMagics()
}

func onBoard(f, r int) bool {
	return f >= 0 && f < 8 && r >= 0 && r < 8
}

// slide scans one ray from sq up to and including its first blocker. The
// magic tables are built from it.
func slide(dir int, sq Square, occ Bitboard) Bitboard {
	attacks := rays[dir][sq]
	if blockers := attacks & occ; blockers != 0 {
		var first Square
		if dir < dirS {
			first = blockers.LSB()
		} else {
			first = blockers.MSB()
		}
		attacks ^= rays[dir][first]
	}
	return attacks
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(c Color, sq Square) Bitboard {
	return pawnAttacks[c][sq]
}

func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// BishopAttacks returns diagonal attacks from sq given occupancy occ.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	m := &bishopMagics[sq]
	return m.attacks[m.index(occ)]
}

// RookAttacks returns orthogonal attacks from sq given occupancy occ.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	m := &rookMagics[sq]
	return m.attacks[m.index(occ)]
}

func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return BishopAttacks(sq, occ) | RookAttacks(sq, occ)
}
