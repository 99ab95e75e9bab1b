package board

import "math/bits"

// Fancy magic bitboards for slider attacks. Multipliers are found at start
// up by seeded trial and every table entry is checked against the ray scans
// in attacks.go, so a bad multiplier can never be accepted.

type magic struct {
	mask    Bitboard
	magic   uint64
	shift   uint8
	attacks []Bitboard
}

func (m *magic) index(occ Bitboard) uint64 {
	return uint64(occ&m.mask) * m.magic >> m.shift
}

var (
	bishopMagics [64]magic
	rookMagics   [64]magic

	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

func initMagics() {
	r := prng(0x3C6EF372FE94F82B)
	fillMagics(&bishopMagics, bishopTable[:], bishopRays, &r)
	fillMagics(&rookMagics, rookTable[:], rookRays, &r)
}

func bishopRays(sq Square, occ Bitboard) Bitboard {
	return slide(dirNE, sq, occ) | slide(dirNW, sq, occ) | slide(dirSE, sq, occ) | slide(dirSW, sq, occ)
}

func rookRays(sq Square, occ Bitboard) Bitboard {
	return slide(dirN, sq, occ) | slide(dirE, sq, occ) | slide(dirS, sq, occ) | slide(dirW, sq, occ)
}

// edges are the board edges that cannot block a slider on sq.
func edges(sq Square) Bitboard {
	return (Rank1|Rank8)&^(Rank1<<(8*sq.Rank())) | (FileA|FileH)&^FileBB(sq.File())
}

func fillMagics(magics *[64]magic, table []Bitboard, rays func(Square, Bitboard) Bitboard, r *prng) {
	var occupancy, reference [4096]Bitboard
	var epoch [4096]int
	attempt, offset := 0, 0

	for sq := Square(0); sq < 64; sq++ {
		m := &magics[sq]
		m.mask = rays(sq, 0) &^ edges(sq)
		m.shift = uint8(64 - m.mask.Count())
		size := 1 << m.mask.Count()
		m.attacks = table[offset : offset+size]
		offset += size

		// Carry-Rippler walk over every subset of the mask.
		n := 0
		for b := Bitboard(0); ; {
			occupancy[n] = b
			reference[n] = rays(sq, b)
			n++
			if b = (b - m.mask) & m.mask; b == 0 {
				break
			}
		}

		for i := 0; i < n; {
			for m.magic = 0; bits.OnesCount64(m.magic*uint64(m.mask)>>56) < 6; {
				m.magic = r.next() & r.next() & r.next()
			}
			// epoch marks the slots written by this attempt, so the table
			// needs no clearing between attempts.
			attempt++
			for i = 0; i < n; i++ {
				idx := m.index(occupancy[i])
				if epoch[idx] < attempt {
					epoch[idx] = attempt
					m.attacks[idx] = reference[i]
				} else if m.attacks[idx] != reference[i] {
					break
				}
			}
		}
	}
}
