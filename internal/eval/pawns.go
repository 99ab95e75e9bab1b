package eval

import "github.com/hailam/whitecore/internal/board"

const pawnTableEntries = 1 << 14

// Pawn structure terms, white minus black.
const (
	doubledMg  = -15
	doubledEg  = -20
	isolatedMg = -20
	isolatedEg = -25
)

var (
	passedMg = [8]int32{0, 5, 10, 20, 35, 60, 100, 0}
	passedEg = [8]int32{0, 10, 20, 40, 70, 120, 200, 0}
)

type pawnEntry struct {
	key    uint64
	mg, eg int32
}

// PawnTable caches pawn structure scores by pawn key.
type PawnTable struct {
	entries []pawnEntry
	mask    uint64
}

// NewPawnTable returns a table with n entries; n must be a power of two.
func NewPawnTable(n int) *PawnTable {
	return &PawnTable{
		entries: make([]pawnEntry, n),
		mask:    uint64(n - 1),
	}
}

func (t *PawnTable) structure(pos *board.Position) (mg, eg int32) {
	key := pos.PawnKey()
	e := &t.entries[key&t.mask]
	// A zero pawn key means no pawns, which scores zero anyway.
	if e.key == key {
		return e.mg, e.eg
	}
	mg, eg = evaluatePawns(pos)
	*e = pawnEntry{key: key, mg: mg, eg: eg}
	return mg, eg
}

var adjacentFiles [8]board.Bitboard

func init() {
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFiles[f] |= board.FileBB(f - 1)
		}
		if f < 7 {
			adjacentFiles[f] |= board.FileBB(f + 1)
		}
	}
}

// frontSpan returns the squares ahead of sq on its file and the adjacent
// files, from c's point of view.
func frontSpan(c board.Color, sq board.Square) board.Bitboard {
	files := board.FileBB(sq.File()) | adjacentFiles[sq.File()]
	var ahead board.Bitboard
	if c == board.White {
		ahead = ^board.Bitboard(0) << (8 * (sq.Rank() + 1))
	} else {
		ahead = ^board.Bitboard(0) >> (8 * (8 - sq.Rank()))
	}
	return files & ahead
}

func evaluatePawns(pos *board.Position) (mg, eg int32) {
	for c := board.White; c <= board.Black; c++ {
		sign := int32(1)
		if c == board.Black {
			sign = -1
		}
		own := pos.Pieces(c, board.Pawn)
		enemy := pos.Pieces(c.Other(), board.Pawn)

		for f := 0; f < 8; f++ {
			if n := (own & board.FileBB(f)).Count(); n > 1 {
				mg += sign * doubledMg * int32(n-1)
				eg += sign * doubledEg * int32(n-1)
			}
		}

		for b := own; b != 0; {
			sq := b.PopLSB()
			if own&adjacentFiles[sq.File()] == 0 {
				mg += sign * isolatedMg
				eg += sign * isolatedEg
			}
			if enemy&frontSpan(c, sq) == 0 {
				r := sq.RelativeRank(c)
				mg += sign * passedMg[r]
				eg += sign * passedEg[r]
			}
		}
	}
	return mg, eg
}
