package engine

import "github.com/hailam/whitecore/internal/board"

const (
	correctionSize  = 1 << 14
	correctionMask  = correctionSize - 1
	correctionBonus = 256
	correctionLimit = 128
)

// CorrectionHistory nudges the static evaluation towards what searches
// actually found in positions with the same pawn structure.
type CorrectionHistory struct {
	table [2][correctionSize]int16
}

// Clear zeroes the table.
func (ch *CorrectionHistory) Clear() {
	*ch = CorrectionHistory{}
}

func (ch *CorrectionHistory) entry(pos *board.Position) *int16 {
	key := pos.PawnKey()
	return &ch.table[pos.SideToMove()][(key^key>>18)&correctionMask]
}

// Get returns the amount to add to the raw evaluation of pos.
func (ch *CorrectionHistory) Get(pos *board.Position) int {
	return int(*ch.entry(pos))
}

// Update moves the entry for pos a sixteenth of the way towards the
// depth-scaled error between searchScore and staticEval.
func (ch *CorrectionHistory) Update(pos *board.Position, searchScore, staticEval, depth int) {
	if depth < 1 || IsMate(searchScore) {
		return
	}
	bonus := clamp((searchScore-staticEval)*depth/8, -correctionBonus, correctionBonus)
	e := ch.entry(pos)
	old := int(*e)
	*e = int16(clamp(old+(bonus-old)/16, -correctionLimit, correctionLimit))
}
