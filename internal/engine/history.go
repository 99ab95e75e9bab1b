package engine

import "github.com/hailam/whitecore/internal/board"

// historyMax bounds every history entry in absolute value.
const historyMax = 32768

// History holds one thread's move ordering statistics: butterfly history,
// killer moves, counter moves and continuation history.
type History struct {
	butterfly    [2][64][64]int32
	killers      [MaxPly + 1][2]board.Move
	counters     [64][64]board.Move
	continuation [board.NoPieceType][64][board.NoPieceType][64]int32
}

// Clear zeroes every table.
func (h *History) Clear() {
	*h = History{}
}

// updateEntry applies bonus with the decaying rule
// v += bonus - v*|bonus|/historyMax, which keeps |v| <= historyMax.
func updateEntry(v *int32, bonus int) {
	b := int32(clamp(bonus, -historyMax, historyMax))
	*v += b - *v*abs(b)/historyMax
}

func historyBonus(depth int) int {
	return min(2000, 16*depth*depth)
}

// contEntry is the continuation table row for the move made at an
// earlier ply; nil when that ply had no real move.
func (h *History) contEntry(prev *stackEntry) *[board.NoPieceType][64]int32 {
	if prev.move == board.NoMove || prev.move == board.NullMove {
		return nil
	}
	return &h.continuation[prev.pieceType][prev.move.To()]
}

// quietScore is the ordering score of a quiet move at stack index ss.
func (h *History) quietScore(stack []stackEntry, ss int, us board.Color, pt board.PieceType, m board.Move) int {
	score := int(h.butterfly[us][m.From()][m.To()])
	if c := h.contEntry(&stack[ss-1]); c != nil {
		score += int(c[pt][m.To()])
	}
	if c := h.contEntry(&stack[ss-2]); c != nil {
		score += int(c[pt][m.To()])
	}
	return score
}

func (h *History) updateQuiet(stack []stackEntry, ss int, us board.Color, pt board.PieceType, m board.Move, bonus int) {
	updateEntry(&h.butterfly[us][m.From()][m.To()], bonus)
	if c := h.contEntry(&stack[ss-1]); c != nil {
		updateEntry(&c[pt][m.To()], bonus)
	}
	if c := h.contEntry(&stack[ss-2]); c != nil {
		updateEntry(&c[pt][m.To()], bonus)
	}
}

// onCutoff rewards the quiet move that failed high and punishes the quiet
// moves tried before it.
func (h *History) onCutoff(pos *board.Position, stack []stackEntry, ss, ply, depth int, best board.Move, tried []board.Move) {
	us := pos.SideToMove()
	bonus := historyBonus(depth)

	h.updateQuiet(stack, ss, us, pos.PieceOn(best.From()).Type(), best, bonus)
	for _, m := range tried {
		if m != best {
			h.updateQuiet(stack, ss, us, pos.PieceOn(m.From()).Type(), m, -bonus)
		}
	}

	if h.killers[ply][0] != best {
		h.killers[ply][1] = h.killers[ply][0]
		h.killers[ply][0] = best
	}
	if prev := stack[ss-1].move; prev != board.NoMove && prev != board.NullMove {
		h.counters[prev.From()][prev.To()] = best
	}
}

func (h *History) counterMove(stack []stackEntry, ss int) board.Move {
	prev := stack[ss-1].move
	if prev == board.NoMove || prev == board.NullMove {
		return board.NoMove
	}
	return h.counters[prev.From()][prev.To()]
}
