package engine

import "github.com/hailam/whitecore/internal/board"

// Ordering tiers. Captures and quiets carry an extra term inside their
// tier, which is why the bands are spaced this far apart.
const (
	ttMoveScore      = 10_000_000
	promotionScore   = 9_000_000
	goodCaptureScore = 8_000_000
	killer1Score     = 7_000_000
	killer2Score     = 6_000_000
	counterScore     = 5_500_000
	badCaptureScore  = 5_000_000
)

// movePicker hands out the legal moves of a node best-first. Moves are
// scored once up front and selected lazily, so a cutoff on an early move
// skips sorting the rest.
type movePicker struct {
	moves  [board.MaxMoves]board.Move
	scores [board.MaxMoves]int
	n      int
	cur    int
}

// init generates and scores the moves of pos. With noisy set only captures
// and queen promotions are generated.
func (mp *movePicker) init(pos *board.Position, h *History, stack []stackEntry, ss, ply int, ttMove board.Move, noisy bool) {
	var list []board.Move
	if noisy {
		list = pos.GenerateNoisy(mp.moves[:0])
	} else {
		list = pos.GenerateMoves(mp.moves[:0])
	}
	mp.n, mp.cur = len(list), 0

	us := pos.SideToMove()
	killers := h.killers[ply]
	counter := h.counterMove(stack, ss)

	for i, m := range list {
		switch {
		case m == ttMove:
			mp.scores[i] = ttMoveScore
		case m.IsPromotion():
			mp.scores[i] = promotionScore + seeValue[m.Promotion()]
		case m.IsCapture():
			if SEE(pos, m, 0) {
				mp.scores[i] = goodCaptureScore + mvvLva(pos, m)
			} else {
				mp.scores[i] = badCaptureScore + mvvLva(pos, m)
			}
		case m == killers[0]:
			mp.scores[i] = killer1Score
		case m == killers[1]:
			mp.scores[i] = killer2Score
		case m == counter:
			mp.scores[i] = counterScore
		default:
			mp.scores[i] = h.quietScore(stack, ss, us, pos.PieceOn(m.From()).Type(), m)
		}
	}
}

// mvvLva prefers the most valuable victim, then the least valuable attacker.
func mvvLva(pos *board.Position, m board.Move) int {
	victim := board.Pawn
	if !m.IsEnPassant() {
		victim = pos.PieceOn(m.To()).Type()
	}
	attacker := pos.PieceOn(m.From()).Type()
	return 10*seeValue[victim] - seeValue[attacker]
}

// next returns the best remaining move and its ordering score.
func (mp *movePicker) next() (board.Move, int, bool) {
	if mp.cur >= mp.n {
		return board.NoMove, 0, false
	}
	best := mp.cur
	for i := mp.cur + 1; i < mp.n; i++ {
		if mp.scores[i] > mp.scores[best] {
			best = i
		}
	}
	mp.moves[mp.cur], mp.moves[best] = mp.moves[best], mp.moves[mp.cur]
	mp.scores[mp.cur], mp.scores[best] = mp.scores[best], mp.scores[mp.cur]
	m, s := mp.moves[mp.cur], mp.scores[mp.cur]
	mp.cur++
	return m, s, true
}
