package engine

import (
	"math"

	"github.com/hailam/whitecore/internal/board"
)

const (
	aspirationDelta = 20
	aspirationMax   = 1500
)

type nodeType uint8

const (
	nonPV nodeType = iota
	pvNode
	rootNode
)

// lmrTable holds the base late move reduction by depth and move number.
var lmrTable [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrTable[d][m] = int(1 + math.Log(float64(d))*math.Log(float64(m))/2)
		}
	}
}

// iterate runs iterative deepening until a limit is hit or the search is
// stopped. Thread 0 owns the reporting and the stop decision.
func (t *Thread) iterate() {
	sh := t.shared
	score := 0
	stability := 0
	prevBest := board.NoMove

	for depth := 1; depth <= sh.tm.MaxDepth(); depth++ {
		t.selDepth = 0
		s, ok := t.aspiration(depth, score)
		if !ok {
			break
		}
		score = s
		t.score = s
		t.completedDepth = depth
		if t.pvLen[0] > 0 {
			t.bestMove = t.pv[0][0]
		}
		if t.id != 0 {
			continue
		}
		t.bestPV = t.principalVariation()

		sh.publish(t.bestMove, score)
		sh.report(t, depth)

		if t.bestMove == prevBest {
			stability++
		} else {
			stability = 0
		}
		prevBest = t.bestMove

		if depth >= 7 {
			if sh.tm.HandleIteration(stability, t.effort()) {
				break
			}
		} else if sh.tm.SoftExpired() {
			break
		}
	}

	if t.id == 0 {
		sh.elapsed = sh.tm.Elapsed()
		sh.searching.Store(false)
	}
}

// aspiration searches the root with a window around the previous score,
// widening it on every failure until the score lands inside.
func (t *Thread) aspiration(depth, prev int) (int, bool) {
	alpha, beta := -InfScore, InfScore
	delta := aspirationDelta
	if depth > 4 {
		alpha = max(prev-delta, -InfScore)
		beta = min(prev+delta, InfScore)
	}

	for {
		score, ok := t.search(depth, alpha, beta, rootNode, 0)
		if !ok {
			return 0, false
		}
		switch {
		case score <= alpha:
			beta = (alpha + beta) / 2
			alpha = max(score-delta, -InfScore)
		case score >= beta:
			beta = min(score+delta, InfScore)
		default:
			return score, true
		}
		delta += delta / 2
		if delta > aspirationMax {
			alpha, beta = -InfScore, InfScore
		}
	}
}

// search is a fail-hard principal variation search. The second result is
// false when the search was cancelled; the score is then meaningless.
func (t *Thread) search(depth, alpha, beta int, nt nodeType, ply int) (int, bool) {
	if t.aborted() {
		return 0, false
	}
	pos := t.pos
	isRoot := nt == rootNode
	isPV := nt != nonPV
	ss := ply + stackOffset

	t.pvLen[ply] = ply
	t.selDepth = max(t.selDepth, ply)

	if !isRoot {
		if pos.IsDraw(isPV) {
			return DrawScore, true
		}
		if ply >= MaxPly {
			return t.evaluate(), true
		}
		// Mate distance pruning.
		alpha = max(alpha, MatedIn(ply))
		beta = min(beta, MateIn(ply+1))
		if alpha >= beta {
			return alpha, true
		}
	}

	inCheck := pos.InCheck()
	if inCheck {
		depth++
	}

	tte, ttHit := t.shared.tt.Probe(pos.Key())
	ttMove := board.NoMove
	if ttHit {
		ttMove = tte.Move
		ttScore := scoreFromTT(tte.Score, ply)
		if !isPV && tte.Depth >= depth && pos.HalfMoveClock() < 90 {
			switch {
			case tte.Bound == BoundExact,
				tte.Bound == BoundBeta && ttScore >= beta,
				tte.Bound == BoundAlpha && ttScore <= alpha:
				return ttScore, true
			}
		}
	}

	if depth <= 0 {
		return t.qsearch(alpha, beta, ply)
	}

	staticEval := -InfScore
	improving := false
	if !inCheck {
		staticEval = t.evaluate()
		improving = ply >= 2 && staticEval >= t.stack[ss-2].eval
	}
	t.stack[ss].eval = staticEval

	if !isRoot && !inCheck {
		// Internal iterative reduction.
		if !ttHit && depth >= 4 {
			depth--
		}

		if !isPV {
			// Reverse futility pruning.
			if depth <= 8 && abs(beta) < WorstMate && staticEval-(depth-b2i(improving))*70 >= beta {
				return staticEval, true
			}

			// Null move pruning.
			if depth >= 3 && staticEval >= beta && t.stack[ss-1].move != board.NullMove &&
				pos.HasNonPawnMaterial(pos.SideToMove()) {
				r := 3 + depth/3 + min(3, (staticEval-beta)/256)
				t.stack[ss].move = board.NullMove
				t.stack[ss].pieceType = board.NoPieceType
				pos.MakeNullMove()
				t.shared.tt.Prefetch(pos.Key())
				score, ok := t.search(depth-r, -beta, -beta+1, nonPV, ply+1)
				pos.UndoNullMove()
				if !ok {
					return 0, false
				}
				if -score >= beta {
					return beta, true
				}
			}

			// Razoring.
			if depth <= 3 && abs(alpha) < WorstMate && staticEval+400+300*depth*depth < alpha {
				score, ok := t.qsearch(alpha, alpha+1, ply)
				if !ok {
					return 0, false
				}
				if score <= alpha {
					return alpha, true
				}
			}
		}
	}

	var mp movePicker
	mp.init(pos, &t.history, t.stack[:], ss, ply, ttMove, false)

	us := pos.SideToMove()
	oldAlpha := alpha
	bestScore := -InfScore
	bestMove := board.NoMove
	moveCount, searched := 0, 0
	skipQuiets := false
	var quiets [64]board.Move
	nQuiets := 0

	for {
		m, moveScore, ok := mp.next()
		if !ok {
			break
		}
		moveCount++
		quiet := !m.IsCapture() && !m.IsPromotion()

		if !isRoot && bestScore > -WorstMate {
			if quiet && skipQuiets {
				continue
			}
			// Late move pruning.
			if quiet && !isPV && !inCheck && depth <= 5 && moveCount > 3+depth*depth {
				skipQuiets = true
				continue
			}
			if depth <= 8 {
				threshold := -90 * depth
				if quiet {
					threshold = -50 * depth
				}
				if !SEE(pos, m, threshold) {
					continue
				}
			}
		}

		pt := pos.PieceOn(m.From()).Type()
		hist := 0
		if quiet {
			hist = t.history.quietScore(t.stack[:], ss, us, pt, m)
		}

		t.shared.tt.Prefetch(pos.KeyAfter(m))
		t.stack[ss].move = m
		t.stack[ss].pieceType = pt
		before := t.nodes()
		pos.MakeMove(m, t.eval.Observer())
		searched++

		newDepth := depth - 1
		var score int
		if searched == 1 {
			child := nonPV
			if isPV {
				child = pvNode
			}
			score, ok = t.search(newDepth, -beta, -alpha, child, ply+1)
			score = -score
		} else {
			r := 0
			if depth >= 3 && searched > 1+2*b2i(isPV) && (quiet || moveScore < killer2Score) {
				r = lmrTable[min(depth, 63)][min(searched, 63)]
				r -= b2i(isPV)
				r += b2i(!improving)
				r -= hist / 8192
				r = clamp(r, 0, newDepth-1)
			}
			score, ok = t.search(newDepth-r, -alpha-1, -alpha, nonPV, ply+1)
			score = -score
			if ok && r > 0 && score > alpha {
				score, ok = t.search(newDepth, -alpha-1, -alpha, nonPV, ply+1)
				score = -score
			}
			if ok && isPV && score > alpha && score < beta {
				score, ok = t.search(newDepth, -beta, -alpha, pvNode, ply+1)
				score = -score
			}
		}
		pos.UndoMove(m, t.eval.Observer())
		if !ok {
			return 0, false
		}
		if isRoot {
			t.rootNodes[m.From()][m.To()] += t.nodes() - before
		}

		bestScore = max(bestScore, score)
		if score >= beta {
			if quiet {
				t.history.onCutoff(pos, t.stack[:], ss, ply, depth, m, quiets[:nQuiets])
			}
			t.shared.tt.Save(pos.Key(), depth, scoreToTT(beta, ply), BoundBeta, m)
			if !inCheck && quiet && beta > staticEval {
				t.corr.Update(pos, beta, staticEval, depth)
			}
			if isRoot {
				t.updatePV(ply, m)
			}
			return beta, true
		}
		if score > alpha {
			alpha = score
			bestMove = m
			t.updatePV(ply, m)
		}
		if quiet && nQuiets < len(quiets) {
			quiets[nQuiets] = m
			nQuiets++
		}
	}

	if moveCount == 0 {
		if inCheck {
			return MatedIn(ply), true
		}
		return DrawScore, true
	}

	bound := BoundAlpha
	if alpha > oldAlpha {
		bound = BoundExact
	}
	t.shared.tt.Save(pos.Key(), depth, scoreToTT(alpha, ply), bound, bestMove)

	if !inCheck && (bestMove == board.NoMove || !bestMove.IsCapture()) &&
		!(bound == BoundAlpha && alpha >= staticEval) {
		t.corr.Update(pos, alpha, staticEval, depth)
	}
	return alpha, true
}

// qsearch resolves captures until the position is quiet. In check every
// evasion is searched and mate is detected.
func (t *Thread) qsearch(alpha, beta, ply int) (int, bool) {
	if t.aborted() {
		return 0, false
	}
	pos := t.pos
	ss := ply + stackOffset
	t.pvLen[ply] = ply
	t.selDepth = max(t.selDepth, ply)

	if ply >= MaxPly {
		return t.evaluate(), true
	}

	inCheck := pos.InCheck()
	if !inCheck {
		standPat := t.evaluate()
		if standPat >= beta {
			return beta, true
		}
		alpha = max(alpha, standPat)
	}

	var mp movePicker
	mp.init(pos, &t.history, t.stack[:], ss, ply, board.NoMove, !inCheck)

	moveCount := 0
	for {
		m, _, ok := mp.next()
		if !ok {
			break
		}
		moveCount++
		if !inCheck && !SEE(pos, m, 0) {
			continue
		}

		t.stack[ss].move = m
		t.stack[ss].pieceType = pos.PieceOn(m.From()).Type()
		pos.MakeMove(m, t.eval.Observer())
		score, ok := t.qsearch(-beta, -alpha, ply+1)
		pos.UndoMove(m, t.eval.Observer())
		if !ok {
			return 0, false
		}
		score = -score

		if score >= beta {
			return beta, true
		}
		if score > alpha {
			alpha = score
			t.updatePV(ply, m)
		}
	}

	if inCheck && moveCount == 0 {
		return MatedIn(ply), true
	}
	return alpha, true
}
