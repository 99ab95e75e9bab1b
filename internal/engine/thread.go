package engine

import (
	"sync/atomic"

	"github.com/hailam/whitecore/internal/board"
	"github.com/hailam/whitecore/internal/eval"
)

// stackOffset sentinel entries sit below ply 0 so that lookups of the
// previous one or two moves never need bounds checks.
const stackOffset = 4

type stackEntry struct {
	move      board.Move
	pieceType board.PieceType
	eval      int
}

// nodeCounter is padded to its own cache line; every thread bumps its
// counter on each node.
type nodeCounter struct {
	atomic.Uint64
	_ [56]byte
}

// Thread is one Lazy SMP search thread. Apart from the shared memory it
// points to, everything here is private and rebuilt for every search.
type Thread struct {
	id     int
	shared *SharedMemory

	pos     *board.Position
	eval    *eval.Evaluator
	history History
	corr    CorrectionHistory
	stack   [MaxPly + stackOffset + 2]stackEntry
	pv      [MaxPly + 2][MaxPly + 2]board.Move
	pvLen   [MaxPly + 2]int

	// nodes spent below each root move, for the effort heuristic
	rootNodes [64][64]uint64
	selDepth  int

	bestMove       board.Move
	bestPV         []board.Move
	score          int
	completedDepth int
}

func newThread(id int, shared *SharedMemory) *Thread {
	return &Thread{id: id, shared: shared, eval: eval.New()}
}

// reset prepares the thread to search pos.
func (t *Thread) reset(pos *board.Position) {
	t.pos = pos.Clone()
	t.eval.UseNetwork(t.shared.net)
	t.eval.Refresh(t.pos)
	t.history.Clear()
	t.corr.Clear()
	t.rootNodes = [64][64]uint64{}
	for i := range t.stack {
		t.stack[i] = stackEntry{pieceType: board.NoPieceType}
	}
	t.pvLen = [MaxPly + 2]int{}
	t.selDepth = 0
	t.bestMove = board.NoMove
	t.bestPV = nil
	t.score = 0
	t.completedDepth = 0
}

func (t *Thread) nodes() uint64 {
	return t.shared.nodes[t.id].Load()
}

// aborted counts a node and reports whether the search must unwind. Thread
// 0 also polls the hard limits every 2048 of its nodes.
func (t *Thread) aborted() bool {
	sh := t.shared
	if !sh.searching.Load() {
		return true
	}
	n := sh.nodes[t.id].Add(1)
	if t.id == 0 && n&2047 == 0 && sh.tm.ShouldStop(sh.totalNodes()) {
		sh.searching.Store(false)
		return true
	}
	return false
}

// evaluate is the corrected static evaluation, kept clear of mate scores.
func (t *Thread) evaluate() int {
	v := t.eval.Evaluate(t.pos) + t.corr.Get(t.pos)
	return clamp(v, -WorstMate+1, WorstMate-1)
}

func (t *Thread) updatePV(ply int, m board.Move) {
	t.pv[ply][ply] = m
	n := max(t.pvLen[ply+1], ply+1)
	copy(t.pv[ply][ply+1:n], t.pv[ply+1][ply+1:n])
	t.pvLen[ply] = n
}

// principalVariation returns a copy of the root PV.
func (t *Thread) principalVariation() []board.Move {
	pv := make([]board.Move, t.pvLen[0])
	copy(pv, t.pv[0][:t.pvLen[0]])
	return pv
}

// effort is the share of this thread's nodes spent below the best move.
func (t *Thread) effort() float64 {
	total := t.nodes()
	if total == 0 || t.bestMove == board.NoMove {
		return 0
	}
	return float64(t.rootNodes[t.bestMove.From()][t.bestMove.To()]) / float64(total)
}
