// Package eval scores positions for the search. Material and piece-square
// terms are kept incrementally by an Accumulator that observes make/undo;
// pawn structure is recomputed per pawn key and cached. When an NNUE
// Network is attached the network replaces the classical terms.
package eval

import "github.com/hailam/whitecore/internal/board"

const tempo = 10

type accState struct {
	mg, eg [2]int32
	phase  int32
}

// Accumulator tracks material, piece-square sums and game phase for both
// colors. It implements board.Observer.
type Accumulator struct {
	stack []accState
}

func (a *Accumulator) top() *accState {
	return &a.stack[len(a.stack)-1]
}

func (a *Accumulator) Push() {
	a.stack = append(a.stack, *a.top())
}

func (a *Accumulator) Pop() {
	a.stack = a.stack[:len(a.stack)-1]
}

func (a *Accumulator) Activate(pc board.Piece, sq board.Square) {
	s := a.top()
	c := pc.Color()
	s.mg[c] += pieceSquare[0][pc][sq]
	s.eg[c] += pieceSquare[1][pc][sq]
	s.phase += phaseWeight[pc.Type()]
}

func (a *Accumulator) Deactivate(pc board.Piece, sq board.Square) {
	s := a.top()
	c := pc.Color()
	s.mg[c] -= pieceSquare[0][pc][sq]
	s.eg[c] -= pieceSquare[1][pc][sq]
	s.phase -= phaseWeight[pc.Type()]
}

// Refresh rebuilds the accumulator from scratch for pos and drops any
// pushed history.
func (a *Accumulator) Refresh(pos *board.Position) {
	if cap(a.stack) == 0 {
		a.stack = make([]accState, 0, 2*board.MaxMoves)
	}
	a.stack = append(a.stack[:0], accState{})
	for b := pos.All(); b != 0; {
		sq := b.PopLSB()
		a.Activate(pos.PieceOn(sq), sq)
	}
}

// Evaluator is one search thread's evaluation state.
type Evaluator struct {
	acc   Accumulator
	pawns *PawnTable
	nnue  *nnueState
}

// New returns an evaluator with its own pawn cache.
func New() *Evaluator {
	return &Evaluator{pawns: NewPawnTable(pawnTableEntries)}
}

// UseNetwork attaches net, or detaches the current one when net is nil.
// The accumulators are rebuilt on the next Refresh.
func (e *Evaluator) UseNetwork(net *Network) {
	switch {
	case net == nil:
		e.nnue = nil
	case e.nnue == nil || e.nnue.net != net:
		e.nnue = newNNUEState(net)
	}
}

// Network returns the attached network, nil for classical evaluation.
func (e *Evaluator) Network() *Network {
	if e.nnue == nil {
		return nil
	}
	return e.nnue.net
}

// Observer returns the value to pass to Position.MakeMove.
func (e *Evaluator) Observer() board.Observer {
	if e.nnue == nil {
		return &e.acc
	}
	return e
}

func (e *Evaluator) Push() {
	e.acc.Push()
	e.nnue.push()
}

func (e *Evaluator) Pop() {
	e.acc.Pop()
	e.nnue.pop()
}

func (e *Evaluator) Activate(pc board.Piece, sq board.Square) {
	e.acc.Activate(pc, sq)
	e.nnue.change(pc, sq, true)
}

func (e *Evaluator) Deactivate(pc board.Piece, sq board.Square) {
	e.acc.Deactivate(pc, sq)
	e.nnue.change(pc, sq, false)
}

// Refresh resynchronises with pos. Call it whenever pos was changed
// without this evaluator observing.
func (e *Evaluator) Refresh(pos *board.Position) {
	e.acc.Refresh(pos)
	if e.nnue != nil {
		e.nnue.reset()
	}
}

// Evaluate scores pos from the side to move's point of view.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	if e.nnue != nil {
		return e.nnue.evaluate(pos)
	}
	s := e.acc.top()
	mg := s.mg[board.White] - s.mg[board.Black]
	eg := s.eg[board.White] - s.eg[board.Black]

	pmg, peg := e.pawns.structure(pos)
	mg += pmg
	eg += peg

	phase := min(s.phase, totalPhase)
	score := int((mg*phase + eg*(totalPhase-phase)) / totalPhase)
	if pos.SideToMove() == board.Black {
		score = -score
	}
	return score + tempo
}

// Evaluate is a convenience for one-off evaluation without an accumulator.
func Evaluate(pos *board.Position) int {
	e := New()
	e.Refresh(pos)
	return e.Evaluate(pos)
}
