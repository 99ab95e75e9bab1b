package eval

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hailam/chessplay/sfnnue"
	"github.com/hailam/chessplay/sfnnue/features"

	"github.com/hailam/whitecore/internal/board"
)

// Default network file names, as distributed with Stockfish.
const (
	DefaultBigNet   = "nn-c288c895ea92.nnue"
	DefaultSmallNet = "nn-37f18f62d772.nnue"
)

// Network is a loaded big/small NNUE pair. It is read-only after loading
// and shared by every search thread; each thread keeps its own
// accumulators.
type Network struct {
	nets      *sfnnue.Networks
	BigFile   string
	SmallFile string
}

// LoadNetwork reads both network files.
func LoadNetwork(bigFile, smallFile string) (*Network, error) {
	nets, err := sfnnue.LoadNetworks(bigFile, smallFile)
	if err != nil {
		return nil, fmt.Errorf("load nnue: %w", err)
	}
	return &Network{nets: nets, BigFile: bigFile, SmallFile: smallFile}, nil
}

// FindNetwork looks for the default network pair in dirs and returns the
// first directory holding both files.
func FindNetwork(dirs ...string) (bigFile, smallFile string, ok bool) {
	for _, dir := range dirs {
		big := filepath.Join(dir, DefaultBigNet)
		small := filepath.Join(dir, DefaultSmallNet)
		if fileExists(big) && fileExists(small) {
			return big, small, true
		}
	}
	return "", "", false
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// sfPiece maps a board piece to the network's piece code: 1..6 for white
// pawn..king, 9..14 for black.
func sfPiece(pc board.Piece) int {
	return int(pc.Color())*8 + int(pc.Type()) + 1
}

// nnueState is one thread's accumulator stack. Feature changes reported by
// the board are applied as they happen to every perspective whose
// accumulator is valid; a king move invalidates its own perspective, which
// is then rebuilt from the position on the next evaluation.
type nnueState struct {
	net   *Network
	stack *sfnnue.AccumulatorStack
	index [1]int
}

func newNNUEState(net *Network) *nnueState {
	return &nnueState{net: net, stack: sfnnue.NewAccumulatorStack()}
}

func (s *nnueState) reset() {
	s.stack.Reset()
}

func (s *nnueState) push() {
	s.stack.Push()
}

func (s *nnueState) pop() {
	s.stack.Pop()
}

func (s *nnueState) change(pc board.Piece, sq board.Square, add bool) {
	big, small := s.stack.CurrentBig(), s.stack.CurrentSmall()
	if pc.Type() == board.King {
		c := pc.Color()
		big.Computed[c] = false
		small.Computed[c] = false
	}
	s.apply(s.net.nets.Big, big, pc, sq, add)
	s.apply(s.net.nets.Small, small, pc, sq, add)
}

func (s *nnueState) apply(net *sfnnue.Network, acc *sfnnue.Accumulator, pc board.Piece, sq board.Square, add bool) {
	for p := 0; p < 2; p++ {
		if !acc.Computed[p] {
			continue
		}
		s.index[0] = features.MakeIndex(p, int(sq), sfPiece(pc), acc.KingSq[p])
		if add {
			net.FeatureTransformer.UpdateAccumulator(nil, s.index[:], acc.Accumulation[p], acc.PSQTAccumulation[p])
		} else {
			net.FeatureTransformer.UpdateAccumulator(s.index[:], nil, acc.Accumulation[p], acc.PSQTAccumulation[p])
		}
	}
}

// rebuild recomputes every invalid perspective of acc from pos.
func rebuild(net *sfnnue.Network, acc *sfnnue.Accumulator, pos *board.Position) {
	for p := 0; p < 2; p++ {
		if acc.Computed[p] {
			continue
		}
		ksq := int(pos.KingSquare(board.Color(p)))
		var active features.IndexList
		for b := pos.All(); b != 0; {
			sq := b.PopLSB()
			active.Push(features.MakeIndex(p, int(sq), sfPiece(pos.PieceOn(sq)), ksq))
		}
		net.FeatureTransformer.ComputeAccumulator(active.Values[:active.Size], acc.Accumulation[p], acc.PSQTAccumulation[p])
		acc.Computed[p] = true
		acc.KingSq[p] = ksq
	}
}

// evaluate blends the big network's positional output with the average of
// both networks' PSQT outputs, damped towards zero by the fifty-move clock.
func (s *nnueState) evaluate(pos *board.Position) int {
	nets := s.net.nets
	big, small := s.stack.CurrentBig(), s.stack.CurrentSmall()
	rebuild(nets.Big, big, pos)
	rebuild(nets.Small, small, pos)

	stm := int(pos.SideToMove())
	pieces := pos.All().Count()
	bigPsqt, positional := nets.Big.Evaluate(big.Accumulation, big.PSQTAccumulation, stm, pieces, s.stack.TransformBuffer[:])
	smallPsqt, _ := nets.Small.Evaluate(small.Accumulation, small.PSQTAccumulation, stm, pieces, s.stack.TransformBuffer[:])

	score := int(positional) + int(bigPsqt+smallPsqt)/2
	return score - score*pos.HalfMoveClock()/199
}
