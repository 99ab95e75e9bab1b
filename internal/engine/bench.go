package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/hailam/whitecore/internal/board"
)

// BenchDepth is the default depth of a bench run.
const BenchDepth = 8

var benchFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"4rrk1/pp1n3p/3q2pQ/2p1pb2/2PP4/2P3N1/P2B2PP/4RRK1 b - - 7 19",
	"6k1/6p1/6Pp/ppp5/3pn2P/1P3K2/1PP2P2/8 b - - 0 1",
}

// BenchResult sums a bench run.
type BenchResult struct {
	Nodes   uint64
	Elapsed time.Duration
}

// NPS returns the overall search speed.
func (r BenchResult) NPS() uint64 {
	return nps(r.Nodes, r.Elapsed)
}

// Bench searches a fixed set of positions to the given depth on a cleared
// manager. Node counts are reproducible with a single thread.
func Bench(ctx context.Context, m *Manager, depth int) (BenchResult, error) {
	m.Clear()
	results := make([]Result, 0, len(benchFENs))
	for _, fen := range benchFENs {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return BenchResult{}, fmt.Errorf("bench position %q: %w", fen, err)
		}
		r, err := m.Search(ctx, pos, Limits{Depth: depth})
		if err != nil {
			return BenchResult{}, err
		}
		results = append(results, r)
		if ctx.Err() != nil {
			return BenchResult{}, ctx.Err()
		}
	}
	return BenchResult{
		Nodes:   lo.SumBy(results, func(r Result) uint64 { return r.Nodes }),
		Elapsed: lo.SumBy(results, func(r Result) time.Duration { return r.Elapsed }),
	}, nil
}
