package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/whitecore/internal/board"
)

func newTestManager(t *testing.T, threads int) *Manager {
	t.Helper()
	m, err := NewManager(16, threads)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func mustParse(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func isLegal(pos *board.Position, m board.Move) bool {
	var buf [board.MaxMoves]board.Move
	for _, legal := range pos.GenerateMoves(buf[:0]) {
		if legal == m {
			return true
		}
	}
	return false
}

func TestSearchFindsMateInOne(t *testing.T) {
	m := newTestManager(t, 1)
	pos := mustParse(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")

	r, err := m.Search(context.Background(), pos, Limits{Depth: 4})
	if err != nil {
		t.Fatal(err)
	}
	if r.Move.String() != "a1a8" {
		t.Errorf("best move = %s, want a1a8", r.Move)
	}
	if r.Score != MateIn(1) {
		t.Errorf("score = %d, want %d", r.Score, MateIn(1))
	}
	if r.Depth != 4 {
		t.Errorf("depth = %d, want 4", r.Depth)
	}
}

// Morphy's mate: 1.Ra6 bxa6 2.b7#, a quiet mate after a rook sacrifice.
func TestSearchFindsMateAfterSacrifice(t *testing.T) {
	m := newTestManager(t, 1)
	pos := mustParse(t, "kbK5/pp6/1P6/8/8/8/8/R7 w - - 0 1")

	r, err := m.Search(context.Background(), pos, Limits{Depth: 8})
	if err != nil {
		t.Fatal(err)
	}
	if r.Move.String() != "a1a6" {
		t.Errorf("best move = %s, want a1a6", r.Move)
	}
	if r.Score != MateIn(3) {
		t.Errorf("score = %d, want %d", r.Score, MateIn(3))
	}

	// Searching on after the main line, with the table still holding the
	// first search, must count the mate from the new root.
	for _, s := range []string{"a1a6", "b7a6"} {
		mv, err := pos.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		pos.MakeMove(mv, nil)
	}
	r, err = m.Search(context.Background(), pos, Limits{Depth: 4})
	if err != nil {
		t.Fatal(err)
	}
	if r.Move.String() != "b6b7" {
		t.Errorf("after a1a6 b7a6: best move = %s, want b6b7", r.Move)
	}
	if r.Score != MateIn(1) {
		t.Errorf("after a1a6 b7a6: score = %d, want %d", r.Score, MateIn(1))
	}
}

func TestSearchScoresBeingMated(t *testing.T) {
	m := newTestManager(t, 1)
	// Every black move allows mate next move: bxa6 b7#, anything else Rxa7#.
	pos := mustParse(t, "kbK5/pp6/RP6/8/8/8/8/8 b - - 1 1")

	r, err := m.Search(context.Background(), pos, Limits{Depth: 5})
	if err != nil {
		t.Fatal(err)
	}
	if r.Score != MatedIn(2) {
		t.Errorf("score = %d, want %d", r.Score, MatedIn(2))
	}
	if !isLegal(pos, r.Move) {
		t.Errorf("illegal best move %s", r.Move)
	}
}

// newQuiescenceThread prepares the single thread of a fresh manager to
// search fen directly.
func newQuiescenceThread(t *testing.T, fen string) *Thread {
	t.Helper()
	m := newTestManager(t, 1)
	m.shared.tm.Init(Limits{}, 0)
	m.shared.searching.Store(true)
	th := m.threads[0]
	th.reset(mustParse(t, fen))
	return th
}

func TestQuiescence(t *testing.T) {
	t.Run("stand pat", func(t *testing.T) {
		th := newQuiescenceThread(t, "4k3/8/8/8/8/8/8/4K2R w - - 0 1")
		standPat := th.evaluate()
		if got, _ := th.qsearch(-InfScore, InfScore, 0); got != standPat {
			t.Errorf("qsearch = %d, want stand pat %d", got, standPat)
		}
		if got, _ := th.qsearch(-InfScore, standPat-1, 0); got != standPat-1 {
			t.Errorf("qsearch above beta = %d, want beta %d", got, standPat-1)
		}
	})

	t.Run("losing capture skipped", func(t *testing.T) {
		th := newQuiescenceThread(t, "4k3/8/3p4/4p3/8/8/4Q3/4K3 w - - 0 1")
		standPat := th.evaluate()
		got, ok := th.qsearch(-InfScore, InfScore, 0)
		if !ok || got != standPat {
			t.Errorf("qsearch = %d, %v; want stand pat %d", got, ok, standPat)
		}
		if n := th.nodes(); n != 1 {
			t.Errorf("searched %d nodes, want only the root", n)
		}
	})

	t.Run("winning capture taken", func(t *testing.T) {
		th := newQuiescenceThread(t, "4k3/8/8/4p3/8/8/4Q3/4K3 w - - 0 1")
		standPat := th.evaluate()
		if got, _ := th.qsearch(-InfScore, InfScore, 0); got <= standPat {
			t.Errorf("qsearch = %d, want more than stand pat %d", got, standPat)
		}
	})

	t.Run("mated at root", func(t *testing.T) {
		th := newQuiescenceThread(t, "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1")
		if got, _ := th.qsearch(-InfScore, InfScore, 0); got != MatedIn(0) {
			t.Errorf("qsearch = %d, want %d", got, MatedIn(0))
		}
	})

	t.Run("capture mates", func(t *testing.T) {
		th := newQuiescenceThread(t, "r5k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
		if got, _ := th.qsearch(-InfScore, InfScore, 0); got != MateIn(1) {
			t.Errorf("qsearch = %d, want %d", got, MateIn(1))
		}
	})
}

func TestSearchWithoutLegalMoves(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		score int
	}{
		{"checkmate", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", MatedIn(0)},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", DrawScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, 1)
			r, err := m.Search(context.Background(), mustParse(t, tt.fen), Limits{Depth: 3})
			if err != nil {
				t.Fatal(err)
			}
			if r.Move != board.NoMove {
				t.Errorf("move = %s, want none", r.Move)
			}
			if r.Score != tt.score {
				t.Errorf("score = %d, want %d", r.Score, tt.score)
			}
		})
	}
}

func TestSearchScoresDeadDrawAsZero(t *testing.T) {
	m := newTestManager(t, 1)
	r, err := m.Search(context.Background(), mustParse(t, "8/8/4k3/8/8/3K4/8/8 w - - 0 1"), Limits{Depth: 6})
	if err != nil {
		t.Fatal(err)
	}
	if r.Score != DrawScore {
		t.Errorf("score = %d, want %d", r.Score, DrawScore)
	}
}

func TestSearchTakesThreefoldWhenLosing(t *testing.T) {
	// Black is a queen down and can repeat the position a third time.
	pos := mustParse(t, "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1"} {
		mv, err := pos.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		pos.MakeMove(mv, nil)
	}

	m := newTestManager(t, 1)
	r, err := m.Search(context.Background(), pos, Limits{Depth: 5})
	if err != nil {
		t.Fatal(err)
	}
	if r.Move.String() != "f6g8" || r.Score != DrawScore {
		t.Errorf("got %s with score %d, want f6g8 scored as a draw", r.Move, r.Score)
	}
}

func TestSearchNodeLimit(t *testing.T) {
	m := newTestManager(t, 1)
	pos := board.NewPosition()
	r, err := m.Search(context.Background(), pos, Limits{Nodes: 100_000})
	if err != nil {
		t.Fatal(err)
	}
	if !isLegal(pos, r.Move) {
		t.Errorf("move %s is not legal", r.Move)
	}
	if r.Score == Unknown || r.Score <= -InfScore || r.Score >= InfScore {
		t.Errorf("score = %d", r.Score)
	}
	if r.Nodes < 100_000 || r.Nodes > 100_000+4096 {
		t.Errorf("searched %d nodes with a budget of 100000", r.Nodes)
	}
	t.Logf("depth %d, move %s, score %d, nodes %d", r.Depth, r.Move, r.Score, r.Nodes)
}

func TestSearchRespectsMoveTime(t *testing.T) {
	m := newTestManager(t, 2)
	pos := board.NewPosition()
	start := time.Now()
	r, err := m.Search(context.Background(), pos, Limits{MoveTime: 200 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 700*time.Millisecond {
		t.Errorf("search took %v with a 200ms move time", elapsed)
	}
	if !isLegal(pos, r.Move) {
		t.Errorf("move %s is not legal", r.Move)
	}
}

func TestSearchMultipleThreads(t *testing.T) {
	m := newTestManager(t, 4)
	pos := mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	r, err := m.Search(context.Background(), pos, Limits{Depth: 6})
	if err != nil {
		t.Fatal(err)
	}
	if r.Depth != 6 {
		t.Errorf("depth = %d, want 6", r.Depth)
	}
	if !isLegal(pos, r.Move) {
		t.Errorf("move %s is not legal", r.Move)
	}
	if len(r.PV) == 0 || r.PV[0] != r.Move {
		t.Errorf("pv %v does not start with %s", r.PV, r.Move)
	}
}

func TestStopEndsInfiniteSearch(t *testing.T) {
	m := newTestManager(t, 2)
	pos := board.NewPosition()
	if err := m.Start(context.Background(), pos, Limits{Infinite: true}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if !m.Searching() {
		t.Fatal("infinite search ended on its own")
	}
	m.Stop()
	r := m.Join()
	if m.Searching() {
		t.Error("still searching after Join")
	}
	if !isLegal(pos, r.Move) {
		t.Errorf("move %s is not legal", r.Move)
	}
}

func TestSettersStopRunningSearch(t *testing.T) {
	setters := map[string]func(*Manager){
		"SetLogger":      func(m *Manager) { m.SetLogger(zerolog.Nop()) },
		"SetEvalNetwork": func(m *Manager) { m.SetEvalNetwork(nil) },
		"SetHashSize":    func(m *Manager) { _ = m.SetHashSize(2) },
	}
	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, 2)
			if err := m.Start(context.Background(), board.NewPosition(), Limits{Infinite: true}); err != nil {
				t.Fatal(err)
			}
			set(m)
			if m.Searching() {
				t.Fatal("search still running after the setting changed")
			}
			r, err := m.Search(context.Background(), board.NewPosition(), Limits{Depth: 2})
			if err != nil {
				t.Fatal(err)
			}
			if r.Depth != 2 {
				t.Errorf("follow-up search reached depth %d, want 2", r.Depth)
			}
		})
	}
}

func TestContextCancelStopsSearch(t *testing.T) {
	m := newTestManager(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan Result)
	go func() {
		r, _ := m.Search(ctx, board.NewPosition(), Limits{Infinite: true})
		done <- r
	}()
	select {
	case r := <-done:
		if r.Move == board.NoMove {
			t.Error("cancelled search returned no move")
		}
	case <-time.After(5 * time.Second):
		m.Stop()
		t.Fatal("search ignored context cancellation")
	}
}

func TestStartRejectsInvalidLimits(t *testing.T) {
	m := newTestManager(t, 1)
	err := m.Start(context.Background(), board.NewPosition(), Limits{Depth: -3})
	if !errors.Is(err, ErrInvalidLimits) {
		t.Errorf("error = %v, want ErrInvalidLimits", err)
	}
	if m.Searching() {
		t.Error("search started with invalid limits")
	}
}

func TestOnInfoReportsEveryIteration(t *testing.T) {
	m := newTestManager(t, 2)
	var depths []int
	m.OnInfo = func(info Info) {
		depths = append(depths, info.Depth)
		if len(info.PV) == 0 {
			t.Errorf("depth %d reported an empty pv", info.Depth)
		}
	}
	if _, err := m.Search(context.Background(), board.NewPosition(), Limits{Depth: 5}); err != nil {
		t.Fatal(err)
	}
	if len(depths) != 5 {
		t.Fatalf("got reports for depths %v, want 1..5", depths)
	}
	for i, d := range depths {
		if d != i+1 {
			t.Errorf("report %d has depth %d", i, d)
		}
	}
}

func TestManagerSettings(t *testing.T) {
	if _, err := NewManager(0, 1); !errors.Is(err, ErrInvalidHashSize) {
		t.Errorf("NewManager(0, 1) error = %v", err)
	}
	m := newTestManager(t, 1)
	if err := m.SetThreads(0); !errors.Is(err, ErrInvalidThreads) {
		t.Errorf("SetThreads(0) error = %v", err)
	}
	if err := m.SetThreads(MaxThreads + 1); !errors.Is(err, ErrInvalidThreads) {
		t.Errorf("SetThreads(%d) error = %v", MaxThreads+1, err)
	}
	if err := m.SetThreads(3); err != nil {
		t.Fatal(err)
	}
	if m.Threads() != 3 {
		t.Errorf("Threads() = %d, want 3", m.Threads())
	}
	if err := m.SetHashSize(MaxHashMB + 1); !errors.Is(err, ErrInvalidHashSize) {
		t.Errorf("SetHashSize error = %v", err)
	}
	if err := m.SetHashSize(2); err != nil {
		t.Fatal(err)
	}
}

func TestBenchIsReproducible(t *testing.T) {
	m := newTestManager(t, 1)
	first, err := Bench(context.Background(), m, 4)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Bench(context.Background(), m, 4)
	if err != nil {
		t.Fatal(err)
	}
	if first.Nodes == 0 || first.Nodes != second.Nodes {
		t.Errorf("bench nodes %d then %d", first.Nodes, second.Nodes)
	}
	t.Logf("bench: %d nodes, %d nps", first.Nodes, first.NPS())
}
