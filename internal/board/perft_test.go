package board

import (
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/notnil/chess"
)

var perftPositions = []struct {
	name   string
	fen    string
	counts []uint64
}{
	{"startpos", StartFEN, []uint64{20, 400, 8902, 197281}},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", []uint64{48, 2039, 97862}},
	{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []uint64{14, 191, 2812, 43238}},
	{"promotions", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []uint64{6, 264, 9467}},
	{"castling", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []uint64{44, 1486, 62379}},
	{"ep pin", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []uint64{6, 94}},
}

func TestPerft(t *testing.T) {
	for _, tc := range perftPositions {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			for i, want := range tc.counts {
				depth := i + 1
				if got := pos.Perft(depth); got != want {
					t.Errorf("perft(%d) = %d, want %d", depth, got, want)
				}
			}
			if pos.FEN() != mustParse(t, tc.fen).FEN() {
				t.Errorf("position not restored after perft: %s", pos.FEN())
			}
		})
	}
}

func TestDivideSumsToPerft(t *testing.T) {
	pos := mustParse(t, perftPositions[1].fen)
	var total uint64
	for _, e := range pos.Divide(2) {
		total += e.Nodes
	}
	if total != 2039 {
		t.Errorf("divide(2) total = %d, want 2039", total)
	}
}

func dragontoothPerft(b *dragontoothmg.Board, depth int) uint64 {
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		unapply := b.Apply(m)
		nodes += dragontoothPerft(b, depth-1)
		unapply()
	}
	return nodes
}

// TestPerftAgainstDragontooth checks the generator against an independent one.
func TestPerftAgainstDragontooth(t *testing.T) {
	for _, tc := range perftPositions {
		if tc.name == "endgame" || tc.name == "ep pin" {
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			other := dragontoothmg.ParseFen(tc.fen)
			const depth = 3
			if got, want := pos.Perft(depth), dragontoothPerft(&other, depth); got != want {
				t.Errorf("perft(%d) = %d, dragontoothmg says %d", depth, got, want)
			}
		})
	}
}

func TestLegalMoveCountAgainstNotnil(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"r6k/6pp/8/8/8/8/8/K6R b - - 0 1",
		"4k3/8/8/8/8/8/4q3/4K3 w - - 0 1",
	}
	for _, fen := range fens {
		opt, err := chess.FEN(fen)
		if err != nil {
			t.Fatalf("notnil/chess rejected %q: %v", fen, err)
		}
		game := chess.NewGame(opt)

		var buf [MaxMoves]Move
		got := len(mustParse(t, fen).GenerateMoves(buf[:0]))
		if want := len(game.ValidMoves()); got != want {
			t.Errorf("%s: %d legal moves, notnil/chess has %d", fen, got, want)
		}
	}
}

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}
