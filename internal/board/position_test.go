package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 12 40",
	}
	for _, fen := range fens {
		if got := mustParse(t, fen).FEN(); got != fen {
			t.Errorf("FEN() = %q, want %q", got, fen)
		}
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbq1bnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ - 0 1",
		"4k2R/8/8/8/8/8/8/4K3 w - - 0 1",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) error = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestEnPassantOnlyWhenCapturable(t *testing.T) {
	pos := NewPosition()
	play(t, pos, "e2e4")
	if pos.EnPassant() != NoSquare {
		t.Errorf("en passant square %s set with no capturing pawn", pos.EnPassant())
	}
	play(t, pos, "d7d5", "e4e5", "f7f5")
	if pos.EnPassant().String() != "f6" {
		t.Errorf("en passant square = %s, want f6", pos.EnPassant())
	}
}

// TestMakeUndoKeepsKeys walks two plies from several positions and checks
// the incremental keys against a fresh parse at every node.
func TestMakeUndoKeepsKeys(t *testing.T) {
	for _, tc := range perftPositions {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			before := pos.FEN()
			var buf [MaxMoves]Move
			for _, m := range pos.GenerateMoves(buf[:0]) {
				pos.MakeMove(m, nil)
				checkKeys(t, pos, m)
				var inner [MaxMoves]Move
				for _, r := range pos.GenerateMoves(inner[:0]) {
					pos.MakeMove(r, nil)
					checkKeys(t, pos, r)
					pos.UndoMove(r, nil)
				}
				pos.UndoMove(m, nil)
				if pos.FEN() != before {
					t.Fatalf("undo %s: got %s, want %s", m, pos.FEN(), before)
				}
			}
		})
	}
}

func checkKeys(t *testing.T, pos *Position, m Move) {
	t.Helper()
	fresh := mustParse(t, pos.FEN())
	if pos.Key() != fresh.Key() {
		t.Fatalf("after %s: key %016x, recomputed %016x (%s)", m, pos.Key(), fresh.Key(), pos.FEN())
	}
	if pos.PawnKey() != fresh.PawnKey() {
		t.Fatalf("after %s: pawn key mismatch (%s)", m, pos.FEN())
	}
	if pos.Checkers() != fresh.Checkers() {
		t.Fatalf("after %s: checkers mismatch (%s)", m, pos.FEN())
	}
}

func TestKeyAfterMatchesQuietMoves(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"g1f3", "e2e3", "b1c3"} {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		want := pos.KeyAfter(m)
		pos.MakeMove(m, nil)
		if pos.Key() != want {
			t.Errorf("KeyAfter(%s) = %016x, key after move %016x", s, want, pos.Key())
		}
		pos.UndoMove(m, nil)
	}
}

func TestNullMove(t *testing.T) {
	pos := mustParse(t, "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3")
	key := pos.Key()
	pos.MakeNullMove()
	if pos.SideToMove() != Black || pos.EnPassant() != NoSquare {
		t.Fatalf("null move did not pass the turn cleanly: %s", pos.FEN())
	}
	if pos.Key() == key {
		t.Error("null move kept the same key")
	}
	pos.UndoNullMove()
	if pos.Key() != key || pos.SideToMove() != White {
		t.Error("UndoNullMove did not restore the position")
	}
}

func TestThreefoldRepetition(t *testing.T) {
	pos := NewPosition()
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	play(t, pos, shuffle...)
	if !pos.IsDraw(false) {
		t.Error("second occurrence should be a draw at non-PV nodes")
	}
	if pos.IsDraw(true) {
		t.Error("second occurrence should not be a draw at PV nodes")
	}

	play(t, pos, shuffle...)
	if !pos.IsDraw(true) {
		t.Error("third occurrence must be a draw")
	}
}

func TestRepetitionNeedsSameSideToMove(t *testing.T) {
	pos := NewPosition()
	play(t, pos, "g1f3", "g8f6", "f3g1")
	if pos.IsDraw(false) {
		t.Error("no position has repeated yet")
	}
}

func TestDrawRules(t *testing.T) {
	tests := []struct {
		fen  string
		draw bool
	}{
		{"k7/8/8/8/8/8/8/KR6 w - - 100 80", true},
		{"k7/8/8/8/8/8/8/KR6 w - - 99 80", false},
		{"k7/8/8/8/8/8/8/KN6 w - - 0 1", true},
		{"k7/8/8/8/8/8/8/KB6 b - - 0 1", true},
		{"k7/8/8/8/8/8/8/K7 w - - 0 1", true},
		{"k7/8/8/8/8/8/8/KNN5 w - - 0 1", false},
		{"k7/p7/8/8/8/8/8/K7 w - - 0 1", false},
		{"R6k/6pp/8/8/8/8/8/K7 b - - 100 80", false},
	}
	for _, tc := range tests {
		if got := mustParse(t, tc.fen).IsDraw(true); got != tc.draw {
			t.Errorf("IsDraw(%q) = %v, want %v", tc.fen, got, tc.draw)
		}
	}
}

func TestParseMove(t *testing.T) {
	pos := mustParse(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8")
	m, err := pos.ParseMove("d7c8n")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !m.IsPromotion() || !m.IsCapture() || m.Promotion() != Knight {
		t.Errorf("d7c8n decoded as flag %d", m.Flag())
	}
	if _, err := pos.ParseMove("e1c1"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("e1c1 should be illegal, got %v", err)
	}
}

func TestCheckmateHasNoMoves(t *testing.T) {
	pos := mustParse(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if !pos.InCheck() || pos.HasLegalMove() {
		t.Error("back rank mate not detected")
	}
	pos = mustParse(t, "6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if !pos.HasLegalMove() {
		t.Error("king can capture the rook")
	}
}

func play(t *testing.T, pos *Position, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		pos.MakeMove(m, nil)
	}
}
