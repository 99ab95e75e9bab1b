package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/whitecore/internal/board"
)

func TestSFPieceCodes(t *testing.T) {
	tests := []struct {
		pc   board.Piece
		want int
	}{
		{board.WhitePawn, 1},
		{board.WhiteKing, 6},
		{board.BlackPawn, 9},
		{board.BlackQueen, 13},
		{board.BlackKing, 14},
	}
	for _, tt := range tests {
		if got := sfPiece(tt.pc); got != tt.want {
			t.Errorf("sfPiece(%d) = %d, want %d", tt.pc, got, tt.want)
		}
	}
}

func TestFindNetwork(t *testing.T) {
	empty, full := t.TempDir(), t.TempDir()
	for _, name := range []string{DefaultBigNet, DefaultSmallNet} {
		if err := os.WriteFile(filepath.Join(full, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	half := t.TempDir()
	if err := os.WriteFile(filepath.Join(half, DefaultBigNet), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, ok := FindNetwork(empty, half); ok {
		t.Error("found a network where only the big file exists")
	}
	big, small, ok := FindNetwork(empty, half, full)
	if !ok {
		t.Fatal("network not found")
	}
	if big != filepath.Join(full, DefaultBigNet) || small != filepath.Join(full, DefaultSmallNet) {
		t.Errorf("FindNetwork = %s, %s", big, small)
	}
}

func TestLoadNetworkMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadNetwork(filepath.Join(dir, "big.nnue"), filepath.Join(dir, "small.nnue")); err == nil {
		t.Error("LoadNetwork succeeded on missing files")
	}
}

func TestEvaluatorWithoutNetwork(t *testing.T) {
	e := New()
	e.UseNetwork(nil)
	if e.Network() != nil {
		t.Fatal("classical evaluator reports a network")
	}
	if _, ok := e.Observer().(*Accumulator); !ok {
		t.Errorf("classical observer is %T, want *Accumulator", e.Observer())
	}
	pos := board.NewPosition()
	e.Refresh(pos)
	if got, want := e.Evaluate(pos), Evaluate(pos); got != want {
		t.Errorf("Evaluate = %d, want %d", got, want)
	}
}
