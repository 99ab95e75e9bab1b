package board

import (
	"encoding/binary"
	"testing"

	"lukechampine.com/frand"
)

// sparseOccupancy returns a random board with about a quarter of the
// squares filled.
func sparseOccupancy() Bitboard {
	return Bitboard(binary.LittleEndian.Uint64(frand.Bytes(8)) & binary.LittleEndian.Uint64(frand.Bytes(8)))
}

func TestMagicsMatchRayScans(t *testing.T) {
	for sq := Square(0); sq < 64; sq++ {
		for i := 0; i < 500; i++ {
			occ := sparseOccupancy()
			if got, want := BishopAttacks(sq, occ), bishopRays(sq, occ); got != want {
				t.Fatalf("bishop on %s, occupancy %#x: magic %#x, rays %#x", sq, uint64(occ), uint64(got), uint64(want))
			}
			if got, want := RookAttacks(sq, occ), rookRays(sq, occ); got != want {
				t.Fatalf("rook on %s, occupancy %#x: magic %#x, rays %#x", sq, uint64(occ), uint64(got), uint64(want))
			}
		}
	}
}

func TestSliderAttacks(t *testing.T) {
	tests := []struct {
		name string
		got  Bitboard
		want int
	}{
		{"rook a1 empty", RookAttacks(A1, 0), 14},
		{"bishop a1 empty", BishopAttacks(A1, 0), 7},
		{"rook d4 empty", RookAttacks(NewSquare(3, 3), 0), 14},
		{"bishop d4 empty", BishopAttacks(NewSquare(3, 3), 0), 13},
		{"rook a1 boxed", RookAttacks(A1, SquareBB(B1)|SquareBB(NewSquare(0, 1))), 2},
		{"queen h8 empty", QueenAttacks(H8, 0), 21},
	}
	for _, tt := range tests {
		if n := tt.got.Count(); n != tt.want {
			t.Errorf("%s: %d squares, want %d", tt.name, n, tt.want)
		}
	}
}
