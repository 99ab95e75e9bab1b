package board

var (
	pieceKeys     [NoPiece][64]uint64
	castlingKeys  [16]uint64
	enPassantKeys [8]uint64
	sideKey       uint64
)

// prng is a xorshift64* generator; a fixed seed keeps keys stable across runs.
type prng uint64

func (p *prng) next() uint64 {
	x := uint64(*p)
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	*p = prng(x)
	return x * 0x2545F4914F6CDD1D
}

func init() {
	r := prng(0x6A09E667F3BCC909)
	for p := range pieceKeys {
		for sq := range pieceKeys[p] {
			pieceKeys[p][sq] = r.next()
		}
	}
	for i := range castlingKeys {
		castlingKeys[i] = r.next()
	}
	for i := range enPassantKeys {
		enPassantKeys[i] = r.next()
	}
	sideKey = r.next()
}
