package position

// Zobrist hash keys for position hashing. Uses a fixed-seed PRNG for
// reproducibility, the same idiom as internal/board/zobrist.go, extended
// with keys for pieces held in hand (shogi has no chess analogue for this).
var (
	zobristPiece     [2][NumPieceTypes][BoardSize]uint64
	zobristHand      [2][NumPieceTypes]uint64 // indexed once per held piece (XORed N times for N copies)
	zobristSideToMove uint64
)

func init() {
	initZobrist()
}

// xorshift64* PRNG, identical algorithm to internal/board/zobrist.go.
type prng struct{ state uint64 }

func newPRNG(seed uint64) *prng { return &prng{state: seed} }

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x7368_6F67_6931_2334) // fixed seed, distinct from the chess table's

	for c := Black; c <= White; c++ {
		for pt := PieceType(1); pt < NumPieceTypes; pt++ {
			for sq := Square(0); int(sq) < BoardSize; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}

	for c := Black; c <= White; c++ {
		for pt := PieceType(1); pt < NumPieceTypes; pt++ {
			zobristHand[c][pt] = rng.next()
		}
	}

	zobristSideToMove = rng.next()
}

func ZobristPiece(c Color, pt PieceType, sq Square) uint64 { return zobristPiece[c][pt][sq] }
func ZobristHandUnit(c Color, pt PieceType) uint64         { return zobristHand[c][pt] }
func ZobristSideToMove() uint64                            { return zobristSideToMove }
