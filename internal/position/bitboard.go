package position

import "math/bits"

// Bitboard covers all 81 shogi squares as two machine words: Lo holds
// squares 0-62, Hi holds squares 63-80. A single uint64 (as the teacher's
// chess Bitboard uses for 64 squares) cannot address a 9x9 board, so this
// is a genuine redesign of internal/board/bitboard.go's method set rather
// than a port.
type Bitboard struct {
	Lo uint64
	Hi uint64
}

const hiSplit = 63

func SquareBB(sq Square) Bitboard {
	if sq < hiSplit {
		return Bitboard{Lo: 1 << uint(sq)}
	}
	return Bitboard{Hi: 1 << uint(sq-hiSplit)}
}

func (b Bitboard) Or(o Bitboard) Bitboard     { return Bitboard{b.Lo | o.Lo, b.Hi | o.Hi} }
func (b Bitboard) And(o Bitboard) Bitboard    { return Bitboard{b.Lo & o.Lo, b.Hi & o.Hi} }
func (b Bitboard) Xor(o Bitboard) Bitboard    { return Bitboard{b.Lo ^ o.Lo, b.Hi ^ o.Hi} }
func (b Bitboard) AndNot(o Bitboard) Bitboard { return Bitboard{b.Lo &^ o.Lo, b.Hi &^ o.Hi} }
func (b Bitboard) Empty() bool                { return b.Lo == 0 && b.Hi == 0 }

func (b Bitboard) Test(sq Square) bool {
	return !b.And(SquareBB(sq)).Empty()
}

func (b *Bitboard) Set(sq Square)   { *b = b.Or(SquareBB(sq)) }
func (b *Bitboard) Clear(sq Square) { *b = b.AndNot(SquareBB(sq)) }

func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.Lo) + bits.OnesCount64(b.Hi)
}

// LSB returns the lowest-indexed occupied square, or NoSquare if empty.
func (b Bitboard) LSB() Square {
	if b.Lo != 0 {
		return Square(bits.TrailingZeros64(b.Lo))
	}
	if b.Hi != 0 {
		return Square(bits.TrailingZeros64(b.Hi) + hiSplit)
	}
	return NoSquare
}

// PopLSB returns the lowest-indexed occupied square and clears it.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	if sq != NoSquare {
		b.Clear(sq)
	}
	return sq
}
