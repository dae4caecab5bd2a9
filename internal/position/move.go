package position

import "fmt"

// Move encodes a shogi move in 32 bits:
//   bits 0-6:   to square (0-80)
//   bits 7-13:  from square (0-80), or DropFromSentinel for a drop
//   bit 14:     promote flag
//   bits 15-18: drop piece type (0 unless this is a drop move)
// Adapted from internal/board/move.go's bit-packed uint16 Move; widened to
// uint32 and given a drop encoding, neither of which a chess Move needs.
type Move uint32

const NoMove Move = 0

// DropFromSentinel marks a move as a drop rather than a board move.
const DropFromSentinel Square = 127

func NewBoardMove(from, to Square, promote bool) Move {
	m := Move(to) | Move(from)<<7
	if promote {
		m |= 1 << 14
	}
	return m
}

func NewDropMove(pt PieceType, to Square) Move {
	return Move(to) | Move(DropFromSentinel)<<7 | Move(pt)<<15
}

func (m Move) To() Square        { return Square(m & 0x7F) }
func (m Move) From() Square      { return Square((m >> 7) & 0x7F) }
func (m Move) IsPromotion() bool { return m&(1<<14) != 0 }
func (m Move) IsDrop() bool      { return m.From() == DropFromSentinel }
func (m Move) DropPiece() PieceType {
	return PieceType((m >> 15) & 0x0F)
}

func (m Move) String() string {
	if m == NoMove {
		return "resign"
	}
	if m.IsDrop() {
		return fmt.Sprintf("%s*%s", m.DropPiece(), m.To())
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += "+"
	}
	return s
}
