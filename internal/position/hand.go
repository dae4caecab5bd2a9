package position

// Hand tracks captured pieces held off-board by each side, ready to be
// dropped. Shogi has no chess analogue for this; captured pieces always
// revert to their unpromoted form (piece.go's Unpromoted).
type Hand [2][NumPieceTypes]uint8

func (h *Hand) Count(c Color, pt PieceType) int {
	return int(h[c][pt])
}

func (h *Hand) Add(c Color, pt PieceType) {
	h[c][pt.Unpromoted()]++
}

func (h *Hand) Remove(c Color, pt PieceType) {
	if h[c][pt] > 0 {
		h[c][pt]--
	}
}

func (h *Hand) IsEmpty(c Color) bool {
	for _, pt := range DroppablePieceTypes {
		if h[c][pt] > 0 {
			return false
		}
	}
	return true
}

func (h Hand) Copy() Hand {
	return h
}
