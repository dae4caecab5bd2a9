package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartPositionHasLegalMoves(t *testing.T) {
	pos := NewStartPosition()
	moves := GenerateLegal(pos)
	assert.Greater(t, len(moves), 0)
	assert.False(t, InCheck(pos, Black))
	assert.False(t, InCheck(pos, White))
}

func TestMakeUnmakeRestoresHash(t *testing.T) {
	pos := NewStartPosition()
	before := pos.Hash
	moves := GenerateLegal(pos)
	assert.Greater(t, len(moves), 0)

	for _, m := range moves[:min(5, len(moves))] {
		u := pos.MakeMove(m)
		pos.UnmakeMove(m, u)
		assert.Equal(t, before, pos.Hash)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestSFENRoundTripStartPosition(t *testing.T) {
	pos, err := ParseSFEN(StartSFEN)
	assert.NoError(t, err)
	assert.Equal(t, Black, pos.SideToMove)
	assert.Equal(t, NewPiece(Black, King), pos.Board[pos.KingSquare[Black]])
	assert.Equal(t, NewStartPosition().Hash, pos.Hash)
}

func TestNullMoveRoundTrip(t *testing.T) {
	pos := NewStartPosition()
	before := pos.Hash
	prevColor := pos.SideToMove
	undo := pos.MakeNullMove()
	assert.NotEqual(t, prevColor, pos.SideToMove)
	pos.UnmakeNullMove(undo)
	assert.Equal(t, before, pos.Hash)
	assert.Equal(t, prevColor, pos.SideToMove)
}

func TestHistoryRepetition(t *testing.T) {
	h := NewHistory()
	h.Push(42)
	h.Push(42)
	h.Push(42)
	assert.False(t, h.IsRepetition(42)) // only 3 occurrences so far
	h.Push(42)
	assert.True(t, h.IsRepetition(42))
}

func TestDropRoundTrip(t *testing.T) {
	pos := NewStartPosition()
	// Manually give Black a pawn in hand and drop it onto an empty square.
	pos.Hand.Add(Black, Pawn)
	before := pos.Hash

	to := NewSquare(4, 4) // empty central square
	m := NewDropMove(Pawn, to)
	u := pos.MakeMove(m)
	assert.Equal(t, NewPiece(Black, Pawn), pos.Board[to])
	assert.Equal(t, 0, pos.Hand.Count(Black, Pawn))

	pos.UnmakeMove(m, u)
	assert.Equal(t, before, pos.Hash)
	assert.Equal(t, 1, pos.Hand.Count(Black, Pawn))
}
