package history

import (
	"testing"

	"github.com/hailam/shogiplay/internal/position"
	"github.com/stretchr/testify/assert"
)

func TestButterflyBonusAndMalus(t *testing.T) {
	tbl := New()
	cutoff := position.NewBoardMove(position.NewSquare(2, 6), position.NewSquare(2, 5), false)
	earlier := position.NewBoardMove(position.NewSquare(3, 6), position.NewSquare(3, 5), false)

	tbl.UpdateButterfly(position.Black, 4, cutoff, []position.Move{earlier, cutoff})

	assert.Greater(t, tbl.ButterflyScore(position.Black, cutoff), int32(0))
	assert.Less(t, tbl.ButterflyScore(position.Black, earlier), int32(0))
}

func TestHistoryNeverExceedsBounds(t *testing.T) {
	tbl := New()
	m := position.NewBoardMove(position.NewSquare(0, 0), position.NewSquare(0, 1), false)
	for i := 0; i < 10000; i++ {
		tbl.UpdateButterfly(position.Black, 20, m, nil)
	}
	score := tbl.ButterflyScore(position.Black, m)
	assert.LessOrEqual(t, score, int32(HistMax))
	assert.GreaterOrEqual(t, score, int32(-HistMax))
}

func TestCaptureHistoryGoodBad(t *testing.T) {
	tbl := New()
	tbl.UpdateCapture(position.White, 6, position.Rook, position.NewSquare(4, 4), position.Pawn, true)
	good := tbl.CaptureScore(position.White, position.Rook, position.NewSquare(4, 4), position.Pawn)
	assert.Greater(t, good, int32(0))

	tbl.UpdateCapture(position.White, 6, position.Rook, position.NewSquare(4, 4), position.Pawn, false)
	worse := tbl.CaptureScore(position.White, position.Rook, position.NewSquare(4, 4), position.Pawn)
	assert.Less(t, worse, good)
}

func TestContinuationHistoryUpdatesOnlyTheGivenPair(t *testing.T) {
	tbl := New()
	tbl.UpdateContinuation(position.Black, position.Silver, position.NewSquare(1, 1),
		position.White, position.Gold, position.NewSquare(2, 2), 5, true)

	score := tbl.ContinuationScore(position.Black, position.Silver, position.NewSquare(1, 1),
		position.White, position.Gold, position.NewSquare(2, 2))
	assert.Greater(t, score, int32(0))

	// a different (piece,to) pair must not be affected
	unrelated := tbl.ContinuationScore(position.Black, position.Pawn, position.NewSquare(0, 0),
		position.White, position.Gold, position.NewSquare(2, 2))
	assert.Equal(t, int32(0), unrelated)
}

func TestUpdateKillersShiftsSlot0(t *testing.T) {
	var killers [2]position.Move
	m1 := position.NewBoardMove(position.NewSquare(0, 0), position.NewSquare(0, 1), false)
	m2 := position.NewBoardMove(position.NewSquare(1, 0), position.NewSquare(1, 1), false)

	UpdateKillers(&killers, m1)
	assert.Equal(t, m1, killers[0])

	UpdateKillers(&killers, m2)
	assert.Equal(t, m2, killers[0])
	assert.Equal(t, m1, killers[1])

	// Re-inserting the current slot 0 must be a no-op.
	UpdateKillers(&killers, m2)
	assert.Equal(t, m2, killers[0])
	assert.Equal(t, m1, killers[1])
}

func TestCorrectionHistoryGravity(t *testing.T) {
	tbl := New()
	for i := 0; i < 50; i++ {
		tbl.UpdateCorrection(position.Black, 0xABCD, 8, 100)
	}
	score := tbl.CorrectionScore(position.Black, 0xABCD)
	assert.Greater(t, score, int32(0))
}
