package search

import (
	"sync/atomic"
	"testing"

	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/matereval"
	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/tt"
	"github.com/hailam/shogiplay/internal/value"
	"github.com/stretchr/testify/assert"
)

func newTestWorker() *Worker {
	tbl := tt.New(1)
	hist := history.New()
	var stop atomic.Bool
	w := NewWorker(0, tbl, hist, matereval.New(), &stop)
	w.Reset(position.NewStartPosition(), nil)
	return w
}

func TestSearchRootReturnsALegalMove(t *testing.T) {
	w := newTestWorker()
	move, score := w.SearchRoot(3, -value.Infinite, value.Infinite)

	assert.NotEqual(t, position.NoMove, move)
	assert.Less(t, score, value.Infinite)

	legal := position.GenerateLegal(w.Pos)
	found := false
	for _, m := range legal {
		if m == move {
			found = true
			break
		}
	}
	assert.True(t, found, "the move SearchRoot returns must be legal in the root position")
}

func TestSearchRootRespectsExcludedRootMoves(t *testing.T) {
	w := newTestWorker()
	first, _ := w.SearchRoot(2, -value.Infinite, value.Infinite)
	assert.NotEqual(t, position.NoMove, first)

	w.Reset(position.NewStartPosition(), nil)
	w.SetExcludedRootMoves([]position.Move{first})
	second, _ := w.SearchRoot(2, -value.Infinite, value.Infinite)

	assert.NotEqual(t, first, second, "excluding the previous best move should force a different root choice")
}

func TestStoppedLatchesImmediately(t *testing.T) {
	w := newTestWorker()
	assert.False(t, w.stopped())
	w.Stop.Store(true)
	assert.True(t, w.stopped())
}

func TestLMRTableIsMonotonicInDepthAndMoveCount(t *testing.T) {
	assert.GreaterOrEqual(t, lmrTable[10][10], lmrTable[4][4])
	assert.Equal(t, 0, lmrTable[1][1])
}

func TestQuiescenceStaysNearStaticEvalInQuietStartPosition(t *testing.T) {
	w := newTestWorker()
	standPat := value.Value(w.evaluate())
	score := w.quiescence(0, -value.Infinite, value.Infinite)
	assert.GreaterOrEqual(t, score, standPat-value.Value(1000), "quiescence should not score far below the static evaluation from the quiet start position")
}
