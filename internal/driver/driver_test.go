package driver

import (
	"testing"
	"time"

	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/matereval"
	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/search"
	"github.com/hailam/shogiplay/internal/timeman"
	"github.com/hailam/shogiplay/internal/tt"
	"github.com/hailam/shogiplay/internal/value"
	"github.com/hailam/shogiplay/internal/workerpool"
	"github.com/stretchr/testify/assert"
)

func newTestDriver(workers int) *Driver {
	tbl := tt.New(1)
	hist := history.New()
	pool := workerpool.New(workers, tbl, hist, func() search.Evaluator { return matereval.New() })
	return New(pool, tbl, hist)
}

func TestAspirationWindowIsFullAtShallowDepth(t *testing.T) {
	alpha, beta := aspirationWindow(2, 50, true)
	assert.Equal(t, -value.Infinite, alpha)
	assert.Equal(t, value.Infinite, beta)
}

func TestAspirationWindowNarrowsAtDeeperDepth(t *testing.T) {
	alpha, beta := aspirationWindow(10, value.Value(50), true)
	assert.Equal(t, value.Value(33), alpha)
	assert.Equal(t, value.Value(67), beta)
}

func TestAspirationWindowIsFullNearMateScores(t *testing.T) {
	alpha, beta := aspirationWindow(10, value.MateIn(3), true)
	assert.Equal(t, -value.Infinite, alpha)
	assert.Equal(t, value.Infinite, beta)
}

func TestSearchReturnsALegalMoveWithinDepthLimit(t *testing.T) {
	d := newTestDriver(1)
	root := position.NewStartPosition()

	result := d.Search(root, []uint64{root.Hash}, int(position.Black), 0, Limits{
		Time: timeman.Limits{Depth: 3},
	})

	assert.False(t, result.Resign)
	assert.NotEqual(t, position.NoMove, result.Move)

	legal := position.GenerateLegal(root)
	found := false
	for _, m := range legal {
		if m == result.Move {
			found = true
			break
		}
	}
	assert.True(t, found)
}

func TestSearchStopsAtHardDeadlineWithoutHanging(t *testing.T) {
	d := newTestDriver(1)
	root := position.NewStartPosition()

	done := make(chan Result, 1)
	go func() {
		done <- d.Search(root, []uint64{root.Hash}, int(position.Black), 0, Limits{
			Time: timeman.Limits{MoveTime: 30 * time.Millisecond},
		})
	}()

	select {
	case result := <-done:
		assert.NotEqual(t, position.NoMove, result.Move)
	case <-time.After(2 * time.Second):
		t.Fatal("Search did not return within the hard deadline plus generous slack")
	}
}

func TestWalkPVStopsOnIllegalOrMissingTTMove(t *testing.T) {
	d := newTestDriver(1)
	root := position.NewStartPosition()
	pv := d.walkPV(root, 5)
	assert.Empty(t, pv, "an empty TT has no best-move pointers to follow")
}
