package workerpool

import (
	"testing"

	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/matereval"
	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/search"
	"github.com/hailam/shogiplay/internal/tt"
	"github.com/stretchr/testify/assert"
)

func materialFactory() search.Evaluator { return matereval.New() }

func TestSkipsDepthMainWorkerNeverSkips(t *testing.T) {
	for depth := 1; depth <= 20; depth++ {
		assert.False(t, skipsDepth(0, depth))
	}
}

func TestSkipsDepthHelperWorkersFollowSkewSchedule(t *testing.T) {
	for depth := 1; depth <= 8; depth++ {
		want := (depth+skew[1])%4 != 0
		assert.Equal(t, want, skipsDepth(1, depth))
	}
}

func TestNewBuildsRequestedWorkerCount(t *testing.T) {
	tbl := tt.New(1)
	hist := history.New()
	p := New(3, tbl, hist, materialFactory)
	assert.Equal(t, 3, p.Size())
}

func TestResetForSearchClearsStopFlag(t *testing.T) {
	tbl := tt.New(1)
	hist := history.New()
	p := New(2, tbl, hist, materialFactory)
	p.Stop()
	assert.True(t, p.StopFlagIsSet())

	p.ResetForSearch(position.NewStartPosition(), nil)
	assert.False(t, p.StopFlagIsSet())
}

func TestRunVisitsEveryDepthForMainWorker(t *testing.T) {
	tbl := tt.New(1)
	hist := history.New()
	p := New(1, tbl, hist, materialFactory)
	p.ResetForSearch(position.NewStartPosition(), nil)

	var visited []int
	err := p.Run(4, func(w *search.Worker, workerID, depth int) {
		visited = append(visited, depth)
	})

	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, visited)
}

func TestTotalNodesSumsAcrossWorkers(t *testing.T) {
	tbl := tt.New(1)
	hist := history.New()
	p := New(2, tbl, hist, materialFactory)
	p.ResetForSearch(position.NewStartPosition(), nil)
	p.workers[0].Nodes = 10
	p.workers[1].Nodes = 7
	assert.Equal(t, uint64(17), p.TotalNodes())
}
