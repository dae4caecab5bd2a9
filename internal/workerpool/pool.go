// Package workerpool implements spec.md §4.7's Lazy-SMP worker pool: a
// fixed set of search workers sharing the transposition table and history,
// skewed across depths so they explore different aspiration windows and
// TT states instead of all redoing the same shallow work. Grounded on
// internal/engine/engine.go's workerSearch goroutine-per-worker launcher
// and depth-staggering idea, redesigned to use golang.org/x/sync/errgroup
// for the fixed fleet's lifecycle (SPEC_FULL.md DOMAIN STACK) in place of
// the teacher's bare sync.WaitGroup, and to implement spec.md §4.7's
// literal "(depth + skew[k]) mod 4 != 0" depth-skip rule instead of the
// teacher's fixed-start-depth-offset approximation.
package workerpool

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/search"
	"github.com/hailam/shogiplay/internal/tt"
	"github.com/hailam/shogiplay/internal/value"
)

// skew cycles non-repeating per-worker depth-skip offsets, spec.md §4.7:
// "skew[k] cycling through a small non-repeating pattern."
var skew = [8]int{0, 1, 2, 3, 1, 3, 0, 2}

// IterationResult is what one worker reports after finishing one depth.
type IterationResult struct {
	WorkerID int
	Depth    int
	Move     position.Move
	Score    value.Value
	PV       []position.Move
	Nodes    uint64
}

// EvaluatorFactory builds a fresh, worker-owned Evaluator — one per
// worker, never shared, since NNUE accumulator stacks are stateful
// (spec.md §3 "Ownership: one stack of accumulators per worker").
type EvaluatorFactory func() search.Evaluator

// Pool owns the fixed set of long-lived workers sharing the TT and
// history store (spec.md §4.7: "they share: TT, history, stop flag, an
// atomic node counter. They do not share: stack, evaluator, picker
// buffers").
type Pool struct {
	workers []*search.Worker
	stop    atomic.Bool
}

// New builds n workers around the shared table/history, each with its own
// evaluator produced by newEval.
func New(n int, tbl *tt.Table, hist *history.Tables, newEval EvaluatorFactory) *Pool {
	p := &Pool{workers: make([]*search.Worker, n)}
	for i := 0; i < n; i++ {
		p.workers[i] = search.NewWorker(i, tbl, hist, newEval(), &p.stop)
	}
	return p
}

func (p *Pool) Size() int { return len(p.workers) }

// ResetForSearch reinitializes every worker against a fresh root position
// copy and clears the shared stop flag.
func (p *Pool) ResetForSearch(root *position.Position, gameHistory []uint64) {
	p.stop.Store(false)
	for _, w := range p.workers {
		w.Reset(root.Copy(), gameHistory)
	}
}

// SetExcludedRootMoves propagates a Multi-PV exclusion set to every
// worker.
func (p *Pool) SetExcludedRootMoves(moves []position.Move) {
	for _, w := range p.workers {
		w.SetExcludedRootMoves(moves)
	}
}

// Stop latches the shared stop flag; every worker observes it at its next
// node-entry poll (spec.md §5 "the flag is a latch").
func (p *Pool) Stop() { p.stop.Store(true) }

func (p *Pool) StopFlagIsSet() bool { return p.stop.Load() }

// skipsDepth reports whether worker k skips depth d, per spec.md §4.7:
// worker 0 (main) always searches every depth in sequence; worker k>0
// skips depths where (depth+skew[k]) mod 4 != 0.
func skipsDepth(workerID, depth int) bool {
	if workerID == 0 {
		return false
	}
	return (depth+skew[workerID%len(skew)])%4 != 0
}

// Run drives every worker through depths 1..maxDepth using the errgroup
// fixed-fleet pattern (SPEC_FULL.md DOMAIN STACK), skipping depths the
// §4.7 skew schedule assigns to other workers and polling the shared stop
// flag between depths. searchDepth does the actual per-depth work
// (aspiration windowing, TT-walk PV collection, info reporting) — spec.md
// assigns that logic to the iterative driver (component 9), not the pool.
func (p *Pool) Run(maxDepth int, searchDepth func(w *search.Worker, workerID, depth int)) error {
	var g errgroup.Group
	for idx := range p.workers {
		w := p.workers[idx]
		id := idx
		g.Go(func() error {
			for depth := 1; depth <= maxDepth; depth++ {
				if p.stop.Load() {
					return nil
				}
				if skipsDepth(id, depth) {
					continue
				}
				searchDepth(w, id, depth)
				if p.stop.Load() {
					return nil
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// TotalNodes sums every worker's node counter, spec.md §4.7 "Aggregation.
// Total nodes = sum across workers."
func (p *Pool) TotalNodes() uint64 {
	var total uint64
	for _, w := range p.workers {
		total += w.Nodes
	}
	return total
}

// SelDepth reports the deepest selective depth any worker reached.
func (p *Pool) SelDepth() int {
	max := 0
	for _, w := range p.workers {
		if w.SelDepth > max {
			max = w.SelDepth
		}
	}
	return max
}

func (p *Pool) HashFull(tbl *tt.Table) int { return tbl.HashFull() }

// Main returns worker 0, the authoritative worker whose result the driver
// collects by default (spec.md §4.7).
func (p *Pool) Main() *search.Worker { return p.workers[0] }

// Worker returns the worker with the given id for result-preference
// comparisons (spec.md §4.7's "Aggregation" override case).
func (p *Pool) Worker(id int) *search.Worker { return p.workers[id] }
