// Package driver implements component 9, spec.md §4.9: the iterative
// deepening driver that runs aspiration-windowed searches at increasing
// depths and collects the principal variation. Grounded on
// internal/engine/engine.go's SearchWithUCILimits (aspiration window
// widening loop, move-stability tracking across iterations) and
// SearchMultiPV/searchWithExclusions (root-move exclusion for Multi-PV),
// redesigned to collect the PV by walking the TT from the root (spec.md
// §4.9) rather than the teacher's in-worker PVTable array — the in-worker
// table is kept as an internal fast path, but the PV this package reports
// is always the TT-walked one the spec requires.
package driver

import (
	"sync"
	"time"

	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/search"
	"github.com/hailam/shogiplay/internal/timeman"
	"github.com/hailam/shogiplay/internal/tt"
	"github.com/hailam/shogiplay/internal/value"
	"github.com/hailam/shogiplay/internal/workerpool"
)

// Info is one "info" event the driver streams out during a search,
// spec.md §6 "Driver events."
type Info struct {
	Depth    int
	SelDepth int
	Score    value.Value
	Mate     bool
	MateIn   int
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	MultiPV  int
	HashFull int
	PV       []position.Move
}

// Result is the single "bestmove" event emitted once a search fully
// stops, spec.md §6.
type Result struct {
	Move    position.Move
	Ponder  position.Move
	Score   value.Value
	PV      []position.Move
	Nodes   uint64
	Depth   int
	Resign  bool
}

// Driver owns the shared TT/history/pool for one engine instance plus the
// skill-level configuration (SPEC_FULL.md "Skill-level weighted move
// selection" / spec.md §4.10, component 10).
type Driver struct {
	Pool  *workerpool.Pool
	TT    *tt.Table
	Hist  *history.Tables
	Skill int // 0..20, 20 = always bestmove

	OnInfo func(Info)

	rng uint64 // xorshift seed for skill-level weighted pick (no math/rand — mirrors the Zobrist PRNG idiom)
}

func New(pool *workerpool.Pool, tbl *tt.Table, hist *history.Tables) *Driver {
	return &Driver{Pool: pool, TT: tbl, Hist: hist, Skill: 20, rng: 0x9E3779B97F4A7C15}
}

// Limits bundles the time/depth/node ceilings a "go" command supplies.
type Limits struct {
	Time    timeman.Limits
	MultiPV int
}

// Search runs iterative deepening from root until the time manager or an
// external Stop() call ends the search, then returns exactly one Result,
// per spec.md §6 "bestmove line... emitted exactly once per go, only
// after the search has fully stopped."
func (d *Driver) Search(root *position.Position, gameHistory []uint64, us int, ply int, limits Limits) Result {
	start := time.Now()
	tmgr := timeman.New(limits.Time, us, ply)

	maxDepth := limits.Time.Depth
	if maxDepth <= 0 {
		maxDepth = int(value.MaxPly) - 1
	}

	numPV := limits.MultiPV
	if numPV < 1 {
		numPV = 1
	}

	// spec.md §4.10: "Search is unchanged; only the move chosen at the end
	// is randomized." Widening the internal root-exclusion loop (the same
	// mechanism Multi-PV already uses) gathers the candidate pool the
	// skill-level pick needs without touching negamax/quiescence itself.
	// Extra candidate lines beyond the caller's own MultiPV request stay
	// internal: reportPV below suppresses their "info" lines.
	searchPV := numPV
	if d.Skill < 20 {
		if want := skillCandidateCount(d.Skill); want > searchPV {
			searchPV = want
		}
	}

	d.Pool.ResetForSearch(root, gameHistory)
	d.TT.NewSearch()

	var (
		results        = make([]pvResult, 0, searchPV)
		excluded       []position.Move
		lastBest       position.Move
		bestMoveChange int
	)

	for pvIdx := 0; pvIdx < searchPV; pvIdx++ {
		d.Pool.SetExcludedRootMoves(excluded)

		reportPV := pvIdx < numPV
		res := d.iterate(root, maxDepth, tmgr, start, pvIdx+1, numPV, &lastBest, &bestMoveChange, limits.Time.Nodes, reportPV)
		if res.move == position.NoMove {
			break
		}
		results = append(results, res)
		excluded = append(excluded, res.move)
	}

	d.Pool.Stop()

	if len(results) == 0 {
		legal := position.GenerateLegal(root)
		if len(legal) == 0 {
			return Result{Resign: true}
		}
		return Result{Move: legal[0]}
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.score > best.score {
			best = r
		}
	}

	chosen := best.move
	if d.Skill < 20 && len(results) > 1 {
		chosen = d.pickSkillMove(results, best.score)
	}

	return Result{
		Move:  chosen,
		Score: best.score,
		PV:    best.pv,
		Nodes: d.Pool.TotalNodes(),
		Depth: best.depth,
	}
}

// skillCandidateCount bounds how many root-exclusion passes Search runs to
// build the skill-level candidate pool, spec.md §4.10. The margin (not the
// candidate count) is what scales with level, so a fixed pool size wide
// enough to matter at the weakest levels is reused at every level below 20.
func skillCandidateCount(_ int) int { return 8 }

// skillMarginPerLevel sets how many centipawns of slack one level below 20
// buys a root move, spec.md §4.10 "margin proportional to 20-L of the
// best." L=19 allows a 24cp-worse move in; L=0 allows 480cp in.
const skillMarginPerLevel = value.Value(24)

// pickSkillMove implements spec.md §4.10: among root moves scoring within
// skillMarginPerLevel*(20-Skill) of the best, weighted-random pick biased
// toward the best move. Grounded on internal/book/book.go's Probe
// (cumulative-weight random selection over BookEntry.Weight), reusing that
// mechanism rather than the book feature itself (dropped, spec.md §1
// Non-goals: "opening book probing during search").
func (d *Driver) pickSkillMove(results []pvResult, bestScore value.Value) position.Move {
	margin := skillMarginPerLevel * value.Value(20-d.Skill)

	type candidate struct {
		move   position.Move
		weight uint64
	}
	candidates := make([]candidate, 0, len(results))
	var total uint64
	for _, r := range results {
		if bestScore-r.score > margin {
			continue
		}
		w := uint64(margin-(bestScore-r.score)) + 1
		candidates = append(candidates, candidate{move: r.move, weight: w})
		total += w
	}
	if total == 0 || len(candidates) == 0 {
		return results[0].move
	}

	pick := d.nextRand() % total
	var cumulative uint64
	for _, c := range candidates {
		cumulative += c.weight
		if pick < cumulative {
			return c.move
		}
	}
	return candidates[len(candidates)-1].move
}

// nextRand is the xorshift64* step driving skill-level weighted picks, the
// same algorithm internal/position/zobrist.go uses for its fixed-seed key
// tables (no math/rand, per this package's own idiom).
func (d *Driver) nextRand() uint64 {
	d.rng ^= d.rng >> 12
	d.rng ^= d.rng << 25
	d.rng ^= d.rng >> 27
	return d.rng * 0x2545F4914F6CDD1D
}

type pvResult struct {
	move  position.Move
	score value.Value
	pv    []position.Move
	depth int
}

// iterate drives the main worker through increasing depths with
// aspiration windows while the worker pool's helper workers search in
// parallel (spec.md §4.7/§4.9), applying the time manager's stop
// decisions between iterations. reportPV suppresses the OnInfo callback
// for root-exclusion passes run only to build the skill-level candidate
// pool (spec.md §4.10), which are not part of the caller's own MultiPV
// request and must not appear as "info ... multipv N" lines.
func (d *Driver) iterate(root *position.Position, maxDepth int, tmgr *timeman.Manager, start time.Time, multiPVIdx, multiPVTotal int, lastBest *position.Move, bestMoveChange *int, nodeLimit uint64, reportPV bool) pvResult {
	var (
		mu        sync.Mutex
		best      pvResult
		prevScore = value.Value(0)
		havePrev  bool
	)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		d.Pool.Run(maxDepth, func(w *search.Worker, workerID, depth int) {
			mu.Lock()
			windowScore, windowKnown := prevScore, havePrev
			mu.Unlock()

			alpha, beta := aspirationWindow(depth, windowScore, windowKnown)
			delta := value.Value(17)
			for {
				move, score := w.SearchRoot(depth, alpha, beta)
				if d.Pool.StopFlagIsSet() {
					return
				}
				if score <= alpha && alpha > -value.Infinite {
					beta = (alpha + beta) / 2
					alpha = value.Clamp(score-delta, -value.Infinite, value.Infinite)
					delta += delta / 2
					continue
				}
				if score >= beta && beta < value.Infinite {
					beta = value.Clamp(score+delta, -value.Infinite, value.Infinite)
					delta += delta / 2
					continue
				}
				if workerID == 0 {
					pv := d.walkPV(root, depth)
					mu.Lock()
					prevScore, havePrev = score, true
					if move != position.NoMove {
						if move != *lastBest {
							*bestMoveChange++
						} else {
							*bestMoveChange = 0
						}
						*lastBest = move
					}
					best = pvResult{move: move, score: score, pv: pv, depth: depth}
					tmgr.AdjustStability(*bestMoveChange)
					mu.Unlock()
					if reportPV && d.OnInfo != nil {
						d.OnInfo(d.buildInfo(depth, score, pv, start, multiPVIdx))
					}
				}
				return
			}
		})
	}()

	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-runDone:
			break loop
		case <-ticker.C:
			mu.Lock()
			knownHavePrev := havePrev
			knownMate := best.score.IsMate()
			mu.Unlock()

			if tmgr.HardExpired() {
				d.Pool.Stop()
				continue
			}
			if nodeLimit > 0 && d.Pool.TotalNodes() >= nodeLimit {
				d.Pool.Stop()
				continue
			}
			if tmgr.SoftExpired() && knownHavePrev {
				d.Pool.Stop()
				continue
			}
			if knownMate {
				d.Pool.Stop()
			}
		}
	}

	mu.Lock()
	defer mu.Unlock()
	return best
}

// aspirationWindow implements spec.md §4.9's schedule: full window for
// shallow/mate-ish depths, otherwise a +-17 window centered on the
// previous iteration's score.
func aspirationWindow(depth int, prevScore value.Value, havePrev bool) (value.Value, value.Value) {
	if depth <= 3 || !havePrev || prevScore.IsMate() {
		return -value.Infinite, value.Infinite
	}
	const delta = 17
	return prevScore - delta, prevScore + delta
}

// walkPV reconstructs the principal variation by following TT best-move
// pointers from the root, spec.md §4.9: "reuse the TT as the PV table...
// can truncate early but is always sound." Each step re-applies the move
// on a scratch copy so the walk never trusts an illegal/stale TT move.
func (d *Driver) walkPV(root *position.Position, depthCap int) []position.Move {
	pos := root.Copy()
	pv := make([]position.Move, 0, depthCap)
	seen := make(map[uint64]bool, depthCap)

	for i := 0; i < depthCap && i < int(value.MaxPly); i++ {
		data, ok := d.TT.Probe(pos.Hash)
		if !ok || data.Move.Unpack() == position.NoMove {
			break
		}
		m := data.Move.Unpack()
		if !isPseudoLegalAndLegal(pos, m) {
			break
		}
		if seen[pos.Hash] {
			break // repetition: stop rather than loop forever
		}
		seen[pos.Hash] = true
		pv = append(pv, m)
		pos.MakeMove(m)
	}
	return pv
}

func isPseudoLegalAndLegal(pos *position.Position, m position.Move) bool {
	for _, legal := range position.GenerateLegal(pos) {
		if legal == m {
			return true
		}
	}
	return false
}

func (d *Driver) buildInfo(depth int, score value.Value, pv []position.Move, start time.Time, multiPV int) Info {
	elapsed := time.Since(start)
	nodes := d.Pool.TotalNodes()
	var nps uint64
	if elapsed > 0 {
		nps = uint64(float64(nodes) / elapsed.Seconds())
	}
	info := Info{
		Depth:    depth,
		SelDepth: d.Pool.SelDepth(),
		Score:    score,
		Nodes:    nodes,
		NPS:      nps,
		Time:     elapsed,
		MultiPV:  multiPV,
		HashFull: d.TT.HashFull(),
		PV:       pv,
	}
	if score.IsMate() {
		info.Mate = true
		info.MateIn = score.MateDistance()
	}
	return info
}

// Stop latches the shared stop flag immediately (spec.md §6 "stop()").
func (d *Driver) Stop() { d.Pool.Stop() }
