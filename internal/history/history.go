// Package history implements the saturating statistics tables that drive
// move ordering: butterfly, capture, and continuation history (spec.md
// §3 "History", §4.3), plus the supplemented static-eval correction table
// (SPEC_FULL.md, grounded on internal/engine/correction.go).
//
// Grounded on internal/engine/ordering.go's UpdateHistory/UpdateCaptureHistory/
// UpdateCountermoveHistory (the depth^2 bonus-with-saturating-aging pattern),
// split out into its own package because spec.md treats history and the move
// picker as separate components, where the teacher fuses both into one file.
package history

import (
	"github.com/hailam/shogiplay/internal/position"
)

// HistMax bounds every counter to spec.md §3's invariant: "all counters
// remain in [-HIST_MAX, HIST_MAX] after every update."
const HistMax = 1 << 14

// Tables are plain (non-atomic) shared-mutable arrays. Multiple search
// workers update the same Tables concurrently; spec.md §4.3 says reads are
// "lock-free relaxed loads" and updates tolerate "lost updates... not
// correctness" — the teacher's own sharedHistory is likewise a plain
// pointer shared across goroutines without atomics, so this keeps that
// idiom rather than introducing atomics the teacher never uses here.
type Tables struct {
	butterfly    [2][butterflySlots][position.BoardSize]int32
	capture      [2][position.NumPieceTypes][position.BoardSize][position.NumPieceTypes]int32
	continuation [pieceSquareCount][pieceSquareCount]int32
	correction   [2][correctionSlots]int32
}

// butterflySlots covers board "from" squares plus one pseudo-slot per
// droppable piece type, since a drop move has no from-square.
const butterflySlots = position.BoardSize + int(position.NumPieceTypes)

const pieceSquareCount = 2 * int(position.NumPieceTypes) * position.BoardSize

const correctionSlots = 1 << 16

func New() *Tables {
	return &Tables{}
}

func (t *Tables) Clear() {
	*t = Tables{}
}

func butterflyFrom(m position.Move) int {
	if m.IsDrop() {
		return position.BoardSize + int(m.DropPiece())
	}
	return int(m.From())
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// bonus computes spec.md §4.3's "bonus = min(HIST_MAX/8, c1*d^2)" schedule.
func bonus(depth int) int32 {
	const c1 = 300
	b := int32(c1 * depth * depth)
	if max := int32(HistMax / 8); b > max {
		b = max
	}
	return b
}

// updateStat applies the saturating linear-blend aging formula spec.md §3
// gives: new = old + bonus - old*|bonus|/HIST_MAX.
func updateStat(cur, delta int32) int32 {
	next := cur + delta - cur*abs32(delta)/HistMax
	if next > HistMax {
		next = HistMax
	}
	if next < -HistMax {
		next = -HistMax
	}
	return next
}

// --- Butterfly (quiet-move) history ---

func (t *Tables) ButterflyScore(side position.Color, m position.Move) int32 {
	return t.butterfly[side][butterflyFrom(m)][m.To()]
}

// UpdateButterfly grants bonus to the cutoff move and an equal-magnitude
// malus to every other quiet move tried earlier at the node, per spec.md
// §4.3.
func (t *Tables) UpdateButterfly(side position.Color, depth int, cutoff position.Move, earlierQuiets []position.Move) {
	b := bonus(depth)
	tbl := &t.butterfly[side]
	tbl[butterflyFrom(cutoff)][cutoff.To()] = updateStat(tbl[butterflyFrom(cutoff)][cutoff.To()], b)
	for _, m := range earlierQuiets {
		if m == cutoff {
			continue
		}
		tbl[butterflyFrom(m)][m.To()] = updateStat(tbl[butterflyFrom(m)][m.To()], -b)
	}
}

// --- Capture history ---

func (t *Tables) CaptureScore(side position.Color, moved position.PieceType, to position.Square, captured position.PieceType) int32 {
	return t.capture[side][moved][to][captured]
}

func (t *Tables) UpdateCapture(side position.Color, depth int, moved position.PieceType, to position.Square, captured position.PieceType, good bool) {
	b := bonus(depth)
	if !good {
		b = -b
	}
	cell := &t.capture[side][moved][to][captured]
	*cell = updateStat(*cell, b)
}

// --- Continuation history ---
// Indexed by (piece1,to1) -> (piece2,to2) pairs, the same shared table
// reused for every ply-offset {-1,-2,-4,-6} spec.md §3 names; the caller
// supplies whichever prior (piece,to) pair corresponds to the offset it
// wants.

func pieceSquareIndex(side position.Color, pt position.PieceType, sq position.Square) int {
	return (int(side)*int(position.NumPieceTypes)+int(pt))*position.BoardSize + int(sq)
}

func (t *Tables) ContinuationScore(side1 position.Color, pt1 position.PieceType, to1 position.Square, side2 position.Color, pt2 position.PieceType, to2 position.Square) int32 {
	i := pieceSquareIndex(side1, pt1, to1)
	j := pieceSquareIndex(side2, pt2, to2)
	return t.continuation[i][j]
}

func (t *Tables) UpdateContinuation(side1 position.Color, pt1 position.PieceType, to1 position.Square, side2 position.Color, pt2 position.PieceType, to2 position.Square, depth int, good bool) {
	b := bonus(depth)
	if !good {
		b = -b
	}
	i := pieceSquareIndex(side1, pt1, to1)
	j := pieceSquareIndex(side2, pt2, to2)
	t.continuation[i][j] = updateStat(t.continuation[i][j], b)
}

// --- Killers (spec.md §4.3's update rule; storage lives in the per-ply
// search stack frame, per spec.md §9's "Continuation-history pointer
// lifetime" note that per-ply state belongs to the stack, not the shared
// store). ---

// UpdateKillers places newKiller in slot 0, shifting the previous slot 0
// into slot 1 unless it already equals newKiller.
func UpdateKillers(killers *[2]position.Move, newKiller position.Move) {
	if killers[0] == newKiller {
		return
	}
	killers[1] = killers[0]
	killers[0] = newKiller
}

// --- Correction history (SPEC_FULL.md supplement, grounded on
// internal/engine/correction.go) ---

func correctionKey(side position.Color, materialHash uint64) int {
	return (int(side)<<15 | int(materialHash&0x7FFF))
}

// CorrectionScore returns the current nudge, in centipawns, to apply to a
// raw static evaluation.
func (t *Tables) CorrectionScore(side position.Color, materialHash uint64) int32 {
	return t.correction[side][correctionKey(side, materialHash)%correctionSlots] / 256
}

// UpdateCorrection applies correction.go's gravity update: new = old +
// (bonus-old)/16, where bonus = diff*depth/8 clamped to +-256*256 (scaled
// the same way the teacher keeps extra fixed-point precision).
func (t *Tables) UpdateCorrection(side position.Color, materialHash uint64, depth int, diff int32) {
	bonus := diff * int32(depth) / 8 * 256
	const cap = 256 * 256
	if bonus > cap {
		bonus = cap
	}
	if bonus < -cap {
		bonus = -cap
	}
	idx := correctionKey(side, materialHash) % correctionSlots
	cell := &t.correction[side][idx]
	*cell += (bonus - *cell) / 16
	const totalCap = 16000 * 256
	if *cell > totalCap {
		*cell = totalCap
	}
	if *cell < -totalCap {
		*cell = -totalCap
	}
}
