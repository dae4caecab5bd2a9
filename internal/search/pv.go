package search

import "github.com/hailam/shogiplay/internal/position"

// PVTable is the classic triangular principal-variation table: pvTable[ply]
// holds the continuation from ply onward. Grounded on
// internal/engine/search.go's PVTable (same moves[MaxPly][MaxPly] + length
// array shape), carried over unchanged since the teacher's own
// representation already matches spec.md §4.9's PV-collection needs for
// the in-worker fast path (the TT-walk path used by internal/driver is the
// one spec.md actually requires; this table only speeds up the common
// case).
type PVTable struct {
	moves  [MaxPly][MaxPly]position.Move
	length [MaxPly]int
}

func (pv *PVTable) clear(ply int) {
	pv.length[ply] = ply
}

// update records move as the best move at ply and appends the child's
// continuation.
func (pv *PVTable) update(ply int, move position.Move) {
	pv.moves[ply][ply] = move
	for j := ply + 1; j < pv.length[ply+1]; j++ {
		pv.moves[ply][j] = pv.moves[ply+1][j]
	}
	pv.length[ply] = pv.length[ply+1]
}

// Line returns the root's principal variation as a plain slice.
func (pv *PVTable) Line() []position.Move {
	out := make([]position.Move, pv.length[0])
	copy(out, pv.moves[0][:pv.length[0]])
	return out
}
