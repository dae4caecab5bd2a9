package search

import (
	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/value"
)

// MaxPly bounds recursion depth and every per-ply array in this package.
const MaxPly = value.MaxPly

// StackFrame is the per-ply search state spec.md §3 names: current move,
// static eval, killers, move count, PV flag, null-move-tried flag, excluded
// move, in-check flag. Continuation-history lookups are recorded as plain
// (side, piece, to) values, not pointers, per spec.md §9's "Continuation-
// history pointer lifetime" note — stack growth/shrink never invalidates a
// value.
type StackFrame struct {
	CurrentMove   position.Move
	MovedSide     position.Color
	MovedPiece    position.PieceType
	MoveTo        position.Square
	StaticEval    value.Value
	Killers       [2]position.Move
	MoveCount     int
	PVNode        bool
	NullMoveTried bool
	ExcludedMove  position.Move
	InCheck       bool
	HasMove       bool
}

func (f *StackFrame) continuationOf() (position.Color, position.PieceType, position.Square, bool) {
	if !f.HasMove {
		return 0, 0, 0, false
	}
	return f.MovedSide, f.MovedPiece, f.MoveTo, true
}
