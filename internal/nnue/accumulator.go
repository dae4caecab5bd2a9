package nnue

import (
	"github.com/hailam/shogiplay/internal/nnue/features"
	"github.com/hailam/shogiplay/internal/position"
)

// perspectiveDiff records the feature indices that turned on/off going
// from the previous ply's accumulator to this one, from one perspective.
type perspectiveDiff struct {
	added, removed []int
}

// frame is one ply's worth of accumulator state. accumulated holds the
// actual L1 output once computed; diff/requiresRefresh describe how this
// frame differs from its parent, used to walk forward from a computed
// ancestor without touching accumulated until it's actually needed.
type frame struct {
	accumulated     [2][L1Size]int16
	computed        [2]bool
	requiresRefresh [2]bool
	diff            [2]perspectiveDiff
}

// AccumulatorStack is a per-search-thread stack of per-ply accumulator
// frames, indexed by search ply the way the engine's position stack is.
// Pushed eagerly on every move and popped on unmake; computed lazily on
// Accumulate, by direct update, by a bounded backward walk over ancestor
// diffs, or by a full refresh when neither applies.
type AccumulatorStack struct {
	frames [256]frame
	top    int
}

func NewAccumulatorStack() *AccumulatorStack {
	s := &AccumulatorStack{}
	s.frames[0].computed[position.Black] = false
	s.frames[0].computed[position.White] = false
	return s
}

// Push opens a new frame for the position just reached. Call RecordMove
// immediately after, with the position already advanced, to describe how
// it differs from the parent frame.
func (s *AccumulatorStack) Push() {
	if s.top >= len(s.frames)-1 {
		return // out of ply budget; caller's search depth cap prevents this in practice
	}
	s.top++
	s.frames[s.top] = frame{}
}

// Pop discards the current frame and returns to the previous ply.
func (s *AccumulatorStack) Pop() {
	if s.top > 0 {
		s.top--
	}
}

// Reset clears the stack for a new game.
func (s *AccumulatorStack) Reset() {
	s.top = 0
	s.frames[0] = frame{}
}

// RecordMove computes the feature diff the most recently made move (m,
// with pre-move undo information u) produces for both perspectives, and
// stores it on the current (post-move) frame. pos must already reflect
// the position after the move (i.e. called right after Position.MakeMove).
func (s *AccumulatorStack) RecordMove(pos *position.Position, m position.Move, u position.Undo) {
	cur := &s.frames[s.top]
	for _, persp := range [2]position.Color{position.Black, position.White} {
		added, removed, refresh := moveFeatureDiff(pos, m, u, persp)
		cur.diff[persp] = perspectiveDiff{added: added, removed: removed}
		cur.requiresRefresh[persp] = refresh
	}
}

// moveFeatureDiff computes which feature indices turn on/off for
// perspective as a result of the move just made. Grounded on
// internal/nnue/features.go's GetChangedFeatures, but shogi-specific: a
// capture also turns on a hand-count feature for the mover, and a drop
// turns off one.
func moveFeatureDiff(pos *position.Position, m position.Move, u position.Undo, persp position.Color) (added, removed []int, requiresRefresh bool) {
	kingSq := pos.KingSquare[persp]
	mover := u.Mover

	if u.WasDrop {
		pt := u.DropPieceType
		to := m.To()
		added = append(added, features.BoardFeatureIndex(persp, kingSq, pt, mover, to))

		oldCount := int(pos.Hand.Count(mover, pt)) + 1
		units := features.HandFeatureIndices(persp, kingSq, mover, pt, oldCount, nil)
		if len(units) > 0 {
			removed = append(removed, units[len(units)-1])
		}
		return added, removed, false
	}

	from, to := m.From(), m.To()
	movedPiece := pos.Board[to]
	origType := movedPiece.Type()
	if u.WasPromotion {
		origType = origType.Unpromoted()
	}

	removed = append(removed, features.BoardFeatureIndex(persp, kingSq, origType, mover, from))
	added = append(added, features.BoardFeatureIndex(persp, kingSq, movedPiece.Type(), mover, to))

	if u.Captured != position.NoPiece {
		capType := u.Captured.Type()
		capColor := u.Captured.Color()
		removed = append(removed, features.BoardFeatureIndex(persp, kingSq, capType, capColor, to))

		handType := capType.Unpromoted()
		newCount := int(pos.Hand.Count(mover, handType))
		units := features.HandFeatureIndices(persp, kingSq, mover, handType, newCount, nil)
		if len(units) > 0 {
			added = append(added, units[len(units)-1])
		}
	}

	requiresRefresh = movedPiece.Type() == position.King && mover == persp
	return added, removed, requiresRefresh
}

// Accumulate fills in accumulated[persp] for the current frame if it
// isn't already valid, per spec: direct incremental update from the
// parent frame when possible, otherwise a bounded ancestor walk, falling
// back to a full refresh.
func (s *AccumulatorStack) Accumulate(pos *position.Position, net *Network, persp position.Color) *[L1Size]int16 {
	cur := &s.frames[s.top]
	if cur.computed[persp] {
		return &cur.accumulated[persp]
	}

	if s.top == 0 {
		s.refresh(pos, net, persp)
		return &cur.accumulated[persp]
	}

	// Walk backward looking for the nearest computed ancestor, stopping
	// at the first frame whose diff demands a refresh (a king move
	// invalidates every feature index relative to the old king bucket).
	depth := 0
	idx := s.top
	for depth < maxAncestorWalk && idx > 0 {
		f := &s.frames[idx]
		if f.requiresRefresh[persp] {
			break
		}
		idx--
		depth++
		if s.frames[idx].computed[persp] {
			s.applyForward(pos, net, persp, idx, s.top)
			return &s.frames[s.top].accumulated[persp]
		}
	}

	s.refresh(pos, net, persp)
	return &cur.accumulated[persp]
}

// applyForward walks diffs stored on frames (from, to] applying each to
// a running copy seeded from frame `from`'s accumulated value, and stores
// the result on every intermediate frame as it passes through (so a
// later Accumulate call for a sibling line doesn't redo the same work).
func (s *AccumulatorStack) applyForward(pos *position.Position, net *Network, persp position.Color, from, to int) {
	acc := s.frames[from].accumulated[persp]
	for i := from + 1; i <= to; i++ {
		d := s.frames[i].diff[persp]
		for _, idx := range d.removed {
			subRow(&acc, net.L1Weights[idx][:])
		}
		for _, idx := range d.added {
			addRow(&acc, net.L1Weights[idx][:])
		}
		s.frames[i].accumulated[persp] = acc
		s.frames[i].computed[persp] = true
	}
}

func (s *AccumulatorStack) refresh(pos *position.Position, net *Network, persp position.Color) {
	cur := &s.frames[s.top]
	acc := net.L1Bias
	for _, idx := range features.ActiveFeatures(pos, persp) {
		addRow(&acc, net.L1Weights[idx][:])
	}
	cur.accumulated[persp] = acc
	cur.computed[persp] = true
}

func addRow(acc *[L1Size]int16, row []int16) {
	for i := 0; i < L1Size; i++ {
		acc[i] += row[i]
	}
}

func subRow(acc *[L1Size]int16, row []int16) {
	for i := 0; i < L1Size; i++ {
		acc[i] -= row[i]
	}
}
