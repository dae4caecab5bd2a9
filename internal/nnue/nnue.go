// Package nnue implements the efficiently-updatable neural network
// evaluator: king-bucketed sparse input features (internal/nnue/features),
// a quantized two-layer network (internal/nnue/layers), and a per-ply
// accumulator stack that keeps the expensive first layer up to date
// incrementally instead of recomputing it from scratch every node.
//
// Grounded on internal/nnue/{nnue,network,accumulator,features,weights}.go
// (the high-level bridge) together with sfnnue/* (the Stockfish-derived
// transformer and layer math this repo's quantization scheme follows),
// rebuilt around shogi's larger, hand-piece-extended feature set.
package nnue

import (
	"github.com/hailam/shogiplay/internal/nnue/features"
	"github.com/hailam/shogiplay/internal/position"
)

const (
	// L1Size is the per-perspective width of the first hidden layer.
	L1Size = 256
	// L2Size is the width of the second hidden layer.
	L2Size = 32

	// OutputScale converts the network's raw fixed-point output to
	// centipawns.
	OutputScale = 16

	// maxAncestorWalk bounds how many ply frames Evaluate will walk
	// backward looking for a computed ancestor accumulator before giving
	// up and doing a full refresh.
	maxAncestorWalk = 8
)

// Evaluator is the engine-facing handle: a loaded network plus a
// per-search accumulator stack. One Evaluator belongs to exactly one
// search worker (internal/workerpool gives each goroutine its own), since
// the accumulator stack is stateful across Push/Pop/RecordMove calls.
type Evaluator struct {
	net   *Network
	stack *AccumulatorStack
}

// NewEvaluator builds an evaluator around an already-loaded network.
func NewEvaluator(net *Network) *Evaluator {
	return &Evaluator{net: net, stack: NewAccumulatorStack()}
}

// Evaluate returns the position's score, in centipawns, from the side to
// move's perspective.
func (e *Evaluator) Evaluate(pos *position.Position) int {
	stm := e.stack.Accumulate(pos, e.net, pos.SideToMove)
	nstm := e.stack.Accumulate(pos, e.net, pos.SideToMove.Other())
	return e.net.Forward(stm, nstm)
}

// Push opens the next ply's accumulator frame. Call after MakeMove (or
// MakeNullMove) and before RecordMove.
func (e *Evaluator) Push() { e.stack.Push() }

// Pop discards the current ply's accumulator frame. Call after UnmakeMove.
func (e *Evaluator) Pop() { e.stack.Pop() }

// RecordMove describes the feature-level effect of the move just made.
// Call after MakeMove, with the Undo it returned.
func (e *Evaluator) RecordMove(pos *position.Position, m position.Move, u position.Undo) {
	e.stack.RecordMove(pos, m, u)
}

// Reset clears accumulator state for a new game.
func (e *Evaluator) Reset() { e.stack.Reset() }

// Dimensions reports the network's per-perspective input width, derived
// from internal/nnue/features.Dimensions.
func Dimensions() int { return features.Dimensions }
