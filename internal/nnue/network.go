package nnue

import (
	"github.com/hailam/shogiplay/internal/nnue/layers"
)

// Network holds the quantized weights for every layer. L1Weights is sized
// at construction time from internal/nnue/features.Dimensions, which
// depends on shogi's hand-piece feature axis and so isn't a compile-time
// constant the way chess's fixed HalfKP size is.
type Network struct {
	L1Weights [][L1Size]int16
	L1Bias    [L1Size]int16

	l2     *layers.AffineTransform // L1Size*2 -> L2Size
	output *layers.AffineTransform // L2Size -> 1
}

func NewNetwork(dimensions int) *Network {
	n := &Network{
		L1Weights: make([][L1Size]int16, dimensions),
		l2:        layers.NewAffineTransform(L1Size*2, L2Size),
		output:    layers.NewAffineTransform(L2Size, 1),
	}
	return n
}

// Forward runs the two quantized layers on top of the already-accumulated
// L1 output for both perspectives, returning a centipawn score from
// sideToMove's point of view.
func (n *Network) Forward(stm, nstm *[L1Size]int16) int {
	var l1Out [L1Size * 2]uint8
	clampHalf(stm, l1Out[:L1Size])
	clampHalf(nstm, l1Out[L1Size:])

	var l2Raw [L2Size]int32
	n.l2.Propagate(l1Out[:], l2Raw[:])

	var l2Out [L2Size]uint8
	layers.ClippedReLU(l2Raw[:], l2Out[:])

	var outRaw [1]int32
	n.output.Propagate(l2Out[:], outRaw[:])

	return int(outRaw[0]) / OutputScale
}

func clampHalf(acc *[L1Size]int16, out []uint8) {
	var raw [L1Size]int32
	for i, v := range acc {
		raw[i] = int32(v)
	}
	layers.ClippedReLU(raw[:], out)
}

// InitRandom fills every weight with small deterministic values. The
// engine itself never calls it: when no weights file loads,
// cmd/shogiplay-usi uses the material evaluator instead.
func (n *Network) InitRandom(seed uint64) {
	state := seed
	next := func() int16 {
		state = state*6364136223846793005 + 1442695040888963407
		return int16((state >> 48) & 0xFF) - 128
	}
	for i := range n.L1Weights {
		for j := 0; j < L1Size; j++ {
			n.L1Weights[i][j] = next() >> 5
		}
	}
	for i := range n.L1Bias {
		n.L1Bias[i] = next() >> 3
	}
	for i := range n.l2.Weights {
		n.l2.Weights[i] = int8(next() >> 6)
	}
	for i := range n.l2.Biases {
		n.l2.Biases[i] = int32(next())
	}
	for i := range n.output.Weights {
		n.output.Weights[i] = int8(next() >> 6)
	}
	n.output.Biases[0] = int32(next())
}
