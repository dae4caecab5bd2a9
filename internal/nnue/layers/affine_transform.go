// Package layers implements the quantized fully-connected and activation
// layers that sit on top of the accumulator, close ports of
// ../../../sfnnue/layers/{affine_transform,clipped_relu}.go (themselves
// ported from Stockfish) with the SIMD-width padding dropped: this
// network's hidden layers are small enough that the padding/scrambled
// weight layout those files use to feed wide SIMD loads buys nothing, so
// weights are stored in natural row-major order instead.
package layers

import (
	"encoding/binary"
	"fmt"
	"io"
)

// AffineTransform is a fully connected layer: output = weights*input + bias.
type AffineTransform struct {
	InputDimensions  int
	OutputDimensions int

	Biases  []int32
	Weights []int8 // row-major: Weights[out*InputDimensions + in]
}

func NewAffineTransform(inputDims, outputDims int) *AffineTransform {
	return &AffineTransform{
		InputDimensions:  inputDims,
		OutputDimensions: outputDims,
		Biases:           make([]int32, outputDims),
		Weights:          make([]int8, outputDims*inputDims),
	}
}

// ReadParameters reads biases then weights, in that order, little-endian.
func (a *AffineTransform) ReadParameters(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, a.Biases); err != nil {
		return fmt.Errorf("affine transform: read biases: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, a.Weights); err != nil {
		return fmt.Errorf("affine transform: read weights: %w", err)
	}
	return nil
}

// WriteParameters is the ReadParameters inverse, used by nnue.SaveNetwork.
func (a *AffineTransform) WriteParameters(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, a.Biases); err != nil {
		return fmt.Errorf("affine transform: write biases: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, a.Weights); err != nil {
		return fmt.Errorf("affine transform: write weights: %w", err)
	}
	return nil
}

// Propagate computes output = Weights*input + Biases, input in [0,127]
// (the previous layer's ClippedReLU output).
func (a *AffineTransform) Propagate(input []uint8, output []int32) {
	for o := 0; o < a.OutputDimensions; o++ {
		row := a.Weights[o*a.InputDimensions : (o+1)*a.InputDimensions]
		output[o] = a.Biases[o] + DotProductInt8Uint8(row, input)
	}
}
