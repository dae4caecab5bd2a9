package layers

// WeightScaleBits is the quantization shift applied between layers,
// matching ../../../sfnnue/layers/clipped_relu.go's WeightScaleBits.
const WeightScaleBits = 6

// ClippedReLU clamps each accumulated int32 to [0, 127] after the
// quantization shift, producing the uint8 input the next affine layer
// expects.
func ClippedReLU(input []int32, output []uint8) {
	for i, v := range input {
		v >>= WeightScaleBits
		if v < 0 {
			v = 0
		} else if v > 127 {
			v = 127
		}
		output[i] = uint8(v)
	}
}
