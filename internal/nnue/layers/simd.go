package layers

import "golang.org/x/sys/cpu"

// wideDotProduct reports whether the host's vector unit is wide enough
// to make 8-way unrolling worthwhile. Grounded on
// ../../../sfnnue/simd_neon.go's build-tag split between ARM64 NEON and
// scalar fallback: rather than hand-write assembly this repo can't
// compile-check, golang.org/x/sys/cpu's runtime feature detection picks
// the unroll factor for a pure-Go loop the Go compiler can still
// autovectorize on a NEON or AVX2 host.
var wideDotProduct = cpu.ARM64.HasASIMD || cpu.X86.HasAVX2

// DotProductInt8Uint8 computes sum(weights[i] * inputs[i]) for i in
// [0, len(inputs)).
func DotProductInt8Uint8(weights []int8, inputs []uint8) int32 {
	if wideDotProduct {
		return dotProductUnrolled8(weights, inputs)
	}
	return dotProductScalar(weights, inputs)
}

func dotProductScalar(weights []int8, inputs []uint8) int32 {
	var sum int32
	for i, in := range inputs {
		sum += int32(weights[i]) * int32(in)
	}
	return sum
}

func dotProductUnrolled8(weights []int8, inputs []uint8) int32 {
	n := len(inputs)
	var sum int32
	i := 0
	for ; i+8 <= n; i += 8 {
		sum += int32(weights[i])*int32(inputs[i]) +
			int32(weights[i+1])*int32(inputs[i+1]) +
			int32(weights[i+2])*int32(inputs[i+2]) +
			int32(weights[i+3])*int32(inputs[i+3]) +
			int32(weights[i+4])*int32(inputs[i+4]) +
			int32(weights[i+5])*int32(inputs[i+5]) +
			int32(weights[i+6])*int32(inputs[i+6]) +
			int32(weights[i+7])*int32(inputs[i+7])
	}
	for ; i < n; i++ {
		sum += int32(weights[i]) * int32(inputs[i])
	}
	return sum
}
