package features

import (
	"testing"

	"github.com/hailam/shogiplay/internal/position"
	"github.com/stretchr/testify/assert"
)

func TestBoardFeatureIndexWithinDimensions(t *testing.T) {
	pos := position.NewStartPosition()
	for _, persp := range [2]position.Color{position.Black, position.White} {
		active := ActiveFeatures(pos, persp)
		assert.NotEmpty(t, active)
		for _, idx := range active {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, Dimensions)
		}
	}
}

func TestHandFeatureIndicesThermometerCoded(t *testing.T) {
	var dst []int
	dst = HandFeatureIndices(position.Black, position.NewSquare(4, 8), position.Black, position.Pawn, 3, dst)
	assert.Len(t, dst, 3)
	assert.Equal(t, dst[0]+1, dst[1])
	assert.Equal(t, dst[1]+1, dst[2])
}

func TestHandFeatureIndicesCapAtMax(t *testing.T) {
	var dst []int
	dst = HandFeatureIndices(position.Black, position.NewSquare(4, 8), position.Black, position.Rook, 99, dst)
	assert.Len(t, dst, handMaxCount[handTypeSlot(position.Rook)])
}

func TestFriendAndEnemyCategoriesDiffer(t *testing.T) {
	king := position.NewSquare(4, 8)
	sq := position.NewSquare(3, 3)
	friend := BoardFeatureIndex(position.Black, king, position.Pawn, position.Black, sq)
	enemy := BoardFeatureIndex(position.Black, king, position.Pawn, position.White, sq)
	assert.NotEqual(t, friend, enemy)
}

func TestWhitePerspectiveMirrorsSquares(t *testing.T) {
	king := position.NewSquare(4, 0)
	sq := position.NewSquare(2, 2)
	// A Black king/pawn pair seen from Black's own perspective should
	// land on the same slot as the mirror-image White king/pawn pair
	// seen from White's own perspective: both are "my king, my pawn" in
	// the same relative geometry.
	idxBlackView := BoardFeatureIndex(position.Black, king, position.Pawn, position.Black, sq)
	idxWhiteView := BoardFeatureIndex(position.White, king.Mirror(), position.Pawn, position.White, sq.Mirror())
	assert.Equal(t, idxBlackView, idxWhiteView)
}
