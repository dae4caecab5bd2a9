package tt

import (
	"testing"

	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/value"
	"github.com/stretchr/testify/assert"
)

func TestStoreAndProbe(t *testing.T) {
	table := New(1)
	key := uint64(0x1234567890ABCDEF)
	m := position.NewBoardMove(position.NewSquare(2, 6), position.NewSquare(2, 5), false)

	table.Store(key, PackMove(m), value.Value(120), value.Value(100), 6, value.BoundExact)

	data, found := table.Probe(key)
	assert.True(t, found)
	assert.Equal(t, value.Value(120), data.Value)
	assert.Equal(t, 6, data.Depth)
	assert.Equal(t, value.BoundExact, data.Bound)
	assert.Equal(t, m, data.Move.Unpack())
}

func TestProbeMiss(t *testing.T) {
	table := New(1)
	_, found := table.Probe(0xDEADBEEF)
	assert.False(t, found)
}

func TestShallowerStoreDoesNotOverwriteDeeper(t *testing.T) {
	table := New(1)
	key := uint64(0xAAAA)
	table.Store(key, NoMove, value.Value(10), value.Value(10), 10, value.BoundExact)
	table.Store(key, NoMove, value.Value(20), value.Value(20), 2, value.BoundUpper)

	data, found := table.Probe(key)
	assert.True(t, found)
	assert.Equal(t, value.Value(10), data.Value, "shallower non-exact write should not replace a deeper entry")
}

func TestNewSearchAllowsStaleOverwrite(t *testing.T) {
	table := New(1)
	key := uint64(0xBBBB)
	table.Store(key, NoMove, value.Value(10), value.Value(10), 10, value.BoundExact)
	table.NewSearch()
	table.Store(key, NoMove, value.Value(99), value.Value(99), 1, value.BoundUpper)

	data, found := table.Probe(key)
	assert.True(t, found)
	assert.Equal(t, value.Value(99), data.Value, "a new generation should be allowed to overwrite even at lower depth")
}

func TestClearResetsGeneration(t *testing.T) {
	table := New(1)
	table.Store(uint64(1), NoMove, 1, 1, 1, value.BoundExact)
	table.NewSearch()
	table.Clear()
	_, found := table.Probe(uint64(1))
	assert.False(t, found)
}

func TestPackedMoveRoundTripDrop(t *testing.T) {
	m := position.NewDropMove(position.Silver, position.NewSquare(3, 3))
	packed := PackMove(m)
	assert.Equal(t, m, packed.Unpack())
}

func TestPackedMoveRoundTripPromotion(t *testing.T) {
	m := position.NewBoardMove(position.NewSquare(1, 2), position.NewSquare(1, 0), true)
	packed := PackMove(m)
	assert.Equal(t, m, packed.Unpack())
}

func TestMateScoreSurvivesDifferentPly(t *testing.T) {
	// Store a mate found at ply 10, read it back as if probed from ply 2:
	// the decoded value must reflect a mate eight plies closer than at
	// storage time once re-adjusted by the caller.
	mateAtRoot := value.MateIn(4)
	storeable := AdjustScoreToTT(mateAtRoot, 10)
	table := New(1)
	table.Store(7, NoMove, storeable, 0, 5, value.BoundExact)

	data, found := table.Probe(7)
	assert.True(t, found)
	got := AdjustScoreFromTT(data.Value, 2)
	assert.Equal(t, value.MateIn(4-10+2), got)
}
