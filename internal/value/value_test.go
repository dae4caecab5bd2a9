package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMateEncodingRoundTrip(t *testing.T) {
	for ply := 0; ply < 40; ply++ {
		win := MateIn(ply)
		assert.True(t, win.IsMate())
		assert.Equal(t, ply, win.MateDistance())

		lose := MatedIn(ply)
		assert.True(t, lose.IsMate())
		assert.Equal(t, -ply, lose.MateDistance())
	}
}

func TestNonMateIsNotMate(t *testing.T) {
	assert.False(t, Value(150).IsMate())
	assert.Equal(t, 0, Value(150).MateDistance())
}

func TestToFromTTRoundTrip(t *testing.T) {
	storingPly := 6
	readPly := 2

	v := MateIn(4) // mate found 4 plies below the storing node
	stored := ToTT(v, storingPly)
	got := FromTT(stored, readPly)

	// Reading from a shallower ply than it was stored at must report a
	// mate distance measured from that shallower ply.
	assert.Equal(t, MateIn(4-storingPly+readPly), got)
}

func TestToFromTTNonMateUnchanged(t *testing.T) {
	v := Value(42)
	assert.Equal(t, v, FromTT(ToTT(v, 10), 3))
}

func TestNegateNeverOverflows(t *testing.T) {
	assert.Equal(t, -Infinite, Infinite.Negate())
	assert.True(t, Infinite.Negate() > Value(int32(-1<<31)))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, Value(5), Clamp(Value(10), -5, 5))
	assert.Equal(t, Value(-5), Clamp(Value(-10), -5, 5))
	assert.Equal(t, Value(0), Clamp(Value(0), -5, 5))
}

func TestBoundString(t *testing.T) {
	assert.Equal(t, "exact", BoundExact.String())
	assert.Equal(t, "lower", BoundLower.String())
	assert.Equal(t, "upper", BoundUpper.String())
	assert.Equal(t, "none", BoundNone.String())
}
