package timeman

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMoveTimeOverridesEverything(t *testing.T) {
	m := New(Limits{MoveTime: 500 * time.Millisecond, Time: [2]time.Duration{10 * time.Second, 10 * time.Second}}, 0, 0)
	assert.Equal(t, 500*time.Millisecond, m.soft)
	assert.Equal(t, 500*time.Millisecond, m.hard)
}

func TestInfiniteNeverExpires(t *testing.T) {
	m := New(Limits{Infinite: true}, 0, 0)
	assert.False(t, m.SoftExpired())
	assert.False(t, m.HardExpired())
}

func TestSuddenDeathAllocatesFractionOfClock(t *testing.T) {
	m := New(Limits{Time: [2]time.Duration{60 * time.Second, 60 * time.Second}}, 0, 0)
	assert.Greater(t, m.soft, time.Duration(0))
	assert.GreaterOrEqual(t, m.hard, m.soft)
	assert.Less(t, m.hard, 60*time.Second)
}

func TestByoyomiIsUsedWhenMainClockIsExhausted(t *testing.T) {
	m := New(Limits{Time: [2]time.Duration{0, 0}, Byoyomi: 5 * time.Second}, 0, 0)
	assert.Equal(t, 5*time.Second-defaultOverhead, m.soft)
}

func TestAdjustStabilityShrinksWhenBestMoveIsStable(t *testing.T) {
	m := New(Limits{Time: [2]time.Duration{60 * time.Second, 60 * time.Second}}, 0, 0)
	before := m.soft
	m.AdjustStability(0)
	assert.Less(t, m.soft, before)
}

func TestAdjustStabilityNeverExceedsHardCeiling(t *testing.T) {
	m := New(Limits{Time: [2]time.Duration{60 * time.Second, 60 * time.Second}}, 0, 0)
	m.AdjustStability(10)
	assert.LessOrEqual(t, m.soft, m.hard)
}

func TestHardExpiredAfterDeadline(t *testing.T) {
	m := New(Limits{MoveTime: 1 * time.Millisecond}, 0, 0)
	time.Sleep(5 * time.Millisecond)
	assert.True(t, m.HardExpired())
}
