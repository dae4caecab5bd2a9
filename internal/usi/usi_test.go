package usi

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hailam/shogiplay/internal/driver"
	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/matereval"
	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/search"
	"github.com/hailam/shogiplay/internal/tt"
	"github.com/hailam/shogiplay/internal/workerpool"
	"github.com/stretchr/testify/assert"
)

func materialEngineFactory(opts Options) (*driver.Driver, error) {
	tbl := tt.New(1)
	hist := history.New()
	pool := workerpool.New(1, tbl, hist, func() search.Evaluator { return matereval.New() })
	d := driver.New(pool, tbl, hist)
	d.Skill = opts.SkillLevel
	return d, nil
}

func TestHandleUSIAdvertisesIdentityAndUSIOK(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	err := loop.Run(strings.NewReader("usi\nquit\n"))
	assert.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "id name "+EngineName)
	assert.Contains(t, text, "usiok")
}

func TestIsReadyRespondsReadyOK(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	err := loop.Run(strings.NewReader("isready\nquit\n"))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "readyok")
}

func TestHandlePositionStartposThenMoves(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	loop.handlePosition([]string{"startpos", "moves", "7g7f", "3c3d"})

	assert.Equal(t, 3, len(loop.history))
	assert.Equal(t, position.Black, loop.pos.SideToMove)
}

func TestHandlePositionRejectsIllegalMoveAndKeepsPriorState(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	before := loop.pos

	loop.handlePosition([]string{"startpos", "moves", "1a1a"})
	assert.Same(t, before, loop.pos, "an illegal move in the moves list must not mutate the loop's position")
	assert.Contains(t, out.String(), "info string")
}

func TestHandleSetOptionHashUpdatesHashSize(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	loop.handleSetOption([]string{"name", "USI_Hash", "value", "128"})
	assert.Equal(t, 128, loop.opts.HashMB)
}

func TestHandleSetOptionSkillLevelUpdatesRunningDriver(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	loop.ensureEngine()
	loop.handleSetOption([]string{"name", "SkillLevel", "value", "5"})
	assert.Equal(t, 5, loop.opts.SkillLevel)
	assert.Equal(t, 5, loop.eng.Skill)
}

func TestHandleSetOptionRejectsUnknownName(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	loop.handleSetOption([]string{"name", "NotAnOption", "value", "1"})
	assert.Contains(t, out.String(), "unknown option")
}

func TestParseNameValueHandlesMultiWordValue(t *testing.T) {
	name, value, ok := parseNameValue([]string{"name", "Eval", "File", "value", "my", "net.bin"})
	assert.True(t, ok)
	assert.Equal(t, "Eval File", name)
	assert.Equal(t, "my net.bin", value)
}

func TestParseGoLimitsReadsTimeControls(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	lim := loop.parseGoLimits([]string{"btime", "10000", "wtime", "20000", "byoyomi", "3000"})

	assert.Equal(t, 10*time.Second, lim.Time.Time[position.Black])
	assert.Equal(t, 20*time.Second, lim.Time.Time[position.White])
	assert.Equal(t, 3*time.Second, lim.Time.Byoyomi)
}

func TestParseGoLimitsInfinite(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	lim := loop.parseGoLimits([]string{"infinite"})
	assert.True(t, lim.Time.Infinite)
}

func TestGoEmitsBestmoveWithinDepthLimit(t *testing.T) {
	var out bytes.Buffer
	loop := New(&out, materialEngineFactory)
	err := loop.Run(strings.NewReader("usi\nisready\ngo depth 2\nquit\n"))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "bestmove")
}
