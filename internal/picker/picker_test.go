package picker

import (
	"testing"

	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/position"
	"github.com/stretchr/testify/assert"
)

func collect(p *Picker) []position.Move {
	var out []position.Move
	for {
		m, ok := p.NextMove()
		if !ok {
			break
		}
		out = append(out, m)
	}
	return out
}

func TestTTMoveYieldedFirst(t *testing.T) {
	pos := position.NewStartPosition()
	legal := position.GenerateLegal(pos)
	assert.NotEmpty(t, legal)
	tt := legal[len(legal)/2]

	hist := history.New()
	p := New(pos, hist, tt, [2]position.Move{}, 4, nil)
	moves := collect(p)
	assert.Equal(t, tt, moves[0])
}

func TestPickerCoversEveryPseudoLegalMoveExactlyOnce(t *testing.T) {
	pos := position.NewStartPosition()
	hist := history.New()
	p := New(pos, hist, position.NoMove, [2]position.Move{}, 4, nil)
	moves := collect(p)

	seen := make(map[position.Move]int)
	for _, m := range moves {
		seen[m]++
	}
	for m, n := range seen {
		assert.Equal(t, 1, n, "move %s yielded more than once", m)
	}

	legal := position.GenerateLegal(pos)
	assert.Equal(t, len(legal), len(moves), "picker must cover every pseudo-legal move from the start position")
}

func TestTTMoveNotDuplicatedInLaterStages(t *testing.T) {
	pos := position.NewStartPosition()
	legal := position.GenerateLegal(pos)
	tt := legal[0]

	hist := history.New()
	p := New(pos, hist, tt, [2]position.Move{}, 4, nil)
	moves := collect(p)

	count := 0
	for _, m := range moves {
		if m == tt {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestQuiescencePickerSkipsQuiets(t *testing.T) {
	sfen := "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1"
	pos, err := position.ParseSFEN(sfen)
	assert.NoError(t, err)

	hist := history.New()
	p := NewQuiescence(pos, hist, position.NoMove)
	moves := collect(p)

	for _, m := range moves {
		assert.False(t, m.IsDrop())
		assert.False(t, pos.Board[m.To()].IsEmpty(), "quiescence picker must only yield captures")
	}
}

func TestKillerSkippedIfNotQuiet(t *testing.T) {
	pos := position.NewStartPosition()
	hist := history.New()

	// a killer slot holding a capture-shaped move must never be replayed
	// as a killer (captures are already covered by the capture stages).
	// Black's 9i lance onto White's 9c pawn: own piece, enemy-occupied target.
	fakeKiller := position.NewBoardMove(position.NewSquare(0, 8), position.NewSquare(0, 2), false)
	killers := [2]position.Move{fakeKiller, position.NoMove}

	p := New(pos, hist, position.NoMove, killers, 4, nil)
	moves := collect(p)
	legal := position.GenerateLegal(pos)
	assert.Equal(t, len(legal), len(moves))
}

func TestLargeQuietListUsesFullSortWithoutLosingMoves(t *testing.T) {
	pos := position.NewStartPosition()
	hist := history.New()
	// bias a couple of quiets heavily so we can check ordering holds at
	// the top even when the >32-move full-sort path is taken.
	quiets := position.GenerateQuiets(pos)
	assert.Greater(t, len(quiets), 32)

	best := quiets[len(quiets)-1]
	hist.UpdateButterfly(pos.SideToMove, 10, best, nil)

	p := New(pos, hist, position.NoMove, [2]position.Move{}, 4, nil)
	moves := collect(p)
	assert.Equal(t, len(position.GenerateLegal(pos)), len(moves))

	idx := -1
	for i, m := range moves {
		if m == best {
			idx = i
			break
		}
	}
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, 8, "heavily-boosted quiet should surface near the front")
}
