package matereval

import (
	"testing"

	"github.com/hailam/shogiplay/internal/position"
	"github.com/stretchr/testify/assert"
)

func TestStartPositionIsBalanced(t *testing.T) {
	e := New()
	pos := position.NewStartPosition()
	assert.Equal(t, 0, e.Evaluate(pos), "the starting position is materially symmetric")
}

func TestMaterialAdvantageFavorsSideToMove(t *testing.T) {
	e := New()
	pos, err := position.ParseSFEN("lnsgkg1nl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1")
	assert.NoError(t, err)

	score := e.Evaluate(pos)
	assert.Greater(t, score, 0, "black has its full set while white is down a silver, so black-to-move should score positive")
}

func TestEvaluateIsSymmetricUnderSideSwap(t *testing.T) {
	e := New()
	black, err := position.ParseSFEN("lnsgkg1nl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1")
	assert.NoError(t, err)
	white, err := position.ParseSFEN("lnsgkg1nl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1")
	assert.NoError(t, err)

	assert.Equal(t, e.Evaluate(black), -e.Evaluate(white))
}

func TestPushPopRecordMoveAreNoops(t *testing.T) {
	e := New()
	e.Push()
	e.Pop()
	e.Reset()
	e.RecordMove(position.NewStartPosition(), position.NoMove, position.Undo{})
}
