package picker

import "github.com/hailam/shogiplay/internal/position"

// StaticExchangeEval estimates the net material swing of playing m and
// letting both sides recapture optimally on m.To(), the classic swap-list
// SEE algorithm. Drops never capture, so they always evaluate to 0.
// spec.md §8 requires "SEE monotonicity: if SEE(m) >= 0, applying m cannot
// lose more material than SEE says" — this is the component that promise
// depends on.
func StaticExchangeEval(pos *position.Position, m position.Move) int {
	if m.IsDrop() {
		return 0
	}
	to := m.To()
	from := m.From()

	scratch := pos.Copy()
	var gains [32]int
	depth := 0

	target := scratch.Board[to]
	gains[0] = position.PieceValue[target.Type()]
	attackerVal := position.PieceValue[scratch.Board[from].Type()]

	scratch.Board[to] = scratch.Board[from]
	scratch.Board[from] = position.NoPiece
	side := pos.SideToMove.Other()

	for depth < len(gains)-1 {
		sq := leastValuableAttacker(scratch, to, side)
		if sq == position.NoSquare {
			break
		}
		depth++
		gains[depth] = attackerVal - gains[depth-1]

		attackerVal = position.PieceValue[scratch.Board[sq].Type()]
		scratch.Board[to] = scratch.Board[sq]
		scratch.Board[sq] = position.NoPiece
		side = side.Other()
	}

	for depth > 0 {
		// gains[d-1] = -max(-gains[d-1], gains[d]): each side only takes
		// the capture if it's still an improvement over stopping early.
		chosen := gains[depth]
		if negPrev := -gains[depth-1]; negPrev > chosen {
			chosen = negPrev
		}
		gains[depth-1] = -chosen
		depth--
	}
	return gains[0]
}

func leastValuableAttacker(pos *position.Position, sq position.Square, by position.Color) position.Square {
	attackers := position.AttackersTo(pos, sq, by)
	best := position.NoSquare
	bestVal := int(^uint(0) >> 1)
	for _, from := range attackers {
		v := position.PieceValue[pos.Board[from].Type()]
		if v < bestVal {
			bestVal = v
			best = from
		}
	}
	return best
}
