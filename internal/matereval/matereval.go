// Package matereval implements the material-plus-piece-square fallback
// evaluator spec.md §7 requires but never defines: "falls back to a
// material evaluator if configured to do so, else refuses to search" when
// the NNUE file fails to load. Grounded on the classical-evaluation
// portions of internal/engine/eval.go's EvaluateMaterial (side-relative
// material sum) extended with a small positional table in shogi terms
// (pieces are rewarded for advancing toward the opponent's promotion
// zone, since shogi has no castling/king-safety analogue to port).
package matereval

import "github.com/hailam/shogiplay/internal/position"

// Evaluator is a stateless fallback: it satisfies the same interface the
// NNUE evaluator does (search.Evaluator) so internal/search never needs a
// type switch, but Push/Pop/RecordMove/Reset are no-ops since there is no
// incremental state to maintain.
type Evaluator struct{}

func New() *Evaluator { return &Evaluator{} }

func (e *Evaluator) Push()                                                         {}
func (e *Evaluator) Pop()                                                          {}
func (e *Evaluator) RecordMove(*position.Position, position.Move, position.Undo) {}
func (e *Evaluator) Reset()                                                       {}

// advanceBonus rewards a piece for standing closer to the enemy's back
// rank, a coarse proxy for shogi's "attacking pieces belong forward"
// principle (mirrors the teacher's isPassedPawn-style positional nudges
// without needing an analogous king-safety/pawn-structure model).
func advanceBonus(pt position.PieceType, c position.Color, sq position.Square) int {
	if pt == position.King || pt == position.Gold {
		return 0
	}
	rank := sq.Rank()
	if c == position.White {
		rank = 8 - rank
	}
	// rank 8 (own back rank) -> 0, rank 0 (enemy back rank) -> 8*unit.
	return (8 - rank) * 2
}

// Evaluate returns a side-to-move-relative centipawn score: material sum
// plus a small positional term, negated for White to match the Value
// convention search.Worker expects (positive favors the side to move).
func (e *Evaluator) Evaluate(pos *position.Position) int {
	score := 0
	for sq := position.Square(0); int(sq) < position.BoardSize; sq++ {
		pc := pos.Board[sq]
		if pc.IsEmpty() {
			continue
		}
		v := position.PieceValue[pc.Type()] + advanceBonus(pc.Type(), pc.Color(), sq)
		if pc.Color() == position.Black {
			score += v
		} else {
			score -= v
		}
	}
	for _, pt := range position.DroppablePieceTypes {
		score += pos.Hand.Count(position.Black, pt) * position.PieceValue[pt]
		score -= pos.Hand.Count(position.White, pt) * position.PieceValue[pt]
	}
	if pos.SideToMove == position.White {
		return -score
	}
	return score
}
