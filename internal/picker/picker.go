// Package picker implements the staged, lazy move picker described in
// spec.md §4.4 and §9 ("Move picker as a state machine, not a
// comparator-sorted list"). Grounded on internal/engine/ordering.go's
// ScoreMoves/PickMove/SortMoves (MVV-LVA table, promotion bonus, partial
// lazy selection sort), but restructured into the explicit stage-transition
// machine spec.md requires — the teacher scores and sorts a single list;
// this exposes NextMove() and only does as much work as each stage needs.
package picker

import (
	"golang.org/x/exp/slices"

	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/position"
)

type stage int

const (
	stageTT stage = iota
	stageGenCaptures
	stageGoodCaptures
	stageKillers
	stageGenQuiets
	stageQuiets
	stageBadCaptures
	stageDone

	// quiescence path: TT -> generate captures -> good captures -> bad
	// captures -> done (killers and quiets are skipped).
)

// ContinuationOffset identifies one of the ply-offset slots spec.md §3
// names ({-1,-2,-4,-6}) for a prior (piece,to) pair the picker scores
// quiets against.
type ContinuationOffset struct {
	Valid bool
	Side  position.Color
	Piece position.PieceType
	To    position.Square
}

// Picker enumerates moves for one search node in staged priority order.
type Picker struct {
	pos   *position.Position
	hist  *history.Tables
	side  position.Color
	depth int

	ttMove      position.Move
	ttYielded   bool
	killers     [2]position.Move
	killerIndex int

	continuations []ContinuationOffset
	quiescence    bool

	stage stage

	scoredCaptures []scoredMove
	goodCursor     int
	badCaptures    []position.Move
	badCursor      int

	scoredQuiets []scoredMove
	quietCursor  int

	yielded map[position.Move]bool
}

type scoredMove struct {
	move  position.Move
	score int32
}

// New constructs a picker for a normal (non-quiescence) search node.
func New(pos *position.Position, hist *history.Tables, ttMove position.Move, killers [2]position.Move, depth int, continuations []ContinuationOffset) *Picker {
	return &Picker{
		pos:           pos,
		hist:          hist,
		side:          pos.SideToMove,
		depth:         depth,
		ttMove:        ttMove,
		killers:       killers,
		continuations: continuations,
		stage:         stageTT,
		yielded:       make(map[position.Move]bool, 8),
	}
}

// NewQuiescence constructs a picker that only yields captures (and skips
// quiets entirely, per spec.md §4.4 "In quiescence, this stage is
// skipped").
func NewQuiescence(pos *position.Position, hist *history.Tables, ttMove position.Move) *Picker {
	p := New(pos, hist, ttMove, [2]position.Move{}, 0, nil)
	p.quiescence = true
	return p
}

func (p *Picker) markYielded(m position.Move) {
	p.yielded[m] = true
}

func (p *Picker) alreadyYielded(m position.Move) bool {
	return p.yielded[m]
}

// NextMove drives the state machine forward and returns the next move to
// try, or (NoMove, false) once every stage is exhausted.
func (p *Picker) NextMove() (position.Move, bool) {
	for {
		switch p.stage {
		case stageTT:
			p.stage = stageGenCaptures
			if p.ttMove != position.NoMove && p.pseudoLegal(p.ttMove) {
				p.ttYielded = true
				p.markYielded(p.ttMove)
				return p.ttMove, true
			}

		case stageGenCaptures:
			p.generateCaptures()
			p.stage = stageGoodCaptures

		case stageGoodCaptures:
			for p.goodCursor < len(p.scoredCaptures) {
				sm := p.selectBest(p.scoredCaptures, p.goodCursor)
				p.goodCursor++
				if p.alreadyYielded(sm.move) {
					continue
				}
				if StaticExchangeEval(p.pos, sm.move) < 0 {
					p.badCaptures = append(p.badCaptures, sm.move)
					continue
				}
				p.markYielded(sm.move)
				return sm.move, true
			}
			if p.quiescence {
				p.stage = stageBadCaptures
			} else {
				p.stage = stageKillers
			}

		case stageKillers:
			for p.killerIndex < len(p.killers) {
				k := p.killers[p.killerIndex]
				p.killerIndex++
				if k == position.NoMove || p.alreadyYielded(k) || !p.pseudoLegal(k) {
					continue
				}
				if !p.pos.Board[k.To()].IsEmpty() {
					continue // killers are quiet moves by definition
				}
				p.markYielded(k)
				return k, true
			}
			p.stage = stageGenQuiets

		case stageGenQuiets:
			if p.quiescence {
				p.stage = stageBadCaptures
				continue
			}
			p.generateQuiets()
			p.stage = stageQuiets

		case stageQuiets:
			for p.quietCursor < len(p.scoredQuiets) {
				sm := p.selectBest(p.scoredQuiets, p.quietCursor)
				p.quietCursor++
				if p.alreadyYielded(sm.move) {
					continue
				}
				p.markYielded(sm.move)
				return sm.move, true
			}
			p.stage = stageBadCaptures

		case stageBadCaptures:
			for p.badCursor < len(p.badCaptures) {
				m := p.badCaptures[p.badCursor]
				p.badCursor++
				if p.alreadyYielded(m) {
					continue
				}
				p.markYielded(m)
				return m, true
			}
			p.stage = stageDone

		case stageDone:
			return position.NoMove, false
		}
	}
}

func (p *Picker) pseudoLegal(m position.Move) bool {
	if m.IsDrop() {
		if p.pos.Hand.Count(p.side, m.DropPiece()) == 0 {
			return false
		}
		return p.pos.Board[m.To()].IsEmpty()
	}
	piece := p.pos.Board[m.From()]
	if piece.IsEmpty() || piece.Color() != p.side {
		return false
	}
	dest := p.pos.Board[m.To()]
	return dest.IsEmpty() || dest.Color() != p.side
}

func (p *Picker) generateCaptures() {
	moves := position.GenerateCaptures(p.pos)
	p.scoredCaptures = make([]scoredMove, 0, len(moves))
	for _, m := range moves {
		if p.ttYielded && m == p.ttMove {
			continue
		}
		p.scoredCaptures = append(p.scoredCaptures, scoredMove{move: m, score: p.scoreCapture(m)})
	}
}

func (p *Picker) generateQuiets() {
	moves := position.GenerateQuiets(p.pos)
	p.scoredQuiets = make([]scoredMove, 0, len(moves))
	for _, m := range moves {
		if p.ttYielded && m == p.ttMove {
			continue
		}
		p.scoredQuiets = append(p.scoredQuiets, scoredMove{move: m, score: p.scoreQuiet(m)})
	}
	// spec.md §4.4: "for large move lists (more than ~32 remaining), a
	// full unstable sort is used once" instead of repeated partial
	// selection sort.
	if len(p.scoredQuiets) > 32 {
		slices.SortFunc(p.scoredQuiets, func(a, b scoredMove) int {
			return int(b.score) - int(a.score)
		})
	}
}

func movedPieceType(pos *position.Position, m position.Move) position.PieceType {
	if m.IsDrop() {
		return m.DropPiece()
	}
	return pos.Board[m.From()].Type()
}

var mvvLva = [position.NumPieceTypes]int32{
	position.Pawn: 1, position.Lance: 2, position.Knight: 2, position.Silver: 3,
	position.Gold: 3, position.Bishop: 4, position.Rook: 5, position.King: 6,
	position.ProPawn: 3, position.ProLance: 3, position.ProKnight: 3, position.ProSilver: 3,
	position.Horse: 5, position.Dragon: 6,
}

func (p *Picker) scoreCapture(m position.Move) int32 {
	moved := movedPieceType(p.pos, m)
	captured := p.pos.Board[m.To()].Type()
	score := int32(position.PieceValue[captured])*16 - mvvLva[moved]
	score += p.hist.CaptureScore(p.side, moved, m.To(), captured) / 4
	if m.IsPromotion() {
		score += 200
	}
	return score
}

func (p *Picker) scoreQuiet(m position.Move) int32 {
	score := p.hist.ButterflyScore(p.side, m)
	pt := movedPieceType(p.pos, m)
	for _, c := range p.continuations {
		if !c.Valid {
			continue
		}
		score += p.hist.ContinuationScore(c.Side, c.Piece, c.To, p.side, pt, m.To())
	}
	return score
}

// selectBest performs the "swap-best-to-front" partial selection sort
// spec.md §4.4 calls for when the list wasn't already fully sorted
// (generateQuiets only fully sorts beyond the ~32-move threshold).
func (p *Picker) selectBest(list []scoredMove, from int) scoredMove {
	bestIdx := from
	for i := from + 1; i < len(list); i++ {
		if list[i].score > list[bestIdx].score {
			bestIdx = i
		}
	}
	list[from], list[bestIdx] = list[bestIdx], list[from]
	return list[from]
}
