package position

// Move offsets are expressed as (deltaFile, deltaRank) for Black (Sente),
// who advances toward decreasing rank; White's offsets are the vertical
// mirror, applied in the helper functions below. Grounded in spirit on
// internal/board/movegen.go's attack-table approach, but array/offset based
// rather than bitboard-magic based: shogi's drop rule and per-color
// asymmetric movement make a direct translation of chess's sliding-attack
// magic bitboards not worth the complexity for an out-of-scope collaborator.
type offset struct{ df, dr int }

var (
	silverSteps = []offset{{-1, -1}, {0, -1}, {1, -1}, {-1, 1}, {1, 1}}
	goldSteps   = []offset{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}}
	kingSteps   = []offset{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
	knightSteps = []offset{{-1, -2}, {1, -2}}
	pawnStep    = []offset{{0, -1}}

	bishopDirs = []offset{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	rookDirs   = []offset{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
)

// stepsAndSlides returns the single-step offsets and sliding directions for
// a piece type, for Black (for Horse and Dragon only the slides; see
// horseExtraSteps below). Call mirror on each offset for White.
func stepsAndSlides(pt PieceType) (steps []offset, slides []offset) {
	switch pt {
	case Pawn:
		return pawnStep, nil
	case Lance:
		return nil, []offset{{0, -1}}
	case Knight:
		return knightSteps, nil
	case Silver:
		return silverSteps, nil
	case Gold, ProPawn, ProLance, ProKnight, ProSilver:
		return goldSteps, nil
	case King:
		return kingSteps, nil
	case Bishop:
		return nil, bishopDirs
	case Rook:
		return nil, rookDirs
	case Horse:
		return nil, bishopDirs // single steps come from horseExtraSteps; see note below
	case Dragon:
		return nil, rookDirs // single steps come from dragonExtraSteps
	}
	return nil, nil
}

func mirror(o offset, c Color) offset {
	if c == White {
		return offset{o.df, -o.dr}
	}
	return o
}

// Horse (promoted bishop) additionally moves one step in each of the four
// orthogonal directions; Dragon (promoted rook) additionally moves one step
// in each of the four diagonal directions. stepsAndSlides above returns
// only their sliding directions; horseExtraSteps/dragonExtraSteps are the
// single-step sets destinationsFor adds for them.
var horseExtraSteps = []offset{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
var dragonExtraSteps = []offset{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}

func onBoard(f, r int) bool { return f >= 0 && f < FilesCount && r >= 0 && r < RanksCount }

// destinationsFor appends every pseudo-legal destination square for a piece
// of type pt/color standing at from to dst, given an occupancy lookup.
func destinationsFor(pt PieceType, color Color, from Square, pieceAt func(Square) Piece, dst []Square) []Square {
	f, r := from.File(), from.Rank()

	steps, slides := stepsAndSlides(pt)
	var extra []offset
	if pt == Horse {
		extra = horseExtraSteps
	} else if pt == Dragon {
		extra = dragonExtraSteps
	}

	tryStep := func(o offset) {
		o = mirror(o, color)
		nf, nr := f+o.df, r+o.dr
		if !onBoard(nf, nr) {
			return
		}
		to := NewSquare(nf, nr)
		if occ := pieceAt(to); occ.IsEmpty() || occ.Color() != color {
			dst = append(dst, to)
		}
	}
	for _, o := range steps {
		tryStep(o)
	}
	for _, o := range extra {
		tryStep(o)
	}
	for _, d := range slides {
		dm := mirror(d, color)
		nf, nr := f+dm.df, r+dm.dr
		for onBoard(nf, nr) {
			to := NewSquare(nf, nr)
			occ := pieceAt(to)
			if occ.IsEmpty() {
				dst = append(dst, to)
				nf += dm.df
				nr += dm.dr
				continue
			}
			if occ.Color() != color {
				dst = append(dst, to)
			}
			break
		}
	}
	return dst
}

// mustPromote reports whether a piece landing on `to` has no legal moves
// left unless it promotes (pawn/lance on the far rank, knight on the far
// two ranks).
func mustPromote(pt PieceType, color Color, to Square) bool {
	r := to.Rank()
	last, last2 := 0, 1
	if color == White {
		last, last2 = 8, 7
	}
	switch pt {
	case Pawn, Lance:
		return r == last
	case Knight:
		return r == last || r == last2
	}
	return false
}

// GeneratePseudoLegal produces every pseudo-legal move (board moves and
// drops) without verifying the mover's own king ends up safe.
func GeneratePseudoLegal(pos *Position) []Move {
	moves := make([]Move, 0, 96)
	us := pos.SideToMove

	var dstBuf [32]Square
	for sq := Square(0); int(sq) < BoardSize; sq++ {
		p := pos.Board[sq]
		if p.IsEmpty() || p.Color() != us {
			continue
		}
		pt := p.Type()
		dsts := destinationsFor(pt, us, sq, pos.pieceAtFn(), dstBuf[:0])
		for _, to := range dsts {
			zone := InPromotionZone(us, sq) || InPromotionZone(us, to)
			canPromote := pt.Promotable() && zone
			forced := canPromote && mustPromote(pt, us, to)
			if canPromote {
				moves = append(moves, NewBoardMove(sq, to, true))
			}
			if !forced {
				moves = append(moves, NewBoardMove(sq, to, false))
			}
		}
	}

	moves = appendDrops(pos, moves)
	return moves
}

func appendDrops(pos *Position, moves []Move) []Move {
	us := pos.SideToMove
	for _, pt := range DroppablePieceTypes {
		if pos.Hand.Count(us, pt) == 0 {
			continue
		}
		pawnFiles := [FilesCount]bool{}
		if pt == Pawn {
			for sq := Square(0); int(sq) < BoardSize; sq++ {
				p := pos.Board[sq]
				if p.Type() == Pawn && p.Color() == us {
					pawnFiles[sq.File()] = true
				}
			}
		}
		for sq := Square(0); int(sq) < BoardSize; sq++ {
			if !pos.Board[sq].IsEmpty() {
				continue
			}
			if mustPromote(pt, us, sq) {
				continue // would have no legal moves ever; illegal drop
			}
			if pt == Pawn && pawnFiles[sq.File()] {
				continue // nifu: two unpromoted pawns on the same file
			}
			moves = append(moves, NewDropMove(pt, sq))
		}
	}
	return moves
}

// GenerateCaptures returns only pseudo-legal board moves landing on an
// enemy-occupied square (drops can never capture).
func GenerateCaptures(pos *Position) []Move {
	all := GeneratePseudoLegal(pos)
	out := all[:0]
	for _, m := range all {
		if !m.IsDrop() && !pos.Board[m.To()].IsEmpty() {
			out = append(out, m)
		}
	}
	return out
}

// GenerateQuiets returns pseudo-legal moves that are not captures.
func GenerateQuiets(pos *Position) []Move {
	all := GeneratePseudoLegal(pos)
	out := all[:0]
	for _, m := range all {
		if m.IsDrop() || pos.Board[m.To()].IsEmpty() {
			out = append(out, m)
		}
	}
	return out
}

// GenerateLegal filters pseudo-legal moves to those that do not leave the
// mover's own king attacked.
func GenerateLegal(pos *Position) []Move {
	pseudo := GeneratePseudoLegal(pos)
	out := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		u := pos.MakeMove(m)
		if !InCheck(pos, u.Mover) {
			out = append(out, m)
		}
		pos.UnmakeMove(m, u)
	}
	return out
}

// InCheck reports whether color c's king is currently attacked.
func InCheck(pos *Position, c Color) bool {
	ksq := pos.KingSquare[c]
	if ksq == NoSquare {
		return false
	}
	return IsAttacked(pos, ksq, c.Other())
}

// IsAttacked reports whether sq is attacked by any piece of color by.
func IsAttacked(pos *Position, sq Square, by Color) bool {
	return len(AttackersTo(pos, sq, by)) > 0
}

// AttackersTo returns every square holding a piece of color by that
// pseudo-legally attacks sq, used by SEE (internal/picker) to walk an
// exchange sequence one least-valuable-attacker at a time.
func AttackersTo(pos *Position, sq Square, by Color) []Square {
	var out []Square
	var dstBuf [32]Square
	for from := Square(0); int(from) < BoardSize; from++ {
		p := pos.Board[from]
		if p.IsEmpty() || p.Color() != by {
			continue
		}
		dsts := destinationsFor(p.Type(), by, from, pos.pieceAtFn(), dstBuf[:0])
		for _, to := range dsts {
			if to == sq {
				out = append(out, from)
				break
			}
		}
	}
	return out
}
