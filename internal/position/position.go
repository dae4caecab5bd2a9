package position

// Position represents a complete shogi position: the 81-square board, both
// hands, side to move, and incremental Zobrist hash. Grounded on the shape
// of internal/board/position.go (bitboard piece sets, cached king squares,
// incrementally maintained hash) but translated to an array-of-squares
// board plus a Hand, since shogi's drop rule makes "pieces not on the
// board" a first-class part of the position rather than something a
// bitboard-only chess model needs to represent.
type Position struct {
	Board      [BoardSize]Piece
	Hand       Hand
	SideToMove Color
	KingSquare [2]Square
	Hash       uint64
	Ply        int
}

// Undo captures everything MakeMove needs to reverse itself.
type Undo struct {
	Mover         Color
	From, To      Square
	Captured      Piece
	WasPromotion  bool
	WasDrop       bool
	DropPieceType PieceType
	PrevHash      uint64
}

func (p *Position) pieceAtFn() func(Square) Piece {
	return func(sq Square) Piece { return p.Board[sq] }
}

func (p *Position) PieceAt(sq Square) Piece { return p.Board[sq] }

// NewStartPosition returns the standard shogi starting position.
func NewStartPosition() *Position {
	p := &Position{SideToMove: Black}
	p.setupStandard()
	p.recomputeHash()
	return p
}

func (p *Position) setupStandard() {
	back := []PieceType{Lance, Knight, Silver, Gold, King, Gold, Silver, Knight, Lance}
	for file, pt := range back {
		p.Board[NewSquare(file, 0)] = NewPiece(White, pt)
		p.Board[NewSquare(file, 8)] = NewPiece(Black, pt)
	}
	p.Board[NewSquare(1, 1)] = NewPiece(White, Rook)
	p.Board[NewSquare(7, 1)] = NewPiece(White, Bishop)
	p.Board[NewSquare(7, 7)] = NewPiece(Black, Bishop)
	p.Board[NewSquare(1, 7)] = NewPiece(Black, Rook)
	for file := 0; file < FilesCount; file++ {
		p.Board[NewSquare(file, 2)] = NewPiece(White, Pawn)
		p.Board[NewSquare(file, 6)] = NewPiece(Black, Pawn)
	}
	p.KingSquare[Black] = NewSquare(4, 8)
	p.KingSquare[White] = NewSquare(4, 0)
}

func (p *Position) recomputeHash() {
	var h uint64
	for sq := Square(0); int(sq) < BoardSize; sq++ {
		if pc := p.Board[sq]; !pc.IsEmpty() {
			h ^= ZobristPiece(pc.Color(), pc.Type(), sq)
		}
	}
	for c := Black; c <= White; c++ {
		for _, pt := range DroppablePieceTypes {
			for n := 0; n < p.Hand.Count(c, pt); n++ {
				h ^= ZobristHandUnit(c, pt)
			}
		}
	}
	if p.SideToMove == White {
		h ^= ZobristSideToMove()
	}
	p.Hash = h
}

// Copy returns a deep copy (Position has no pointer fields, so a value
// copy suffices, same as internal/board/position.go's Copy).
func (p *Position) Copy() *Position {
	n := *p
	return &n
}

// MakeMove applies m, returning an Undo that restores the prior state.
func (p *Position) MakeMove(m Move) Undo {
	us := p.SideToMove
	u := Undo{Mover: us, PrevHash: p.Hash, WasDrop: m.IsDrop(), WasPromotion: m.IsPromotion()}

	if m.IsDrop() {
		pt := m.DropPiece()
		to := m.To()
		u.To = to
		u.DropPieceType = pt
		p.Hand.Remove(us, pt)
		p.Hash ^= ZobristHandUnit(us, pt)
		p.placePiece(NewPiece(us, pt), to)
	} else {
		from, to := m.From(), m.To()
		u.From, u.To = from, to
		moving := p.Board[from]
		captured := p.Board[to]
		u.Captured = captured

		if !captured.IsEmpty() {
			p.removePiece(to)
			capType := captured.Type().Unpromoted()
			p.Hand.Add(us, capType)
			p.Hash ^= ZobristHandUnit(us, capType)
		}

		p.removePiece(from)
		newType := moving.Type()
		if m.IsPromotion() {
			newType = newType.Promoted()
		}
		p.placePiece(NewPiece(us, newType), to)
	}

	p.Hash ^= ZobristSideToMove()
	p.SideToMove = us.Other()
	p.Ply++
	return u
}

// UnmakeMove reverses the effect of MakeMove(m) given the Undo it returned.
func (p *Position) UnmakeMove(m Move, u Undo) {
	p.SideToMove = u.Mover
	p.Ply--

	if u.WasDrop {
		p.removePiece(u.To)
		p.Hand.Add(u.Mover, u.DropPieceType)
	} else {
		moved := p.Board[u.To]
		origType := moved.Type()
		if u.WasPromotion {
			origType = origType.Unpromoted()
		}
		p.removePiece(u.To)
		p.placePiece(NewPiece(u.Mover, origType), u.From)
		if !u.Captured.IsEmpty() {
			p.placePiece(u.Captured, u.To)
			p.Hand.Remove(u.Mover, u.Captured.Type().Unpromoted())
		}
	}
	p.Hash = u.PrevHash
}

func (p *Position) placePiece(pc Piece, sq Square) {
	p.Board[sq] = pc
	if pc.Type() == King {
		p.KingSquare[pc.Color()] = sq
	}
	p.Hash ^= ZobristPiece(pc.Color(), pc.Type(), sq)
}

func (p *Position) removePiece(sq Square) {
	pc := p.Board[sq]
	if pc.IsEmpty() {
		return
	}
	p.Hash ^= ZobristPiece(pc.Color(), pc.Type(), sq)
	p.Board[sq] = NoPiece
}

// MakeNullMove passes the turn without moving, used by null-move pruning.
func (p *Position) MakeNullMove() uint64 {
	prev := p.Hash
	p.Hash ^= ZobristSideToMove()
	p.SideToMove = p.SideToMove.Other()
	p.Ply++
	return prev
}

func (p *Position) UnmakeNullMove(prevHash uint64) {
	p.SideToMove = p.SideToMove.Other()
	p.Ply--
	p.Hash = prevHash
}

// HasNonPawnMaterial reports whether color c holds any piece other
// than pawns, on the board or in hand — used to avoid null-move pruning in
// pawn-only endgames where zugzwang is common.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	for sq := Square(0); int(sq) < BoardSize; sq++ {
		pc := p.Board[sq]
		if pc.Color() == c && !pc.IsEmpty() && pc.Type() != Pawn && pc.Type() != King {
			return true
		}
	}
	for _, pt := range DroppablePieceTypes {
		if pt != Pawn && p.Hand.Count(c, pt) > 0 {
			return true
		}
	}
	return false
}

// Material returns a signed material balance, positive favoring Black.
func (p *Position) Material() int {
	score := 0
	for sq := Square(0); int(sq) < BoardSize; sq++ {
		if pc := p.Board[sq]; !pc.IsEmpty() {
			v := PieceValue[pc.Type()]
			if pc.Color() == Black {
				score += v
			} else {
				score -= v
			}
		}
	}
	for _, pt := range DroppablePieceTypes {
		score += p.Hand.Count(Black, pt) * PieceValue[pt]
		score -= p.Hand.Count(White, pt) * PieceValue[pt]
	}
	return score
}
