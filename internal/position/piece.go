package position

// Color is the side to move: Black (Sente, first player) or White (Gote).
type Color uint8

const (
	Black Color = iota
	White
)

func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// PieceType enumerates shogi's 14 piece kinds: 8 base types plus the 6 that
// have a promoted variant (Gold and King never promote).
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	ProPawn
	ProLance
	ProKnight
	ProSilver
	Horse // promoted Bishop
	Dragon // promoted Rook
	NumPieceTypes
)

// DroppablePieceTypes are the piece types that can be held in hand and
// dropped; captured pieces always revert to their unpromoted form.
var DroppablePieceTypes = [7]PieceType{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook}

func (pt PieceType) Promotable() bool {
	switch pt {
	case Pawn, Lance, Knight, Silver, Bishop, Rook:
		return true
	default:
		return false
	}
}

func (pt PieceType) Promoted() PieceType {
	switch pt {
	case Pawn:
		return ProPawn
	case Lance:
		return ProLance
	case Knight:
		return ProKnight
	case Silver:
		return ProSilver
	case Bishop:
		return Horse
	case Rook:
		return Dragon
	default:
		return pt
	}
}

// Unpromoted returns the base piece type a captured piece reverts to.
func (pt PieceType) Unpromoted() PieceType {
	switch pt {
	case ProPawn:
		return Pawn
	case ProLance:
		return Lance
	case ProKnight:
		return Knight
	case ProSilver:
		return Silver
	case Horse:
		return Bishop
	case Dragon:
		return Rook
	default:
		return pt
	}
}

func (pt PieceType) IsPromoted() bool {
	switch pt {
	case ProPawn, ProLance, ProKnight, ProSilver, Horse, Dragon:
		return true
	default:
		return false
	}
}

var pieceTypeLetters = [NumPieceTypes]string{
	"", "P", "L", "N", "S", "G", "B", "R", "K", "+P", "+L", "+N", "+S", "+B", "+R",
}

func (pt PieceType) String() string { return pieceTypeLetters[pt] }

// PieceValue gives a rough centipawn material value, used by the
// fallback material evaluator and by SEE/MVV-LVA ordering.
var PieceValue = [NumPieceTypes]int{
	NoPieceType: 0,
	Pawn:        90,
	Lance:       300,
	Knight:      320,
	Silver:      450,
	Gold:        500,
	Bishop:      700,
	Rook:        850,
	King:        0,
	ProPawn:     500,
	ProLance:    480,
	ProKnight:   490,
	ProSilver:   490,
	Horse:       950,
	Dragon:      1100,
}

// Piece packs a color and piece type. Zero value is NoPiece.
type Piece uint8

const NoPiece Piece = 0

func NewPiece(c Color, pt PieceType) Piece {
	return Piece(pt) | Piece(c)<<4
}

func (p Piece) Type() PieceType { return PieceType(p & 0x0F) }
func (p Piece) Color() Color    { return Color(p >> 4) }
func (p Piece) IsEmpty() bool   { return p == NoPiece }

func (p Piece) String() string {
	if p.IsEmpty() {
		return "."
	}
	s := p.Type().String()
	if p.Color() == White {
		return "v" + s
	}
	return "^" + s
}
