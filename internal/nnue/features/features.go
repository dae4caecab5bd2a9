// Package features computes NNUE input feature indices for shogi
// positions, king-bucket indexed the way Stockfish's HalfKP/HalfKAv2_hm
// does (ported in spirit from ../../../sfnnue/features/half_ka_v2_hm.go's
// MakeIndex), extended with a thermometer-coded hand-piece-count axis:
// shogi has no chess analogue for "captured pieces you can put back on
// the board," so each unit of hand material gets its own feature slot.
package features

import "github.com/hailam/shogiplay/internal/position"

// boardPieceTypes enumerates every non-king piece type that can sit on
// the board, in a fixed order used to build the "friend"/"enemy" category
// index below.
var boardPieceTypes = [13]position.PieceType{
	position.Pawn, position.Lance, position.Knight, position.Silver, position.Gold,
	position.Bishop, position.Rook,
	position.ProPawn, position.ProLance, position.ProKnight, position.ProSilver,
	position.Horse, position.Dragon,
}

var pieceTypeCategory = buildPieceTypeCategory()

func buildPieceTypeCategory() [position.NumPieceTypes]int {
	var cat [position.NumPieceTypes]int
	for i, pt := range boardPieceTypes {
		cat[pt] = i
	}
	return cat
}

const numBoardPieceTypes = len(boardPieceTypes)

// numCategories is the friend/enemy split Stockfish's PieceSquareIndex
// uses: the same piece type gets a different feature slot depending on
// whether it belongs to the accumulator's own perspective or the
// opponent's.
const numCategories = numBoardPieceTypes * 2

// handPieceTypes and their maximum simultaneously-droppable count (two
// copies of each starting piece survive capture at most, except pawns
// which have 18 on the board and silver/gold/knight/lance at 4, per
// standard shogi piece counts).
var handPieceTypes = [7]position.PieceType{
	position.Pawn, position.Lance, position.Knight, position.Silver,
	position.Gold, position.Bishop, position.Rook,
}

var handMaxCount = [7]int{18, 4, 4, 4, 4, 2, 2}

// handUnitBase[i] is the first thermometer-unit index belonging to
// handPieceTypes[i], for one color; handUnitsPerColor is the total count.
var handUnitBase, handUnitsPerColor = buildHandUnitBase()

func buildHandUnitBase() ([7]int, int) {
	var base [7]int
	total := 0
	for i, max := range handMaxCount {
		base[i] = total
		total += max
	}
	return base, total
}

// boardFeatureSlots is the number of board-feature slots within a single
// king bucket; handFeatureSlots is the number of hand-feature slots
// within a single king bucket (two colors' worth of thermometer units).
const boardFeatureSlots = numCategories * position.BoardSize

// FeatureSlotsPerKingBucket is computed once handUnitsPerColor is known
// (package init order guarantees the earlier init runs first).
var FeatureSlotsPerKingBucket = boardFeatureSlots + 2*handUnitsPerColor

// Dimensions is the total NNUE input dimension per perspective: one king
// bucket per board square, each holding a full board+hand feature block.
var Dimensions = position.BoardSize * FeatureSlotsPerKingBucket

// categoryIndex returns the friend/enemy category slot (0..numCategories-1)
// for a piece of type pt and color pieceColor, as seen from perspective.
func categoryIndex(perspective, pieceColor position.Color, pt position.PieceType) int {
	base := pieceTypeCategory[pt]
	if pieceColor == perspective {
		return base
	}
	return numBoardPieceTypes + base
}

// orient mirrors a square when the perspective is White, so both sides'
// accumulators are built as if they were the mover advancing up the board.
func orient(perspective position.Color, sq position.Square) position.Square {
	if perspective == position.White {
		return sq.Mirror()
	}
	return sq
}

// BoardFeatureIndex computes the feature index contributed by a board
// piece, from perspective's point of view.
func BoardFeatureIndex(perspective position.Color, kingSq position.Square, pt position.PieceType, pieceColor position.Color, pieceSq position.Square) int {
	bucket := int(orient(perspective, kingSq))
	cat := categoryIndex(perspective, pieceColor, pt)
	sq := int(orient(perspective, pieceSq))
	return bucket*FeatureSlotsPerKingBucket + cat*position.BoardSize + sq
}

// handTypeSlot returns the index into handPieceTypes for pt, or -1 if pt
// is not droppable.
func handTypeSlot(pt position.PieceType) int {
	for i, h := range handPieceTypes {
		if h == pt {
			return i
		}
	}
	return -1
}

// HandFeatureIndices appends the thermometer-coded indices active for
// holding `count` copies of piece type pt in hand for handColor, from
// perspective's point of view: count units are active, unit 0 first.
func HandFeatureIndices(perspective position.Color, kingSq position.Square, handColor position.Color, pt position.PieceType, count int, dst []int) []int {
	slot := handTypeSlot(pt)
	if slot < 0 || count <= 0 {
		return dst
	}
	if count > handMaxCount[slot] {
		count = handMaxCount[slot]
	}
	bucket := int(orient(perspective, kingSq))
	colorOffset := 0
	if handColor != perspective {
		colorOffset = handUnitsPerColor
	}
	base := bucket*FeatureSlotsPerKingBucket + boardFeatureSlots + colorOffset + handUnitBase[slot]
	for i := 0; i < count; i++ {
		dst = append(dst, base+i)
	}
	return dst
}

// ActiveFeatures returns every active feature index for pos, from
// perspective's point of view.
func ActiveFeatures(pos *position.Position, perspective position.Color) []int {
	out := make([]int, 0, 48)
	kingSq := pos.KingSquare[perspective]

	for sq := position.Square(0); int(sq) < position.BoardSize; sq++ {
		p := pos.Board[sq]
		if p.IsEmpty() {
			continue
		}
		out = append(out, BoardFeatureIndex(perspective, kingSq, p.Type(), p.Color(), sq))
	}

	for _, c := range [2]position.Color{position.Black, position.White} {
		for _, pt := range handPieceTypes {
			count := int(pos.Hand.Count(c, pt))
			out = HandFeatureIndices(perspective, kingSq, c, pt, count, out)
		}
	}
	return out
}
