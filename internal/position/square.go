// Package position implements the shogi board representation and move
// generator consumed by the search core as an external collaborator.
// spec.md §1 explicitly places board representation and legality out of
// scope ("consumed as a trait: a Position producing legal moves, executing
// them, hashing, and detecting repetition/check") — this package exists
// only so the in-scope components have something real to call.
package position

import "fmt"

// Square is a board coordinate in [0, 80]: Square = rank*9 + file.
// File 0 corresponds to SFEN file "9" (files run 9..1 left to right in a
// SFEN row); rank 0 is SFEN rank "a" (the top row).
type Square int8

const NoSquare Square = -1

const (
	BoardSize  = 81
	FilesCount = 9
	RanksCount = 9
)

func NewSquare(file, rank int) Square {
	return Square(rank*FilesCount + file)
}

func (s Square) File() int { return int(s) % FilesCount }
func (s Square) Rank() int { return int(s) / FilesCount }

func (s Square) Valid() bool { return s >= 0 && int(s) < BoardSize }

// String renders in USI square notation: file digit 9..1 followed by rank
// letter a..i.
func (s Square) String() string {
	if !s.Valid() {
		return "--"
	}
	file := 9 - s.File() // file 0 == SFEN file 9
	rank := rune('a' + s.Rank())
	return fmt.Sprintf("%d%c", file, rank)
}

// ParseSquare parses USI square notation (e.g. "7g").
func ParseSquare(str string) (Square, error) {
	if len(str) != 2 {
		return NoSquare, fmt.Errorf("invalid square %q", str)
	}
	fileDigit := str[0]
	rankLetter := str[1]
	if fileDigit < '1' || fileDigit > '9' {
		return NoSquare, fmt.Errorf("invalid square file in %q", str)
	}
	if rankLetter < 'a' || rankLetter > 'i' {
		return NoSquare, fmt.Errorf("invalid square rank in %q", str)
	}
	file := 9 - int(fileDigit-'0')
	rank := int(rankLetter - 'a')
	return NewSquare(file, rank), nil
}

// InPromotionZone reports whether sq lies in c's promotion zone (the
// farthest three ranks from c's own side).
func InPromotionZone(c Color, sq Square) bool {
	r := sq.Rank()
	if c == Black {
		return r <= 2
	}
	return r >= 6
}

// Mirror rotates a square 180 degrees (file and rank both flipped), the
// transform White's NNUE perspective applies so both sides see the board
// the same way their own pieces advance.
func (s Square) Mirror() Square {
	if !s.Valid() {
		return s
	}
	return NewSquare(FilesCount-1-s.File(), RanksCount-1-s.Rank())
}
