package position

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// History is an append-only record of position hashes visited during a
// game/search line, used for repetition (sennichite) and the 50-move-style
// exhaustion rule. Grounded on internal/engine/worker.go's posHistoryBuffer
// ring, but fingerprinted through xxhash rather than reusing the Zobrist
// key verbatim, so that a four-times repetition is confirmed by an
// independent hash family rather than solely trusting the same Zobrist
// table used for TT identity (SPEC_FULL.md domain stack: cespare/xxhash/v2).
type History struct {
	fingerprints []uint64
}

func NewHistory() *History {
	return &History{fingerprints: make([]uint64, 0, 256)}
}

func fingerprint(zobristHash uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], zobristHash)
	return xxhash.Sum64(buf[:])
}

func (h *History) Push(zobristHash uint64) {
	h.fingerprints = append(h.fingerprints, fingerprint(zobristHash))
}

func (h *History) Pop() {
	h.fingerprints = h.fingerprints[:len(h.fingerprints)-1]
}

func (h *History) Len() int { return len(h.fingerprints) }

// IsRepetition reports whether the current hash has now occurred four
// times in the line recorded so far (sennichite). The current position is
// expected to have been pushed already, so it counts as one of the four.
// Approximated by hash
// identity only (board-state equality, not move-sequence legality nuances
// such as perpetual check, is intentionally out of scope here).
func (h *History) IsRepetition(zobristHash uint64) bool {
	want := fingerprint(zobristHash)
	count := 0
	for _, f := range h.fingerprints {
		if f == want {
			count++
			if count >= 4 { // 3 prior + current occurrence = 4-fold
				return true
			}
		}
	}
	return false
}
