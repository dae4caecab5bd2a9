// Package tt implements the lock-free, cache-line-clustered transposition
// table described in spec.md §4.2 and §9 ("Shared-mutable TT without
// locks"). Grounded on internal/engine/transposition.go for the operation
// names (Probe/Store/NewSearch/Clear/HashFull) and the mate-adjustment
// helpers, but the storage strategy is a full redesign: the teacher's table
// is a single non-atomic entry per index, while spec.md requires field-level
// relaxed atomics across a cluster of entries with a 16-bit key fingerprint
// as a torn-read guard. Go has no portable 128-bit atomic store, so each
// entry is written as two 64-bit words with the word carrying the key
// fingerprint stored last, exactly the fallback spec.md §9 describes:
// "two words, written key-last so that a mid-torn read fails the key check".
package tt

import (
	"math"
	"sync/atomic"

	"github.com/hailam/shogiplay/internal/position"
	"github.com/hailam/shogiplay/internal/value"
)

// ClusterSize entries share one 64-byte cache line (4 entries * 16 bytes).
const ClusterSize = 4

const generationMask = 0x3F // generation wraps modulo 64, as spec.md §4.2 requires.

// Move is a lossily packed 16-bit move representation, just enough to
// reconstruct a position.Move for move-ordering purposes. The caller always
// re-validates legality independently (spec.md §4.2's soundness invariant),
// so lossy packing is sound.
type Move uint16

const NoMove Move = 0

func PackMove(m position.Move) Move {
	if m == position.NoMove {
		return NoMove
	}
	if m.IsDrop() {
		return Move(1<<15) | Move(m.To())&0x7F | Move(m.DropPiece())<<7
	}
	packed := Move(m.To()) & 0x7F
	packed |= Move(m.From()&0x7F) << 7
	if m.IsPromotion() {
		packed |= 1 << 14
	}
	return packed
}

func (pm Move) Unpack() position.Move {
	if pm == NoMove {
		return position.NoMove
	}
	if pm&(1<<15) != 0 {
		to := position.Square(pm & 0x7F)
		pt := position.PieceType((pm >> 7) & 0x0F)
		return position.NewDropMove(pt, to)
	}
	to := position.Square(pm & 0x7F)
	from := position.Square((pm >> 7) & 0x7F)
	promote := pm&(1<<14) != 0
	return position.NewBoardMove(from, to, promote)
}

// Data is what Probe returns: a coherent (by key-fingerprint verification)
// snapshot of one entry's fields.
type Data struct {
	Move  Move
	Value value.Value
	Eval  value.Value
	Depth int
	Bound value.Bound
}

// entry is one 16-byte TT slot: word0 holds key|move|value|eval, word1
// holds depth|bound|generation. Both are plain atomic.Uint64 so a racing
// reader never observes a partially-written 64-bit word from the Go memory
// model's perspective, only a possibly-stale pairing of word0/word1.
type entry struct {
	word0 atomic.Uint64
	word1 atomic.Uint64
}

func packWord0(key16 uint16, move Move, v, eval value.Value) uint64 {
	return uint64(key16) | uint64(uint16(move))<<16 | uint64(uint16(v))<<32 | uint64(uint16(eval))<<48
}

func unpackWord0(w uint64) (key16 uint16, move Move, v, eval value.Value) {
	key16 = uint16(w)
	move = Move(uint16(w >> 16))
	v = value.Value(int16(uint16(w >> 32)))
	eval = value.Value(int16(uint16(w >> 48)))
	return
}

func packWord1(depth int, bound value.Bound, generation uint8) uint64 {
	return uint64(uint8(depth)) | uint64(bound)<<8 | uint64(generation&generationMask)<<10
}

func unpackWord1(w uint64) (depth int, bound value.Bound, generation uint8) {
	depth = int(int8(uint8(w)))
	bound = value.Bound((w >> 8) & 0x3)
	generation = uint8((w >> 10) & generationMask)
	return
}

func keyFingerprint(key uint64) uint16 {
	return uint16(key >> 48) // high bits, per spec.md §3 "TT entry"
}

type cluster struct {
	entries [ClusterSize]entry
}

// Table is the shared, lock-free transposition table.
type Table struct {
	clusters   []cluster
	mask       uint64 // clusters count is a power of two; mask = count-1
	generation atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// New allocates a table sized to the nearest power-of-two cluster count
// that fits within sizeMB megabytes, matching spec.md §6 "the actual
// allocation rounds down to a power of two of clusters".
func New(sizeMB int) *Table {
	if sizeMB < 1 {
		sizeMB = 1
	}
	bytes := uint64(sizeMB) * 1024 * 1024
	clusterBytes := uint64(ClusterSize * 16)
	count := bytes / clusterBytes
	if count == 0 {
		count = 1
	}
	pow := uint64(1)
	for pow*2 <= count {
		pow *= 2
	}
	return &Table{
		clusters: make([]cluster, pow),
		mask:     pow - 1,
	}
}

func (t *Table) clusterFor(key uint64) *cluster {
	return &t.clusters[key&t.mask]
}

// Probe scans the cluster for key and returns the first entry whose
// fingerprint matches. It never blocks and tolerates concurrent writers.
func (t *Table) Probe(key uint64) (Data, bool) {
	t.probes.Add(1)
	want := keyFingerprint(key)
	c := t.clusterFor(key)
	for i := range c.entries {
		e := &c.entries[i]
		w0 := e.word0.Load()
		key16, move, v, eval := unpackWord0(w0)
		if key16 != want {
			continue
		}
		w1 := e.word1.Load()
		if w1 == 0 {
			continue // never written: an empty slot is not a hit for a zero fingerprint
		}
		depth, bound, _ := unpackWord1(w1)
		t.hits.Add(1)
		return Data{Move: move, Value: v, Eval: eval, Depth: depth, Bound: bound}, true
	}
	return Data{}, false
}

// Store writes an entry into key's cluster per spec.md §4.2's replacement
// policy: prefer an already-matching-key slot when the new data is at least
// as deep (plus a bonus for exact bounds) or the generation has rolled
// over; otherwise evict the slot minimizing depth-8*generation_age.
func (t *Table) Store(key uint64, m Move, v, eval value.Value, depth int, bound value.Bound) {
	want := keyFingerprint(key)
	currentGen := uint8(t.generation.Load())
	c := t.clusterFor(key)

	var victim *entry
	victimScore := math.MaxInt32

	for i := range c.entries {
		e := &c.entries[i]
		w0 := e.word0.Load()
		key16, _, _, _ := unpackWord0(w0)
		w1 := e.word1.Load()
		oldDepth, _, oldGen := unpackWord1(w1)

		if key16 == want {
			exactBonus := 0
			if bound == value.BoundExact {
				exactBonus = 2
			}
			if depth+exactBonus >= oldDepth || oldGen != currentGen {
				t.writeEntry(e, want, m, v, eval, depth, bound, currentGen)
			}
			return // matching key: either just overwrote it, or it's not worth overwriting.
		}

		age := int(currentGen-oldGen) & generationMask
		score := oldDepth - 8*age
		if victim == nil || score < victimScore {
			victim = e
			victimScore = score
		}
	}

	if victim != nil {
		t.writeEntry(victim, want, m, v, eval, depth, bound, currentGen)
	}
}

func (t *Table) writeEntry(e *entry, key16 uint16, m Move, v, eval value.Value, depth int, bound value.Bound, gen uint8) {
	// word1 first, word0 (carrying the key) last: spec.md §9's torn-read
	// guard relies on a concurrent reader seeing a stale key alongside
	// fresh depth/bound/generation only ever producing a checksum miss,
	// never a plausible-but-wrong hit.
	e.word1.Store(packWord1(depth, bound, gen))
	e.word0.Store(packWord0(key16, m, v, eval))
}

// NewSearch advances the generation counter, making stale entries
// preferentially replaceable without clearing the table.
func (t *Table) NewSearch() {
	t.generation.Add(1)
}

// Clear discards all entries and resets the generation, leaving the table
// in the same state as a freshly allocated one.
func (t *Table) Clear() {
	for i := range t.clusters {
		c := &t.clusters[i]
		for j := range c.entries {
			c.entries[j].word0.Store(0)
			c.entries[j].word1.Store(0)
		}
	}
	t.generation.Store(0)
	t.hits.Store(0)
	t.probes.Store(0)
}

// HashFull estimates occupancy out of 1000, sampling the first clusters.
func (t *Table) HashFull() int {
	currentGen := uint8(t.generation.Load())
	sampleClusters := len(t.clusters)
	if sampleClusters > 250 {
		sampleClusters = 250
	}
	filled := 0
	total := 0
	for i := 0; i < sampleClusters; i++ {
		for j := range t.clusters[i].entries {
			total++
			w1 := t.clusters[i].entries[j].word1.Load()
			_, _, gen := unpackWord1(w1)
			if gen == currentGen && w1 != 0 {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return filled * 1000 / total
}

func (t *Table) HitRate() float64 {
	probes := t.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(t.hits.Load()) / float64(probes)
}

// AdjustScoreToTT converts a score at the given ply to the mate-distance
// relative encoding stored in the TT. Thin wrapper over value.ToTT, kept
// here so callers only need to import this package for TT I/O.
func AdjustScoreToTT(v value.Value, ply int) value.Value { return value.ToTT(v, ply) }

// AdjustScoreFromTT undoes AdjustScoreToTT when reading a stored value back
// out at the current ply.
func AdjustScoreFromTT(v value.Value, ply int) value.Value { return value.FromTT(v, ply) }
