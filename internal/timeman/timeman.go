// Package timeman implements the soft/hard-deadline time manager spec.md
// §4.8 describes. Close adaptation of internal/engine/timeman.go (the
// teacher's own file already matches spec.md §4.8 closely): sudden-death
// moves-to-go estimation, a soft "optimum" deadline and a hard "maximum"
// ceiling, and stability/instability-driven reallocation between
// iterations. Byoyomi handling is added (shogi-specific, absent from the
// teacher's chess clock model).
package timeman

import "time"

// Limits mirrors spec.md §4.8's inputs plus the USI-specific byoyomi and
// explicit movetime/infinite overrides.
type Limits struct {
	Time      [2]time.Duration // indexed by position.Color: remaining time
	Inc       [2]time.Duration // increment per move
	Byoyomi   time.Duration    // fixed per-move allowance after the main clock runs out
	MovesToGo int              // 0 = sudden death
	MoveTime  time.Duration    // fixed time per move, overrides everything else
	Infinite  bool
	Depth     int
	Nodes     uint64

	MoveOverhead time.Duration // subtracted safety margin, spec.md §6
}

// Manager tracks the soft ("time_limit") and hard ("max_time") deadlines
// for one search, and adjusts the soft deadline between iterations based
// on best-move stability.
type Manager struct {
	soft, hard time.Duration
	start      time.Time
}

const defaultMovesToGo = 50
const defaultOverhead = 50 * time.Millisecond

// New computes the initial soft/hard deadlines for one search, for the
// side named by us (0 or 1, matching position.Color's encoding without
// importing that package — the time manager has no need for the board
// representation).
func New(l Limits, us int, ply int) *Manager {
	m := &Manager{start: time.Now()}

	overhead := l.MoveOverhead
	if overhead == 0 {
		overhead = defaultOverhead
	}

	switch {
	case l.MoveTime > 0:
		m.soft = l.MoveTime
		m.hard = l.MoveTime
	case l.Infinite || l.Depth > 0 || l.Nodes > 0:
		m.soft = 365 * 24 * time.Hour
		m.hard = 365 * 24 * time.Hour
	case l.Time[us] == 0 && l.Byoyomi > 0:
		m.soft = l.Byoyomi - overhead
		m.hard = l.Byoyomi - overhead
	default:
		timeLeft := l.Time[us]
		inc := l.Inc[us]

		mtg := l.MovesToGo
		if mtg == 0 {
			mtg = defaultMovesToGo - ply/4
			if mtg < 10 {
				mtg = 10
			}
			if mtg > defaultMovesToGo {
				mtg = defaultMovesToGo
			}
		}

		soft := timeLeft/time.Duration(mtg) + l.Byoyomi + (inc*85)/100
		hardCeiling := timeLeft*8/10 - overhead
		if hardCeiling < 0 {
			hardCeiling = 0
		}
		hard := soft * 5
		if hard > hardCeiling {
			hard = hardCeiling
		}
		if hard < soft {
			hard = soft
		}

		m.soft = soft
		m.hard = hard
	}

	if l.MoveTime == 0 && m.soft < 10*time.Millisecond {
		m.soft = 10 * time.Millisecond
	}
	if m.hard < m.soft {
		m.hard = m.soft
	}
	return m
}

// Elapsed returns the wall-clock time since the search began.
func (m *Manager) Elapsed() time.Duration { return time.Since(m.start) }

// SoftExpired reports whether the soft ("expected move time") deadline
// has passed — the driver only acts on this between iterations, per
// spec.md §4.8 "Soft expiry stops at the next iteration boundary."
func (m *Manager) SoftExpired() bool { return m.Elapsed() >= m.soft }

// HardExpired reports whether the hard ceiling has passed — spec.md §4.8
// "hard expiry stops immediately."
func (m *Manager) HardExpired() bool { return m.Elapsed() >= m.hard }

// AdjustStability rescales the soft deadline by the [0.8, 1.5] stability
// factor spec.md §4.8 describes: a best move unchanged across recent
// iterations shrinks the allotment, a best move that keeps flipping
// extends it (never past the hard ceiling).
func (m *Manager) AdjustStability(bestMoveChanges int) {
	factor := 1.0
	switch {
	case bestMoveChanges == 0:
		factor = 0.8
	case bestMoveChanges == 1:
		factor = 1.0
	case bestMoveChanges >= 4:
		factor = 1.5
	case bestMoveChanges >= 2:
		factor = 1.2
	}
	adjusted := time.Duration(float64(m.soft) * factor)
	if adjusted > m.hard {
		adjusted = m.hard
	}
	m.soft = adjusted
}
