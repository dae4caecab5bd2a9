// Package usi implements the protocol driver of spec.md §7: a line-based
// stdin/stdout loop translating USI commands into Driver operations and
// Driver events back into USI output lines. Grounded on
// internal/uci/uci.go's scanner-based main loop, handlePosition's
// startpos/fen/moves parsing, sendInfo's info-line assembly, and
// handleSetOption's token-pair option parser — adapted from UCI/chess
// vocabulary (wtime/btime, "moves e2e4") to USI/shogi vocabulary (btime/
// wtime keep their USI names, byoyomi is shogi-specific, moves use SFEN
// square notation and drop moves).
package usi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/shogiplay/internal/driver"
	"github.com/hailam/shogiplay/internal/position"
)

// Sentinel errors surfaced on malformed input, spec.md §7 "Errors."
var (
	ErrConfig      = errors.New("usi: invalid option or configuration")
	ErrPosition    = errors.New("usi: invalid position or move")
	ErrEvalLoad    = errors.New("usi: evaluation file failed to load")
	ErrSearchAbort = errors.New("usi: search aborted before completion")
)

// EngineName/Author are reported on "usi", spec.md §7.
const (
	EngineName = "shogiplay"
	Author     = "shogiplay contributors"
)

// Options carries the mutable engine-wide settings "setoption" can change,
// mirroring internal/uci/uci.go's handleSetOption targets translated to
// this engine's own knobs (hash size, NNUE file, worker count, Multi-PV,
// skill level).
type Options struct {
	HashMB       int
	Threads      int
	MultiPV      int
	SkillLevel   int
	EvalFile     string
	MoveOverhead time.Duration
}

func DefaultOptions() Options {
	return Options{HashMB: 64, Threads: 1, MultiPV: 1, SkillLevel: 20, MoveOverhead: 50 * time.Millisecond}
}

// EngineFactory rebuilds (or replaces) the driver when an option changes
// something the running driver cannot reconfigure in place (hash size,
// thread count, eval file) — the caller supplies this so package usi never
// needs to know how workers/TT/evaluators are constructed.
type EngineFactory func(Options) (*driver.Driver, error)

// Loop is one USI session: current options, the active driver, and the
// position/move-history state "position" accumulates, spec.md §7's
// "set_position" operation.
type Loop struct {
	out     io.Writer
	newEng  EngineFactory
	opts    Options
	eng     *driver.Driver
	pos     *position.Position
	history []uint64

	searching  bool
	searchDone chan struct{}
}

func New(out io.Writer, newEng EngineFactory) *Loop {
	l := &Loop{out: out, newEng: newEng, opts: DefaultOptions(), pos: position.NewStartPosition()}
	l.history = []uint64{l.pos.Hash}
	return l
}

// Run reads USI commands from in until EOF or "quit", spec.md §7's
// "new_game/set_option/set_position/go/stop" operation set plus the
// bookkeeping commands ("usi", "isready", "d").
func (l *Loop) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "usi":
			l.handleUSI()
		case "isready":
			l.handleIsReady()
		case "usinewgame":
			l.handleNewGame()
		case "position":
			l.handlePosition(args)
		case "go":
			l.handleGo(args)
		case "stop":
			l.handleStop()
		case "setoption":
			l.handleSetOption(args)
		case "gameover":
			// acknowledged, no action required.
		case "d":
			fmt.Fprintf(l.out, "info string hash=%016x side=%d ply=%d\n",
				l.pos.Hash, l.pos.SideToMove, len(l.history)-1)
		case "quit":
			l.handleStop()
			return nil
		}
	}
	return scanner.Err()
}

func (l *Loop) handleUSI() {
	fmt.Fprintf(l.out, "id name %s\n", EngineName)
	fmt.Fprintf(l.out, "id author %s\n", Author)
	fmt.Fprintln(l.out, "option name USI_Hash type spin default 64 min 1 max 65536")
	fmt.Fprintln(l.out, "option name USI_Ponder type check default false")
	fmt.Fprintln(l.out, "option name Threads type spin default 1 min 1 max 512")
	fmt.Fprintln(l.out, "option name MultiPV type spin default 1 min 1 max 128")
	fmt.Fprintln(l.out, "option name SkillLevel type spin default 20 min 0 max 20")
	fmt.Fprintln(l.out, "option name EvalFile type string default <empty>")
	fmt.Fprintln(l.out, "usiok")
}

func (l *Loop) handleIsReady() {
	if l.eng == nil {
		if err := l.ensureEngine(); err != nil {
			fmt.Fprintf(l.out, "info string %v\n", err)
		}
	}
	fmt.Fprintln(l.out, "readyok")
}

func (l *Loop) ensureEngine() error {
	eng, err := l.newEng(l.opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEvalLoad, err)
	}
	l.eng = eng
	return nil
}

func (l *Loop) handleNewGame() {
	l.pos = position.NewStartPosition()
	l.history = []uint64{l.pos.Hash}
	if l.eng != nil {
		l.eng.TT.NewSearch()
		l.eng.Hist.Clear()
	}
}

// handlePosition implements spec.md §7's "set_position":
//
//	position startpos
//	position startpos moves 7g7f 3c3d
//	position sfen <sfen> moves 7g7f
func (l *Loop) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var pos *position.Position
	var moveStart int

	switch args[0] {
	case "startpos":
		pos = position.NewStartPosition()
		moveStart = 1
	case "sfen":
		end := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				end = i
				break
			}
		}
		if end < 4 {
			fmt.Fprintf(l.out, "info string %v: incomplete sfen\n", ErrPosition)
			return
		}
		sfen := strings.Join(args[1:end], " ")
		p, err := position.ParseSFEN(sfen)
		if err != nil {
			fmt.Fprintf(l.out, "info string %v: %v\n", ErrPosition, err)
			return
		}
		pos = p
		moveStart = end
	default:
		fmt.Fprintf(l.out, "info string %v: unknown position kind %q\n", ErrPosition, args[0])
		return
	}

	for i, a := range args {
		if a == "moves" {
			moveStart = i + 1
			break
		}
	}

	hashes := []uint64{pos.Hash}
	if moveStart < len(args) {
		for _, ms := range args[moveStart:] {
			m, err := position.ParseUSIMove(ms, pos)
			if err != nil || !isLegalMove(pos, m) {
				fmt.Fprintf(l.out, "info string %v: illegal move %q\n", ErrPosition, ms)
				return
			}
			pos.MakeMove(m)
			hashes = append(hashes, pos.Hash)
		}
	}

	l.pos = pos
	l.history = hashes
}

// isLegalMove re-validates a syntactically parsed move against the
// position's own legal move list, the way internal/uci/uci.go's
// parseMove matches a parsed from/to pair against GenerateLegalMoves
// rather than trusting the wire format.
func isLegalMove(pos *position.Position, m position.Move) bool {
	for _, legal := range position.GenerateLegal(pos) {
		if legal == m {
			return true
		}
	}
	return false
}

// handleGo implements spec.md §7's "go": parse time controls, then launch
// the driver on its own goroutine and return immediately so Run's scanner
// loop keeps reading stdin — otherwise a later "stop" line could never be
// delivered while "go infinite" runs, spec.md §8 scenario 5. Grounded on
// internal/uci/uci.go's handleGo (search-in-goroutine, searching flag,
// searchDone channel a blocking "stop" waits on).
func (l *Loop) handleGo(args []string) {
	if l.eng == nil {
		if err := l.ensureEngine(); err != nil {
			fmt.Fprintf(l.out, "info string %v\n", err)
			fmt.Fprintln(l.out, "bestmove resign")
			return
		}
	}

	lim := l.parseGoLimits(args)
	us := int(l.pos.SideToMove)
	ply := len(l.history) - 1

	l.eng.OnInfo = func(info driver.Info) {
		l.writeInfo(info)
	}

	pos := l.pos.Copy()
	history := append([]uint64(nil), l.history...)

	l.searching = true
	l.searchDone = make(chan struct{})

	go func() {
		defer close(l.searchDone)
		result := l.eng.Search(pos, history, us, ply, lim)
		l.searching = false

		switch {
		case result.Resign || result.Move == position.NoMove:
			fmt.Fprintln(l.out, "bestmove resign")
		case result.Ponder != position.NoMove:
			fmt.Fprintf(l.out, "bestmove %s ponder %s\n", result.Move.String(), result.Ponder.String())
		default:
			fmt.Fprintf(l.out, "bestmove %s\n", result.Move.String())
		}
	}()
}

func (l *Loop) writeInfo(info driver.Info) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d seldepth %d", info.Depth, info.SelDepth)
	if info.Mate {
		sign := "+"
		n := info.MateIn
		if n < 0 {
			sign, n = "-", -n
		}
		fmt.Fprintf(&sb, " score mate %s%d", sign, n)
	} else {
		fmt.Fprintf(&sb, " score cp %d", int(info.Score))
	}
	if info.MultiPV > 0 {
		fmt.Fprintf(&sb, " multipv %d", info.MultiPV)
	}
	fmt.Fprintf(&sb, " nodes %d nps %d hashfull %d time %d",
		info.Nodes, info.NPS, info.HashFull, info.Time.Milliseconds())
	if len(info.PV) > 0 {
		sb.WriteString(" pv")
		for _, m := range info.PV {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}
	fmt.Fprintln(l.out, sb.String())
}

// handleStop implements spec.md §7's "stop": latch the shared stop flag and
// block until the in-flight search's "bestmove" has actually been written,
// so the command only returns once the go/stop contract (spec.md §6, §8
// scenario 5) has been honored — mirroring internal/uci/uci.go's handleStop.
func (l *Loop) handleStop() {
	if l.eng == nil {
		return
	}
	l.eng.Stop()
	if l.searching {
		<-l.searchDone
	}
}

// handleSetOption implements spec.md §7's "set_option": parses
// "setoption name <name> value <value>" and applies the few options this
// engine understands, rebuilding the engine when a hash/thread/eval
// change requires it.
func (l *Loop) handleSetOption(args []string) {
	name, value, ok := parseNameValue(args)
	if !ok {
		fmt.Fprintf(l.out, "info string %v: malformed setoption\n", ErrConfig)
		return
	}

	rebuild := false
	switch strings.ToLower(name) {
	case "usi_hash", "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			fmt.Fprintf(l.out, "info string %v: bad hash size %q\n", ErrConfig, value)
			return
		}
		l.opts.HashMB = mb
		rebuild = true
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			fmt.Fprintf(l.out, "info string %v: bad thread count %q\n", ErrConfig, value)
			return
		}
		l.opts.Threads = n
		rebuild = true
	case "multipv":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			fmt.Fprintf(l.out, "info string %v: bad multipv %q\n", ErrConfig, value)
			return
		}
		l.opts.MultiPV = n
	case "skilllevel":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 20 {
			fmt.Fprintf(l.out, "info string %v: bad skill level %q\n", ErrConfig, value)
			return
		}
		l.opts.SkillLevel = n
		if l.eng != nil {
			l.eng.Skill = n
		}
	case "evalfile":
		l.opts.EvalFile = value
		rebuild = true
	case "usi_ponder":
		// acknowledged; pondering itself is a Non-goal.
	default:
		fmt.Fprintf(l.out, "info string %v: unknown option %q\n", ErrConfig, name)
		return
	}

	if rebuild {
		if err := l.ensureEngine(); err != nil {
			fmt.Fprintf(l.out, "info string %v\n", err)
		}
	}
}

// parseNameValue extracts "name <tokens...> value <tokens...>" the way
// internal/uci/uci.go's handleSetOption does (a small field-by-field state
// machine rather than a regex, since USI's option strings are whitespace-
// separated multi-word values).
func parseNameValue(args []string) (name, value string, ok bool) {
	var nameParts, valueParts []string
	section := ""
	for _, a := range args {
		switch strings.ToLower(a) {
		case "name":
			section = "name"
			continue
		case "value":
			section = "value"
			continue
		}
		switch section {
		case "name":
			nameParts = append(nameParts, a)
		case "value":
			valueParts = append(valueParts, a)
		}
	}
	if len(nameParts) == 0 {
		return "", "", false
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " "), true
}

// parseGoLimits implements spec.md §7's "go" time-control parsing:
// btime/wtime/binc/winc/byoyomi, movestogo, depth, nodes, movetime, and
// infinite — mirrors internal/uci/uci.go's parseGoOptions token scan.
func (l *Loop) parseGoLimits(args []string) driver.Limits {
	lim := driver.Limits{MultiPV: l.opts.MultiPV}
	lim.Time.MoveOverhead = l.opts.MoveOverhead

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "btime":
			i++
			lim.Time.Time[position.Black] = parseMillis(args, i)
		case "wtime":
			i++
			lim.Time.Time[position.White] = parseMillis(args, i)
		case "binc":
			i++
			lim.Time.Inc[position.Black] = parseMillis(args, i)
		case "winc":
			i++
			lim.Time.Inc[position.White] = parseMillis(args, i)
		case "byoyomi":
			i++
			lim.Time.Byoyomi = parseMillis(args, i)
		case "movestogo":
			i++
			lim.Time.MovesToGo = atoiSafe(args, i)
		case "depth":
			i++
			lim.Time.Depth = atoiSafe(args, i)
		case "nodes":
			i++
			if i < len(args) {
				n, _ := strconv.ParseUint(args[i], 10, 64)
				lim.Time.Nodes = n
			}
		case "movetime":
			i++
			lim.Time.MoveTime = parseMillis(args, i)
		case "infinite":
			lim.Time.Infinite = true
		case "mate":
			i++ // mate-search request, not differentiated here: infinite window covers it.
			lim.Time.Infinite = true
		}
	}
	return lim
}

func parseMillis(args []string, i int) time.Duration {
	if i >= len(args) {
		return 0
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}

func atoiSafe(args []string, i int) int {
	if i >= len(args) {
		return 0
	}
	n, _ := strconv.Atoi(args[i])
	return n
}
