// Package uci implements the Universal Chess Interface protocol on top of
// the search manager.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/whitecore/internal/board"
	"github.com/hailam/whitecore/internal/engine"
	"github.com/hailam/whitecore/internal/eval"
	"github.com/hailam/whitecore/internal/storage"
)

const (
	engineName   = "Whitecore"
	engineAuthor = "the Whitecore developers"
)

// OptionStore persists options set through setoption.
type OptionStore interface {
	SaveOptions(storage.Options) error
}

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	manager  *engine.Manager
	position *board.Position
	options  storage.Options
	store    OptionStore
	log      zerolog.Logger

	out   io.Writer
	outMu sync.Mutex

	// Search state, owned by the command loop.
	searching  bool
	searchDone chan struct{}
	release    chan struct{} // closed to let an infinite search report
}

// New creates a UCI handler driving m. opts are the options m was
// configured with; store may be nil.
func New(m *engine.Manager, opts storage.Options, store OptionStore, log zerolog.Logger) *UCI {
	u := &UCI{
		manager:  m,
		position: board.NewPosition(),
		options:  opts,
		store:    store,
		log:      log.With().Str("component", "uci").Logger(),
		out:      io.Discard,
	}
	m.OnInfo = u.sendInfo
	return u
}

// Run reads commands from in until quit or end of input, writing
// responses to out. At end of input a running search is allowed to finish
// unless it is infinite.
func (u *UCI) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	u.out = out
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]
		u.log.Trace().Str("cmd", line).Msg("received")

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handleStop()
			if err := u.handlePosition(args); err != nil {
				u.reportError(err)
			}
		case "go":
			if err := u.handleGo(ctx, args); err != nil {
				u.reportError(err)
			}
		case "stop":
			u.handleStop()
		case "setoption":
			if err := u.handleSetOption(args); err != nil {
				u.reportError(err)
			}
		case "quit":
			u.handleStop()
			return nil
		// Debug commands
		case "d":
			u.send("%s", u.position.String())
		case "perft":
			if err := u.handlePerft(args); err != nil {
				u.reportError(err)
			}
		case "bench":
			if err := u.handleBench(ctx, args); err != nil {
				u.reportError(err)
			}
		default:
			u.reportError(fmt.Errorf("unknown command %q", cmd))
		}
	}

	if u.searching && u.release != nil {
		u.handleStop()
	}
	u.wait()
	return scanner.Err()
}

func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// reportError tells the GUI about bad input. Such errors are never fatal.
func (u *UCI) reportError(err error) {
	u.log.Warn().Err(err).Msg("command failed")
	u.send("info string %v", err)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name %s", engineName)
	u.send("id author %s", engineAuthor)
	u.send("")
	u.send("option name Hash type spin default %d min %d max %d", storage.DefaultHash, engine.MinHashMB, engine.MaxHashMB)
	u.send("option name Threads type spin default %d min %d max %d", storage.DefaultThreads, engine.MinThreads, engine.MaxThreads)
	u.send("option name Move Overhead type spin default %d min 0 max %d", storage.DefaultMoveOverhead, storage.MaxMoveOverhead)
	u.send("option name Clear Hash type button")
	u.send("option name EvalFile type string default <empty>")
	u.send("option name EvalFileSmall type string default <empty>")
	u.send("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.manager.Clear()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position. The current position is
// kept if anything fails to parse.
// Formats:
//   - position startpos [moves e2e4 e7e5 ...]
//   - position fen <fen> [moves ...]
func (u *UCI) handlePosition(args []string) error {
	if len(args) == 0 {
		return errors.New("position: missing startpos or fen")
	}

	movesAt := lo.IndexOf(args, "moves")
	fenArgs := args[1:]
	if movesAt >= 0 {
		fenArgs = args[1:movesAt]
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		if pos, err = board.ParseFEN(strings.Join(fenArgs, " ")); err != nil {
			return err
		}
	default:
		return fmt.Errorf("position: unknown kind %q", args[0])
	}

	if movesAt >= 0 {
		for _, s := range args[movesAt+1:] {
			m, err := pos.ParseMove(s)
			if err != nil {
				return err
			}
			pos.MakeMove(m, nil)
		}
	}
	u.position = pos
	return nil
}

// parseGoOptions converts "go" arguments into search limits for the side
// to move.
func parseGoOptions(args []string, us board.Color) (engine.Limits, error) {
	var limits engine.Limits

	for i := 0; i < len(args); i++ {
		key := args[i]
		if key == "infinite" {
			limits.Infinite = true
			continue
		}
		if key == "ponder" {
			continue
		}
		if i+1 >= len(args) {
			return limits, fmt.Errorf("go: %s needs a value", key)
		}
		n, err := strconv.ParseInt(args[i+1], 10, 64)
		if err != nil {
			return limits, fmt.Errorf("go: bad %s value %q", key, args[i+1])
		}
		i++

		ms := time.Duration(n) * time.Millisecond
		switch key {
		case "wtime":
			if us == board.White {
				limits.TimeLeft = ms
			}
		case "btime":
			if us == board.Black {
				limits.TimeLeft = ms
			}
		case "winc":
			if us == board.White {
				limits.Increment = ms
			}
		case "binc":
			if us == board.Black {
				limits.Increment = ms
			}
		case "movestogo":
			limits.MovesToGo = int(n)
		case "depth":
			limits.Depth = int(n)
		case "nodes":
			if n < 0 {
				return limits, fmt.Errorf("go: negative node count %d", n)
			}
			limits.Nodes = uint64(n)
		case "movetime":
			limits.MoveTime = ms
		default:
			return limits, fmt.Errorf("go: unknown parameter %q", key)
		}
	}
	return limits, nil
}

// handleGo starts a search; bestmove is sent from a separate goroutine
// once it finishes.
func (u *UCI) handleGo(ctx context.Context, args []string) error {
	u.handleStop()

	limits, err := parseGoOptions(args, u.position.SideToMove())
	if err != nil {
		return err
	}
	if err := u.manager.Start(ctx, u.position, limits); err != nil {
		return err
	}

	done := make(chan struct{})
	var release chan struct{}
	if limits.Infinite {
		release = make(chan struct{})
	}
	u.searching, u.searchDone, u.release = true, done, release

	go func() {
		defer close(done)
		r := u.manager.Join()
		if release != nil {
			<-release
		}
		u.send("bestmove %s", r.Move)
	}()
	return nil
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if !u.searching {
		return
	}
	u.manager.Stop()
	if u.release != nil {
		close(u.release)
		u.release = nil
	}
	u.wait()
}

// wait blocks until the running search has reported.
func (u *UCI) wait() {
	if !u.searching {
		return
	}
	<-u.searchDone
	u.searching = false
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.Info) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		fmt.Sprintf("seldepth %d", info.SelDepth),
		"score " + formatScore(info.Score),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("nps %d", info.NPS()),
		fmt.Sprintf("hashfull %d", info.HashFull),
		fmt.Sprintf("time %d", info.Elapsed.Milliseconds()),
	}
	if len(info.PV) > 0 {
		pv := lo.Map(info.PV, func(m board.Move, _ int) string { return m.String() })
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}
	u.send("info %s", strings.Join(parts, " "))
}

// formatScore renders a score as "cp X" or "mate N", N counted in moves.
func formatScore(score int) string {
	switch {
	case score >= engine.WorstMate:
		return fmt.Sprintf("mate %d", (engine.MateValue-score+1)/2)
	case score <= -engine.WorstMate:
		return fmt.Sprintf("mate %d", -(engine.MateValue+score)/2)
	}
	return fmt.Sprintf("cp %d", score)
}

// handleSetOption processes "setoption name <name> [value <value>]".
func (u *UCI) handleSetOption(args []string) error {
	var name, value []string
	target := &name
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, arg)
		}
	}
	key := strings.ToLower(strings.Join(name, " "))
	val := strings.Join(value, " ")

	switch key {
	case "clear hash":
		u.handleStop()
		u.manager.Clear()
		return nil
	case "evalfile", "evalfilesmall":
		return u.setEvalFile(key, val)
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("setoption %s: bad value %q", key, val)
	}
	opts := u.options
	switch key {
	case "hash":
		opts.Hash = n
	case "threads":
		opts.Threads = n
	case "move overhead":
		opts.MoveOverhead = n
	default:
		return fmt.Errorf("setoption: unknown option %q", strings.Join(name, " "))
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	u.handleStop()
	switch key {
	case "hash":
		err = u.manager.SetHashSize(n)
	case "threads":
		err = u.manager.SetThreads(n)
	case "move overhead":
		u.manager.SetMoveOverhead(time.Duration(n) * time.Millisecond)
	}
	if err != nil {
		return err
	}
	u.options = opts
	u.log.Debug().Str("option", key).Int("value", n).Msg("option set")
	u.persist()
	return nil
}

// setEvalFile records one of the two network paths. Once both are set the
// pair is loaded and replaces the current evaluation; clearing either path
// returns to classical evaluation. A pair that fails to load leaves
// everything unchanged.
func (u *UCI) setEvalFile(key, path string) error {
	if path == "<empty>" {
		path = ""
	}
	opts := u.options
	if key == "evalfile" {
		opts.EvalFile = path
	} else {
		opts.EvalFileSmall = path
	}

	u.handleStop()
	if opts.UseNNUE() {
		net, err := eval.LoadNetwork(opts.EvalFile, opts.EvalFileSmall)
		if err != nil {
			return err
		}
		u.manager.SetEvalNetwork(net)
		u.send("info string nnue loaded from %s and %s", opts.EvalFile, opts.EvalFileSmall)
	} else {
		u.manager.SetEvalNetwork(nil)
	}
	u.options = opts
	u.log.Debug().Str("option", key).Str("value", path).Msg("option set")
	u.persist()
	return nil
}

func (u *UCI) persist() {
	if u.store == nil {
		return
	}
	if err := u.store.SaveOptions(u.options); err != nil {
		u.log.Warn().Err(err).Msg("could not persist options")
	}
}

// handlePerft prints the move breakdown of a perft run.
func (u *UCI) handlePerft(args []string) error {
	depth := 5
	if len(args) > 0 {
		var err error
		if depth, err = strconv.Atoi(args[0]); err != nil || depth < 1 {
			return fmt.Errorf("perft: bad depth %q", args[0])
		}
	}

	start := time.Now()
	var total uint64
	for _, e := range u.position.Divide(depth) {
		u.send("%s: %d", e.Move, e.Nodes)
		total += e.Nodes
	}
	elapsed := time.Since(start)
	u.send("")
	u.send("Nodes searched: %d", total)
	u.send("Time: %v", elapsed)
	return nil
}

// handleBench runs the fixed benchmark and prints its totals.
func (u *UCI) handleBench(ctx context.Context, args []string) error {
	depth := engine.BenchDepth
	if len(args) > 0 {
		var err error
		if depth, err = strconv.Atoi(args[0]); err != nil || depth < 1 || depth > engine.MaxPly {
			return fmt.Errorf("bench: bad depth %q", args[0])
		}
	}
	u.handleStop()

	onInfo := u.manager.OnInfo
	u.manager.OnInfo = nil
	defer func() { u.manager.OnInfo = onInfo }()

	r, err := engine.Bench(ctx, u.manager, depth)
	if err != nil {
		return err
	}
	u.send("Nodes searched: %d", r.Nodes)
	u.send("Time: %d ms", r.Elapsed.Milliseconds())
	u.send("Nodes/second: %d", r.NPS())
	return nil
}
