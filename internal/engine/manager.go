package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/whitecore/internal/board"
	"github.com/hailam/whitecore/internal/eval"
)

const (
	MinThreads = 1
	MaxThreads = 256
)

var ErrInvalidThreads = errors.New("invalid thread count")

// SharedMemory is the state all threads of one search see: the
// transposition table, the stop flag, node counters and the published
// result.
type SharedMemory struct {
	tt        *TranspositionTable
	tm        TimeManager
	searching atomic.Bool
	nodes     []nodeCounter
	bestMove  atomic.Uint32
	eval      atomic.Int32
	elapsed   time.Duration // set by thread 0 when it finishes
	onInfo    func(Info)
	log       zerolog.Logger
	net       *eval.Network
}

func (sh *SharedMemory) totalNodes() uint64 {
	var n uint64
	for i := range sh.nodes {
		n += sh.nodes[i].Load()
	}
	return n
}

// publish records the result of a finished iteration of thread 0.
func (sh *SharedMemory) publish(m board.Move, score int) {
	sh.bestMove.Store(uint32(m))
	sh.eval.Store(int32(score))
}

func (sh *SharedMemory) report(t *Thread, depth int) {
	info := Info{
		Depth:    depth,
		SelDepth: t.selDepth,
		Score:    t.score,
		Nodes:    sh.totalNodes(),
		Elapsed:  sh.tm.Elapsed(),
		HashFull: sh.tt.Hashfull(),
		PV:       t.bestPV,
	}
	sh.log.Debug().
		Int("depth", info.Depth).
		Int("seldepth", info.SelDepth).
		Int("score", info.Score).
		Uint64("nodes", info.Nodes).
		Dur("elapsed", info.Elapsed).
		Stringer("best", t.bestMove).
		Msg("iteration complete")
	if sh.onInfo != nil {
		sh.onInfo(info)
	}
}

// Result is the outcome of a search.
type Result struct {
	Move    board.Move
	Score   int
	Depth   int
	Nodes   uint64
	Elapsed time.Duration
	PV      []board.Move
}

// Manager owns the search threads and the shared memory between them.
type Manager struct {
	mu       sync.Mutex
	shared   *SharedMemory
	threads  []*Thread
	group    *errgroup.Group
	stopCtx  func() bool
	root     *board.Position
	overhead time.Duration
	log      zerolog.Logger

	// OnInfo, if set, is called from the main search thread after every
	// completed iteration.
	OnInfo func(Info)
}

// NewManager creates a manager with a hashMB transposition table and the
// given number of threads.
func NewManager(hashMB, threads int) (*Manager, error) {
	tt, err := NewTranspositionTable(hashMB)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		shared: &SharedMemory{tt: tt, log: zerolog.Nop()},
		log:    zerolog.Nop(),
	}
	if err := m.SetThreads(threads); err != nil {
		return nil, err
	}
	return m, nil
}

// SetLogger sets the logger used for search diagnostics, stopping any
// running search first.
func (m *Manager) SetLogger(log zerolog.Logger) {
	m.Stop()
	m.Join()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = log
	m.shared.log = log
}

// SetHashSize resizes the transposition table, stopping any running search
// first.
func (m *Manager) SetHashSize(mb int) error {
	m.Stop()
	m.Join()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.shared.tt.Resize(mb); err != nil {
		return err
	}
	m.log.Debug().Int("mb", mb).Int("slots", m.shared.tt.Len()).Msg("hash resized")
	return nil
}

// SetThreads changes the number of search threads, stopping any running
// search first.
func (m *Manager) SetThreads(n int) error {
	if n < MinThreads || n > MaxThreads {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidThreads, n, MinThreads, MaxThreads)
	}
	m.Stop()
	m.Join()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shared.nodes = make([]nodeCounter, n)
	m.threads = make([]*Thread, n)
	for i := range m.threads {
		m.threads[i] = newThread(i, m.shared)
	}
	return nil
}

// SetEvalNetwork switches every thread to the NNUE network net, or back to
// classical evaluation when net is nil. A running search is stopped first.
func (m *Manager) SetEvalNetwork(net *eval.Network) {
	m.Stop()
	m.Join()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shared.net = net
	if net == nil {
		m.log.Debug().Msg("classical evaluation")
		return
	}
	m.log.Debug().Str("big", net.BigFile).Str("small", net.SmallFile).Msg("nnue loaded")
}

// EvalNetwork returns the network in use, nil for classical evaluation.
func (m *Manager) EvalNetwork() *eval.Network {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shared.net
}

// SetMoveOverhead sets the time reserved per move for communication lag.
func (m *Manager) SetMoveOverhead(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overhead = max(d, 0)
}

// Threads returns the number of search threads.
func (m *Manager) Threads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threads)
}

// Clear forgets everything learned in previous searches.
func (m *Manager) Clear() {
	m.Stop()
	m.Join()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shared.tt.Clear()
	for _, t := range m.threads {
		t.history.Clear()
		t.corr.Clear()
	}
}

// Start launches a search of pos and returns immediately. The search ends
// when a limit is hit, Stop is called or ctx is cancelled; Join waits for
// it. A search already running is stopped first.
func (m *Manager) Start(ctx context.Context, pos *board.Position, limits Limits) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	m.Stop()
	m.Join()

	m.mu.Lock()
	defer m.mu.Unlock()

	sh := m.shared
	sh.tm.Init(limits, m.overhead)
	for i := range sh.nodes {
		sh.nodes[i].Store(0)
	}
	sh.bestMove.Store(uint32(board.NoMove))
	sh.eval.Store(Unknown)
	sh.onInfo = m.OnInfo
	m.root = pos.Clone()
	for _, t := range m.threads {
		t.reset(pos)
	}

	m.log.Debug().
		Str("fen", pos.FEN()).
		Int("threads", len(m.threads)).
		Int("max_depth", sh.tm.MaxDepth()).
		Msg("search started")

	sh.searching.Store(true)
	g := &errgroup.Group{}
	for _, t := range m.threads {
		g.Go(func() error {
			t.iterate()
			return nil
		})
	}
	m.group = g
	m.stopCtx = context.AfterFunc(ctx, m.Stop)
	return nil
}

// Search runs a search to completion and returns its result.
func (m *Manager) Search(ctx context.Context, pos *board.Position, limits Limits) (Result, error) {
	if err := m.Start(ctx, pos, limits); err != nil {
		return Result{}, err
	}
	return m.Join(), nil
}

// Stop asks a running search to finish. It does not wait.
func (m *Manager) Stop() {
	m.shared.searching.Store(false)
}

// Searching reports whether a search is in progress.
func (m *Manager) Searching() bool {
	return m.shared.searching.Load()
}

// Join waits for the current search and returns its result. Without a
// search it returns the result of the previous one.
func (m *Manager) Join() Result {
	m.mu.Lock()
	g := m.group
	m.mu.Unlock()
	if g != nil {
		_ = g.Wait()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	finished := g != nil && m.group == g
	if finished {
		m.group = nil
		if m.stopCtx != nil {
			m.stopCtx()
			m.stopCtx = nil
		}
	}
	r := m.result()
	if finished {
		m.log.Debug().
			Stringer("move", r.Move).
			Int("score", r.Score).
			Int("depth", r.Depth).
			Uint64("nodes", r.Nodes).
			Dur("elapsed", r.Elapsed).
			Msg("search finished")
	}
	return r
}

func (m *Manager) result() Result {
	sh := m.shared
	if m.root == nil {
		return Result{}
	}
	lead := m.threads[0]
	r := Result{
		Move:    board.Move(sh.bestMove.Load()),
		Score:   int(sh.eval.Load()),
		Depth:   lead.completedDepth,
		Nodes:   sh.totalNodes(),
		Elapsed: sh.elapsed,
		PV:      lead.bestPV,
	}
	if r.Move == board.NoMove {
		var buf [board.MaxMoves]board.Move
		if moves := m.root.GenerateMoves(buf[:0]); len(moves) > 0 {
			r.Move = moves[0]
		}
	}
	if r.Score == Unknown {
		r.Score = DrawScore
		if r.Move == board.NoMove && m.root.InCheck() {
			r.Score = MatedIn(0)
		}
	}
	return r
}
