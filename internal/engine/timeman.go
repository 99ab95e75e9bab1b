package engine

import (
	"time"
)

const defaultMovesToGo = 20

// TimeManager decides when a search should stop. The soft limit (opt) is
// checked between iterations and adapts to how settled the search is; the
// hard limit (max) is checked while searching.
type TimeManager struct {
	start    time.Time
	optBase  time.Duration // soft limit before scaling
	opt      time.Duration // current soft limit
	max      time.Duration // hard limit
	timed    bool          // a deadline applies at all
	dynamic  bool          // soft limit follows stability and effort
	maxNodes uint64
	maxDepth int
}

// Init starts the clock for a new search. overhead is subtracted from every
// deadline to cover communication lag.
func (tm *TimeManager) Init(limits Limits, overhead time.Duration) {
	*tm = TimeManager{start: time.Now(), maxDepth: MaxPly}
	if limits.Infinite {
		return
	}
	if limits.Depth > 0 {
		tm.maxDepth = limits.Depth
	}
	tm.maxNodes = limits.Nodes

	switch {
	case limits.MoveTime > 0:
		d := max(limits.MoveTime-overhead, time.Millisecond)
		tm.optBase, tm.opt, tm.max = d, d, d
		tm.timed = true
	case limits.TimeLeft > 0:
		mtg := limits.MovesToGo
		if mtg <= 0 {
			mtg = defaultMovesToGo
		}
		base := limits.TimeLeft/time.Duration(mtg) + limits.Increment*3/4
		maxUsage := min(base*3, limits.TimeLeft*3/4)

		tm.max = max(maxUsage-overhead, time.Millisecond)
		tm.optBase = min(max(base-overhead, time.Millisecond), tm.max)
		tm.opt = tm.optBase
		tm.timed, tm.dynamic = true, true
	}
}

// Elapsed returns the time since Init.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.start)
}

// MaxDepth returns the deepest iteration allowed.
func (tm *TimeManager) MaxDepth() int {
	return tm.maxDepth
}

// HandleIteration rescales the soft limit after a finished iteration and
// reports whether it has passed. stability counts consecutive iterations
// with the same best move; effort is the share of nodes spent below it.
func (tm *TimeManager) HandleIteration(stability int, effort float64) bool {
	if !tm.timed {
		return false
	}
	if tm.dynamic {
		stabilityScale := 1.3 - 0.05*float64(min(stability, 10))
		effortScale := (1.5 - effort) * 1.35
		tm.opt = min(time.Duration(float64(tm.optBase)*stabilityScale*effortScale), tm.max)
	}
	return tm.Elapsed() >= tm.opt
}

// SoftExpired reports whether the soft limit has passed, without rescaling.
func (tm *TimeManager) SoftExpired() bool {
	return tm.timed && tm.Elapsed() >= tm.opt
}

// ShouldStop is the hard check made while searching.
func (tm *TimeManager) ShouldStop(nodes uint64) bool {
	if tm.maxNodes > 0 && nodes >= tm.maxNodes {
		return true
	}
	return tm.timed && tm.Elapsed() >= tm.max
}
