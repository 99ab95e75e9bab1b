package engine

import (
	"time"

	"github.com/hailam/whitecore/internal/board"
)

// Info is the progress report emitted after every completed iteration.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Elapsed  time.Duration
	HashFull int // permille
	PV       []board.Move
}

// NPS returns the search speed in nodes per second.
func (i Info) NPS() uint64 {
	return nps(i.Nodes, i.Elapsed)
}

func nps(nodes uint64, elapsed time.Duration) uint64 {
	ms := uint64(elapsed.Milliseconds())
	if ms == 0 {
		return nodes * 1000
	}
	return nodes * 1000 / ms
}
