package engine

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidLimits = errors.New("invalid search limits")

// Limits describes when a search should stop. The zero value searches
// until stopped.
type Limits struct {
	TimeLeft  time.Duration // remaining clock time for the side to move
	Increment time.Duration // increment per move
	MovesToGo int           // moves until the next time control, 0 = sudden death
	Depth     int           // maximum iteration depth, 0 = unlimited
	MoveTime  time.Duration // exact time for this move
	Nodes     uint64        // node budget summed over all threads, 0 = unlimited
	Infinite  bool          // ignore every limit until stopped
}

// Validate rejects negative values and depths beyond MaxPly.
func (l Limits) Validate() error {
	switch {
	case l.TimeLeft < 0:
		return fmt.Errorf("%w: negative time left %v", ErrInvalidLimits, l.TimeLeft)
	case l.Increment < 0:
		return fmt.Errorf("%w: negative increment %v", ErrInvalidLimits, l.Increment)
	case l.MoveTime < 0:
		return fmt.Errorf("%w: negative move time %v", ErrInvalidLimits, l.MoveTime)
	case l.MovesToGo < 0:
		return fmt.Errorf("%w: negative moves to go %d", ErrInvalidLimits, l.MovesToGo)
	case l.Depth < 0 || l.Depth > MaxPly:
		return fmt.Errorf("%w: depth %d (want 0..%d)", ErrInvalidLimits, l.Depth, MaxPly)
	}
	return nil
}
