package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hailam/whitecore/internal/board"
)

// Bound is the kind of score stored in a TT entry.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundAlpha       // upper bound, no move beat alpha
	BoundBeta        // lower bound, a move failed high
	BoundExact
)

const (
	MinHashMB   = 1
	MaxHashMB   = 65536
	ttEntrySize = 8
)

var ErrInvalidHashSize = errors.New("invalid hash size")

// TTEntry is the unpacked view of one table slot.
type TTEntry struct {
	Move      board.Move
	Score     int
	Depth     int
	Bound     Bound
	signature uint16
}

// Slot layout: signature(16) | move(16) | score(16) | depth(8) | bound(8).
func (e TTEntry) pack() uint64 {
	return uint64(e.signature) |
		uint64(e.Move)<<16 |
		uint64(uint16(int16(e.Score)))<<32 |
		uint64(uint8(e.Depth))<<48 |
		uint64(e.Bound)<<56
}

func unpack(v uint64) TTEntry {
	return TTEntry{
		signature: uint16(v),
		Move:      board.Move(v >> 16),
		Score:     int(int16(v >> 32)),
		Depth:     int(uint8(v >> 48)),
		Bound:     Bound(v >> 56 & 3),
	}
}

func signature(hash uint64) uint16 {
	return uint16(hash >> 48)
}

// TranspositionTable caches search results by position key. Every slot is a
// single atomic word: threads race on it without locks, but a reader never
// observes half of one write and half of another.
type TranspositionTable struct {
	entries []atomic.Uint64
	mask    uint64
}

// NewTranspositionTable allocates a table of sizeMB megabytes.
func NewTranspositionTable(sizeMB int) (*TranspositionTable, error) {
	tt := &TranspositionTable{}
	if err := tt.Resize(sizeMB); err != nil {
		return nil, err
	}
	return tt, nil
}

// Resize reallocates the table, dropping its contents. It must not be
// called while a search is running.
func (tt *TranspositionTable) Resize(sizeMB int) error {
	if sizeMB < MinHashMB || sizeMB > MaxHashMB {
		return fmt.Errorf("%w: %d MB (want %d..%d)", ErrInvalidHashSize, sizeMB, MinHashMB, MaxHashMB)
	}
	n := roundDownToPowerOf2(uint64(sizeMB) << 20 / ttEntrySize)
	tt.entries = make([]atomic.Uint64, n)
	tt.mask = n - 1
	return nil
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Len returns the number of slots.
func (tt *TranspositionTable) Len() int {
	return len(tt.entries)
}

// Probe returns the entry stored for hash, if its signature matches.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	e := unpack(tt.entries[hash&tt.mask].Load())
	if e.Bound == BoundNone || e.signature != signature(hash) {
		return TTEntry{}, false
	}
	return e, true
}

// Save records a search result. The move is always refreshed, except that
// an alpha bound on a matching slot clears it. Depth, score and bound are
// only replaced for a different position, an exact bound, or when the
// stored depth is not far above the new one.
func (tt *TranspositionTable) Save(hash uint64, depth, score int, bound Bound, move board.Move) {
	slot := &tt.entries[hash&tt.mask]
	old := unpack(slot.Load())
	sig := signature(hash)
	matches := old.Bound != BoundNone && old.signature == sig

	e := old
	e.Move = move
	if bound == BoundAlpha && matches {
		e.Move = board.NoMove
	}
	if !matches || bound == BoundExact || old.Depth < depth+4 {
		e.signature = sig
		e.Depth = depth
		e.Score = score
		e.Bound = bound
	}
	slot.Store(e.pack())
}

// Prefetch touches the slot for hash ahead of the probe that follows a move.
func (tt *TranspositionTable) Prefetch(hash uint64) {
	_ = tt.entries[hash&tt.mask].Load()
}

// Hashfull returns the permille of used slots, sampled over the first 1000.
func (tt *TranspositionTable) Hashfull() int {
	sample := min(1000, len(tt.entries))
	used := 0
	for i := 0; i < sample; i++ {
		if Bound(tt.entries[i].Load()>>56&3) != BoundNone {
			used++
		}
	}
	return used * 1000 / sample
}

// Clear empties every slot.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i].Store(0)
	}
}
