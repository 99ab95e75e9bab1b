package engine

import (
	"golang.org/x/exp/constraints"
)

// Score bounds. Real search scores always lie strictly inside
// (-InfScore, InfScore); Unknown is outside that range and only marks a
// result slot that nothing has been written to yet.
const (
	MaxPly    = 100
	MateValue = 10000
	InfScore  = 20000
	Unknown   = 30000
	DrawScore = 0

	// WorstMate is the smallest score that still encodes a forced mate.
	WorstMate = MateValue - MaxPly
)

// MatedIn is the score of being mated at the given ply.
func MatedIn(ply int) int {
	return -MateValue + ply
}

// MateIn is the score of delivering mate at the given ply.
func MateIn(ply int) int {
	return MateValue - ply
}

// IsMate reports whether score encodes a forced mate for either side.
func IsMate(score int) bool {
	return abs(score) >= WorstMate
}

// scoreToTT converts a root-relative mate score into a node-relative one
// before storing it; scoreFromTT undoes it at probe time.
func scoreToTT(score, ply int) int {
	switch {
	case score >= WorstMate:
		return score + ply
	case score <= -WorstMate:
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	switch {
	case score >= WorstMate:
		return score - ply
	case score <= -WorstMate:
		return score + ply
	}
	return score
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

func clamp[T constraints.Ordered](x, lo, hi T) T {
	return max(lo, min(x, hi))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
