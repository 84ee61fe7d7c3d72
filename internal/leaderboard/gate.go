package leaderboard

import "slices"

// DefaultBoardSize is how many rows the leaderboard shows and the gate ranks against.
const DefaultBoardSize = 10

// Gate decides whether a finished run earns a place on a top-N board.
type Gate struct {
	Size int
}

// NewGate returns a gate for a board of the given size.
func NewGate(size int) Gate {
	if size < 1 {
		size = DefaultBoardSize
	}
	return Gate{Size: size}
}

// IsEligible reports whether candidate makes the board. Any score qualifies
// while the board has free rows; otherwise the candidate must be strictly
// greater than the lowest score among the top Size. Ties do not displace.
func (g Gate) IsEligible(candidate Score, existing []Score) bool {
	if len(existing) < g.Size {
		return true
	}
	top := topN(existing, g.Size)
	return candidate > top[len(top)-1]
}

// topN returns the n best scores, best first, without assuming existing is sorted.
func topN(existing []Score, n int) []Score {
	sorted := slices.Clone(existing)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	return sorted[:n]
}
