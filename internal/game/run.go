package game

import (
	"time"

	"github.com/tomz197/handsoff/internal/leaderboard"
	"github.com/tomz197/handsoff/internal/object"
)

// Run is the state of one play from start to collision.
type Run struct {
	ID      uint64        // Generation; bumped on every start
	Elapsed time.Duration // Survival time on the run clock
	Level   int
	Hands   []*object.Hand
	Target  *object.Target
	Running bool // False once the run has ended
}

// Score converts the survival time to leaderboard units.
func (r *Run) Score() leaderboard.Score {
	return leaderboard.ScoreFromDuration(r.Elapsed)
}
