package game

import (
	"math"
	"time"
)

// Level is the difficulty level after the given survival time, starting at 1.
func Level(elapsed, period time.Duration) int {
	return 1 + int(elapsed/period)
}

// Difficulty tracks the level of the current run and converts it into the
// per-second chance of a hand lunging at the target.
type Difficulty struct {
	period   time.Duration
	base     float64
	perLevel float64
	max      float64

	level int
}

// NewDifficulty builds a controller from the tuning.
func NewDifficulty(t Tuning) *Difficulty {
	return &Difficulty{
		period:   t.LevelPeriod,
		base:     t.RedirectBase,
		perLevel: t.RedirectPerLevel,
		max:      t.RedirectMax,
		level:    1,
	}
}

// Reset returns to level 1.
func (d *Difficulty) Reset() {
	d.level = 1
}

// Observe updates the level for the given survival time and reports whether
// it changed.
func (d *Difficulty) Observe(elapsed time.Duration) (int, bool) {
	l := Level(elapsed, d.period)
	if l == d.level {
		return l, false
	}
	d.level = l
	return l, true
}

// Current returns the last observed level.
func (d *Difficulty) Current() int {
	return d.level
}

// RedirectRate is the expected number of redirects per hand per second.
func (d *Difficulty) RedirectRate(level int) float64 {
	return math.Min(d.base+d.perLevel*float64(level-1), d.max)
}
