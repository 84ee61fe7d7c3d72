package game

import (
	"math"
	"time"
)

// Scheduler decides when a new hand enters the field. The interval between
// spawns shrinks geometrically to a floor while the number of hands allowed at
// once steps up with survival time to a ceiling.
type Scheduler struct {
	initial time.Duration
	floor   time.Duration
	shrink  float64
	baseCap int
	maxCap  int
	capStep time.Duration

	Interval  time.Duration // Current gap required between spawns
	LastSpawn time.Duration // Run clock of the last spawn
	Spawns    int           // Spawns since the start of the run, not counting the initial batch
}

// NewScheduler builds a scheduler from the tuning.
func NewScheduler(t Tuning) *Scheduler {
	s := &Scheduler{
		initial: t.InitialInterval,
		floor:   t.MinInterval,
		shrink:  t.ShrinkFactor,
		baseCap: t.BaseCap,
		maxCap:  t.MaxCap,
		capStep: t.CapStep,
	}
	s.Reset()
	return s
}

// Reset restores the scheduler to the start of a run.
func (s *Scheduler) Reset() {
	s.Interval = s.initial
	s.LastSpawn = 0
	s.Spawns = 0
}

// Cap is the most hands allowed after the given survival time.
func (s *Scheduler) Cap(elapsed time.Duration) int {
	c := s.baseCap + int(elapsed/s.capStep)
	return min(c, s.maxCap)
}

// Tick reports whether one hand should spawn now. When it does, the spawn is
// recorded and the interval shrinks.
func (s *Scheduler) Tick(elapsed time.Duration, active int) bool {
	if elapsed-s.LastSpawn < s.Interval || active >= s.Cap(elapsed) {
		return false
	}
	s.LastSpawn = elapsed
	s.Spawns++
	next := time.Duration(math.Round(float64(s.Interval) * s.shrink))
	s.Interval = max(next, s.floor)
	return true
}
