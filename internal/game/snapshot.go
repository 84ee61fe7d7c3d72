package game

import (
	"slices"
	"time"

	"github.com/tomz197/handsoff/internal/leaderboard"
	"github.com/tomz197/handsoff/internal/object"
)

// Snapshot is a copy of everything a renderer needs for one frame.
type Snapshot struct {
	Screen     Screen
	ScreenTime time.Duration // Time spent on the current screen
	Bounds     object.Bounds
	Target     object.Target
	Hands      []object.Hand

	Elapsed time.Duration
	Score   leaderboard.Score
	Level   int
	Control TargetControl

	HighScores []leaderboard.Entry
	PlayerName string // Session name, empty when anonymous
	SignedIn   bool

	Name       string // Name being typed
	NameMax    int
	Message    string
	Submitting bool
	Eligible   bool // The last run made the board

	Err error
}

// Snapshot copies the current state. The result shares nothing with the game.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Screen:     g.screen,
		ScreenTime: g.clock - g.screenSince,
		Bounds:     g.bounds,
		Target:     *g.run.Target,
		Hands:      make([]object.Hand, len(g.run.Hands)),
		Elapsed:    g.run.Elapsed,
		Score:      g.run.Score(),
		Level:      g.run.Level,
		Control:    g.tuning.Control,
		HighScores: slices.Clone(g.highScores),
		SignedIn:   g.session != nil,
		Name:       string(g.name),
		NameMax:    g.validator.MaxLen(),
		Message:    g.message,
		Submitting: g.submitting,
		Err:        g.err,
	}
	for i, h := range g.run.Hands {
		s.Hands[i] = *h
	}
	if g.session != nil {
		s.PlayerName = g.session.Name
	}
	if g.screen == ScreenGameOver || g.screen == ScreenNameInput {
		s.Eligible = g.gate.IsEligible(s.Score, leaderboard.Scores(g.highScores))
	}
	return s
}
