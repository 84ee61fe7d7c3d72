// Package game implements the play loop and screen flow: hands spawning and
// lunging at the target, difficulty ramping with survival time, and the path
// from game over through name entry to the leaderboard.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/tomz197/handsoff/internal/input"
	"github.com/tomz197/handsoff/internal/leaderboard"
	"github.com/tomz197/handsoff/internal/names"
	"github.com/tomz197/handsoff/internal/object"
)

// ErrInitialization marks faults during startup. A game that hits one stays
// on the error screen.
var ErrInitialization = errors.New("initialization failed")

// Messages shown on the name entry screen.
const (
	msgSaving        = "Saving..."
	msgLoginRequired = "You must be logged in to save scores"
)

// Screen is the active phase of the game.
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenTitle
	ScreenInstructions
	ScreenPlaying
	ScreenGameOver
	ScreenNameInput
	ScreenLeaderboard
	ScreenError
)

var screenNames = [...]string{
	ScreenLoading:      "loading",
	ScreenTitle:        "title",
	ScreenInstructions: "instructions",
	ScreenPlaying:      "playing",
	ScreenGameOver:     "gameover",
	ScreenNameInput:    "nameinput",
	ScreenLeaderboard:  "leaderboard",
	ScreenError:        "error",
}

func (s Screen) String() string {
	if s < 0 || int(s) >= len(screenNames) {
		return fmt.Sprintf("Screen(%d)", int(s))
	}
	return screenNames[s]
}

// NameValidator checks a player name before it is submitted. MaxLen also caps
// how many characters the name entry screen accepts.
type NameValidator interface {
	Validate(name string) names.Result
	MaxLen() int
}

// Options wires a Game to its collaborators. Service, Auth and Validator are
// required; the rest have defaults.
type Options struct {
	Tuning    Tuning
	Service   leaderboard.Service
	Auth      leaderboard.Auth
	Validator NameValidator
	Logger    *log.Logger
	Rand      *rand.Rand
}

type resultKind int

const (
	resultLoad resultKind = iota
	resultFetch
	resultSubmit
)

// result is the outcome of a collaborator call, tagged with the generation it
// was issued under.
type result struct {
	kind    resultKind
	gen     uint64
	entries []leaderboard.Entry
	session *leaderboard.Session
	err     error
}

// Game is the state machine. All methods must be called from one goroutine;
// collaborator calls run in the background and are applied by Update.
type Game struct {
	tuning     Tuning
	scheduler  *Scheduler
	difficulty *Difficulty
	gate       leaderboard.Gate
	service    leaderboard.Service
	auth       leaderboard.Auth
	validator  NameValidator
	logger     *log.Logger
	rng        *rand.Rand

	screen      Screen
	bounds      object.Bounds
	run         Run
	clock       time.Duration // Total time passed to Update
	screenSince time.Duration // clock when the current screen was entered

	highScores []leaderboard.Entry
	session    *leaderboard.Session

	name         []rune
	message      string
	messageUntil time.Duration // Zero keeps the message until replaced
	submitting   bool

	err error

	results chan result
	pending sync.WaitGroup
}

// New creates a game on the loading screen. Call Load to start it.
func New(opts Options) *Game {
	t := opts.Tuning
	if t.WorldWidth == 0 {
		t = DefaultTuning()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	g := &Game{
		tuning:     t,
		scheduler:  NewScheduler(t),
		difficulty: NewDifficulty(t),
		gate:       leaderboard.NewGate(t.BoardSize),
		service:    opts.Service,
		auth:       opts.Auth,
		validator:  opts.Validator,
		logger:     logger,
		rng:        rng,
		screen:     ScreenLoading,
		bounds:     object.Bounds{Width: t.WorldWidth, Height: t.WorldHeight},
		results:    make(chan result, 16),
	}
	cx, cy := g.bounds.Center()
	g.run.Target = object.NewTarget(cx, cy, t.TargetSize)
	g.run.Level = 1
	return g
}

// Screen returns the active screen.
func (g *Game) Screen() Screen {
	return g.screen
}

// Err returns the fault that put the game on the error screen.
func (g *Game) Err() error {
	return g.err
}

// Load fetches the leaderboard and the player session in the background.
// The game moves to the title screen once both succeed.
func (g *Game) Load() {
	if g.screen != ScreenLoading {
		return
	}
	g.dispatch(func(ctx context.Context) result {
		return g.load(ctx)
	})
}

// Fail moves the game to the error screen. There is no way back.
func (g *Game) Fail(err error) {
	if err == nil {
		err = ErrInitialization
	}
	g.err = err
	g.logger.Error("game failed", "err", err)
	g.setScreen(ScreenError)
}

// dispatch runs fn in the background with a timeout and queues its result
// under the current generation.
func (g *Game) dispatch(fn func(ctx context.Context) result) {
	gen := g.run.ID
	timeout := g.tuning.RequestTimeout
	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		r := fn(ctx)
		r.gen = gen
		g.results <- r
	}()
}

// refreshScores re-reads the leaderboard. Failures keep the cached list.
func (g *Game) refreshScores() {
	gameID, limit := g.tuning.GameID, g.tuning.BoardSize
	g.dispatch(func(ctx context.Context) result {
		entries, err := g.service.FetchTopScores(ctx, gameID, limit)
		return result{kind: resultFetch, entries: entries, err: err}
	})
}

// applyResults handles every collaborator result that has arrived.
func (g *Game) applyResults() {
	for {
		select {
		case r := <-g.results:
			g.apply(r)
		default:
			return
		}
	}
}

func (g *Game) apply(r result) {
	if r.gen != g.run.ID {
		g.logger.Debug("discarding stale result", "kind", r.kind, "gen", r.gen, "current", g.run.ID)
		return
	}
	switch r.kind {
	case resultLoad:
		if g.screen != ScreenLoading {
			return
		}
		if r.err != nil {
			g.Fail(fmt.Errorf("%w: %w", ErrInitialization, r.err))
			return
		}
		g.highScores = r.entries
		g.session = r.session
		g.logger.Info("loaded", "scores", len(r.entries), "signed_in", r.session != nil)
		g.setScreen(ScreenTitle)

	case resultFetch:
		if r.err != nil {
			g.logger.Warn("fetch scores", "err", r.err)
			return
		}
		g.highScores = r.entries

	case resultSubmit:
		g.submitting = false
		if r.err != nil {
			g.logger.Warn("submit score", "err", r.err)
			if g.screen == ScreenNameInput {
				g.setMessage(leaderboard.Reason(r.err), 0)
			}
			return
		}
		g.logger.Info("score saved", "name", string(g.name), "score", g.run.Score())
		if g.screen == ScreenNameInput {
			g.setMessage("", 0)
			g.setScreen(ScreenLeaderboard)
		}
		g.refreshScores()
	}
}

// Update advances the game by dt. Collaborator results are applied first.
func (g *Game) Update(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	g.clock += dt
	g.applyResults()

	if g.messageUntil > 0 && g.clock >= g.messageUntil {
		g.message = ""
		g.messageUntil = 0
	}

	switch g.screen {
	case ScreenPlaying:
		g.updatePlaying(dt)
	case ScreenGameOver:
		if g.clock-g.screenSince >= g.tuning.GameOverDelay {
			g.finishGameOver()
		}
	}
}

func (g *Game) updatePlaying(dt time.Duration) {
	r := &g.run
	if !r.Running {
		return
	}
	r.Elapsed += dt

	level, changed := g.difficulty.Observe(r.Elapsed)
	r.Level = level
	if changed {
		g.logger.Info("difficulty increased",
			"level", level,
			"hands", len(r.Hands),
			"cap", g.scheduler.Cap(r.Elapsed),
			"interval", g.scheduler.Interval,
		)
	}
	rate := g.difficulty.RedirectRate(level)

	ctx := object.UpdateContext{
		Delta:  dt,
		Now:    r.Elapsed,
		Bounds: g.bounds,
	}
	kept := r.Hands[:0]
	for _, h := range r.Hands {
		h.MaybeBeginRedirect(g.rng, r.Target, rate, dt, r.Elapsed)
		remove, err := h.Update(ctx)
		if err != nil {
			g.logger.Error("hand update failed", "err", err)
			remove = true
		}
		if !remove {
			kept = append(kept, h)
		}
	}
	clear(r.Hands[len(kept):])
	r.Hands = kept

	if g.scheduler.Tick(r.Elapsed, len(r.Hands)) {
		g.spawnHand()
	}

	if g.collided() {
		g.endRun()
	}
}

func (g *Game) collided() bool {
	for _, h := range g.run.Hands {
		if h.CollidesWith(g.run.Target, g.tuning.CollisionLeniency) {
			return true
		}
	}
	return false
}

func (g *Game) spawnHand() {
	h, attempts := object.SpawnHand(g.rng, g.bounds, g.run.Target, g.tuning.spawnOptions())
	if attempts >= g.tuning.AttemptLimit {
		g.logger.Debug("spawn fell back to an unsafe position", "attempts", attempts)
	}
	g.run.Hands = append(g.run.Hands, h)
}

// StartGame begins a new run. Results of requests issued before this call are
// ignored from now on.
func (g *Game) StartGame() {
	if g.screen == ScreenLoading || g.screen == ScreenError {
		return
	}
	g.run.ID++
	g.run.Elapsed = 0
	g.run.Level = 1
	g.run.Hands = g.run.Hands[:0]
	g.run.Running = true
	cx, cy := g.bounds.Center()
	g.run.Target.MoveTo(cx, cy, g.bounds)

	g.scheduler.Reset()
	g.difficulty.Reset()
	for i := 0; i < g.tuning.InitialHands; i++ {
		g.spawnHand()
	}

	g.name = g.name[:0]
	g.submitting = false
	g.setMessage("", 0)
	g.setScreen(ScreenPlaying)
	g.logger.Info("run started", "run", g.run.ID, "hands", len(g.run.Hands))
}

func (g *Game) endRun() {
	g.run.Running = false
	g.logger.Info("game over", "run", g.run.ID, "score", g.run.Score(), "level", g.run.Level)
	g.setScreen(ScreenGameOver)
	g.refreshScores()
}

// finishGameOver leaves the game over screen for name entry or the leaderboard.
func (g *Game) finishGameOver() {
	if g.gate.IsEligible(g.run.Score(), leaderboard.Scores(g.highScores)) {
		g.name = g.name[:0]
		if g.session != nil {
			g.name = append(g.name, sanitizeName(g.session.Name, g.validator.MaxLen())...)
		}
		g.setMessage("", 0)
		g.setScreen(ScreenNameInput)
		return
	}
	g.setScreen(ScreenLeaderboard)
}

func (g *Game) setScreen(s Screen) {
	if g.screen != s {
		g.logger.Debug("screen", "from", g.screen, "to", s)
	}
	g.screen = s
	g.screenSince = g.clock
}

func (g *Game) setMessage(msg string, ttl time.Duration) {
	g.message = msg
	g.messageUntil = 0
	if ttl > 0 && msg != "" {
		g.messageUntil = g.clock + ttl
	}
}

// OnPointerDown handles a click at logical coordinates (x, y).
func (g *Game) OnPointerDown(x, y float64) {
	switch g.screen {
	case ScreenTitle, ScreenInstructions, ScreenLeaderboard:
		g.StartGame()
	case ScreenGameOver:
		g.finishGameOver()
	case ScreenPlaying:
		g.run.Target.MoveTo(x, y, g.bounds)
	}
}

// OnPointerMove handles pointer motion. The target follows it only in follow mode.
func (g *Game) OnPointerMove(x, y float64) {
	if g.screen == ScreenPlaying && g.tuning.Control == ControlFollow {
		g.run.Target.MoveTo(x, y, g.bounds)
	}
}

// OnResize changes the size of the play field. Everything on it is kept inside.
func (g *Game) OnResize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	g.bounds = object.Bounds{Width: w, Height: h}
	g.run.Target.MoveTo(g.run.Target.X, g.run.Target.Y, g.bounds)
	for _, hand := range g.run.Hands {
		hand.X, hand.Y = g.bounds.Clamp(hand.X, hand.Y)
	}
}

// OnKey handles a key press. r is the character for input.KeyRune.
func (g *Game) OnKey(k input.Key, r rune) {
	start := k == input.KeyEnter || (k == input.KeyRune && r == ' ')

	switch g.screen {
	case ScreenTitle:
		switch {
		case start:
			g.StartGame()
		case k == input.KeyRune && (r == 'i' || r == 'I' || r == '?'):
			g.setScreen(ScreenInstructions)
		case k == input.KeyRune && (r == 'l' || r == 'L'):
			g.setScreen(ScreenLeaderboard)
			g.refreshScores()
		}
	case ScreenInstructions:
		switch {
		case start:
			g.StartGame()
		case k == input.KeyEscape:
			g.setScreen(ScreenTitle)
		}
	case ScreenPlaying:
		g.nudge(k)
	case ScreenGameOver:
		if start {
			g.finishGameOver()
		}
	case ScreenNameInput:
		g.editName(k, r)
	case ScreenLeaderboard:
		switch {
		case start:
			g.StartGame()
		case k == input.KeyEscape:
			g.setScreen(ScreenTitle)
		}
	}
}

func (g *Game) nudge(k input.Key) {
	t := g.run.Target
	step := g.tuning.NudgeStep
	switch k {
	case input.KeyUp:
		t.MoveTo(t.X, t.Y-step, g.bounds)
	case input.KeyDown:
		t.MoveTo(t.X, t.Y+step, g.bounds)
	case input.KeyLeft:
		t.MoveTo(t.X-step, t.Y, g.bounds)
	case input.KeyRight:
		t.MoveTo(t.X+step, t.Y, g.bounds)
	}
}

func (g *Game) editName(k input.Key, r rune) {
	switch k {
	case input.KeyEscape:
		g.submitting = false
		g.setMessage("", 0)
		g.setScreen(ScreenLeaderboard)
		return
	case input.KeyEnter:
		g.submitName()
		return
	}
	if g.submitting {
		return
	}

	switch {
	case k == input.KeyBackspace:
		if len(g.name) == 0 {
			return
		}
		g.name = g.name[:len(g.name)-1]
	case k == input.KeyRune && names.IsNameRune(r):
		if len(g.name) >= g.validator.MaxLen() {
			return
		}
		g.name = append(g.name, unicode.ToUpper(r))
	default:
		return
	}
	g.previewName()
}

// previewName shows the validator's verdict on the name being typed for a moment.
func (g *Game) previewName() {
	res := g.validator.Validate(string(g.name))
	if res.Valid {
		g.setMessage("", 0)
		return
	}
	g.setMessage(res.Reason, g.tuning.MessageDuration)
}

func (g *Game) submitName() {
	if g.submitting {
		return
	}
	name := strings.TrimSpace(string(g.name))
	if res := g.validator.Validate(name); !res.Valid {
		g.setMessage(res.Reason, 0)
		return
	}
	if g.session == nil {
		g.setMessage(msgLoginRequired, 0)
		return
	}

	entry := leaderboard.Entry{
		PlayerName: name,
		Score:      g.run.Score(),
		UserID:     g.session.UserID,
	}
	gameID := g.tuning.GameID
	g.submitting = true
	g.setMessage(msgSaving, 0)
	g.dispatch(func(ctx context.Context) result {
		return result{kind: resultSubmit, err: g.service.SubmitScore(ctx, gameID, entry)}
	})
}

func sanitizeName(s string, limit int) []rune {
	var out []rune
	for _, r := range s {
		if len(out) >= limit {
			break
		}
		if names.IsNameRune(r) {
			out = append(out, unicode.ToUpper(r))
		}
	}
	return out
}
