package game

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/tomz197/handsoff/internal/input"
	"github.com/tomz197/handsoff/internal/leaderboard"
	"github.com/tomz197/handsoff/internal/names"
)

const step = 100 * time.Millisecond

type fakeService struct {
	mu        sync.Mutex
	entries   []leaderboard.Entry
	submitted []leaderboard.Entry
	fetchErr  error
	submitErr error
	block     chan struct{} // FetchTopScores waits on this when set
}

func (s *fakeService) FetchTopScores(ctx context.Context, gameID string, limit int) ([]leaderboard.Entry, error) {
	s.mu.Lock()
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	out := slices.Clone(s.entries)
	leaderboard.SortEntries(out)
	return leaderboard.Top(out, limit), nil
}

func (s *fakeService) SubmitScore(ctx context.Context, gameID string, e leaderboard.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return s.submitErr
	}
	s.submitted = append(s.submitted, e)
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeService) set(fn func(s *fakeService)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// quietTuning keeps hands still so runs are deterministic.
func quietTuning() Tuning {
	t := DefaultTuning()
	t.InitialSpeed = 0
	t.BaseSpeed = 0
	t.MaxSpeed = 0
	t.RedirectBase = 0
	t.RedirectPerLevel = 0
	t.BoardSize = 3
	return t
}

func entries(scores ...leaderboard.Score) []leaderboard.Entry {
	out := make([]leaderboard.Entry, len(scores))
	for i, s := range scores {
		out[i] = leaderboard.Entry{PlayerName: string(rune('A' + i)), Score: s}
	}
	return out
}

func newLoadedGame(t *testing.T, svc *fakeService, session *leaderboard.Session) *Game {
	t.Helper()
	g := New(Options{
		Tuning:    quietTuning(),
		Service:   svc,
		Auth:      leaderboard.StaticAuth{Session: session},
		Validator: names.NewValidator(),
		Rand:      rand.New(rand.NewSource(1)),
	})
	g.Load()
	settle(g)
	if g.Screen() != ScreenTitle {
		t.Fatalf("screen after load = %v, want title (err %v)", g.Screen(), g.Err())
	}
	return g
}

// settle waits for background calls and applies their results.
func settle(g *Game) {
	g.pending.Wait()
	g.Update(0)
}

func advance(g *Game, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		g.Update(step)
	}
}

func typeText(g *Game, s string) {
	for _, r := range s {
		g.OnKey(input.KeyRune, r)
	}
}

func TestRunAfterTenSeconds(t *testing.T) {
	g := newLoadedGame(t, &fakeService{}, &leaderboard.Session{UserID: "u1"})
	g.StartGame()
	if got := len(g.run.Hands); got != 3 {
		t.Fatalf("initial hands = %d, want 3", got)
	}

	advance(g, 10*time.Second)

	if g.Screen() != ScreenPlaying {
		t.Fatalf("screen = %v, want playing", g.Screen())
	}
	if g.run.Elapsed != 10*time.Second {
		t.Fatalf("elapsed = %v, want 10s", g.run.Elapsed)
	}
	if want := g.scheduler.Cap(10 * time.Second); len(g.run.Hands) != want || want != 4 {
		t.Fatalf("hands = %d, cap(10s) = %d, want 4", len(g.run.Hands), want)
	}
	if g.scheduler.Spawns != 1 {
		t.Fatalf("spawns = %d, want 1", g.scheduler.Spawns)
	}
	want := 4750 * time.Millisecond
	if diff := g.scheduler.Interval - want; diff < -time.Millisecond || diff > time.Millisecond {
		t.Fatalf("interval = %v, want %v", g.scheduler.Interval, want)
	}
}

// collideAt plays until the given survival time, then drops the target on a hand.
func collideAt(t *testing.T, g *Game, at time.Duration) {
	t.Helper()
	g.StartGame()
	advance(g, at)
	if g.Screen() != ScreenPlaying {
		t.Fatalf("run ended early at %v", g.run.Elapsed)
	}
	h := g.run.Hands[0]
	g.OnPointerDown(h.X, h.Y)
	g.Update(0)
	if g.Screen() != ScreenGameOver {
		t.Fatalf("screen = %v, want gameover", g.Screen())
	}
	if g.run.Running {
		t.Fatal("run should be frozen after a collision")
	}
}

func TestCollisionNotEligibleGoesToLeaderboard(t *testing.T) {
	svc := &fakeService{entries: entries(50000, 40000, 30000)}
	g := newLoadedGame(t, svc, &leaderboard.Session{UserID: "u1"})

	collideAt(t, g, 12300*time.Millisecond)
	if got := g.run.Score(); got != 12300 {
		t.Fatalf("score = %d, want 12300", got)
	}

	frozen := g.run.Elapsed
	g.pending.Wait()
	g.Update(time.Second)
	if g.Screen() != ScreenGameOver {
		t.Fatalf("game over should hold, got %v", g.Screen())
	}
	if g.run.Elapsed != frozen {
		t.Fatal("run clock advanced after game over")
	}
	g.Update(500 * time.Millisecond)
	if g.Screen() != ScreenLeaderboard {
		t.Fatalf("screen = %v, want leaderboard", g.Screen())
	}
}

func TestCollisionEligibleNameEntry(t *testing.T) {
	svc := &fakeService{entries: entries(10000, 5000, 1000)}
	g := newLoadedGame(t, svc, &leaderboard.Session{UserID: "u1"})

	collideAt(t, g, 12300*time.Millisecond)
	g.pending.Wait()
	g.Update(1500 * time.Millisecond)
	if g.Screen() != ScreenNameInput {
		t.Fatalf("screen = %v, want nameinput", g.Screen())
	}

	// One character is too short.
	typeText(g, "a")
	g.OnKey(input.KeyEnter, 0)
	snap := g.Snapshot()
	if snap.Screen != ScreenNameInput || snap.Name != "A" {
		t.Fatalf("after short name: screen %v name %q", snap.Screen, snap.Name)
	}
	if snap.Message != "Name must be at least 2 characters long" {
		t.Fatalf("message = %q", snap.Message)
	}
	if snap.Submitting {
		t.Fatal("invalid names must not be submitted")
	}

	typeText(g, "b")
	if msg := g.Snapshot().Message; msg != "" {
		t.Fatalf("valid name should clear the message, got %q", msg)
	}
	g.OnKey(input.KeyEnter, 0)
	if !g.Snapshot().Submitting {
		t.Fatal("expected submit in flight")
	}
	settle(g)

	if g.Screen() != ScreenLeaderboard {
		t.Fatalf("screen = %v, want leaderboard", g.Screen())
	}
	if len(svc.submitted) != 1 {
		t.Fatalf("submitted %d entries", len(svc.submitted))
	}
	got := svc.submitted[0]
	if got.PlayerName != "AB" || got.Score != 12300 || got.UserID != "u1" {
		t.Fatalf("submitted %+v", got)
	}

	settle(g)
	top := g.Snapshot().HighScores
	if len(top) != 3 || top[0].PlayerName != "AB" {
		t.Fatalf("leaderboard not refreshed: %+v", top)
	}
}

func TestSubmitFailureKeepsName(t *testing.T) {
	svc := &fakeService{submitErr: &leaderboard.RejectedError{Reason: "Server unavailable"}}
	g := newLoadedGame(t, svc, &leaderboard.Session{UserID: "u1"})

	collideAt(t, g, time.Second)
	g.OnKey(input.KeyRune, ' ')
	if g.Screen() != ScreenNameInput {
		t.Fatalf("empty board: screen = %v, want nameinput", g.Screen())
	}

	typeText(g, "ab")
	g.OnKey(input.KeyEnter, 0)
	settle(g)

	snap := g.Snapshot()
	if snap.Screen != ScreenNameInput || snap.Name != "AB" || snap.Message != "Server unavailable" {
		t.Fatalf("after failed submit: %v %q %q", snap.Screen, snap.Name, snap.Message)
	}

	// Retry succeeds.
	svc.set(func(s *fakeService) { s.submitErr = nil })
	g.OnKey(input.KeyEnter, 0)
	settle(g)
	if g.Screen() != ScreenLeaderboard {
		t.Fatalf("retry: screen = %v, want leaderboard", g.Screen())
	}
}

func TestAbandonNameEntry(t *testing.T) {
	g := newLoadedGame(t, &fakeService{}, &leaderboard.Session{UserID: "u1"})
	collideAt(t, g, time.Second)
	g.OnKey(input.KeyEnter, 0)
	g.OnKey(input.KeyEscape, 0)
	if g.Screen() != ScreenLeaderboard {
		t.Fatalf("screen = %v, want leaderboard", g.Screen())
	}
}

func TestSubmitRequiresSession(t *testing.T) {
	svc := &fakeService{}
	g := newLoadedGame(t, svc, nil)
	collideAt(t, g, time.Second)
	g.OnKey(input.KeyEnter, 0)

	typeText(g, "zed")
	g.OnKey(input.KeyEnter, 0)
	snap := g.Snapshot()
	if snap.Screen != ScreenNameInput || snap.Message != msgLoginRequired {
		t.Fatalf("screen %v message %q", snap.Screen, snap.Message)
	}
	g.pending.Wait()
	if len(svc.submitted) != 0 {
		t.Fatal("nothing should be submitted without a session")
	}
}

func TestNameInputLimits(t *testing.T) {
	g := newLoadedGame(t, &fakeService{}, &leaderboard.Session{UserID: "u1", Name: "Player one!"})
	collideAt(t, g, time.Second)
	g.OnKey(input.KeyEnter, 0)

	if got := g.Snapshot().Name; got != "PLAYER ONE" {
		t.Fatalf("prefilled name = %q", got)
	}
	typeText(g, "xyz")
	if got := g.Snapshot().Name; len(got) != names.MaxLength {
		t.Fatalf("name grew past the limit: %q", got)
	}
	for i := 0; i < 20; i++ {
		g.OnKey(input.KeyBackspace, 0)
	}
	typeText(g, "q!")
	snap := g.Snapshot()
	if snap.Name != "Q" {
		t.Fatalf("name = %q, want Q", snap.Name)
	}
	if snap.Message == "" {
		t.Fatal("expected a preview message for a short name")
	}
	g.Update(2 * time.Second)
	if msg := g.Snapshot().Message; msg != "" {
		t.Fatalf("preview message should expire, got %q", msg)
	}
}

func TestNameLimitFollowsValidator(t *testing.T) {
	v := names.NewValidator()
	v.MaxLength = 4
	g := New(Options{
		Tuning:    quietTuning(),
		Service:   &fakeService{},
		Auth:      leaderboard.StaticAuth{Session: &leaderboard.Session{UserID: "u1", Name: "Player one"}},
		Validator: v,
		Rand:      rand.New(rand.NewSource(1)),
	})
	g.Load()
	settle(g)
	collideAt(t, g, time.Second)
	g.OnKey(input.KeyEnter, 0)

	snap := g.Snapshot()
	if snap.Name != "PLAY" || snap.NameMax != 4 {
		t.Fatalf("name = %q max %d, want PLAY max 4", snap.Name, snap.NameMax)
	}
	typeText(g, "er")
	if got := g.Snapshot().Name; got != "PLAY" {
		t.Fatalf("name grew past the validator's limit: %q", got)
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	svc := &fakeService{entries: entries(3000, 2000, 1000)}
	g := newLoadedGame(t, svc, &leaderboard.Session{UserID: "u1"})
	cached := g.Snapshot().HighScores

	block := make(chan struct{})
	svc.set(func(s *fakeService) {
		s.block = block
		s.entries = entries(99000)
	})

	g.OnKey(input.KeyRune, 'l')
	if g.Screen() != ScreenLeaderboard {
		t.Fatalf("screen = %v, want leaderboard", g.Screen())
	}
	g.OnKey(input.KeyRune, ' ')
	if g.Screen() != ScreenPlaying || g.run.ID != 1 {
		t.Fatalf("screen %v run %d", g.Screen(), g.run.ID)
	}
	hands := len(g.run.Hands)

	close(block)
	settle(g)

	snap := g.Snapshot()
	if !slices.Equal(snap.HighScores, cached) {
		t.Fatalf("stale fetch overwrote scores: %+v", snap.HighScores)
	}
	if snap.Screen != ScreenPlaying || len(snap.Hands) != hands {
		t.Fatalf("stale fetch disturbed the run: %v, %d hands", snap.Screen, len(snap.Hands))
	}
}

func TestLoadFailureIsTerminal(t *testing.T) {
	svc := &fakeService{fetchErr: errors.New("backend unreachable")}
	g := New(Options{
		Service:   svc,
		Auth:      leaderboard.StaticAuth{},
		Validator: names.NewValidator(),
	})
	if g.Screen() != ScreenLoading {
		t.Fatalf("initial screen = %v", g.Screen())
	}
	g.Load()
	settle(g)

	if g.Screen() != ScreenError {
		t.Fatalf("screen = %v, want error", g.Screen())
	}
	if !errors.Is(g.Err(), ErrInitialization) {
		t.Fatalf("err = %v, want ErrInitialization", g.Err())
	}

	g.OnKey(input.KeyEnter, 0)
	g.OnPointerDown(10, 10)
	g.StartGame()
	g.Update(time.Second)
	if g.Screen() != ScreenError {
		t.Fatalf("error screen must be a dead end, got %v", g.Screen())
	}
}

func TestTitleAndInstructions(t *testing.T) {
	g := newLoadedGame(t, &fakeService{}, nil)
	g.OnKey(input.KeyRune, 'i')
	if g.Screen() != ScreenInstructions {
		t.Fatalf("screen = %v", g.Screen())
	}
	g.OnKey(input.KeyEscape, 0)
	if g.Screen() != ScreenTitle {
		t.Fatalf("screen = %v", g.Screen())
	}
	g.OnKey(input.KeyRune, '?')
	g.OnPointerDown(100, 100)
	if g.Screen() != ScreenPlaying {
		t.Fatalf("click should start, screen = %v", g.Screen())
	}
}

func TestTargetControl(t *testing.T) {
	g := newLoadedGame(t, &fakeService{}, nil)
	g.StartGame()

	g.OnPointerMove(10, 10)
	if g.run.Target.X == 10 {
		t.Fatal("click mode must ignore pointer motion")
	}
	g.OnPointerDown(-50, 900)
	if g.run.Target.X != 0 || g.run.Target.Y != 600 {
		t.Fatalf("target not clamped: (%f,%f)", g.run.Target.X, g.run.Target.Y)
	}
	g.OnKey(input.KeyRight, 0)
	g.OnKey(input.KeyUp, 0)
	if g.run.Target.X != 20 || g.run.Target.Y != 580 {
		t.Fatalf("nudge: (%f,%f)", g.run.Target.X, g.run.Target.Y)
	}

	g.tuning.Control = ControlFollow
	g.OnPointerMove(123, 45)
	if g.run.Target.X != 123 || g.run.Target.Y != 45 {
		t.Fatalf("follow mode: (%f,%f)", g.run.Target.X, g.run.Target.Y)
	}
}

func TestResizeKeepsEntitiesInside(t *testing.T) {
	g := newLoadedGame(t, &fakeService{}, nil)
	g.StartGame()
	g.OnPointerDown(790, 590)
	g.OnResize(400, 300)
	snap := g.Snapshot()
	if !snap.Bounds.Contains(snap.Target.X, snap.Target.Y) {
		t.Fatalf("target outside: (%f,%f)", snap.Target.X, snap.Target.Y)
	}
	for _, h := range snap.Hands {
		if !snap.Bounds.Contains(h.X, h.Y) {
			t.Fatalf("hand outside: (%f,%f)", h.X, h.Y)
		}
	}
}

func TestGameOverSkip(t *testing.T) {
	g := newLoadedGame(t, &fakeService{entries: entries(9000, 8000, 7000)}, nil)
	collideAt(t, g, time.Second)
	g.OnKey(input.KeyRune, ' ')
	if g.Screen() != ScreenLeaderboard {
		t.Fatalf("screen = %v, want leaderboard", g.Screen())
	}
	g.OnKey(input.KeyEnter, 0)
	if g.Screen() != ScreenPlaying || g.run.ID != 2 {
		t.Fatalf("play again: screen %v run %d", g.Screen(), g.run.ID)
	}
}
