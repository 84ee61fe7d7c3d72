package object

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/tomz197/handsoff/internal/physics"
)

var testBounds = Bounds{Width: 800, Height: 600}

func TestSpawnHandRespectsSafeDistance(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	target := NewTarget(400, 300, DefaultTargetSize)
	opts := DefaultSpawnOptions()

	for i := 0; i < 200; i++ {
		h, attempts := SpawnHand(rng, testBounds, target, opts)
		if attempts < 1 || attempts > opts.AttemptLimit {
			t.Fatalf("attempts out of range: %d", attempts)
		}
		safe := true
		for _, p := range target.SubPoints() {
			if physics.Distance(h.X, h.Y, p.X, p.Y) <= opts.MinSafeDistance {
				safe = false
			}
		}
		if !safe && attempts != opts.AttemptLimit {
			t.Fatalf("unsafe spawn after only %d attempts", attempts)
		}
		if !testBounds.Contains(h.X, h.Y) {
			t.Fatalf("spawn outside bounds: (%f,%f)", h.X, h.Y)
		}
	}
}

func TestSpawnHandExhaustsAttempts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	small := Bounds{Width: 100, Height: 100}
	target := NewTarget(50, 50, DefaultTargetSize)
	opts := DefaultSpawnOptions()

	h, attempts := SpawnHand(rng, small, target, opts)
	if h == nil {
		t.Fatal("expected a hand even when no safe position exists")
	}
	if attempts != DefaultAttemptLimit {
		t.Fatalf("attempts = %d, want %d", attempts, DefaultAttemptLimit)
	}
	if !small.Contains(h.X, h.Y) {
		t.Fatalf("fallback position outside bounds: (%f,%f)", h.X, h.Y)
	}
}

func TestHandUpdateIsFrameRateIndependent(t *testing.T) {
	a := &Hand{X: 100, Y: 100, VX: 60, VY: -30}
	b := *a

	ctx := UpdateContext{Delta: time.Second, Bounds: testBounds}
	a.Update(ctx)

	ctx.Delta = 100 * time.Millisecond
	for i := 0; i < 10; i++ {
		b.Update(ctx)
	}

	if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 {
		t.Fatalf("one big step (%f,%f) != ten small steps (%f,%f)", a.X, a.Y, b.X, b.Y)
	}
	if a.X != 160 || a.Y != 70 {
		t.Fatalf("position = (%f,%f), want (160,70)", a.X, a.Y)
	}
}

func TestHandBouncesOffEdges(t *testing.T) {
	tests := []struct {
		name       string
		hand       Hand
		wantVXSign float64
		wantVYSign float64
	}{
		{"left", Hand{X: 1, Y: 300, VX: -100}, 1, 0},
		{"right", Hand{X: 799, Y: 300, VX: 100}, -1, 0},
		{"top", Hand{X: 400, Y: 1, VY: -100}, 0, 1},
		{"bottom", Hand{X: 400, Y: 599, VY: 100}, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.hand
			h.Update(UpdateContext{Delta: 100 * time.Millisecond, Bounds: testBounds})
			if !testBounds.Contains(h.X, h.Y) {
				t.Fatalf("hand left the field: (%f,%f)", h.X, h.Y)
			}
			if tt.wantVXSign != 0 && math.Signbit(h.VX) == (tt.wantVXSign > 0) {
				t.Fatalf("VX = %f, want sign %f", h.VX, tt.wantVXSign)
			}
			if tt.wantVYSign != 0 && math.Signbit(h.VY) == (tt.wantVYSign > 0) {
				t.Fatalf("VY = %f, want sign %f", h.VY, tt.wantVYSign)
			}
			speed := math.Hypot(h.VX, h.VY)
			if math.Abs(speed-100*BounceDamping) > 1e-9 {
				t.Fatalf("speed after bounce = %f, want %f", speed, 100*BounceDamping)
			}
		})
	}
}

func TestHandRedirectEasesThenEnds(t *testing.T) {
	target := NewTarget(400, 300, DefaultTargetSize)
	h := &Hand{X: 100, Y: 300, BaseSpeed: DefaultBaseSpeed, MaxSpeed: DefaultMaxSpeed}
	h.BeginRedirect(target, 0)

	left := target.SubPoints()[LeftLobe]
	if h.RedirectX != left.X || h.RedirectY != left.Y {
		t.Fatalf("redirect point = (%f,%f), want nearer lobe (%f,%f)", h.RedirectX, h.RedirectY, left.X, left.Y)
	}

	step := 100 * time.Millisecond
	now := time.Duration(0)
	var speeds []float64
	for now < RedirectDuration {
		now += step
		h.Update(UpdateContext{Delta: step, Now: now, Bounds: testBounds})
		if h.Redirecting {
			speeds = append(speeds, math.Hypot(h.VX, h.VY))
			if h.VX <= 0 {
				t.Fatalf("hand should head right toward the target, VX = %f", h.VX)
			}
		}
	}
	if h.Redirecting {
		t.Fatal("redirect should end once its duration has elapsed")
	}
	for i := 1; i < len(speeds); i++ {
		if speeds[i] < speeds[i-1] {
			t.Fatalf("speed should not drop while easing: %v", speeds)
		}
	}
}

func TestMaybeBeginRedirect(t *testing.T) {
	target := NewTarget(400, 300, DefaultTargetSize)
	rng := rand.New(rand.NewSource(3))

	h := &Hand{X: 700, Y: 300}
	if h.MaybeBeginRedirect(rng, target, 0, time.Second, 0) {
		t.Fatal("zero probability must never redirect")
	}
	if !h.MaybeBeginRedirect(rng, target, 10, time.Second, 5*time.Second) {
		t.Fatal("probability capped at 1 must always redirect")
	}
	right := target.SubPoints()[RightLobe]
	if h.RedirectX != right.X {
		t.Fatalf("expected right lobe target, got x=%f", h.RedirectX)
	}
	if h.RedirectStart != 5*time.Second {
		t.Fatalf("RedirectStart = %v", h.RedirectStart)
	}
	if h.MaybeBeginRedirect(rng, target, 10, time.Second, 6*time.Second) {
		t.Fatal("an active redirect must not restart")
	}
}

func TestEaseInOutQuad(t *testing.T) {
	for _, tc := range []struct{ in, want float64 }{{0, 0}, {0.25, 0.125}, {0.5, 0.5}, {1, 1}} {
		if got := EaseInOutQuad(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("EaseInOutQuad(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestHandCollidesWithTarget(t *testing.T) {
	target := NewTarget(400, 300, DefaultTargetSize)
	if !(&Hand{X: 400, Y: 300, Size: 30}).CollidesWith(target, physics.CollisionLeniency) {
		t.Fatal("hand on top of the target must collide")
	}
	if (&Hand{X: 50, Y: 50, Size: 50}).CollidesWith(target, physics.CollisionLeniency) {
		t.Fatal("distant hand must not collide")
	}
}

func TestHandUpdateKeepsHand(t *testing.T) {
	var obj Object = &Hand{X: 799, Y: 599, VX: 500, VY: 500}
	for i := 0; i < 100; i++ {
		remove, err := obj.Update(UpdateContext{Delta: 100 * time.Millisecond, Bounds: testBounds})
		if err != nil || remove {
			t.Fatalf("Update = (%v, %v), hands stay until the run resets", remove, err)
		}
	}
}
