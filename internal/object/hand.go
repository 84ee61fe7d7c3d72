package object

import (
	"math"
	"math/rand"
	"time"

	"github.com/tomz197/handsoff/internal/draw"
	"github.com/tomz197/handsoff/internal/physics"
)

// Spawn and movement defaults. Speeds are in logical units per second.
const (
	DefaultMinSafeDistance = 200.0
	DefaultAttemptLimit    = 50
	DefaultInitialSpeed    = 120.0 // Max magnitude of each initial velocity component
	DefaultBaseSpeed       = 120.0 // Speed at the start of a redirect
	DefaultMaxSpeed        = 240.0 // Speed at the end of a redirect

	HandMinSize = 30.0
	HandMaxSize = 50.0

	// BounceDamping is the fraction of speed kept when reflecting off an edge.
	BounceDamping = 0.8

	// RedirectDuration is how long a hand eases toward its redirect point.
	RedirectDuration = time.Second
)

// SpawnOptions controls where and how fast new hands appear.
type SpawnOptions struct {
	MinSafeDistance float64
	AttemptLimit    int
	InitialSpeed    float64
	BaseSpeed       float64
	MaxSpeed        float64
}

// DefaultSpawnOptions returns the stock spawn settings.
func DefaultSpawnOptions() SpawnOptions {
	return SpawnOptions{
		MinSafeDistance: DefaultMinSafeDistance,
		AttemptLimit:    DefaultAttemptLimit,
		InitialSpeed:    DefaultInitialSpeed,
		BaseSpeed:       DefaultBaseSpeed,
		MaxSpeed:        DefaultMaxSpeed,
	}
}

// Hand is a grabbing hand that drifts around the field and now and then lunges
// at the target.
type Hand struct {
	X, Y          float64 // Position (center)
	VX, VY        float64 // Velocity
	Rotation      float64 // Radians
	RotationSpeed float64 // Radians per second
	Size          float64 // Collision radius

	// Finger wiggle; cosmetic only.
	WigglePhase  float64
	WiggleSpeed  float64 // Radians per second
	WiggleAmount float64 // Peak rotation offset in radians

	Redirecting   bool
	RedirectX     float64
	RedirectY     float64
	RedirectStart time.Duration // Run clock when the redirect began

	BaseSpeed float64
	MaxSpeed  float64
}

// SpawnHand places a new hand at a random position at least opts.MinSafeDistance
// away from every target sub-point. After opts.AttemptLimit rejected samples the
// last sample is used even though it is too close. The number of samples drawn
// is returned alongside the hand.
func SpawnHand(rng *rand.Rand, bounds Bounds, target *Target, opts SpawnOptions) (*Hand, int) {
	limit := opts.AttemptLimit
	if limit < 1 {
		limit = 1
	}
	points := target.SubPoints()

	var x, y float64
	attempts := 0
	for attempts < limit {
		x = rng.Float64() * bounds.Width
		y = rng.Float64() * bounds.Height
		attempts++
		if isSafe(x, y, points, opts.MinSafeDistance) {
			break
		}
	}

	h := &Hand{
		X:             x,
		Y:             y,
		VX:            (rng.Float64()*2 - 1) * opts.InitialSpeed,
		VY:            (rng.Float64()*2 - 1) * opts.InitialSpeed,
		Rotation:      rng.Float64() * 2 * math.Pi,
		RotationSpeed: (rng.Float64()*2 - 1) * 0.6,
		Size:          HandMinSize + rng.Float64()*(HandMaxSize-HandMinSize),
		WigglePhase:   rng.Float64() * 2 * math.Pi,
		WiggleSpeed:   3 + rng.Float64()*6,
		WiggleAmount:  0.2 + rng.Float64()*0.2,
		BaseSpeed:     opts.BaseSpeed,
		MaxSpeed:      opts.MaxSpeed,
	}
	return h, attempts
}

func isSafe(x, y float64, points []physics.SubPoint, minDist float64) bool {
	for _, p := range points {
		if physics.Distance(x, y, p.X, p.Y) <= minDist {
			return false
		}
	}
	return true
}

// Update eases any active redirect, moves the hand and bounces it off the edges.
// Hands are never removed here.
func (h *Hand) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()

	h.WigglePhase += h.WiggleSpeed * dt
	h.Rotation += h.RotationSpeed * dt

	if h.Redirecting {
		progress := float64(ctx.Now-h.RedirectStart) / float64(RedirectDuration)
		if progress >= 1 {
			h.Redirecting = false
		} else {
			eased := EaseInOutQuad(math.Max(progress, 0))
			angle := math.Atan2(h.RedirectY-h.Y, h.RedirectX-h.X)
			speed := h.BaseSpeed + (h.MaxSpeed-h.BaseSpeed)*eased
			h.VX = math.Cos(angle) * speed
			h.VY = math.Sin(angle) * speed
		}
	}

	h.X += h.VX * dt
	h.Y += h.VY * dt
	h.bounce(ctx.Bounds)

	return false, nil
}

// bounce reflects the velocity component that crossed an edge so it points back
// into the field, and clamps the position onto the edge.
func (h *Hand) bounce(b Bounds) {
	if h.X < 0 {
		h.X = 0
		h.VX = math.Abs(h.VX) * BounceDamping
	} else if h.X > b.Width {
		h.X = b.Width
		h.VX = -math.Abs(h.VX) * BounceDamping
	}
	if h.Y < 0 {
		h.Y = 0
		h.VY = math.Abs(h.VY) * BounceDamping
	} else if h.Y > b.Height {
		h.Y = b.Height
		h.VY = -math.Abs(h.VY) * BounceDamping
	}
}

// MaybeBeginRedirect rolls the per-step chance of lunging at the target.
// The chance is probabilityPerSecond scaled by the step length and capped at 1.
// On success the hand locks onto whichever lobe is currently nearer.
func (h *Hand) MaybeBeginRedirect(rng *rand.Rand, target *Target, probabilityPerSecond float64, dt, now time.Duration) bool {
	if h.Redirecting || target == nil {
		return false
	}
	chance := math.Min(1, probabilityPerSecond*dt.Seconds())
	if rng.Float64() >= chance {
		return false
	}
	h.BeginRedirect(target, now)
	return true
}

// BeginRedirect starts easing toward the nearer lobe of target.
func (h *Hand) BeginRedirect(target *Target, now time.Duration) {
	lobes := target.Lobes()
	p := lobes[physics.Nearest(h.X, h.Y, lobes)]
	h.RedirectX = p.X
	h.RedirectY = p.Y
	h.Redirecting = true
	h.RedirectStart = now
}

// CollidesWith reports whether the hand touches any part of the target, with
// the hand's radius scaled by leniency.
func (h *Hand) CollidesWith(target *Target, leniency float64) bool {
	return physics.Collides(h.X, h.Y, h.Size, target.SubPoints(), leniency)
}

// EaseInOutQuad maps t in [0,1] onto a quadratic ease-in-out curve.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// Draw renders a palm with four wiggling fingers pointing along the hand's rotation.
func (h *Hand) Draw(ctx DrawContext) error {
	c := ctx.Canvas
	palm := h.Size * 0.45
	c.DrawCircle(h.X, h.Y, palm, 10, true)

	heading := h.Rotation + math.Sin(h.WigglePhase)*h.WiggleAmount
	if h.Redirecting {
		heading = math.Atan2(h.RedirectY-h.Y, h.RedirectX-h.X)
	}
	for i := -1.5; i <= 1.5; i++ {
		a := heading + i*0.35
		base := draw.Point{X: h.X + math.Cos(a)*palm, Y: h.Y + math.Sin(a)*palm}
		tip := draw.Point{X: h.X + math.Cos(a)*h.Size, Y: h.Y + math.Sin(a)*h.Size}
		c.DrawLine(base, tip)
	}
	return nil
}
