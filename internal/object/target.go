package object

import "github.com/tomz197/handsoff/internal/physics"

// DefaultTargetSize is the nominal diameter of each lobe.
const DefaultTargetSize = 50.0

// Sub-point indices returned by Target.SubPoints.
const (
	LeftLobe = iota
	RightLobe
	CenterGap
)

// Target is the protected object: two lobes side by side with a gap between them.
type Target struct {
	X, Y float64 // Center of the pair
	Size float64 // Lobe diameter
}

// NewTarget creates a target centered at (x, y).
func NewTarget(x, y, size float64) *Target {
	if size <= 0 {
		size = DefaultTargetSize
	}
	return &Target{X: x, Y: y, Size: size}
}

// spacing is the horizontal offset of each lobe from the center.
func (t *Target) spacing() float64 {
	return t.Size / 3
}

// SubPoints returns the collision circles: left lobe, right lobe, center gap.
func (t *Target) SubPoints() []physics.SubPoint {
	s := t.spacing()
	return []physics.SubPoint{
		LeftLobe:  {X: t.X - s, Y: t.Y, Radius: t.Size / 2},
		RightLobe: {X: t.X + s, Y: t.Y, Radius: t.Size / 2},
		CenterGap: {X: t.X, Y: t.Y, Radius: t.Size / 3},
	}
}

// Lobes returns only the two lobes, the points a redirecting hand aims for.
func (t *Target) Lobes() []physics.SubPoint {
	return t.SubPoints()[:CenterGap]
}

// MoveTo repositions the target, keeping it inside bounds.
func (t *Target) MoveTo(x, y float64, bounds Bounds) {
	t.X, t.Y = bounds.Clamp(x, y)
}

// Draw renders both lobes with a filled center mark.
func (t *Target) Draw(ctx DrawContext) error {
	for _, p := range t.Lobes() {
		ctx.Canvas.DrawCircle(p.X, p.Y, p.Radius, 16, false)
		ctx.Canvas.DrawCircle(p.X, p.Y, t.Size/6, 8, true)
	}
	return nil
}
