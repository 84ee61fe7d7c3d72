// Package object defines the entities that live on the play field.
package object

import (
	"time"

	"github.com/tomz197/handsoff/internal/draw"
)

// UpdateContext provides everything an entity needs during one simulation step.
type UpdateContext struct {
	Delta  time.Duration // Step length
	Now    time.Duration // Run clock at the end of this step
	Bounds Bounds
}

// DrawContext provides drawing resources for entities.
type DrawContext struct {
	Canvas *draw.Canvas
}

// Object is a drawable and updatable game entity.
type Object interface {
	// Update advances the entity. Returns true if it should be removed.
	Update(ctx UpdateContext) (remove bool, err error)

	// Draw renders the entity onto ctx.Canvas in logical coordinates.
	Draw(ctx DrawContext) error
}

var _ Object = (*Hand)(nil)

// Bounds is the rectangular play field, with the origin at the top-left corner.
type Bounds struct {
	Width  float64
	Height float64
}

// Center returns the middle of the play field.
func (b Bounds) Center() (float64, float64) {
	return b.Width / 2, b.Height / 2
}

// Clamp limits (x, y) to the play field.
func (b Bounds) Clamp(x, y float64) (float64, float64) {
	return clamp(x, 0, b.Width), clamp(y, 0, b.Height)
}

// Contains reports whether (x, y) lies inside the play field, edges included.
func (b Bounds) Contains(x, y float64) bool {
	return x >= 0 && x <= b.Width && y >= 0 && y <= b.Height
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
