// Package physics provides collision detection and distance utilities.
package physics

import "math"

// CollisionLeniency scales a hand's radius before it is tested against the
// target. Values below 1 let a hand brush past without ending the run.
const CollisionLeniency = 0.8

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// CirclesOverlap checks if two circles overlap.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	minDist := r1 + r2
	return DistanceSquared(x1, y1, x2, y2) < minDist*minDist
}

// SubPoint is one collision circle of a compound target.
type SubPoint struct {
	X, Y   float64
	Radius float64
}

// Collides reports whether a circle at (x, y) with the given radius, scaled by k,
// overlaps any of the sub-points.
func Collides(x, y, radius float64, points []SubPoint, k float64) bool {
	for _, p := range points {
		if CirclesOverlap(x, y, radius*k, p.X, p.Y, p.Radius) {
			return true
		}
	}
	return false
}

// Nearest returns the index of the sub-point closest to (x, y), or -1 if points is empty.
func Nearest(x, y float64, points []SubPoint) int {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range points {
		d := DistanceSquared(x, y, p.X, p.Y)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
