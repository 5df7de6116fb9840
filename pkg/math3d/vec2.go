package math3d

import "math"

// Vec2 represents a 2D vector or point.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Add returns the vector sum a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Round returns the vector with both components rounded to the nearest integer.
func (a Vec2) Round() Vec2 {
	return Vec2{math.Round(a.X), math.Round(a.Y)}
}
