// internal/humanoid/vector.go
package humanoid

import "math"

// Vector2D is a point or vector in page coordinates.
type Vector2D struct {
	X float64
	Y float64
}

// Add returns v + other.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v - other.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul returns v scaled by scalar.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{X: v.X * scalar, Y: v.Y * scalar}
}

// Mag returns the Euclidean length of v.
func (v Vector2D) Mag() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the Euclidean distance between v and other.
func (v Vector2D) Dist(other Vector2D) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Normalize returns the unit vector in v's direction, or the zero vector
// when v is (near) zero.
func (v Vector2D) Normalize() Vector2D {
	mag := v.Mag()
	if mag < 1e-9 {
		return Vector2D{}
	}
	return v.Mul(1.0 / mag)
}

// Perp returns the unit vector perpendicular to v.
func (v Vector2D) Perp() Vector2D {
	n := v.Normalize()
	return Vector2D{X: -n.Y, Y: n.X}
}
