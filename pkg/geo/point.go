// Package geo provides the 2D/3D vector, polygon and hull primitives shared
// by the scene, cut-profile, and diffraction packages.
package geo

import "math"

// Point2D is a point in the horizontal (X, Y) plane. Altitude is carried
// separately by types that need it (see Coordinate).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Origin is the zero point.
var Origin = Point2D{0, 0}

// Pt is a shorthand constructor for Point2D.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{p.X - q.X, p.Y - q.Y}
}

// Scale returns p * s.
func (p Point2D) Scale(s float64) Point2D {
	return Point2D{p.X * s, p.Y * s}
}

// Length returns the Euclidean length of the vector.
func (p Point2D) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Normalize returns the unit vector in the same direction.
// Returns the zero vector if length is (near) zero.
func (p Point2D) Normalize() Point2D {
	l := p.Length()
	if l < 1e-12 {
		return Point2D{}
	}
	return Point2D{p.X / l, p.Y / l}
}

// Dot returns the dot product of p and q.
func (p Point2D) Dot(q Point2D) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the 2D cross product (z-component of the 3D cross product).
func (p Point2D) Cross(q Point2D) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Distance returns the Euclidean distance from p to q.
func (p Point2D) Distance(q Point2D) float64 {
	return p.Sub(q).Length()
}

// Angle returns the angle of the vector from the positive X axis in radians.
func (p Point2D) Angle() float64 {
	return math.Atan2(p.Y, p.X)
}

// AngleTo returns the angle from p to q relative to the positive X axis.
func (p Point2D) AngleTo(q Point2D) float64 {
	return q.Sub(p).Angle()
}

// Rotate returns p rotated by angle radians around the origin.
func (p Point2D) Rotate(angle float64) Point2D {
	c, s := math.Cos(angle), math.Sin(angle)
	return Point2D{
		X: p.X*c - p.Y*s,
		Y: p.X*s + p.Y*c,
	}
}

// RotateAround returns p rotated by angle radians around center.
func (p Point2D) RotateAround(center Point2D, angle float64) Point2D {
	return p.Sub(center).Rotate(angle).Add(center)
}

// Lerp returns the linear interpolation between p and q at t in [0,1].
func (p Point2D) Lerp(q Point2D, t float64) Point2D {
	return Point2D{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Perp returns a vector perpendicular to p (rotated 90 degrees counterclockwise).
func (p Point2D) Perp() Point2D {
	return Point2D{-p.Y, p.X}
}

// MidPoint returns the midpoint between p and q.
func MidPoint(p, q Point2D) Point2D {
	return p.Lerp(q, 0.5)
}

// Coordinate is a 3D point: X, Y horizontal, Z absolute altitude. Equality
// between coordinates is 2D (X, Y) except where Z interpolation matters —
// callers compare Z explicitly when it's load-bearing.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY returns the horizontal projection of c.
func (c Coordinate) XY() Point2D {
	return Point2D{c.X, c.Y}
}

// WithZ lifts p to 3D at the given altitude.
func (p Point2D) WithZ(z float64) Coordinate {
	return Coordinate{p.X, p.Y, z}
}

// Distance2D returns the horizontal Euclidean distance between c and d.
func (c Coordinate) Distance2D(d Coordinate) float64 {
	return c.XY().Distance(d.XY())
}

// Distance3D returns the full 3D Euclidean distance between c and d.
func (c Coordinate) Distance3D(d Coordinate) float64 {
	dx, dy, dz := c.X-d.X, c.Y-d.Y, c.Z-d.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Lerp3 returns the 3D linear interpolation between c and d at t in [0,1].
func (c Coordinate) Lerp3(d Coordinate, t float64) Coordinate {
	return Coordinate{
		X: c.X + (d.X-c.X)*t,
		Y: c.Y + (d.Y-c.Y)*t,
		Z: c.Z + (d.Z-c.Z)*t,
	}
}
