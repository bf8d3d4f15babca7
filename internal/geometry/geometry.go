// Package geometry provides the coordinate types and planar math shared by
// the routing, collision, and hanger engines. Coordinates are in meters and
// angles in degrees unless a name says otherwise.
package geometry

import "math"

// Epsilon is the tolerance under which two coordinates are considered equal.
const Epsilon = 1e-9

// Point2D is a plan-view coordinate in meters.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p scaled by f.
func (p Point2D) Scale(f float64) Point2D {
	return Point2D{X: p.X * f, Y: p.Y * f}
}

// Dot returns the dot product of p and q taken as vectors.
func (p Point2D) Dot(q Point2D) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Norm returns the vector length of p.
func (p Point2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Unit returns p normalized to length 1, or the zero vector if p is
// degenerate.
func (p Point2D) Unit() Point2D {
	n := p.Norm()
	if n < Epsilon {
		return Point2D{}
	}
	return Point2D{X: p.X / n, Y: p.Y / n}
}

// Lerp returns the point a fraction t of the way from p to q.
func (p Point2D) Lerp(q Point2D, t float64) Point2D {
	return Point2D{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Equal reports whether p and q coincide within Epsilon.
func (p Point2D) Equal(q Point2D) bool {
	return p.Distance(q) < Epsilon
}

// At lifts p to 3D at elevation z.
func (p Point2D) At(z float64) Point3D {
	return Point3D{X: p.X, Y: p.Y, Z: z}
}

// Point3D is a model-space coordinate in meters.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns p + q.
func (p Point3D) Add(q Point3D) Point3D {
	return Point3D{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Scale returns p scaled by f.
func (p Point3D) Scale(f float64) Point3D {
	return Point3D{X: p.X * f, Y: p.Y * f, Z: p.Z * f}
}

// Dot returns the dot product of p and q taken as vectors.
func (p Point3D) Dot(q Point3D) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Norm returns the vector length of p.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Distance returns the euclidean distance between p and q.
func (p Point3D) Distance(q Point3D) float64 {
	return q.Sub(p).Norm()
}

// DistanceXY returns the plan-view distance between p and q, ignoring Z.
func (p Point3D) DistanceXY(q Point3D) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Unit returns p normalized to length 1, or the zero vector if p is
// degenerate.
func (p Point3D) Unit() Point3D {
	n := p.Norm()
	if n < Epsilon {
		return Point3D{}
	}
	return p.Scale(1 / n)
}

// Lerp returns the point a fraction t of the way from p to q.
func (p Point3D) Lerp(q Point3D, t float64) Point3D {
	return Point3D{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
		Z: p.Z + (q.Z-p.Z)*t,
	}
}

// Equal reports whether p and q coincide within Epsilon.
func (p Point3D) Equal(q Point3D) bool {
	return p.Distance(q) < Epsilon
}

// XY projects p onto the plan view.
func (p Point3D) XY() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}
