package geometry

import "math"

// Box is an axis-aligned bounding box in model space.
type Box struct {
	Min Point3D `json:"min"`
	Max Point3D `json:"max"`
}

// BoundsOf returns the tightest Box containing all points. An empty input
// yields the zero Box.
func BoundsOf(pts []Point3D) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Min.Z = math.Min(b.Min.Z, p.Z)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
		b.Max.Z = math.Max(b.Max.Z, p.Z)
	}
	return b
}

// Expand grows the box by m on every side. Negative m shrinks it.
func (b Box) Expand(m float64) Box {
	return Box{
		Min: Point3D{X: b.Min.X - m, Y: b.Min.Y - m, Z: b.Min.Z - m},
		Max: Point3D{X: b.Max.X + m, Y: b.Max.Y + m, Z: b.Max.Z + m},
	}
}

// ExpandXY grows the box by m in plan view only.
func (b Box) ExpandXY(m float64) Box {
	return Box{
		Min: Point3D{X: b.Min.X - m, Y: b.Min.Y - m, Z: b.Min.Z},
		Max: Point3D{X: b.Max.X + m, Y: b.Max.Y + m, Z: b.Max.Z},
	}
}

// Intersects reports whether b and o overlap. Touching faces count as
// overlap.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Contains reports whether p lies inside or on the boundary of b.
func (b Box) Contains(p Point3D) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Center returns the box center.
func (b Box) Center() Point3D {
	return b.Min.Lerp(b.Max, 0.5)
}

// XY projects the box onto the plan view.
func (b Box) XY() Rect {
	return Rect{Min: b.Min.XY(), Max: b.Max.XY()}
}

// Rect is an axis-aligned rectangle in plan view.
type Rect struct {
	Min Point2D `json:"min"`
	Max Point2D `json:"max"`
}

// RectOf returns the tightest Rect containing all points. An empty input
// yields the zero Rect.
func RectOf(pts []Point2D) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// Expand grows the rect by m on every side. Negative m shrinks it.
func (r Rect) Expand(m float64) Rect {
	return Rect{
		Min: Point2D{X: r.Min.X - m, Y: r.Min.Y - m},
		Max: Point2D{X: r.Max.X + m, Y: r.Max.Y + m},
	}
}

// Intersects reports whether r and o overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && r.Max.X >= o.Min.X &&
		r.Min.Y <= o.Max.Y && r.Max.Y >= o.Min.Y
}

// Contains reports whether p lies inside or on the boundary of r.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Center returns the rect center.
func (r Rect) Center() Point2D {
	return r.Min.Lerp(r.Max, 0.5)
}

// IntersectsSegment reports whether the segment ab crosses or touches the
// rect, using a Liang-Barsky parameter clip.
func (r Rect) IntersectsSegment(a, b Point2D) bool {
	if r.Contains(a) || r.Contains(b) {
		return true
	}
	dx := b.X - a.X
	dy := b.Y - a.Y
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, a.X - r.Min.X},
		{dx, r.Max.X - a.X},
		{-dy, a.Y - r.Min.Y},
		{dy, r.Max.Y - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if math.Abs(p) < Epsilon {
			if q < 0 {
				return false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return t0 <= t1
}
