package geometry

// Segment3D is one straight run of a polyline.
type Segment3D struct {
	A Point3D
	B Point3D
}

// Length returns the segment length.
func (s Segment3D) Length() float64 {
	return s.A.Distance(s.B)
}

// Midpoint returns the segment midpoint.
func (s Segment3D) Midpoint() Point3D {
	return s.A.Lerp(s.B, 0.5)
}

// Segments decomposes a polyline into its straight runs.
func Segments(pts []Point3D) []Segment3D {
	if len(pts) < 2 {
		return nil
	}
	segs := make([]Segment3D, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		segs = append(segs, Segment3D{A: pts[i-1], B: pts[i]})
	}
	return segs
}

// Length returns the cumulative arc length of a polyline.
func Length(pts []Point3D) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Distance(pts[i])
	}
	return total
}

// Length2D returns the cumulative arc length of a plan-view polyline.
func Length2D(pts []Point2D) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Distance(pts[i])
	}
	return total
}

// PointAt returns the point at arc length d along the polyline by linear
// interpolation, clamped to the endpoints. Polylines shorter than two points
// return the zero point.
func PointAt(pts []Point3D, d float64) Point3D {
	if len(pts) == 0 {
		return Point3D{}
	}
	if len(pts) == 1 || d <= 0 {
		return pts[0]
	}
	remaining := d
	for i := 1; i < len(pts); i++ {
		seg := pts[i-1].Distance(pts[i])
		if remaining <= seg {
			if seg < Epsilon {
				return pts[i]
			}
			return pts[i-1].Lerp(pts[i], remaining/seg)
		}
		remaining -= seg
	}
	return pts[len(pts)-1]
}

// DistanceOf returns the arc length from the start of the polyline to the
// projection-free nearest vertex position of p: it walks the polyline and
// returns the cumulative distance at the closest point on any segment.
func DistanceOf(pts []Point3D, p Point3D) float64 {
	if len(pts) < 2 {
		return 0
	}
	var (
		best     = p.Distance(pts[0])
		bestDist float64
		walked   float64
	)
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		segLen := a.Distance(b)
		t := projectT(a, b, p)
		cand := a.Lerp(b, t)
		if d := p.Distance(cand); d < best {
			best = d
			bestDist = walked + t*segLen
		}
		walked += segLen
	}
	return bestDist
}

// projectT returns the clamped parameter t in [0,1] of p projected onto the
// segment ab.
func projectT(a, b, p Point3D) float64 {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom < Epsilon {
		return 0
	}
	t := p.Sub(a).Dot(ab) / denom
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
