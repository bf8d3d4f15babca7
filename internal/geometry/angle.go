package geometry

import "math"

// TurnAngle returns the deflection angle at b between the runs a→b and b→c,
// in degrees in [0, 180]. 0 means the run continues straight, 90 is a right
// angle, 180 a full reversal. Degenerate (zero length) legs yield 0.
func TurnAngle(a, b, c Point3D) float64 {
	u := b.Sub(a)
	v := c.Sub(b)
	return vectorAngle(u.Dot(v), u.Norm(), v.Norm())
}

// TurnAngle2D is TurnAngle for plan-view points.
func TurnAngle2D(a, b, c Point2D) float64 {
	u := b.Sub(a)
	v := c.Sub(b)
	return vectorAngle(u.Dot(v), u.Norm(), v.Norm())
}

func vectorAngle(dot, lu, lv float64) float64 {
	if lu < Epsilon || lv < Epsilon {
		return 0
	}
	cos := dot / (lu * lv)
	// Clamp against accumulated float error before acos.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// RotateXY rotates the plan-view vector v by deg degrees counterclockwise.
func RotateXY(v Point2D, deg float64) Point2D {
	r := Radians(deg)
	sin, cos := math.Sincos(r)
	return Point2D{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}
