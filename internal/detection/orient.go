package detection

import (
	"math"

	"github.com/golang/geo/r2"
)

// ReferenceEdge returns the endpoints of the edge of q that faces "up" on the
// tag when the codebook variant matched.
//
// Variant 0 (canonical) maps to the left edge TL-BL, 1 to the bottom edge
// BL-BR, 2 to the right edge BR-TR and 3 to the top edge TL-TR.
func ReferenceEdge(q Quad, variant int) (r2.Point, r2.Point) {
	switch ((variant % 4) + 4) % 4 {
	case 1:
		return q[BottomLeft], q[BottomRight]
	case 2:
		return q[BottomRight], q[TopRight]
	case 3:
		return q[TopLeft], q[TopRight]
	default:
		return q[TopLeft], q[BottomLeft]
	}
}

// Orientation returns the heading, in degrees within [0, 360), of the vector
// from q's centroid to the midpoint of the reference edge for variant.
//
// Image y grows downward, so it is negated to measure the angle
// counter-clockwise from the positive x axis.
func Orientation(q Quad, variant int) float64 {
	a, b := ReferenceEdge(q, variant)
	mid := a.Add(b).Mul(0.5)
	v := mid.Sub(q.Centroid())
	return normalizeDegrees(math.Atan2(-v.Y, v.X) * 180 / math.Pi)
}

// normalizeDegrees maps deg into [0, 360). A zero result is always +0.
func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg == 0 {
		return 0
	}
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
