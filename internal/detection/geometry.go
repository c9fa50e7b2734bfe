package detection

import (
	"image"
	"math"
)

// SignedArea returns the shoelace area of a closed polygon. Borders traced by
// FindContours around a foreground region come out negative.
func SignedArea(pts []image.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var a int64
	for i, p := range pts {
		q := pts[(i+1)%n]
		a += int64(p.X)*int64(q.Y) - int64(q.X)*int64(p.Y)
	}
	return float64(a) / 2
}

// ArcLength returns the perimeter of a closed polygon.
func ArcLength(pts []image.Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var l float64
	for i, p := range pts {
		q := pts[(i+1)%n]
		l += math.Hypot(float64(q.X-p.X), float64(q.Y-p.Y))
	}
	return l
}

// ApproxPoly simplifies a closed polygon with the Douglas-Peucker algorithm so
// that no dropped point lies farther than epsilon from the result. Point order
// (and therefore winding) is preserved.
//
// # Algorithm
//
//  1. Seed: starting from the first point, hop three times to the farthest
//     point from the current one. The last two points of the walk split the
//     closed curve into two open chains.
//  2. Each chain is simplified recursively: the point farthest from the chord
//     is kept when its distance exceeds epsilon.
//  3. Clean-up: a point lying within epsilon/sqrt(2) of the diagonal chord
//     through its neighbours, between them, is dropped.
func ApproxPoly(pts []image.Point, epsilon float64) []image.Point {
	n := len(pts)
	if n < 3 {
		return append([]image.Point(nil), pts...)
	}
	eps2 := epsilon * epsilon

	pos, hop := 0, 0
	var maxDist int
	for iter := 0; iter < 3; iter++ {
		pos = (pos + hop) % n
		maxDist, hop = 0, 0
		for j := 1; j < n; j++ {
			if d := sqDist(pts[pos], pts[(pos+j)%n]); d > maxDist {
				maxDist, hop = d, j
			}
		}
	}
	if float64(maxDist) <= eps2 {
		return []image.Point{pts[pos]}
	}

	a, b := pos, (pos+hop)%n
	keep := []int{a}
	keep = appendSimplified(keep, pts, a, b, eps2)
	keep = append(keep, b)
	keep = appendSimplified(keep, pts, b, a, eps2)

	out := make([]image.Point, len(keep))
	for i, k := range keep {
		out[i] = pts[k]
	}
	return dropCollinear(out, eps2)
}

// appendSimplified appends the indices strictly between i and j (walking
// forward around the closed curve) that survive Douglas-Peucker.
func appendSimplified(keep []int, pts []image.Point, i, j int, eps2 float64) []int {
	n := len(pts)
	span := (j - i + n) % n
	if span < 2 {
		return keep
	}

	start, end := pts[i], pts[j]
	dx, dy := float64(end.X-start.X), float64(end.Y-start.Y)

	far, farDist := -1, 0.0
	for k := 1; k < span; k++ {
		p := pts[(i+k)%n]
		d := math.Abs(float64(p.Y-start.Y)*dx - float64(p.X-start.X)*dy)
		if d > farDist {
			far, farDist = (i+k)%n, d
		}
	}
	if far < 0 || farDist*farDist <= eps2*(dx*dx+dy*dy) {
		return keep
	}

	keep = appendSimplified(keep, pts, i, far, eps2)
	keep = append(keep, far)
	return appendSimplified(keep, pts, far, j, eps2)
}

// dropCollinear removes points that sit on a nearly straight diagonal run.
func dropCollinear(pts []image.Point, eps2 float64) []image.Point {
	n := len(pts)
	if n <= 2 {
		return pts
	}
	out := make([]image.Point, 0, n)
	start := pts[n-1]
	remaining := n
	for i := 0; i < n; i++ {
		pt, end := pts[i], pts[(i+1)%n]
		dx, dy := float64(end.X-start.X), float64(end.Y-start.Y)
		dist := math.Abs(float64(pt.X-start.X)*dy - float64(pt.Y-start.Y)*dx)
		inner := float64(pt.X-start.X)*float64(end.X-pt.X) + float64(pt.Y-start.Y)*float64(end.Y-pt.Y)
		if remaining > 2 && dx != 0 && dy != 0 && inner >= 0 && dist*dist <= 0.5*eps2*(dx*dx+dy*dy) {
			remaining--
			continue
		}
		out = append(out, pt)
		start = pt
	}
	return out
}

func sqDist(p, q image.Point) int {
	dx, dy := q.X-p.X, q.Y-p.Y
	return dx*dx + dy*dy
}

// IsConvex reports whether a closed polygon turns the same way, strictly, at
// every vertex. Collinear or repeated vertices make it non-convex.
func IsConvex(pts []image.Point) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	sign := 0
	for i := range pts {
		a, b, c := pts[i], pts[(i+1)%n], pts[(i+2)%n]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		s := 0
		switch {
		case cross > 0:
			s = 1
		case cross < 0:
			s = -1
		}
		if s == 0 || (sign != 0 && s != sign) {
			return false
		}
		sign = s
	}
	return true
}

// reduceToQuad drops vertices of a convex polygon until four remain, each
// time removing the vertex whose triangle with its neighbours encloses the
// least area. Ties go to the lowest index.
func reduceToQuad(pts []image.Point) []image.Point {
	pts = append([]image.Point(nil), pts...)
	for len(pts) > 4 {
		n := len(pts)
		drop, least := 0, math.Inf(1)
		for i := range pts {
			prev, next := pts[(i+n-1)%n], pts[(i+1)%n]
			a := math.Abs(SignedArea([]image.Point{prev, pts[i], next}))
			if a < least {
				drop, least = i, a
			}
		}
		pts = append(pts[:drop], pts[drop+1:]...)
	}
	return pts
}
