package detection

import (
	"image"
	"sort"

	"github.com/golang/geo/r2"
)

// OrderCorners arranges four corner points as top-left, top-right,
// bottom-right, bottom-left.
//
// The two points with the smallest x form the left side; of those the one
// with the smaller y is top-left. Of the two right-hand points, the one
// farther from top-left is bottom-right. Ties in x are broken by y, and a tie
// in distance keeps the higher (smaller y) point as top-right, so the result
// does not depend on the input order.
func OrderCorners(pts [4]image.Point) Quad {
	p := make([]r2.Point, 4)
	for i, v := range pts {
		p[i] = r2.Point{X: float64(v.X), Y: float64(v.Y)}
	}
	return orderPoints(p)
}

func orderPoints(p []r2.Point) Quad {
	sort.SliceStable(p, func(i, j int) bool {
		if p[i].X != p[j].X {
			return p[i].X < p[j].X
		}
		return p[i].Y < p[j].Y
	})

	tl, bl := p[0], p[1]
	if bl.Y < tl.Y {
		tl, bl = bl, tl
	}

	tr, br := p[2], p[3]
	if tr.Y > br.Y {
		tr, br = br, tr
	}
	if tr.Sub(tl).Norm() > br.Sub(tl).Norm() {
		tr, br = br, tr
	}

	return Quad{tl, tr, br, bl}
}
