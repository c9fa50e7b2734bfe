//go:build !gocv

package detection

import (
	"image"
)

// neighbourhood offsets in clockwise order (image y grows downward)
var (
	dirX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	dirY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

const (
	dirEast = 0
	dirWest = 4
)

// FindContours traces the border of every foreground (non-zero) region of a
// binarized image, including the borders of holes inside regions.
//
// Each contour is a closed polygon in pixel coordinates, compressed so that
// only the points where the border changes direction remain; the starting
// point is always kept. Outer borders are traced so that their shoelace
// signed area is negative, hole borders so that it is positive. Pixels
// outside the image count as background. Contours are returned in raster
// order of their starting pixel.
//
// # Algorithm
//
// Suzuki and Abe's border following. The image is copied into a label grid
// padded with a one-pixel background frame. A raster scan finds the first
// pixel of each unvisited border: an outer border starts at a 1-pixel whose
// left neighbour is 0, a hole border at a positive pixel whose right neighbour
// is 0. Each border is then followed counter-clockwise around its interior,
// labelling its pixels with the border number (negated where the right
// neighbour is background) so that it is never started twice.
func FindContours(bin *image.Gray) []Contour {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	t := newTracer(bin, w, h)
	var contours []Contour

	nbd := int32(1)
	for y := 1; y <= h; y++ {
		for x := 1; x <= w; x++ {
			i := t.index(x, y)
			f := t.f[i]
			if f == 0 {
				continue
			}

			var from int
			switch {
			case f == 1 && t.f[i-1] == 0:
				from = dirWest
			case f >= 1 && t.f[i+1] == 0:
				from = dirEast
			default:
				continue
			}

			nbd++
			contours = append(contours, t.follow(x, y, from, nbd))
		}
	}
	return contours
}

// tracer holds the padded label grid.
type tracer struct {
	f      []int32
	stride int
}

func newTracer(bin *image.Gray, w, h int) *tracer {
	t := &tracer{f: make([]int32, (w+2)*(h+2)), stride: w + 2}
	for y := 0; y < h; y++ {
		row := bin.Pix[y*bin.Stride : y*bin.Stride+w]
		for x, v := range row {
			if v != 0 {
				t.f[t.index(x+1, y+1)] = 1
			}
		}
	}
	return t
}

func (t *tracer) index(x, y int) int {
	return y*t.stride + x
}

func (t *tracer) at(x, y, d int) int32 {
	return t.f[t.index(x+dirX[d], y+dirY[d])]
}

// follow traces one border starting at (x0, y0), whose background neighbour
// lies in direction from. Coordinates are in the padded grid; the returned
// contour is in image coordinates.
func (t *tracer) follow(x0, y0, from int, nbd int32) Contour {
	// Clockwise search for the last border pixel before returning to the start.
	first := -1
	for k := 0; k < 8; k++ {
		d := (from + k) % 8
		if t.at(x0, y0, d) != 0 {
			first = d
			break
		}
	}
	if first < 0 {
		t.f[t.index(x0, y0)] = -nbd
		return Contour{{X: x0 - 1, Y: y0 - 1}}
	}

	x1, y1 := x0+dirX[first], y0+dirY[first]
	points := []image.Point{{X: x0, Y: y0}}

	x3, y3 := x0, y0
	back := first // direction from (x3, y3) to the previous border pixel
	for {
		// Counter-clockwise search starting just after the previous pixel.
		eastZero := false
		next := back
		for k := 1; k <= 8; k++ {
			d := (back - k + 8) % 8
			if t.at(x3, y3, d) != 0 {
				next = d
				break
			}
			if d == dirEast {
				eastZero = true
			}
		}

		i3 := t.index(x3, y3)
		if eastZero {
			t.f[i3] = -nbd
		} else if t.f[i3] == 1 {
			t.f[i3] = nbd
		}

		x4, y4 := x3+dirX[next], y3+dirY[next]
		if x4 == x0 && y4 == y0 && x3 == x1 && y3 == y1 {
			break
		}

		back = (next + 4) % 8
		x3, y3 = x4, y4
		points = append(points, image.Point{X: x3, Y: y3})
	}

	return compressChain(points)
}

// compressChain keeps the points of a closed pixel chain where the step
// direction changes, plus the first point, and shifts them out of the padded
// frame.
func compressChain(points []image.Point) Contour {
	n := len(points)
	out := make(Contour, 0, n/2+1)
	for i, p := range points {
		prev := points[(i+n-1)%n]
		next := points[(i+1)%n]
		in := p.Sub(prev)
		step := next.Sub(p)
		if i == 0 || in != step {
			out = append(out, image.Point{X: p.X - 1, Y: p.Y - 1})
		}
	}
	return out
}
