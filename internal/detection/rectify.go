package detection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateQuad reports corners that admit no perspective mapping.
var ErrDegenerateQuad = errors.New("degenerate quadrilateral")

// Homography maps canonical patch coordinates onto frame coordinates.
type Homography struct {
	h      [8]float64
	scale  float64
	origin r2.Point
}

// NewHomography solves for the projective map taking the corners of a
// size x size patch, (0,0), (size-1,0), (size-1,size-1), (0,size-1), onto
// q's top-left, top-right, bottom-right and bottom-left corners.
//
// Patch coordinates are scaled to the unit square and frame coordinates are
// taken relative to the top-left corner before solving, which keeps the
// 8x8 system well conditioned for small tags.
func NewHomography(q Quad, size int) (*Homography, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: patch size %d", ErrDegenerateQuad, size)
	}
	origin := q[TopLeft]
	src := [4]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		u, v := src[i].X, src[i].Y
		d := q[i].Sub(origin)
		a.SetRow(2*i, []float64{u, v, 1, 0, 0, 0, -u * d.X, -v * d.X})
		a.SetRow(2*i+1, []float64{0, 0, 0, u, v, 1, -u * d.Y, -v * d.Y})
		b.SetVec(2*i, d.X)
		b.SetVec(2*i+1, d.Y)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateQuad, err)
	}

	hm := &Homography{scale: 1 / float64(size-1), origin: origin}
	for i := range hm.h {
		hm.h[i] = x.AtVec(i)
		if math.IsNaN(hm.h[i]) || math.IsInf(hm.h[i], 0) {
			return nil, ErrDegenerateQuad
		}
	}
	return hm, nil
}

// Map returns the frame position of patch pixel (u, v).
func (hm *Homography) Map(u, v float64) (r2.Point, bool) {
	u *= hm.scale
	v *= hm.scale
	h := hm.h
	w := h[6]*u + h[7]*v + 1
	if w == 0 {
		return r2.Point{}, false
	}
	return r2.Point{
		X: (h[0]*u+h[1]*v+h[2])/w + hm.origin.X,
		Y: (h[3]*u+h[4]*v+h[5])/w + hm.origin.Y,
	}, true
}

// Rectify warps the region of gray inside q into a size x size patch whose
// top-left pixel corresponds to q's top-left corner.
//
// Samples are bilinearly interpolated; neighbours outside the frame read as
// white (255), so a tag touching the border fades to white rather than black.
func Rectify(gray *image.Gray, q Quad, size int) (*image.Gray, error) {
	hm, err := NewHomography(q, size)
	if err != nil {
		return nil, err
	}

	patch := image.NewGray(image.Rect(0, 0, size, size))
	for v := 0; v < size; v++ {
		for u := 0; u < size; u++ {
			p, ok := hm.Map(float64(u), float64(v))
			val := uint8(255)
			if ok {
				val = bilinear(gray, p.X, p.Y)
			}
			patch.Pix[v*patch.Stride+u] = val
		}
	}
	return patch, nil
}

// bilinear samples gray at a fractional position.
func bilinear(gray *image.Gray, x, y float64) uint8 {
	if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x) > 1e7 || math.Abs(y) > 1e7 {
		return 255
	}
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	p00 := pixelOrWhite(gray, ix, iy)
	p10 := pixelOrWhite(gray, ix+1, iy)
	p01 := pixelOrWhite(gray, ix, iy+1)
	p11 := pixelOrWhite(gray, ix+1, iy+1)

	top := p00*(1-fx) + p10*fx
	bottom := p01*(1-fx) + p11*fx
	return uint8(math.Round(top*(1-fy) + bottom*fy))
}

func pixelOrWhite(gray *image.Gray, x, y int) float64 {
	b := gray.Bounds()
	if x < 0 || y < 0 || x >= b.Dx() || y >= b.Dy() {
		return 255
	}
	return float64(gray.Pix[y*gray.Stride+x])
}
