package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/tag-tracker/internal/codebook"
	"github.com/ironsheep/tag-tracker/internal/config"
)

// asymmetric 5x5 tags, 1 = white
var testTags = map[int][]uint8{
	5: {
		1, 0, 0, 1, 1,
		0, 1, 1, 0, 0,
		1, 1, 0, 0, 1,
		0, 0, 0, 1, 0,
		1, 0, 1, 1, 0,
	},
	7: {
		0, 1, 1, 0, 0,
		1, 1, 0, 1, 0,
		0, 0, 1, 0, 1,
		1, 0, 0, 0, 1,
		0, 1, 1, 1, 0,
	},
	16: {
		1, 1, 1, 0, 0,
		0, 0, 1, 1, 0,
		1, 0, 0, 1, 1,
		0, 1, 0, 0, 0,
		0, 1, 1, 0, 1,
	},
}

func testCodebook(t *testing.T) *codebook.Codebook {
	t.Helper()
	ids := []int{5, 7, 16}
	patterns := [][]uint8{testTags[5], testTags[7], testTags[16]}
	cb, err := codebook.New(ids, patterns, 5)
	if err != nil {
		t.Fatalf("codebook.New failed: %v", err)
	}
	return cb
}

func testMatrix(t *testing.T) *codebook.Matrix {
	t.Helper()
	m, err := testCodebook(t).Restrict(codebook.All, codebook.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Restrict failed: %v", err)
	}
	return m
}

func testDecoder(t *testing.T, cfg *config.Config) *Decoder {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d, err := NewDecoder(cfg, testMatrix(t))
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	return d
}

// newFrame returns a width x height RGB frame filled with gray level bg.
func newFrame(width, height int, bg uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{bg, bg, bg, 255})
		}
	}
	return img
}

// tagPlacement positions an 11x11-cell printed tag (2-cell black frame,
// 1-cell white margin, 5x5 bits) in a frame: cell (u, v) lands at
// origin + cell*(u*col + v*row) in continuous pixel coordinates.
type tagPlacement struct {
	originX, originY float64
	cell             float64
	shear            float64 // horizontal shift per row, in cells
}

// renderTag draws bits (already rotated as wanted) into img.
func renderTag(img *image.RGBA, bits codebook.Pattern, p tagPlacement) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// inverse of the forward map at the pixel centre
			v := (float64(y) + 0.5 - p.originY) / p.cell
			u := (float64(x)+0.5-p.originX)/p.cell - p.shear*v
			if u < 0 || v < 0 || u >= 11 || v >= 11 {
				continue
			}
			cu, cv := int(math.Floor(u)), int(math.Floor(v))

			var level uint8
			switch {
			case cu < 2 || cv < 2 || cu > 8 || cv > 8:
				level = 0
			case cu == 2 || cv == 2 || cu == 8 || cv == 8:
				level = 255
			default:
				level = 255 * bits.At(cv-3, cu-3)
			}
			img.SetRGBA(x, y, color.RGBA{level, level, level, 255})
		}
	}
}

// tagCentre returns the expected centroid, in pixel-centre coordinates, of a
// tag rendered without shear.
func tagCentre(p tagPlacement) (float64, float64) {
	return p.originX + 5.5*p.cell - 0.5, p.originY + 5.5*p.cell - 0.5
}

// warpedPlacement centres an 11x11-cell printed tag at (cx, cy), turned
// counter-clockwise on screen by angle degrees, with a keystone term k that
// grows the cells along the tag's own x axis.
type warpedPlacement struct {
	cx, cy float64
	cell   float64
	angle  float64
	k      float64
}

// homography returns the cell-to-pixel map of p in homogeneous coordinates.
func (p warpedPlacement) homography() *mat.Dense {
	a := p.cell
	sin, cos := math.Sincos(p.angle * math.Pi / 180)
	return mat.NewDense(3, 3, []float64{
		a*cos + p.cx*p.k, a * sin, -5.5*a*(cos+sin) + p.cx*(1-5.5*p.k),
		-a*sin + p.cy*p.k, a * cos, 5.5*a*(sin-cos) + p.cy*(1-5.5*p.k),
		p.k, 0, 1 - 5.5*p.k,
	})
}

func project(h mat.Matrix, x, y float64) (float64, float64) {
	w := h.At(2, 0)*x + h.At(2, 1)*y + h.At(2, 2)
	return (h.At(0, 0)*x + h.At(0, 1)*y + h.At(0, 2)) / w,
		(h.At(1, 0)*x + h.At(1, 1)*y + h.At(1, 2)) / w
}

// renderWarped draws bits (already rotated as wanted) into img through the
// placement's homography, sampling at pixel centres.
func renderWarped(t *testing.T, img *image.RGBA, bits codebook.Pattern, p warpedPlacement) {
	t.Helper()
	var inv mat.Dense
	if err := inv.Inverse(p.homography()); err != nil {
		t.Fatalf("placement is singular: %v", err)
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			u, v := project(&inv, float64(x)+0.5, float64(y)+0.5)
			if u < 0 || v < 0 || u >= 11 || v >= 11 {
				continue
			}
			cu, cv := int(math.Floor(u)), int(math.Floor(v))

			var level uint8
			switch {
			case cu < 2 || cv < 2 || cu > 8 || cv > 8:
				level = 0
			case cu == 2 || cv == 2 || cu == 8 || cv == 8:
				level = 255
			default:
				level = 255 * bits.At(cv-3, cu-3)
			}
			img.SetRGBA(x, y, color.RGBA{level, level, level, 255})
		}
	}
}

// warpedCentre returns the mean, in pixel-centre coordinates, of the four
// projected corners of the white square the contour follows.
func warpedCentre(p warpedPlacement) (float64, float64) {
	h := p.homography()
	var sx, sy float64
	for _, c := range [][2]float64{{2, 2}, {9, 2}, {9, 9}, {2, 9}} {
		x, y := project(h, c[0], c[1])
		sx += x
		sy += y
	}
	return sx/4 - 0.5, sy/4 - 0.5
}

func variant(t *testing.T, id, r int) codebook.Pattern {
	t.Helper()
	e, ok := testCodebook(t).Lookup(id)
	if !ok {
		t.Fatalf("id %d not in test codebook", id)
	}
	return e.Variants[r]
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
