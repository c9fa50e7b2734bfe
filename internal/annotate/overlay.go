// Package annotate draws decoded tags onto frames for human review.
//
// Each accepted quad is outlined, its reference edge is drawn in a colour
// derived from the tag ID, and the ID is printed at the centroid. The
// overlay is returned as an image, saved to disk, or encoded as base64 PNG
// for the tool server.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/tag-tracker/internal/detection"
	tagimaging "github.com/ironsheep/tag-tracker/internal/imaging"
)

// Options controls the overlay style.
type Options struct {
	// Outline is the quad colour as "#RRGGBB".
	Outline string `json:"outline"`

	// Thickness is the stroke width in pixels.
	Thickness int `json:"thickness"`

	// Labels prints each tag ID at its centroid.
	Labels bool `json:"labels"`
}

// DefaultOptions returns a 1-pixel green outline with labels.
func DefaultOptions() Options {
	return Options{Outline: "#00FF00", Thickness: 1, Labels: true}
}

// Result is an encoded overlay.
type Result struct {
	tagimaging.EncodedImage

	// Tags is the number of detections drawn.
	Tags int `json:"tags"`
}

// Draw returns a copy of img with dets drawn on it. Detection coordinates are
// taken relative to img's top-left corner.
func Draw(img image.Image, dets []detection.Detection, opts Options) (*image.RGBA, error) {
	outline, err := colorful.Hex(opts.Outline)
	if err != nil {
		return nil, fmt.Errorf("invalid outline colour %q: %w", opts.Outline, err)
	}
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	lineColor := rgba(outline)
	for _, d := range dets {
		q := d.Quad
		for i := range q {
			drawLine(result, q[i], q[(i+1)%4], thickness, lineColor)
		}
		a, b := detection.ReferenceEdge(q, d.Match.Variant)
		drawLine(result, a, b, thickness+1, IDColor(d.Match.ID))
	}

	if opts.Labels {
		for _, d := range dets {
			c := d.Quad.Centroid()
			drawLabel(result, c, strconv.Itoa(d.Match.ID), color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 255})
		}
	}
	return result, nil
}

// DrawResult draws res's detections on the frame image they were decoded
// from. Detections are moved back from frame coordinates by the frame origin.
func DrawResult(res *detection.Result, opts Options) (*image.RGBA, error) {
	shift := r2.Point{X: -float64(res.Frame.Origin.X), Y: -float64(res.Frame.Origin.Y)}
	dets := make([]detection.Detection, len(res.Detections))
	for i, d := range res.Detections {
		for j := range d.Quad {
			d.Quad[j] = d.Quad[j].Add(shift)
		}
		d.Center = d.Center.Add(shift)
		dets[i] = d
	}
	return Draw(res.Frame.Image, dets, opts)
}

// IDColor returns a saturated colour for a tag ID. Consecutive IDs are
// spread around the hue circle by the golden angle so that neighbouring
// tags stay distinguishable.
func IDColor(id int) color.RGBA {
	hue := math.Mod(float64(id)*137.50776405, 360)
	return rgba(colorful.Hsv(hue, 0.85, 1))
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Encode renders img as a base64 PNG.
func Encode(img *image.RGBA, tags int) (*Result, error) {
	enc, err := tagimaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &Result{EncodedImage: *enc, Tags: tags}, nil
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}

// drawLine strokes the segment a-b with square pens of side thickness.
func drawLine(img *image.RGBA, a, b r2.Point, thickness int, c color.RGBA) {
	d := b.Sub(a)
	steps := int(math.Ceil(math.Max(math.Abs(d.X), math.Abs(d.Y))))
	if steps == 0 {
		steps = 1
	}
	lo := -(thickness - 1) / 2
	hi := lo + thickness
	for i := 0; i <= steps; i++ {
		p := a.Add(d.Mul(float64(i) / float64(steps)))
		x, y := int(math.Round(p.X)), int(math.Round(p.Y))
		for dy := lo; dy < hi; dy++ {
			for dx := lo; dx < hi; dx++ {
				if image.Pt(x+dx, y+dy).In(img.Rect) {
					img.SetRGBA(x+dx, y+dy, c)
				}
			}
		}
	}
}

// drawLabel prints text centred on at, over a filled background box.
func drawLabel(img *image.RGBA, at r2.Point, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Round()
	x := int(math.Round(at.X)) - width/2
	y := int(math.Round(at.Y)) + 4

	box := image.Rect(x-1, y-face.Ascent+1, x+width+1, y+face.Descent+1)
	draw.Draw(img, box.Intersect(img.Rect), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
