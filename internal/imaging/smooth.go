package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
)

// Smooth applies the pre-threshold Gaussian pass to a grayscale frame.
//
// A radius of 0 is the field configuration (a 1x1 kernel) and returns an
// origin-anchored copy of gray.
func Smooth(gray *image.Gray, radius float64) *image.Gray {
	blurred := blur.Gaussian(gray, radius)

	b := blurred.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := blurred.Pix[y*blurred.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			out[x] = row[x*4]
		}
	}
	return dst
}
