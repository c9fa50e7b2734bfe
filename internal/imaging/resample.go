package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// ResizeArea downsamples img to size x size by averaging each output pixel's
// source footprint and returns the intensities in row-major order, scaled to
// [0, 1].
//
// Both the codebook patterns and the rectified patches pass through this
// function so that they are compared at the same resolution with the same
// filter. Only the first channel is read; callers pass grayscale images.
func ResizeArea(img image.Image, size int) []float64 {
	small := imaging.Resize(img, size, size, imaging.Box)

	out := make([]float64, 0, size*size)
	for y := 0; y < size; y++ {
		row := small.Pix[y*small.Stride:]
		for x := 0; x < size; x++ {
			out = append(out, float64(row[x*4])/255)
		}
	}
	return out
}
