package codebook

import (
	"image"
)

// Pattern is a row-major bit grid. Bits hold 0 (black) or 1 (white).
type Pattern struct {
	Rows int
	Cols int
	Bits []uint8
}

// NewPattern wraps bits as a rows x cols pattern without copying.
func NewPattern(rows, cols int, bits []uint8) Pattern {
	return Pattern{Rows: rows, Cols: cols, Bits: bits}
}

// At returns the bit at row r, column c.
func (p Pattern) At(r, c int) uint8 {
	return p.Bits[r*p.Cols+c]
}

// Rotate returns p turned 90 degrees counter-clockwise.
//
// Output cell (i, j) takes input cell (j, Cols-1-i), so the right-hand column
// of p becomes the top row of the result.
func (p Pattern) Rotate() Pattern {
	out := Pattern{Rows: p.Cols, Cols: p.Rows, Bits: make([]uint8, len(p.Bits))}
	for i := 0; i < out.Rows; i++ {
		for j := 0; j < out.Cols; j++ {
			out.Bits[i*out.Cols+j] = p.At(j, p.Cols-1-i)
		}
	}
	return out
}

// Equal reports whether p and q have the same shape and bits.
func (p Pattern) Equal(q Pattern) bool {
	if p.Rows != q.Rows || p.Cols != q.Cols || len(p.Bits) != len(q.Bits) {
		return false
	}
	for i := range p.Bits {
		if p.Bits[i] != q.Bits[i] {
			return false
		}
	}
	return true
}

// AddBorder surrounds p with a white margin of width white and, outside it,
// a black margin of width black.
//
// The result has (Rows + 2*white + 2*black) rows and the matching number of
// columns. The printed field tags use white=1, black=0: the thresholded
// contour follows the outer edge of the white margin, so the black frame
// around it never appears inside a rectified patch.
func AddBorder(p Pattern, white, black int) Pattern {
	pad := white + black
	out := Pattern{Rows: p.Rows + 2*pad, Cols: p.Cols + 2*pad}
	out.Bits = make([]uint8, out.Rows*out.Cols)

	for r := black; r < out.Rows-black; r++ {
		for c := black; c < out.Cols-black; c++ {
			out.Bits[r*out.Cols+c] = 1
		}
	}
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			out.Bits[(r+pad)*out.Cols+c+pad] = p.At(r, c)
		}
	}
	return out
}

// Image renders p as a grayscale image with scale x scale pixels per bit,
// 255 for white bits and 0 for black.
func (p Pattern) Image(scale int) *image.Gray {
	if scale < 1 {
		scale = 1
	}
	img := image.NewGray(image.Rect(0, 0, p.Cols*scale, p.Rows*scale))
	for y := 0; y < p.Rows*scale; y++ {
		for x := 0; x < p.Cols*scale; x++ {
			if p.At(y/scale, x/scale) != 0 {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}
