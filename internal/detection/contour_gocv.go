//go:build gocv

package detection

import (
	"image"

	"gocv.io/x/gocv"
)

// FindContours traces the border of every foreground region of a binarized
// image with OpenCV (tree retrieval, simple chain approximation).
//
// The contract matches the pure Go tracer: outer borders have negative
// signed area, hole borders positive, coordinates relative to the image
// origin.
func FindContours(bin *image.Gray) []Contour {
	if bin.Bounds().Empty() {
		return nil
	}
	mat, err := grayToMat(bin)
	if err != nil {
		return nil
	}
	defer mat.Close()

	pv := gocv.FindContours(mat, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer pv.Close()

	contours := make([]Contour, 0, pv.Size())
	for i := 0; i < pv.Size(); i++ {
		contours = append(contours, Contour(pv.At(i).ToPoints()))
	}
	return contours
}

// grayToMat copies an origin-anchored Gray image into a CV_8UC1 Mat.
func grayToMat(g *image.Gray) (gocv.Mat, error) {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	buf := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(buf[y*w:(y+1)*w], g.Pix[y*g.Stride:y*g.Stride+w])
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, buf)
}
