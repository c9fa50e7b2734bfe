//go:build !gocv

package detection

import (
	"image"

	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// binarizer produces one thresholded image per sweep offset. Implementations
// holding native resources also implement io.Closer.
type binarizer interface {
	Binarize(offset int) *image.Gray
}

// newBinarizer computes the local means once; each offset then costs a
// single pass over the frame.
func newBinarizer(gray *image.Gray, blockSize int) (binarizer, error) {
	m, err := imaging.NewLocalMean(gray, blockSize)
	if err != nil {
		return nil, err
	}
	return m, nil
}
