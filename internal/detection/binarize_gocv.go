//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// binarizer produces one thresholded image per sweep offset. Implementations
// holding native resources also implement io.Closer.
type binarizer interface {
	Binarize(offset int) *image.Gray
}

// matBinarizer runs OpenCV's mean adaptive threshold for every offset.
type matBinarizer struct {
	src   gocv.Mat
	w, h  int
	block int
}

func newBinarizer(gray *image.Gray, blockSize int) (binarizer, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: grayscale image is empty", imaging.ErrInvalidImage)
	}
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("%w: block size must be odd and >= 3, got %d", config.ErrConfiguration, blockSize)
	}
	src, err := grayToMat(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return &matBinarizer{src: src, w: gray.Bounds().Dx(), h: gray.Bounds().Dy(), block: blockSize}, nil
}

// Binarize thresholds at mean - offset. On a conversion failure it returns an
// all-background image, which yields no candidates.
func (b *matBinarizer) Binarize(offset int) *image.Gray {
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.AdaptiveThreshold(b.src, &dst, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, b.block, float32(offset))

	img, err := dst.ToImage()
	if err != nil {
		return image.NewGray(image.Rect(0, 0, b.w, b.h))
	}
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	return image.NewGray(image.Rect(0, 0, b.w, b.h))
}

// Close releases the source Mat.
func (b *matBinarizer) Close() error {
	return b.src.Close()
}
