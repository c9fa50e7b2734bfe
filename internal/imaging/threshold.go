package imaging

import (
	"fmt"
	"image"

	"github.com/ironsheep/tag-tracker/internal/config"
)

// LocalMean holds the rounded blockSize x blockSize neighbourhood mean of
// every pixel of a grayscale frame.
//
// The means do not depend on the threshold offset, so the decoder computes
// them once per frame and binarizes once per offset.
type LocalMean struct {
	src   *image.Gray
	means []uint8
	w, h  int
}

// NewLocalMean computes the neighbourhood means of gray.
//
// blockSize must be odd and at least 3; otherwise the error wraps
// config.ErrConfiguration.
//
// # Algorithm
//
// The box sum is separable. Each row is summed with a prefix table, where
// window positions left of column 0 (right of the last column) count the
// first (last) pixel again; the column pass repeats this over the row sums.
// Means are rounded to the nearest integer.
func NewLocalMean(gray *image.Gray, blockSize int) (*LocalMean, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: grayscale image is empty", ErrInvalidImage)
	}
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("%w: block size must be odd and >= 3, got %d", config.ErrConfiguration, blockSize)
	}

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	r := blockSize / 2

	// Horizontal pass
	rowSums := make([]int64, w*h)
	prefix := make([]int64, w+1)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int64(row[x])
		}
		first, last := int64(row[0]), int64(row[w-1])
		for x := 0; x < w; x++ {
			rowSums[y*w+x] = windowSum(prefix, x, r, w, first, last)
		}
	}

	// Vertical pass
	n := int64(blockSize) * int64(blockSize)
	means := make([]uint8, w*h)
	col := make([]int64, h+1)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y+1] = col[y] + rowSums[y*w+x]
		}
		first, last := rowSums[x], rowSums[(h-1)*w+x]
		for y := 0; y < h; y++ {
			sum := windowSum(col, y, r, h, first, last)
			means[y*w+x] = uint8((sum + n/2) / n)
		}
	}

	return &LocalMean{src: gray, means: means, w: w, h: h}, nil
}

// windowSum returns the sum over indices [i-r, i+r] of a sequence of length n
// with prefix table p, replicating the first and last values past the ends.
func windowSum(p []int64, i, r, n int, first, last int64) int64 {
	lo, hi := i-r, i+r
	var sum int64
	if lo < 0 {
		sum += int64(-lo) * first
		lo = 0
	}
	if hi > n-1 {
		sum += int64(hi-(n-1)) * last
		hi = n - 1
	}
	return sum + p[hi+1] - p[lo]
}

// Mean returns the neighbourhood mean at (x, y), origin-relative.
func (m *LocalMean) Mean(x, y int) uint8 {
	return m.means[y*m.w+x]
}

// Binarize returns a 0/255 image with 255 wherever src - mean > -offset.
//
// Negative offsets raise the threshold above the local mean, so only pixels
// clearly brighter than their surroundings survive; positive offsets admit
// pixels slightly darker than the mean.
func (m *LocalMean) Binarize(offset int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, m.w, m.h))
	for y := 0; y < m.h; y++ {
		row := m.src.Pix[y*m.src.Stride:]
		out := dst.Pix[y*dst.Stride:]
		means := m.means[y*m.w:]
		for x := 0; x < m.w; x++ {
			if int(row[x])-int(means[x]) > -offset {
				out[x] = 255
			}
		}
	}
	return dst
}

// AdaptiveThreshold binarizes gray against its local mean in one call.
//
// Parameters:
//   - gray: single-channel 8-bit frame.
//   - blockSize: odd neighbourhood side length (field default 1001).
//   - offset: constant subtracted from the mean; see LocalMean.Binarize.
func AdaptiveThreshold(gray *image.Gray, blockSize, offset int) (*image.Gray, error) {
	m, err := NewLocalMean(gray, blockSize)
	if err != nil {
		return nil, err
	}
	return m.Binarize(offset), nil
}
