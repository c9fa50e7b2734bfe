package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/tag-tracker/internal/config"
)

// Crop extracts the region of interest from a frame.
//
// The returned image is anchored at the origin; callers add roi's top-left
// corner back to any coordinates measured on it.
func Crop(img image.Image, roi config.Rect) (*image.NRGBA, error) {
	bounds := img.Bounds()

	if roi.X1 < bounds.Min.X || roi.Y1 < bounds.Min.Y || roi.X2 > bounds.Max.X || roi.Y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			roi.X1, roi.Y1, roi.X2, roi.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if roi.X1 >= roi.X2 || roi.Y1 >= roi.Y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return imaging.Crop(img, image.Rect(roi.X1, roi.Y1, roi.X2, roi.Y2)), nil
}
