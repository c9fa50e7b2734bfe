package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/tag-tracker/internal/config"
)

// newQuadrantFrame creates a frame with a different colour in each quadrant.
func newQuadrantFrame(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			case y < height/2:
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	img := newQuadrantFrame(100, 100)

	out, err := Crop(img, config.Rect{X1: 50, Y1: 0, X2: 100, Y2: 40})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if out.Bounds() != image.Rect(0, 0, 50, 40) {
		t.Errorf("bounds: got %v, want (0,0)-(50,40)", out.Bounds())
	}

	// The top-right quadrant is green
	r, g, b, _ := out.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("pixel (10,10): got (%d,%d,%d), want (0,255,0)", r>>8, g>>8, b>>8)
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := newQuadrantFrame(100, 100)

	tests := []struct {
		name string
		roi  config.Rect
	}{
		{"outside right", config.Rect{X1: 50, Y1: 0, X2: 101, Y2: 10}},
		{"negative origin", config.Rect{X1: -1, Y1: 0, X2: 10, Y2: 10}},
		{"inverted x", config.Rect{X1: 40, Y1: 0, X2: 10, Y2: 10}},
		{"empty", config.Rect{X1: 10, Y1: 10, X2: 10, Y2: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.roi); err == nil {
				t.Errorf("Crop(%+v) should fail", tt.roi)
			}
		})
	}
}
