package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/tag-tracker/internal/config"
)

func TestGrayscale_Channels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{100, 150, 200, 255})
		}
	}

	tests := []struct {
		ch   string
		want uint8
	}{
		{config.ChannelRed, 100},
		{config.ChannelGreen, 150},
		{config.ChannelBlue, 200},
		{config.ChannelNone, 141}, // 0.299*100 + 0.587*150 + 0.114*200
		{"", 141},
	}

	for _, tt := range tests {
		t.Run(tt.ch, func(t *testing.T) {
			gray, err := Grayscale(img, tt.ch)
			if err != nil {
				t.Fatalf("Grayscale failed: %v", err)
			}
			if gray.Bounds() != image.Rect(0, 0, 4, 3) {
				t.Errorf("bounds: got %v, want (0,0)-(4,3)", gray.Bounds())
			}
			got := gray.GrayAt(2, 1).Y
			if diff := int(got) - int(tt.want); diff < -1 || diff > 1 {
				t.Errorf("GrayAt(2,1): got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGrayscale_OffsetBounds(t *testing.T) {
	base := newQuadrantFrame(20, 20)
	sub := base.SubImage(image.Rect(10, 0, 20, 10)).(*image.RGBA)

	gray, err := Grayscale(sub, config.ChannelGreen)
	if err != nil {
		t.Fatalf("Grayscale failed: %v", err)
	}
	if gray.Bounds().Min != (image.Point{}) {
		t.Errorf("result not origin-anchored: %v", gray.Bounds())
	}
	if got := gray.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("green channel of top-right quadrant: got %d, want 255", got)
	}
}

func TestGrayscale_Rejects(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)

	tests := []struct {
		name string
		img  image.Image
		want error
	}{
		{"gray", image.NewGray(rect), ErrInvalidImage},
		{"gray16", image.NewGray16(rect), ErrInvalidImage},
		{"rgba64", image.NewRGBA64(rect), ErrInvalidImage},
		{"cmyk", image.NewCMYK(rect), ErrInvalidImage},
		{"empty", image.NewRGBA(image.Rect(0, 0, 0, 0)), ErrInvalidImage},
		{"nil", nil, ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Grayscale(tt.img, config.ChannelGreen)
			if !errors.Is(err, tt.want) {
				t.Errorf("Grayscale: got %v, want %v", err, tt.want)
			}
		})
	}

	_, err := Grayscale(image.NewRGBA(rect), "purple")
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("unknown channel: got %v, want ErrConfiguration", err)
	}
}
