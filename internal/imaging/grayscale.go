package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/channel"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/tag-tracker/internal/config"
)

// ErrInvalidImage reports a frame whose pixel layout the decoder cannot use.
var ErrInvalidImage = errors.New("invalid image")

// Grayscale reduces an 8-bit colour frame to a single intensity channel.
//
// Parameters:
//   - img: an 8-bit, three-channel colour raster.
//   - ch: "blue", "green" or "red" selects that raw channel; "none" or ""
//     applies ITU-R BT.601 luminance (0.299*R + 0.587*G + 0.114*B).
//
// A single channel (green in particular) often carries less sensor noise than
// the luminance blend under artificial light; the choice is a calibration knob.
//
// Returns an error wrapping ErrInvalidImage for grayscale, 16-bit, CMYK or
// empty inputs, and one wrapping config.ErrConfiguration for an unknown channel.
func Grayscale(img image.Image, ch string) (*image.Gray, error) {
	if err := checkColor(img); err != nil {
		return nil, err
	}

	switch ch {
	case config.ChannelBlue:
		return anchor(channel.Extract(img, channel.Blue)), nil
	case config.ChannelGreen:
		return anchor(channel.Extract(img, channel.Green)), nil
	case config.ChannelRed:
		return anchor(channel.Extract(img, channel.Red)), nil
	case config.ChannelNone, "":
		return redPlane(imaging.Grayscale(img)), nil
	default:
		return nil, fmt.Errorf("%w: unknown channel %q", config.ErrConfiguration, ch)
	}
}

// checkColor enforces the three-channel, 8-bit precondition.
func checkColor(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: image is nil", ErrInvalidImage)
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%w: image is empty", ErrInvalidImage)
	}

	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.YCbCr, *image.Paletted:
		return nil
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		return fmt.Errorf("%w: image must be color, got %T", ErrInvalidImage, img)
	case *image.RGBA64, *image.NRGBA64:
		return fmt.Errorf("%w: image must be 8-bit per channel, got %T", ErrInvalidImage, img)
	case *image.CMYK:
		return fmt.Errorf("%w: image must have 3 color channels, got %T", ErrInvalidImage, img)
	default:
		return fmt.Errorf("%w: unsupported pixel layout %T", ErrInvalidImage, img)
	}
}

// redPlane copies the R channel of an origin-anchored NRGBA into a Gray image.
// For imaging.Grayscale output every channel holds the same value.
func redPlane(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			out[x] = row[x*4]
		}
	}
	return dst
}

// anchor moves g's bounds to the origin without copying pixels.
func anchor(g *image.Gray) *image.Gray {
	if g.Rect.Min == (image.Point{}) {
		return g
	}
	return &image.Gray{Pix: g.Pix, Stride: g.Stride, Rect: g.Rect.Sub(g.Rect.Min)}
}
