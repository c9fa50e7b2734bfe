package imaging

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/tag-tracker/internal/config"
)

// ChannelStat summarizes one grayscale policy over a region.
type ChannelStat struct {
	Channel string  `json:"channel"`
	Mean    float64 `json:"mean"`   // 0-255
	StdDev  float64 `json:"stddev"` // 0-255
}

// ChannelReport compares the grayscale policies on one frame region.
type ChannelReport struct {
	Channels []ChannelStat `json:"channels"`

	// Recommended is the policy with the largest standard deviation.
	Recommended string `json:"recommended"`
}

// CompareChannels measures how much intensity spread each grayscale policy
// leaves in region (the whole frame when region is nil).
//
// Over a region around a printed tag the policy with the widest spread
// separates the cells best. Ties keep the earlier policy in the order
// green, red, blue, none.
func CompareChannels(img image.Image, region *config.Rect) (*ChannelReport, error) {
	if region != nil {
		cropped, err := Crop(img, *region)
		if err != nil {
			return nil, err
		}
		img = cropped
	}

	report := &ChannelReport{}
	best := -1.0
	for _, ch := range []string{config.ChannelGreen, config.ChannelRed, config.ChannelBlue, config.ChannelNone} {
		gray, err := Grayscale(img, ch)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s channel: %w", ch, err)
		}
		b := gray.Bounds()
		values := make([]float64, 0, b.Dx()*b.Dy())
		for y := 0; y < b.Dy(); y++ {
			for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()] {
				values = append(values, float64(v))
			}
		}
		mean, std := stat.PopMeanStdDev(values, nil)

		report.Channels = append(report.Channels, ChannelStat{Channel: ch, Mean: mean, StdDev: std})
		if std > best {
			best = std
			report.Recommended = ch
		}
	}
	return report, nil
}
