package detection

import (
	"fmt"
	"image"
	"io"
	"log"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/tag-tracker/internal/codebook"
	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// Decoder finds and identifies tags in frames.
//
// A Decoder is immutable after construction (apart from SetLogger) and may be
// shared by goroutines decoding different frames.
type Decoder struct {
	cfg    config.Config
	matrix *codebook.Matrix
	filter *Filter
	logger *log.Logger
}

// NewDecoder validates cfg and pairs it with a comparison matrix.
//
// Returns an error wrapping config.ErrConfiguration when cfg is invalid, the
// matrix is empty, or its resolution differs from cfg.PatternSize.
func NewDecoder(cfg *config.Config, m *codebook.Matrix) (*Decoder, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil || m.Len() == 0 {
		return nil, fmt.Errorf("%w: comparison matrix is empty", config.ErrConfiguration)
	}
	if m.Size != cfg.PatternSize {
		return nil, fmt.Errorf("%w: matrix resolution %d does not match pattern_size %d",
			config.ErrConfiguration, m.Size, cfg.PatternSize)
	}
	if len(m.IDs) != len(m.Rows) || len(m.Variants) != len(m.Rows) {
		return nil, fmt.Errorf("%w: id list does not equal row list", config.ErrConfiguration)
	}

	c := *cfg
	c.Offsets = append([]int(nil), cfg.Offsets...)
	return &Decoder{
		cfg:    c,
		matrix: m,
		filter: NewFilter(c.Filter),
	}, nil
}

// SetLogger enables per-candidate debug output. A nil logger disables it.
func (d *Decoder) SetLogger(l *log.Logger) {
	d.logger = l
}

func (d *Decoder) debugf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

// Decode runs the full pipeline on one frame.
//
// The frame is reduced to one grayscale channel, smoothed, and binarized at
// each configured offset in turn. In "first" sweep mode the first offset that
// yields at least one detection ends the sweep and its detections are
// returned unmerged. In "best" mode every offset runs and the pass with the
// most detections wins, then the higher summed confidence, then the earlier
// offset.
//
// A frame without tags gives an empty result and a nil error. A frame that is
// not an 8-bit colour image gives an error wrapping imaging.ErrInvalidImage.
func (d *Decoder) Decode(f Frame) (*Result, error) {
	gray, err := imaging.Grayscale(f.Image, d.cfg.Channel)
	if err != nil {
		return nil, err
	}
	if d.cfg.SmoothRadius > 0 {
		gray = imaging.Smooth(gray, d.cfg.SmoothRadius)
	}

	bin, err := newBinarizer(gray, d.cfg.BlockSize)
	if err != nil {
		return nil, err
	}
	if c, ok := bin.(io.Closer); ok {
		defer c.Close()
	}

	res := &Result{Frame: f}
	var best []Detection
	bestOffset, bestScore := 0, 0.0

	for _, offset := range d.cfg.Offsets {
		dets := d.pass(gray, bin.Binarize(offset), offset, f.Origin)
		res.Passes++
		res.Offset = offset

		if len(dets) == 0 {
			continue
		}
		if d.cfg.SweepMode != config.SweepBest {
			res.Detections = dets
			return res, nil
		}

		score := totalScore(dets)
		if len(dets) > len(best) || (len(dets) == len(best) && score > bestScore) {
			best, bestOffset, bestScore = dets, offset, score
		}
	}

	if len(best) > 0 {
		res.Detections = best
		res.Offset = bestOffset
	}
	return res, nil
}

// DecodeTo decodes f and emits one record per detection to sink, in
// detection order. It stops at the first sink error.
func (d *Decoder) DecodeTo(f Frame, sink Sink) (*Result, error) {
	res, err := d.Decode(f)
	if err != nil {
		return nil, err
	}
	for _, rec := range res.Records() {
		if err := sink.Emit(rec); err != nil {
			return res, fmt.Errorf("failed to emit record: %w", err)
		}
	}
	return res, nil
}

// pass extracts, filters and identifies the candidates of one binarized image.
func (d *Decoder) pass(gray, bin *image.Gray, offset int, origin image.Point) []Detection {
	w, h := bin.Bounds().Dx(), bin.Bounds().Dy()
	shift := r2.Point{X: float64(origin.X), Y: float64(origin.Y)}

	var dets []Detection
	for _, c := range FindContours(bin) {
		pts, ok := d.filter.Accept(c, w, h)
		if !ok {
			continue
		}
		q := OrderCorners([4]image.Point{pts[0], pts[1], pts[2], pts[3]})

		patch, err := Rectify(gray, q, d.cfg.RectifySize)
		if err != nil {
			d.debugf("offset %d: dropping candidate at %v: %v", offset, pts, err)
			continue
		}

		m, ok := BestMatch(imaging.ResizeArea(patch, d.cfg.PatternSize), d.matrix, d.cfg.MatchThreshold)
		if !ok {
			continue
		}

		det := Detection{
			Match:       m,
			Center:      q.Centroid().Add(shift),
			Orientation: Orientation(q, m.Variant),
			Offset:      offset,
		}
		for i := range q {
			det.Quad[i] = q[i].Add(shift)
		}
		d.debugf("offset %d: tag %d score %.3f at (%.1f, %.1f) heading %.0f",
			offset, m.ID, m.Score, det.Center.X, det.Center.Y, det.Orientation)
		dets = append(dets, det)
	}
	return dets
}

func totalScore(dets []Detection) float64 {
	var s float64
	for _, d := range dets {
		s += d.Match.Score
	}
	return s
}
