package detection

import (
	"image"
	"time"

	"github.com/golang/geo/r2"
)

// Contour is a closed polygon in integer pixel coordinates, as produced by
// FindContours. The last point connects back to the first.
type Contour []image.Point

// Quad is an accepted tag outline in the order top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]r2.Point

// Corner indices into a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Centroid returns the mean of the four corners.
func (q Quad) Centroid() r2.Point {
	c := q[0].Add(q[1]).Add(q[2]).Add(q[3])
	return c.Mul(0.25)
}

// Match is the best codebook row for one rectified patch.
type Match struct {
	// Row is the index into the comparison matrix.
	Row int `json:"row"`

	// ID is the tag identity of the row.
	ID int `json:"id"`

	// Variant is the rotation index of the row (Row mod 4).
	Variant int `json:"variant"`

	// Score is the Pearson correlation in [-1, 1].
	Score float64 `json:"score"`
}

// Detection is one decoded tag with the geometry it was found at.
type Detection struct {
	Quad  Quad  `json:"-"`
	Match Match `json:"match"`

	// Center is the quad centroid in frame coordinates.
	Center r2.Point `json:"-"`

	// Orientation is the reference-edge heading in degrees, [0, 360).
	Orientation float64 `json:"orientation"`

	// Offset is the threshold offset of the sweep pass that found the tag.
	Offset int `json:"offset"`
}

// Frame is one image handed to the decoder together with its provenance.
type Frame struct {
	// Image is the (possibly cropped and scaled) colour frame.
	Image image.Image

	// Origin is added to every detected coordinate, typically the top-left
	// corner of a region-of-interest crop.
	Origin image.Point

	// Population and Time are copied into every record.
	Population string
	Time       time.Time
}

// Result is the outcome of decoding one frame.
type Result struct {
	Frame      Frame
	Detections []Detection

	// Offset is the threshold offset whose pass was kept. It is the last
	// offset tried when nothing was detected.
	Offset int

	// Passes is the number of threshold offsets evaluated.
	Passes int
}

// Record is the row emitted for one detection.
type Record struct {
	Population  string    `json:"population"`
	Time        time.Time `json:"time"`
	TagID       int       `json:"id"`
	Confidence  float64   `json:"id_prob"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Orientation float64   `json:"orientation"`
}

// Sink receives records one at a time. Emit must not retain the caller's
// buffers; Record is a value type.
type Sink interface {
	Emit(Record) error
}

// Records converts the detections of r into output records.
func (r *Result) Records() []Record {
	out := make([]Record, 0, len(r.Detections))
	for _, d := range r.Detections {
		out = append(out, Record{
			Population:  r.Frame.Population,
			Time:        r.Frame.Time,
			TagID:       d.Match.ID,
			Confidence:  d.Match.Score,
			X:           d.Center.X,
			Y:           d.Center.Y,
			Orientation: d.Orientation,
		})
	}
	return out
}

// IDs returns the tag identities of r's detections in detection order.
func (r *Result) IDs() []int {
	ids := make([]int, len(r.Detections))
	for i, d := range r.Detections {
		ids[i] = d.Match.ID
	}
	return ids
}
