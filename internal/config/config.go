// Package config holds the tunable parameters of the tag decoding pipeline.
//
// A Config is loaded from a JSON file (missing file means defaults) and may be
// overridden by command-line flags. Validate rejects inconsistent settings with
// an error wrapping ErrConfiguration; these are startup failures, never
// per-frame ones.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrConfiguration marks invalid settings or inconsistent reference data.
var ErrConfiguration = errors.New("configuration error")

// Sweep modes for the binarization offset sweep.
const (
	SweepFirst = "first" // stop at the first offset that yields a detection
	SweepBest  = "best"  // try every offset and keep the strongest pass
)

// Grayscale channel policies.
const (
	ChannelNone  = "none"
	ChannelBlue  = "blue"
	ChannelGreen = "green"
	ChannelRed   = "red"
)

// FilterConfig bounds the geometric screening of candidate contours.
//
// Areas are magnitudes in square pixels; the filter compares them against the
// negative signed area of outer borders. Both area bounds are exclusive.
type FilterConfig struct {
	MinVertices       int     `json:"min_vertices"`
	MaxVertices       int     `json:"max_vertices"`
	MinArea           float64 `json:"min_area"`
	MaxArea           float64 `json:"max_area"`
	EdgeMargin        int     `json:"edge_margin"`
	ApproxEpsilon     float64 `json:"approx_epsilon"` // fraction of the contour perimeter
	MinApproxVertices int     `json:"min_approx_vertices"`
	MaxApproxVertices int     `json:"max_approx_vertices"`
	MinPerimeterArea  float64 `json:"min_perimeter_area"` // exclusive
	MaxPerimeterArea  float64 `json:"max_perimeter_area"` // inclusive
}

// Rect is a pixel rectangle; (X1,Y1) inclusive, (X2,Y2) exclusive.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// ResizeRule applies Factor to every frame whose path contains Contains.
type ResizeRule struct {
	Contains string  `json:"contains"`
	Factor   float64 `json:"factor"`
}

// Config holds runtime configuration for the decoder and the batch driver.
type Config struct {
	// Grayscale extraction
	Channel      string  `json:"channel"`
	SmoothRadius float64 `json:"smooth_radius"`

	// Adaptive threshold and offset sweep
	BlockSize int    `json:"block_size"`
	Offsets   []int  `json:"offsets"`
	SweepMode string `json:"sweep_mode"`

	Filter FilterConfig `json:"filter"`

	// Rectification and matching
	RectifySize    int     `json:"rectify_size"`
	PatternSize    int     `json:"pattern_size"`
	MatchThreshold float64 `json:"match_threshold"`

	// Codebook rendering
	WhiteBorder int `json:"white_border"`
	BlackBorder int `json:"black_border"`

	// Frame preparation (batch driver)
	ResizeFactor float64      `json:"resize_factor"`
	ResizeRules  []ResizeRule `json:"resize_rules,omitempty"`
	ROI          *Rect        `json:"roi,omitempty"`

	// Populations maps a population label to its admissible tag IDs.
	Populations map[string]IDSet `json:"populations,omitempty"`
}

// DefaultOffsets is the binarization offset sweep used when none is configured.
var DefaultOffsets = []int{-70, -50, -30, -10, 0, 2}

// DefaultConfig returns a Config populated with the field-tested defaults.
func DefaultConfig() *Config {
	return &Config{
		Channel:      ChannelGreen,
		SmoothRadius: 0,
		BlockSize:    1001,
		Offsets:      append([]int(nil), DefaultOffsets...),
		SweepMode:    SweepFirst,
		Filter: FilterConfig{
			MinVertices:       4,
			MaxVertices:       50,
			MinArea:           70,
			MaxArea:           400,
			EdgeMargin:        1,
			ApproxEpsilon:     0.1,
			MinApproxVertices: 4,
			MaxApproxVertices: 5,
			MinPerimeterArea:  -1,
			MaxPerimeterArea:  0,
		},
		RectifySize:    100,
		PatternSize:    7,
		MatchThreshold: 0.8,
		WhiteBorder:    1,
		BlackBorder:    0,
		ResizeFactor:   0.8,
		ResizeRules:    []ResizeRule{{Contains: "Feeder", Factor: 0.9}},
		Populations:    FieldPopulations(),
	}
}

// FieldPopulations returns the tag allocation of the study colonies P1-P12.
// P11 and P12 carry the full 1-200 range.
func FieldPopulations() map[string]IDSet {
	full := make([]int, 200)
	for i := range full {
		full[i] = i + 1
	}
	return map[string]IDSet{
		"P1":  NewIDSet(4, 14, 24),
		"P2":  NewIDSet(5, 7, 16),
		"P3":  NewIDSet(2, 18, 20),
		"P4":  NewIDSet(12, 13, 22, 26),
		"P5":  NewIDSet(1, 6, 21, 33),
		"P6":  NewIDSet(3, 17, 27),
		"P7":  NewIDSet(8, 10, 15, 29, 30),
		"P8":  NewIDSet(9, 11, 19, 34),
		"P9":  NewIDSet(23, 25, 28, 35),
		"P10": NewIDSet(31, 32),
		"P11": NewIDSet(full...),
		"P12": NewIDSet(full...),
	}
}

// Validate reports the first inconsistent setting. The returned error wraps
// ErrConfiguration.
func (c *Config) Validate() error {
	switch c.Channel {
	case "", ChannelNone, ChannelBlue, ChannelGreen, ChannelRed:
	default:
		return invalid("channel must be blue, green, red or none, got %q", c.Channel)
	}
	if c.SmoothRadius < 0 {
		return invalid("smooth_radius must be >= 0, got %g", c.SmoothRadius)
	}
	if c.BlockSize < 3 || c.BlockSize%2 == 0 {
		return invalid("block_size must be odd and >= 3, got %d", c.BlockSize)
	}
	if len(c.Offsets) == 0 {
		return invalid("offsets must not be empty")
	}
	switch c.SweepMode {
	case "", SweepFirst, SweepBest:
	default:
		return invalid("sweep_mode must be %q or %q, got %q", SweepFirst, SweepBest, c.SweepMode)
	}
	if err := c.Filter.validate(); err != nil {
		return err
	}
	if c.PatternSize < 1 {
		return invalid("pattern_size must be >= 1, got %d", c.PatternSize)
	}
	if c.RectifySize < c.PatternSize {
		return invalid("rectify_size (%d) must be >= pattern_size (%d)", c.RectifySize, c.PatternSize)
	}
	if c.MatchThreshold < -1 || c.MatchThreshold >= 1 {
		return invalid("match_threshold must be in [-1, 1), got %g", c.MatchThreshold)
	}
	if c.WhiteBorder < 0 || c.BlackBorder < 0 {
		return invalid("border widths must be >= 0, got white=%d black=%d", c.WhiteBorder, c.BlackBorder)
	}
	if c.ResizeFactor < 0 {
		return invalid("resize_factor must be >= 0, got %g", c.ResizeFactor)
	}
	for _, r := range c.ResizeRules {
		if r.Contains == "" || r.Factor <= 0 {
			return invalid("resize rule needs a non-empty match and a positive factor, got %+v", r)
		}
	}
	if c.ROI != nil && (c.ROI.X1 < 0 || c.ROI.Y1 < 0 || c.ROI.X1 >= c.ROI.X2 || c.ROI.Y1 >= c.ROI.Y2) {
		return invalid("roi must satisfy 0 <= x1 < x2 and 0 <= y1 < y2, got %+v", *c.ROI)
	}
	return nil
}

func (f FilterConfig) validate() error {
	if f.MinVertices < 3 || f.MaxVertices < f.MinVertices {
		return invalid("vertex range [%d, %d] is invalid", f.MinVertices, f.MaxVertices)
	}
	if f.MinArea < 0 || f.MaxArea <= f.MinArea {
		return invalid("area range (%g, %g) is invalid", f.MinArea, f.MaxArea)
	}
	if f.EdgeMargin < 0 {
		return invalid("edge_margin must be >= 0, got %d", f.EdgeMargin)
	}
	if f.ApproxEpsilon <= 0 || f.ApproxEpsilon >= 1 {
		return invalid("approx_epsilon must be in (0, 1), got %g", f.ApproxEpsilon)
	}
	if f.MinApproxVertices < 4 || f.MaxApproxVertices < f.MinApproxVertices {
		return invalid("approx vertex range [%d, %d] is invalid", f.MinApproxVertices, f.MaxApproxVertices)
	}
	if f.MaxPerimeterArea <= f.MinPerimeterArea {
		return invalid("perimeter/area range (%g, %g] is invalid", f.MinPerimeterArea, f.MaxPerimeterArea)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Population returns the ID set configured for label. An unknown label, or a
// config without populations, reports ok == false.
func (c *Config) Population(label string) (IDSet, bool) {
	set, ok := c.Populations[label]
	return set, ok
}

// ResizeFor returns the frame scale factor for path: the first rule whose
// substring occurs in path, else ResizeFactor.
func (c *Config) ResizeFor(path string) float64 {
	for _, r := range c.ResizeRules {
		if strings.Contains(path, r.Contains) {
			return r.Factor
		}
	}
	return c.ResizeFactor
}

// Load reads configuration from the JSON file at path on top of the defaults.
// A missing file yields DefaultConfig(). Populations named in the file replace
// the default entry of the same label; other labels are kept. The result is
// validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrConfiguration, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
