package detection

import (
	"image"

	"github.com/ironsheep/tag-tracker/internal/config"
)

// Filter screens candidate contours for tag-like quadrilaterals.
//
// A Filter is immutable and safe for concurrent use.
type Filter struct {
	cfg config.FilterConfig
}

// NewFilter returns a filter using the given bounds.
func NewFilter(cfg config.FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Accept runs the geometric tests on a contour from a width x height frame
// and returns the four corners of the simplified outline in contour order.
//
// The tests run in order and stop at the first failure:
//
//  1. raw vertex count within [MinVertices, MaxVertices];
//  2. raw signed area strictly between -MaxArea and -MinArea (outer borders
//     only, since holes have positive area);
//  3. no point within EdgeMargin of the frame border;
//  4. the Douglas-Peucker outline at ApproxEpsilon x perimeter has between
//     MinApproxVertices and MaxApproxVertices vertices, is convex and has a
//     signed area in the same band;
//  5. perimeter / signed area within (MinPerimeterArea, MaxPerimeterArea].
//
// A five-vertex outline is reduced to four by reduceToQuad. Degenerate
// contours are rejected, never reported as errors.
func (f *Filter) Accept(c Contour, width, height int) ([]image.Point, bool) {
	cfg := f.cfg

	if len(c) < cfg.MinVertices || len(c) > cfg.MaxVertices {
		return nil, false
	}

	area := SignedArea(c)
	if !f.inAreaBand(area) {
		return nil, false
	}

	m := cfg.EdgeMargin
	for _, p := range c {
		if p.X <= m || p.Y <= m || p.X >= width-m || p.Y >= height-m {
			return nil, false
		}
	}

	perimeter := ArcLength(c)
	approx := ApproxPoly(c, cfg.ApproxEpsilon*perimeter)
	if len(approx) < cfg.MinApproxVertices || len(approx) > cfg.MaxApproxVertices {
		return nil, false
	}
	if !f.inAreaBand(SignedArea(approx)) || !IsConvex(approx) {
		return nil, false
	}

	ratio := perimeter / area
	if ratio <= cfg.MinPerimeterArea || ratio > cfg.MaxPerimeterArea {
		return nil, false
	}

	if len(approx) > 4 {
		approx = reduceToQuad(approx)
	}
	return approx, true
}

func (f *Filter) inAreaBand(area float64) bool {
	return area < -f.cfg.MinArea && area > -f.cfg.MaxArea
}
