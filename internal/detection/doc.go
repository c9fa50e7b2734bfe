// Package detection finds printed bit-matrix tags in a frame and identifies
// them against a codebook.
//
// # Pipeline
//
// Decoder.Decode runs, for each frame:
//
//  1. Grayscale: one colour channel (green by default) or BT.601 luminance
//  2. Smoothing: an optional Gaussian pass (off by default)
//  3. Offset sweep: adaptive mean thresholding at each configured offset
//  4. Candidates: FindContours on the binarized image
//  5. Geometry: Filter.Accept keeps small convex quadrilaterals
//  6. Corners: OrderCorners labels them top-left, top-right, bottom-right, bottom-left
//  7. Rectify: a perspective warp into a square patch, area-resampled to the
//     codebook resolution
//  8. Match: Pearson correlation against every codebook row (BestMatch)
//  9. Orientation: the matched rotation picks a reference edge; its heading
//     from the tag centre is the tag's orientation
//
// # Coordinate System
//
// Positions use the image convention (origin top-left, y down) and pixel
// centres at integer coordinates. Orientation is the exception: it is
// measured counter-clockwise from the positive x axis, as if y pointed up,
// and lies in [0, 360).
//
// # Contour Winding
//
// Outer borders of foreground regions have negative shoelace area and hole
// borders positive area. The geometric filter relies on this to discard holes.
//
// # Build Tags
//
// Building with -tags gocv replaces the pure Go threshold and contour stages
// with OpenCV through gocv. Both honour the same contracts.
package detection
