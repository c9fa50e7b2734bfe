// Package codebook holds the set of known tag identities and their bit
// patterns, and renders them into the comparison matrix the detector
// correlates rectified patches against.
//
// # Patterns
//
// A tag is a square grid of bits (5x5 for the field tags), 1 meaning white.
// Every identity carries four variants: the canonical pattern rotated
// counter-clockwise by 0, 90, 180 and 270 degrees. The variant index of a
// match is what later tells the detector which way the tag is facing.
//
// # Comparison Matrix
//
// Restrict keeps only the identities a population may carry, surrounds each
// variant with its printed margin (see AddBorder), area-resamples it to the
// comparison resolution and flattens it into one row. Rows are grouped four
// per identity in variant order, so row index mod 4 is the variant.
//
// A Matrix is immutable once built and may be shared between goroutines.
package codebook
