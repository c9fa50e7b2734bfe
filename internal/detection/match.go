package detection

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/tag-tracker/internal/codebook"
)

// Correlate returns the Pearson correlation of two equal-length vectors,
// clamped to [-1, 1]. It is NaN when either vector is constant or the lengths
// differ.
func Correlate(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return math.NaN()
	}
	if stat.Variance(a, nil) == 0 || stat.Variance(b, nil) == 0 {
		return math.NaN()
	}
	r := stat.Correlation(a, b, nil)
	return math.Max(-1, math.Min(1, r))
}

// Scores correlates patch against every row of m.
func Scores(patch []float64, m *codebook.Matrix) []float64 {
	out := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		out[i] = Correlate(patch, row)
	}
	return out
}

// BestMatch finds the matrix row most correlated with patch.
//
// The first row reaching the maximum wins. NaN scores never win. The match
// is reported only when its score is strictly greater than threshold.
func BestMatch(patch []float64, m *codebook.Matrix, threshold float64) (Match, bool) {
	best := Match{Row: -1, Score: math.Inf(-1)}
	for i, s := range Scores(patch, m) {
		if math.IsNaN(s) || s <= best.Score {
			continue
		}
		best = Match{Row: i, ID: m.IDs[i], Variant: m.Variants[i], Score: s}
	}
	if best.Row < 0 || !(best.Score > threshold) {
		return Match{}, false
	}
	return best, true
}
