// Package accuracy computes acquisition and accuracy metrics from a fix series.
//
// Statistics run over every valid fix in the session. Nothing is windowed or
// rejected as an outlier; outliers show up in the error series instead.
package accuracy

import (
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"

	"gnss-analyzer/internal/geo"
	"gnss-analyzer/internal/gps"
	"gnss-analyzer/internal/series"
)

// Summary holds the session metrics. Pointer fields are nil when the value
// is unavailable (no valid fix was acquired), never zero or NaN.
type Summary struct {
	TTFF       *float64       `json:"ttff_s"`
	FirstFix   *gps.TimeOfDay `json:"-"`
	CEP50      *float64       `json:"cep50_m"`
	CEP95      *float64       `json:"cep95_m"`
	RMS        *float64       `json:"rms_m"`
	MinError   *float64       `json:"min_error_m"`
	MaxError   *float64       `json:"max_error_m"`
	TotalFixes int            `json:"total_fixes"`
	ValidFixes int            `json:"valid_fixes"`
}

// FixAcquired reports whether any valid fix was seen.
func (s Summary) FixAcquired() bool { return s.ValidFixes > 0 }

type Result struct {
	Summary Summary
	// Errors is the horizontal radial error of each valid fix, in log order.
	Errors []float64
	// Sorted is Errors in ascending order.
	Sorted []float64
	// CrossCheck is the largest difference between the local-plane error and
	// the haversine distance to the reference, nil without valid fixes.
	CrossCheck *float64
}

// Compute derives all metrics from s.
func Compute(s series.Series) Result {
	var res Result
	res.Summary.TotalFixes = len(s.Entries)

	maxDiff := 0.0
	for _, e := range s.Entries {
		if !e.Valid() {
			continue
		}
		if res.Summary.TTFF == nil {
			ttff := e.ElapsedSeconds()
			tod := e.Fix.Time
			res.Summary.TTFF = &ttff
			res.Summary.FirstFix = &tod
		}
		errM := e.Offset.Horizontal()
		res.Errors = append(res.Errors, errM)

		if pos := e.Fix.Position; pos != nil {
			p := geo.Point{LatDeg: pos.LatDeg, LonDeg: pos.LonDeg}
			if d := math.Abs(errM - geo.Haversine(s.Reference, p)); d > maxDiff {
				maxDiff = d
			}
		}
	}
	res.Summary.ValidFixes = len(res.Errors)
	if len(res.Errors) == 0 {
		return res
	}

	res.Sorted = slices.Clone(res.Errors)
	slices.Sort(res.Sorted)

	cep50 := Percentile(res.Sorted, 0.50)
	cep95 := Percentile(res.Sorted, 0.95)
	rms := RMS(res.Errors)
	lo := floats.Min(res.Sorted)
	hi := floats.Max(res.Sorted)
	res.Summary.CEP50 = &cep50
	res.Summary.CEP95 = &cep95
	res.Summary.RMS = &rms
	res.Summary.MinError = &lo
	res.Summary.MaxError = &hi
	res.CrossCheck = &maxDiff
	return res
}

// NearestRankIndex returns ceil(p*n)-1 clamped to [0, n-1].
func NearestRankIndex(n int, p float64) int {
	i := int(math.Ceil(p*float64(n))) - 1
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	return i
}

// Percentile selects the nearest-rank value from an ascending slice. There
// is no interpolation: the result is always one of the samples. It panics on
// an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		panic("accuracy: percentile of empty slice")
	}
	return sorted[NearestRankIndex(len(sorted), p)]
}

// RMS is sqrt(mean(x²)). It panics on an empty slice.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		panic("accuracy: rms of empty slice")
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}
