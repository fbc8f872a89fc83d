// Package sampling evaluates strategies over a grid of underlying values
// and measures how far they deviate from a target function.
//
// The payoff types are immutable, so batches are split across goroutines
// without any coordination with them.
package sampling

import (
	"math"
	"runtime"

	"github.com/montanaflynn/stats"
	"github.com/sourcegraph/conc/iter"

	apperrors "condor-synth/internal/errors"
)

// Point is one sample of a curve.
type Point struct {
	X float64 `json:"x" csv:"x"`
	Y float64 `json:"y" csv:"y"`
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, apperrors.NewValidationError("points", n, "need at least 2 sample points")
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, apperrors.NewValidationError("range", [2]float64{lo, hi}, "bounds must be finite")
	}
	if lo > hi {
		return nil, apperrors.NewValidationError("range", [2]float64{lo, hi}, "lower bound exceeds upper bound")
	}

	xs := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range xs {
		xs[i] = lo + step*float64(i)
	}
	xs[n-1] = hi
	return xs, nil
}

// Sampler evaluates functions over a grid with bounded parallelism.
type Sampler struct {
	workers int
}

// NewSampler returns a Sampler using at most workers goroutines. A value of
// 0 or less defaults to runtime.NumCPU().
func NewSampler(workers int) *Sampler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Sampler{workers: workers}
}

// Workers returns the goroutine limit.
func (s *Sampler) Workers() int { return s.workers }

// Values evaluates f at every x, preserving order.
func (s *Sampler) Values(f func(float64) float64, xs []float64) []float64 {
	mapper := iter.Mapper[float64, float64]{MaxGoroutines: s.workers}
	return mapper.Map(xs, func(x *float64) float64 {
		return f(*x)
	})
}

// Points evaluates f at every x and pairs each input with its value.
func (s *Sampler) Points(f func(float64) float64, xs []float64) []Point {
	ys := s.Values(f, xs)
	points := make([]Point, len(xs))
	for i := range xs {
		points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return points
}

// Deviation summarises the pointwise difference between two sampled curves.
type Deviation struct {
	// Euclidean is the L2 distance between the sample vectors.
	Euclidean float64 `json:"euclidean" csv:"euclidean"`
	// Max is the largest absolute pointwise difference.
	Max float64 `json:"max" csv:"max"`
	// MeanAbs is the mean absolute pointwise difference.
	MeanAbs float64 `json:"mean_abs" csv:"mean_abs"`
}

// Compare measures the deviation of got from want. Both must have the
// same, non-zero length.
func Compare(got, want []float64) (Deviation, error) {
	if len(got) == 0 || len(got) != len(want) {
		return Deviation{}, apperrors.NewValidationError("samples", [2]int{len(got), len(want)}, "sample vectors must be non-empty and equally long")
	}

	euclidean, err := stats.EuclideanDistance(got, want)
	if err != nil {
		return Deviation{}, apperrors.Wrap(err, "euclidean distance")
	}
	chebyshev, err := stats.ChebyshevDistance(got, want)
	if err != nil {
		return Deviation{}, apperrors.Wrap(err, "chebyshev distance")
	}

	abs := make(stats.Float64Data, len(got))
	for i := range got {
		abs[i] = math.Abs(got[i] - want[i])
	}
	meanAbs, err := stats.Mean(abs)
	if err != nil {
		return Deviation{}, apperrors.Wrap(err, "mean deviation")
	}

	return Deviation{Euclidean: euclidean, Max: chebyshev, MeanAbs: meanAbs}, nil
}

// Measure samples f and target over xs and compares them.
func (s *Sampler) Measure(f, target func(float64) float64, xs []float64) (Deviation, error) {
	return Compare(s.Values(f, xs), s.Values(target, xs))
}
