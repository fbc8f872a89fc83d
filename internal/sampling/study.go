package sampling

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	apperrors "condor-synth/internal/errors"
	"condor-synth/internal/logging"
	"condor-synth/internal/payoff"
)

// Study compares sine approximations built with increasing term counts
// against a target function over a sample range.
type Study struct {
	// Base supplies every parameter but Terms.
	Base payoff.SineParams
	// Terms lists the term counts to try.
	Terms []int
	// Range is sampled with Points evenly spaced values. Keep it inside
	// Base.Domain to stay clear of the tiling edges.
	Range  payoff.Domain
	Points int
	// Target defaults to the approximation's own Target() when nil.
	Target func(float64) float64
}

// StudyRow is the outcome for one term count.
type StudyRow struct {
	Terms   int           `json:"terms" csv:"terms"`
	Chains  int           `json:"chains" csv:"chains"`
	Legs    int           `json:"legs" csv:"legs"`
	Elapsed time.Duration `json:"elapsed_ns" csv:"elapsed_ns"`
	Deviation
}

// Runner executes studies with a shared sampler.
type Runner struct {
	sampler *Sampler
	logger  zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(sampler *Sampler, logger zerolog.Logger) *Runner {
	return &Runner{sampler: sampler, logger: logger}
}

// Run builds one approximation per term count, concurrently, and returns
// the rows sorted by term count. It stops early if ctx is cancelled before
// all approximations are measured.
func (r *Runner) Run(ctx context.Context, study Study) ([]StudyRow, error) {
	if len(study.Terms) == 0 {
		return nil, apperrors.NewValidationError("terms", study.Terms, "at least one term count is required")
	}
	xs, err := Linspace(study.Range.Lo, study.Range.Hi, study.Points)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		row StudyRow
		err error
	}

	mapper := iter.Mapper[int, outcome]{MaxGoroutines: r.sampler.Workers()}
	outcomes := mapper.Map(study.Terms, func(n *int) outcome {
		if err := ctx.Err(); err != nil {
			return outcome{err: err}
		}
		row, err := r.measure(study, *n, xs)
		return outcome{row: row, err: err}
	})

	rows := make([]StudyRow, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			return nil, o.err
		}
		rows = append(rows, o.row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Terms < rows[j].Terms })

	for _, row := range rows {
		logging.LogStudy(r.logger, row.Terms, row.Legs, row.Euclidean, row.Max)
	}
	return rows, nil
}

func (r *Runner) measure(study Study, terms int, xs []float64) (StudyRow, error) {
	start := time.Now()

	params := study.Base
	params.Terms = terms
	approx, err := payoff.NewSineApproximation(params)
	if err != nil {
		return StudyRow{}, apperrors.Wrapf(err, "building approximation with %d terms", terms)
	}
	logging.LogConstruction(r.logger, "sine_approximation", len(approx.Legs()), time.Since(start))

	target := study.Target
	if target == nil {
		target = approx.Target()
	}

	// Samples are evaluated serially here; Run already spreads term counts
	// across the sampler's goroutines.
	got := make([]float64, len(xs))
	want := make([]float64, len(xs))
	for i, x := range xs {
		got[i] = approx.Evaluate(x)
		want[i] = target(x)
	}
	dev, err := Compare(got, want)
	if err != nil {
		return StudyRow{}, err
	}

	return StudyRow{
		Terms:     terms,
		Chains:    len(approx.Chains()),
		Legs:      len(approx.Legs()),
		Elapsed:   time.Since(start),
		Deviation: dev,
	}, nil
}

// Converging reports whether the Euclidean deviation never increases by
// more than tolerance from one row to the next.
func Converging(rows []StudyRow, tolerance float64) bool {
	for i := 1; i < len(rows); i++ {
		if rows[i].Euclidean > rows[i-1].Euclidean+tolerance {
			return false
		}
	}
	return true
}
