package payoff

import (
	"math"

	apperrors "condor-synth/internal/errors"
)

// Condor is a four-leg call spread: long at the lower strike, short at
// lower+diff and upper-diff, long at the upper strike. Its payoff is a
// trapezoid that is zero outside [lower, upper] and equals size*diff on the
// plateau [lower+diff, upper-diff].
type Condor struct {
	lower float64
	diff  float64
	upper float64
	size  float64
	legs  [4]Option
}

// NewCondor builds a condor from its outer strikes and the common distance
// between each outer strike and its neighbouring inner strike.
//
// diff must be positive and lower+diff must not exceed upper-diff.
func NewCondor(lower, diff, upper, size float64) (*Condor, error) {
	if err := checkFinite("condor",
		param{"lower", lower}, param{"diff", diff}, param{"upper", upper}, param{"size", size},
	); err != nil {
		return nil, err
	}
	if diff <= 0 {
		return nil, apperrors.NewConstructionError("condor", "diff", diff, "must be positive")
	}
	if lower+diff > upper-diff {
		return nil, apperrors.NewConstructionError("condor", "upper", upper, "inner strikes cross: lower+diff exceeds upper-diff")
	}
	return newCondor(lower, diff, upper, size), nil
}

// NewButterfly builds the butterfly special case: both inner strikes sit at
// innerStrike and the outer strikes are spread away from it.
func NewButterfly(innerStrike, spread, size float64) (*Condor, error) {
	if err := checkFinite("butterfly",
		param{"inner_strike", innerStrike}, param{"spread", spread}, param{"size", size},
	); err != nil {
		return nil, err
	}
	if spread <= 0 {
		return nil, apperrors.NewConstructionError("butterfly", "spread", spread, "must be positive")
	}
	return newCondor(innerStrike-spread, spread, innerStrike+spread, size), nil
}

// newCondor assumes the strikes were validated by the caller.
func newCondor(lower, diff, upper, size float64) *Condor {
	return &Condor{
		lower: lower,
		diff:  diff,
		upper: upper,
		size:  size,
		legs: [4]Option{
			NewCall(lower, Long, size),
			NewCall(lower+diff, Short, size),
			NewCall(upper-diff, Short, size),
			NewCall(upper, Long, size),
		},
	}
}

// Evaluate sums the four legs.
func (c *Condor) Evaluate(underlying float64) float64 {
	var total float64
	for _, leg := range c.legs {
		total += leg.Evaluate(underlying)
	}
	return total
}

// Legs returns a copy of the four legs, lowest strike first.
func (c *Condor) Legs() []Option {
	legs := make([]Option, len(c.legs))
	copy(legs, c.legs[:])
	return legs
}

func (c *Condor) Lower() float64 { return c.lower }
func (c *Condor) Diff() float64  { return c.diff }
func (c *Condor) Upper() float64 { return c.upper }
func (c *Condor) Size() float64  { return c.size }

// Center returns the midpoint of the outer strikes.
func (c *Condor) Center() float64 { return (c.lower + c.upper) / 2 }

// Plateau returns the payoff on the flat top of the trapezoid.
func (c *Condor) Plateau() float64 { return c.size * c.diff }

type param struct {
	name  string
	value float64
}

func checkFinite(component string, params ...param) error {
	for _, p := range params {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return apperrors.NewConstructionError(component, p.name, p.value, "must be finite")
		}
	}
	return nil
}
