package payoff

import (
	"math"

	apperrors "condor-synth/internal/errors"
)

// SineParams describes a series approximation of a shifted sine wave by
// condor chains.
type SineParams struct {
	// Period of the target wave and of every chain.
	Period float64 `json:"period"`
	// Phase is where the target peaks.
	Phase float64 `json:"phase"`
	// Terms is the number of chains; at least 1.
	Terms int `json:"terms"`
	// Domain over which chains are materialised.
	Domain Domain `json:"domain"`
	// Magnitude is the peak-to-trough height of the result.
	Magnitude float64 `json:"magnitude"`
}

// DefaultSineParams approximates (1/2)sin(x) + 1/2 on (-3π, 3π).
func DefaultSineParams(terms int) SineParams {
	return SineParams{
		Period:    2 * math.Pi,
		Phase:     math.Pi / 2,
		Terms:     terms,
		Domain:    Domain{Lo: -3 * math.Pi, Hi: 3 * math.Pi},
		Magnitude: 1,
	}
}

// Term is the derived configuration of one chain in the series.
type Term struct {
	Index        int     `json:"index" csv:"index"`
	HalfWidth    float64 `json:"half_width" csv:"half_width"`
	Weight       float64 `json:"weight" csv:"weight"`
	PositionSize float64 `json:"position_size" csv:"position_size"`
}

// SineApproximation is a weighted collection of condor chains whose sum
// approaches a sine wave of the given period, phase and magnitude,
// offset so that its trough sits at zero, as Terms grows.
//
// Chain i of n has half-width i*Period/(2n) and weight sin(π/2·i/n)·i/n.
// Its position size is weight/half-width so that its peak contributes
// exactly the weight, and the whole sum is scaled by Magnitude/Σweight.
type SineApproximation struct {
	params    SineParams
	terms     []Term
	weightSum float64
	chains    []*CondorChain
	sum       *Collection
}

// NewSineApproximation derives the chain widths and weights and builds every
// chain. Nothing is returned if any chain fails to build.
func NewSineApproximation(params SineParams) (*SineApproximation, error) {
	if params.Terms < 1 {
		return nil, apperrors.NewConstructionError("sine_approximation", "terms", params.Terms, "must be at least 1")
	}
	if err := checkFinite("sine_approximation", param{"magnitude", params.Magnitude}); err != nil {
		return nil, err
	}

	n := float64(params.Terms)
	terms := make([]Term, 0, params.Terms)
	chains := make([]*CondorChain, 0, params.Terms)
	strategies := make([]Strategy, 0, params.Terms)
	var weightSum float64

	for i := 1; i <= params.Terms; i++ {
		ratio := float64(i) / n
		halfWidth := ratio * params.Period / 2
		weight := math.Sin(math.Pi/2*ratio) * ratio

		term := Term{
			Index:        i,
			HalfWidth:    halfWidth,
			Weight:       weight,
			PositionSize: weight / halfWidth,
		}

		chain, err := NewCondorChain(ChainParams{
			Period:       params.Period,
			Phase:        params.Phase,
			HalfWidth:    term.HalfWidth,
			PositionSize: term.PositionSize,
			Domain:       params.Domain,
		})
		if err != nil {
			return nil, apperrors.Wrapf(err, "term %d", i)
		}

		weightSum += weight
		terms = append(terms, term)
		chains = append(chains, chain)
		strategies = append(strategies, chain)
	}

	return &SineApproximation{
		params:    params,
		terms:     terms,
		weightSum: weightSum,
		chains:    chains,
		sum:       NewCollection(params.Magnitude/weightSum, strategies...),
	}, nil
}

// Evaluate delegates to the underlying weighted collection.
func (s *SineApproximation) Evaluate(underlying float64) float64 {
	return s.sum.Evaluate(underlying)
}

// Legs returns every chain's legs, first term first.
func (s *SineApproximation) Legs() []Option {
	return s.sum.Legs()
}

// Terms returns the derived per-chain configuration.
func (s *SineApproximation) Terms() []Term {
	terms := make([]Term, len(s.terms))
	copy(terms, s.terms)
	return terms
}

// Chains returns the chains in term order, unscaled by the normalisation.
func (s *SineApproximation) Chains() []*CondorChain {
	chains := make([]*CondorChain, len(s.chains))
	copy(chains, s.chains)
	return chains
}

// Weights returns each chain's contribution to the peak after normalisation.
// They always sum to Magnitude.
func (s *SineApproximation) Weights() []float64 {
	scale := s.sum.Magnitude()
	weights := make([]float64, len(s.terms))
	for i, t := range s.terms {
		weights[i] = t.Weight * scale
	}
	return weights
}

// Normalization returns the factor applied to the raw chain sum.
func (s *SineApproximation) Normalization() float64 { return s.sum.Magnitude() }

// WeightSum returns the sum of the raw, unnormalised weights.
func (s *SineApproximation) WeightSum() float64 { return s.weightSum }

// Params returns the parameters the approximation was built from.
func (s *SineApproximation) Params() SineParams { return s.params }

// Target returns the wave being approximated.
func (s *SineApproximation) Target() func(float64) float64 {
	p := s.params
	return func(x float64) float64 {
		return p.Magnitude/2*math.Cos(2*math.Pi*(x-p.Phase)/p.Period) + p.Magnitude/2
	}
}
