package payoff

import (
	"math"

	apperrors "condor-synth/internal/errors"
)

// maxRepetitions bounds the number of condors a single chain may materialise.
const maxRepetitions = 1 << 20

// Domain is a closed interval of underlying values.
type Domain struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Width returns Hi - Lo.
func (d Domain) Width() float64 { return d.Hi - d.Lo }

// Contains reports whether x lies in [Lo, Hi].
func (d Domain) Contains(x float64) bool { return x >= d.Lo && x <= d.Hi }

// ChainParams describes a periodic chain of identical condors.
type ChainParams struct {
	// Period is the distance between the centres of neighbouring condors.
	Period float64
	// Phase is the centre of the anchor condor.
	Phase float64
	// HalfWidth is the ramp width of each condor. It must lie in
	// (0, Period/2]; at Period/2 neighbouring condors abut and the plateau
	// shrinks to a point.
	HalfWidth float64
	// PositionSize scales every leg. The peak of the chain is
	// PositionSize*HalfWidth.
	PositionSize float64
	// Domain limits which repetitions are materialised. The anchor is always
	// built, together with every condor whose support meets the domain.
	Domain Domain
}

// CondorChain is a periodic tiling of condors centred at Phase + k*Period.
//
// Each condor spans Period/2 + HalfWidth, so neighbours are separated by a
// flat gap of Period/2 - HalfWidth and their supports never overlap.
type CondorChain struct {
	params  ChainParams
	first   int
	condors []*Condor
}

// NewCondorChain validates params and lays out the condors left to right.
func NewCondorChain(params ChainParams) (*CondorChain, error) {
	if err := checkFinite("condor_chain",
		param{"period", params.Period},
		param{"phase", params.Phase},
		param{"half_width", params.HalfWidth},
		param{"position_size", params.PositionSize},
		param{"domain_lo", params.Domain.Lo},
		param{"domain_hi", params.Domain.Hi},
	); err != nil {
		return nil, err
	}
	if params.Period <= 0 {
		return nil, apperrors.NewConstructionError("condor_chain", "period", params.Period, "must be positive")
	}
	if params.HalfWidth <= 0 {
		return nil, apperrors.NewConstructionError("condor_chain", "half_width", params.HalfWidth, "must be positive")
	}
	if params.HalfWidth > params.Period/2 {
		return nil, apperrors.NewConstructionError("condor_chain", "half_width", params.HalfWidth, "must not exceed period/2, neighbouring condors would overlap")
	}
	if params.Domain.Lo > params.Domain.Hi {
		return nil, apperrors.NewConstructionError("condor_chain", "domain", params.Domain, "lower bound exceeds upper bound")
	}

	half := reach(params)
	span := math.Max(params.Domain.Hi, params.Phase) - math.Min(params.Domain.Lo, params.Phase) + 2*half
	if span/params.Period > maxRepetitions {
		return nil, apperrors.NewConstructionError("condor_chain", "domain", params.Domain, "domain spans too many periods")
	}

	first, last := repetitionRange(params)
	condors := make([]*Condor, 0, last-first+1)
	for k := first; k <= last; k++ {
		center := params.Phase + float64(k)*params.Period
		condors = append(condors, newCondor(center-half, params.HalfWidth, center+half, params.PositionSize))
	}

	return &CondorChain{params: params, first: first, condors: condors}, nil
}

// reach is the distance from a condor's centre to its outer strikes.
func reach(p ChainParams) float64 {
	return p.Period/4 + p.HalfWidth/2
}

// repetitionRange returns the inclusive range of repetition indices to
// build. From the anchor it extends outward in each direction until the next
// condor's open support would no longer meet the domain. An anchor outside
// the domain is still built, together with every repetition between it and
// the domain.
func repetitionRange(p ChainParams) (first, last int) {
	if p.Domain.Lo == p.Domain.Hi {
		return 0, 0
	}

	half := reach(p)
	// Smallest k with Phase + k*Period + half > Lo.
	lo := int(math.Floor((p.Domain.Lo-p.Phase-half)/p.Period)) + 1
	// Largest k with Phase + k*Period - half < Hi.
	hi := int(math.Ceil((p.Domain.Hi-p.Phase+half)/p.Period)) - 1

	return min(0, lo), max(0, hi)
}

// Evaluate sums the materialised condors.
func (c *CondorChain) Evaluate(underlying float64) float64 {
	var total float64
	for _, condor := range c.condors {
		total += condor.Evaluate(underlying)
	}
	return total
}

// Legs flattens all condors' legs, left to right.
func (c *CondorChain) Legs() []Option {
	return flattenLegs(c.condors)
}

// Condors returns the materialised condors, left to right.
func (c *CondorChain) Condors() []*Condor {
	condors := make([]*Condor, len(c.condors))
	copy(condors, c.condors)
	return condors
}

// Indices returns the repetition index of the first and last condor, where
// the anchor is index 0.
func (c *CondorChain) Indices() (first, last int) {
	return c.first, c.first + len(c.condors) - 1
}

// Params returns the parameters the chain was built from.
func (c *CondorChain) Params() ChainParams { return c.params }

// Peak returns the payoff on each condor's plateau.
func (c *CondorChain) Peak() float64 { return c.params.PositionSize * c.params.HalfWidth }
