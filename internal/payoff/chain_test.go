package payoff

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	apperrors "condor-synth/internal/errors"
)

func TestCondorChain_TilingMatchesBruteForce(t *testing.T) {
	params := ChainParams{
		Period:       25,
		Phase:        100,
		HalfWidth:    5,
		PositionSize: 1,
		Domain:       Domain{Lo: 0, Hi: 200},
	}
	chain, err := NewCondorChain(params)
	require.NoError(t, err)

	// Every anchor 100 + k*25 whose support meets (0, 200).
	half := params.Period/4 + params.HalfWidth/2
	var want []float64
	for k := -100; k <= 100; k++ {
		center := params.Phase + float64(k)*params.Period
		if center+half > params.Domain.Lo && center-half < params.Domain.Hi {
			want = append(want, center)
		}
	}

	var got []float64
	for _, c := range chain.Condors() {
		got = append(got, c.Center())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("condor centres mismatch (-want +got):\n%s", diff)
	}

	first, last := chain.Indices()
	require.Equal(t, -4, first)
	require.Equal(t, 4, last)

	// No point of the domain lies strictly inside two supports.
	condors := chain.Condors()
	for i := 0; i <= 2000; i++ {
		x := params.Domain.Lo + params.Domain.Width()*float64(i)/2000
		covering := 0
		for _, c := range condors {
			if x > c.Lower() && x < c.Upper() {
				covering++
			}
		}
		require.LessOrEqualf(t, covering, 1, "x=%f covered by %d condors", x, covering)
	}
}

func TestCondorChain_Shape(t *testing.T) {
	chain, err := NewCondorChain(ChainParams{
		Period:       2 * math.Pi,
		Phase:        math.Pi / 2,
		HalfWidth:    1,
		PositionSize: 1,
		Domain:       Domain{Lo: -3 * math.Pi, Hi: 3 * math.Pi},
	})
	require.NoError(t, err)

	require.Equal(t, 1.0, chain.Peak())
	for _, k := range []float64{-1, 0, 1} {
		center := math.Pi/2 + k*2*math.Pi
		require.InDelta(t, 1, chain.Evaluate(center), tolerance)
		require.InDelta(t, 0, chain.Evaluate(center+math.Pi), tolerance)
		// Halfway between peak and trough the ramp is at half height.
		require.InDelta(t, 0.5, chain.Evaluate(center+math.Pi/2), tolerance)
	}

	legs := chain.Legs()
	require.Len(t, legs, 4*len(chain.Condors()))
	for i := 4; i < len(legs); i += 4 {
		require.Greater(t, legs[i].Strike(), legs[i-4].Strike())
	}
}

func TestCondorChain_AbuttingAtHalfPeriod(t *testing.T) {
	chain, err := NewCondorChain(ChainParams{
		Period:       4,
		Phase:        0,
		HalfWidth:    2,
		PositionSize: 0.5,
		Domain:       Domain{Lo: -8, Hi: 8},
	})
	require.NoError(t, err)

	condors := chain.Condors()
	for i := 1; i < len(condors); i++ {
		require.InDelta(t, condors[i-1].Upper(), condors[i].Lower(), tolerance)
	}
	// Triangle wave between 0 and 1.
	require.InDelta(t, 1, chain.Evaluate(0), tolerance)
	require.InDelta(t, 0.5, chain.Evaluate(1), tolerance)
	require.InDelta(t, 0, chain.Evaluate(2), tolerance)
	require.InDelta(t, 0.5, chain.Evaluate(3), tolerance)
	require.InDelta(t, 1, chain.Evaluate(4), tolerance)
}

func TestCondorChain_DegenerateDomain(t *testing.T) {
	chain, err := NewCondorChain(ChainParams{
		Period:       10,
		Phase:        3,
		HalfWidth:    2,
		PositionSize: 1,
		Domain:       Domain{Lo: 50, Hi: 50},
	})
	require.NoError(t, err)

	condors := chain.Condors()
	require.Len(t, condors, 1)
	require.Equal(t, 3.0, condors[0].Center())
}

func TestCondorChain_AnchorOutsideDomain(t *testing.T) {
	chain, err := NewCondorChain(ChainParams{
		Period:       10,
		Phase:        -40,
		HalfWidth:    2,
		PositionSize: 1,
		Domain:       Domain{Lo: 0, Hi: 20},
	})
	require.NoError(t, err)

	first, last := chain.Indices()
	require.Equal(t, 0, first)
	require.Equal(t, 6, last)

	// Contiguous run from the anchor to the far edge of the domain.
	condors := chain.Condors()
	for i, c := range condors {
		require.InDelta(t, -40+10*float64(i), c.Center(), tolerance)
	}
}

func TestNewCondorChain_Validation(t *testing.T) {
	valid := ChainParams{Period: 10, Phase: 0, HalfWidth: 2, PositionSize: 1, Domain: Domain{Lo: -10, Hi: 10}}

	tests := []struct {
		name   string
		mutate func(p *ChainParams)
		field  string
	}{
		{"zero period", func(p *ChainParams) { p.Period = 0 }, "period"},
		{"negative period", func(p *ChainParams) { p.Period = -1 }, "period"},
		{"zero half width", func(p *ChainParams) { p.HalfWidth = 0 }, "half_width"},
		{"overlapping condors", func(p *ChainParams) { p.HalfWidth = 5.01 }, "half_width"},
		{"inverted domain", func(p *ChainParams) { p.Domain = Domain{Lo: 1, Hi: -1} }, "domain"},
		{"infinite domain", func(p *ChainParams) { p.Domain.Hi = math.Inf(1) }, "domain_hi"},
		{"too many periods", func(p *ChainParams) { p.Period = 1e-6; p.HalfWidth = 1e-7 }, "domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			chain, err := NewCondorChain(p)
			require.Nil(t, chain)
			var ce *apperrors.ConstructionError
			require.ErrorAs(t, err, &ce)
			require.Equal(t, tt.field, ce.Field)
		})
	}
}

// Property: For any consistent parameters, the chain is periodic over the
// interior of its domain and never exceeds its peak.
func TestProperty_ChainIsPeriodicInsideDomain(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("f(x) == f(x+period) and 0 <= f <= peak", prop.ForAll(
		func(period, widthRatio, phase, u float64) bool {
			halfWidth := widthRatio * period / 2
			chain, err := NewCondorChain(ChainParams{
				Period:       period,
				Phase:        phase,
				HalfWidth:    halfWidth,
				PositionSize: 1 / halfWidth,
				Domain:       Domain{Lo: -5 * period, Hi: 5 * period},
			})
			if err != nil {
				t.Logf("unexpected error: %v", err)
				return false
			}

			x := -3*period + u*4*period
			v := chain.Evaluate(x)
			if math.Abs(v-chain.Evaluate(x+period)) > 1e-6 {
				t.Logf("not periodic at x=%f: %f vs %f", x, v, chain.Evaluate(x+period))
				return false
			}
			return v >= -1e-6 && v <= chain.Peak()+1e-6
		},
		gen.Float64Range(1, 50),
		gen.Float64Range(0.01, 1),
		gen.Float64Range(-20, 20),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}
