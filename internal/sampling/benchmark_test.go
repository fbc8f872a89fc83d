package sampling

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"condor-synth/internal/payoff"
)

// BenchmarkNewSineApproximation benchmarks building the series.
func BenchmarkNewSineApproximation(b *testing.B) {
	for _, terms := range []int{10, 50} {
		params := payoff.DefaultSineParams(terms)
		b.Run(fmt.Sprintf("Terms%d", terms), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := payoff.NewSineApproximation(params); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSineEvaluate benchmarks a single evaluation.
func BenchmarkSineEvaluate(b *testing.B) {
	approx, err := payoff.NewSineApproximation(payoff.DefaultSineParams(50))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		approx.Evaluate(float64(i%628) / 100)
	}
}

// BenchmarkSamplerValues compares serial and parallel grid evaluation.
func BenchmarkSamplerValues(b *testing.B) {
	approx, err := payoff.NewSineApproximation(payoff.DefaultSineParams(50))
	if err != nil {
		b.Fatal(err)
	}
	xs, err := Linspace(-2*math.Pi, 2*math.Pi, 1000)
	if err != nil {
		b.Fatal(err)
	}

	b.Run("Serial", func(b *testing.B) {
		sampler := NewSampler(1)
		for i := 0; i < b.N; i++ {
			sampler.Values(approx.Evaluate, xs)
		}
	})

	b.Run("Parallel", func(b *testing.B) {
		sampler := NewSampler(0)
		for i := 0; i < b.N; i++ {
			sampler.Values(approx.Evaluate, xs)
		}
	})
}

// BenchmarkStudy benchmarks a full convergence study.
func BenchmarkStudy(b *testing.B) {
	runner := NewRunner(NewSampler(0), zerolog.Nop())
	study := Study{
		Base:   payoff.DefaultSineParams(1),
		Terms:  []int{5, 10, 20, 50},
		Range:  payoff.Domain{Lo: -2 * math.Pi, Hi: 2 * math.Pi},
		Points: 1000,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := runner.Run(context.Background(), study); err != nil {
			b.Fatal(err)
		}
	}
}
