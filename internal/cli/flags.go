package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"condor-synth/internal/expr"
	"condor-synth/internal/payoff"
	"condor-synth/internal/sampling"
)

// Numeric flags are strings so that expressions such as "2*pi" or "-3*pi"
// can be passed. An unset flag falls back to the given default expression.

func scalarFlag(cmd *cobra.Command, name, fallback string) (float64, error) {
	value, _ := cmd.Flags().GetString(name)
	if !cmd.Flags().Changed(name) && fallback != "" {
		value = fallback
	}
	v, err := expr.ParseScalar(value)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return v, nil
}

func addOptionFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", "call", "Option kind (call/put, CE/PE)")
	cmd.Flags().String("side", "long", "Position side (long/short, buy/sell)")
	cmd.Flags().String("strike", "100", "Strike price")
	cmd.Flags().String("size", "1", "Number of contracts")
	cmd.Flags().String("premium", "0", "Premium paid per position")
}

func buildOption(cmd *cobra.Command) (payoff.Option, error) {
	kindStr, _ := cmd.Flags().GetString("kind")
	sideStr, _ := cmd.Flags().GetString("side")

	kind, err := payoff.ParseOptionKind(kindStr)
	if err != nil {
		return payoff.Option{}, err
	}
	side, err := payoff.ParseSide(sideStr)
	if err != nil {
		return payoff.Option{}, err
	}
	strike, err := scalarFlag(cmd, "strike", "")
	if err != nil {
		return payoff.Option{}, err
	}
	size, err := scalarFlag(cmd, "size", "")
	if err != nil {
		return payoff.Option{}, err
	}
	premium, err := scalarFlag(cmd, "premium", "")
	if err != nil {
		return payoff.Option{}, err
	}

	return payoff.NewOption(kind, strike, side, size, premium)
}

func addCondorFlags(cmd *cobra.Command) {
	cmd.Flags().String("lower", "90", "Lowest strike")
	cmd.Flags().String("diff", "7.5", "Width of each vertical spread")
	cmd.Flags().String("upper", "110", "Highest strike")
	cmd.Flags().String("size", "1", "Position size")
	cmd.Flags().Bool("butterfly", false, "Build a butterfly from --inner and --spread")
	cmd.Flags().String("inner", "100", "Butterfly inner strike")
	cmd.Flags().String("spread", "7.5", "Butterfly wing width")
}

func buildCondor(cmd *cobra.Command) (*payoff.Condor, error) {
	size, err := scalarFlag(cmd, "size", "")
	if err != nil {
		return nil, err
	}

	if butterfly, _ := cmd.Flags().GetBool("butterfly"); butterfly {
		inner, err := scalarFlag(cmd, "inner", "")
		if err != nil {
			return nil, err
		}
		spread, err := scalarFlag(cmd, "spread", "")
		if err != nil {
			return nil, err
		}
		return payoff.NewButterfly(inner, spread, size)
	}

	lower, err := scalarFlag(cmd, "lower", "")
	if err != nil {
		return nil, err
	}
	diff, err := scalarFlag(cmd, "diff", "")
	if err != nil {
		return nil, err
	}
	upper, err := scalarFlag(cmd, "upper", "")
	if err != nil {
		return nil, err
	}
	return payoff.NewCondor(lower, diff, upper, size)
}

// addWaveFlags registers the flags shared by chains and approximations.
// Defaults come from the [approximation] config section.
func addWaveFlags(cmd *cobra.Command) {
	cmd.Flags().String("period", "", "Period of the wave (default from config)")
	cmd.Flags().String("phase", "", "Centre of the anchor repetition (default from config)")
	cmd.Flags().String("domain-lo", "", "Lower bound of the tiled domain (default from config)")
	cmd.Flags().String("domain-hi", "", "Upper bound of the tiled domain (default from config)")
}

type wave struct {
	period float64
	phase  float64
	domain payoff.Domain
}

func buildWave(cmd *cobra.Command, app *App) (wave, error) {
	defaults := app.Config.Approximation

	period, err := scalarFlag(cmd, "period", defaults.Period)
	if err != nil {
		return wave{}, err
	}
	phase, err := scalarFlag(cmd, "phase", defaults.Phase)
	if err != nil {
		return wave{}, err
	}
	lo, err := scalarFlag(cmd, "domain-lo", defaults.DomainLo)
	if err != nil {
		return wave{}, err
	}
	hi, err := scalarFlag(cmd, "domain-hi", defaults.DomainHi)
	if err != nil {
		return wave{}, err
	}
	return wave{period: period, phase: phase, domain: payoff.Domain{Lo: lo, Hi: hi}}, nil
}

func addChainFlags(cmd *cobra.Command) {
	addWaveFlags(cmd)
	cmd.Flags().String("half-width", "1", "Ramp width of every condor")
	cmd.Flags().String("size", "1", "Position size of every condor")
}

func buildChain(cmd *cobra.Command, app *App) (*payoff.CondorChain, error) {
	w, err := buildWave(cmd, app)
	if err != nil {
		return nil, err
	}
	halfWidth, err := scalarFlag(cmd, "half-width", "")
	if err != nil {
		return nil, err
	}
	size, err := scalarFlag(cmd, "size", "")
	if err != nil {
		return nil, err
	}

	return payoff.NewCondorChain(payoff.ChainParams{
		Period:       w.period,
		Phase:        w.phase,
		HalfWidth:    halfWidth,
		PositionSize: size,
		Domain:       w.domain,
	})
}

// addShapeFlags registers the wave and magnitude flags without --terms.
func addShapeFlags(cmd *cobra.Command) {
	addWaveFlags(cmd)
	cmd.Flags().String("magnitude", "", "Peak-to-trough height (default from config)")
}

func addSineFlags(cmd *cobra.Command) {
	addShapeFlags(cmd)
	cmd.Flags().Int("terms", 0, "Number of condor chains (default from config)")
}

// sineParams reads the wave shape from cmd with the given term count.
func sineParams(cmd *cobra.Command, app *App, terms int) (payoff.SineParams, error) {
	w, err := buildWave(cmd, app)
	if err != nil {
		return payoff.SineParams{}, err
	}

	magnitude := app.Config.Approximation.Magnitude
	if cmd.Flags().Changed("magnitude") {
		if magnitude, err = scalarFlag(cmd, "magnitude", ""); err != nil {
			return payoff.SineParams{}, err
		}
	}

	return payoff.SineParams{
		Period:    w.period,
		Phase:     w.phase,
		Terms:     terms,
		Domain:    w.domain,
		Magnitude: magnitude,
	}, nil
}

func buildSine(cmd *cobra.Command, app *App) (*payoff.SineApproximation, error) {
	terms := app.Config.Approximation.Terms
	if cmd.Flags().Changed("terms") {
		terms, _ = cmd.Flags().GetInt("terms")
	}
	params, err := sineParams(cmd, app, terms)
	if err != nil {
		return nil, err
	}
	return payoff.NewSineApproximation(params)
}

// addSampleFlags registers the sampling grid flags. A zero points default
// disables sampling unless the flag is set.
func addSampleFlags(cmd *cobra.Command, points int) {
	cmd.Flags().String("from", "", "Start of the sample range")
	cmd.Flags().String("to", "", "End of the sample range")
	cmd.Flags().Int("points", points, "Number of sample points")
	cmd.Flags().String("csv", "", "Write the sampled curve to a CSV file ('-' for stdout)")
}

func sampleGrid(cmd *cobra.Command, fallback payoff.Domain) ([]float64, error) {
	points, _ := cmd.Flags().GetInt("points")
	if points == 0 {
		return nil, nil
	}

	from, to := fallback.Lo, fallback.Hi
	var err error
	if cmd.Flags().Changed("from") {
		if from, err = scalarFlag(cmd, "from", ""); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("to") {
		if to, err = scalarFlag(cmd, "to", ""); err != nil {
			return nil, err
		}
	}
	return sampling.Linspace(from, to, points)
}
