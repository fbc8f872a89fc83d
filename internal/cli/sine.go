package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	apperrors "condor-synth/internal/errors"
	"condor-synth/internal/expr"
	"condor-synth/internal/logging"
	"condor-synth/internal/payoff"
	"condor-synth/internal/sampling"
)

// curveRow pairs the approximation with its target at one point.
type curveRow struct {
	X             float64 `json:"x" csv:"x"`
	Approximation float64 `json:"approximation" csv:"approximation"`
	Target        float64 `json:"target" csv:"target"`
}

// contribution is one chain's share of the approximation at a point.
type contribution struct {
	Term  int     `json:"term"`
	Value float64 `json:"value"`
}

type pointBreakdown struct {
	X             float64        `json:"x"`
	Approximation float64        `json:"approximation"`
	Target        float64        `json:"target"`
	Contributions []contribution `json:"contributions"`
}

type sineReport struct {
	Params    payoff.SineParams  `json:"params"`
	Chains    int                `json:"chains"`
	Legs      int                `json:"legs"`
	Terms     []payoff.Term      `json:"terms"`
	Weights   []float64          `json:"weights"`
	Deviation sampling.Deviation `json:"deviation"`
	At        []pointBreakdown   `json:"at,omitempty"`
}

func addSineCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSineCmd(app))
	rootCmd.AddCommand(newConvergeCmd(app))
	rootCmd.AddCommand(newLegsCmd(app))
}

func newSineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sine",
		Short: "Approximate a sine wave with condor chains",
		Long: `Build a weighted sum of condor chains approximating

  magnitude/2 * cos(2*pi*(x - phase)/period) + magnitude/2

which with the default period 2*pi and phase pi/2 is 0.5*sin(x) + 0.5.
The deviation from the wave is measured over the [sampling] range.`,
		Example: `  condor-synth sine --terms 20
  condor-synth sine --terms 50 --at 0 --at pi/2
  condor-synth sine --terms 10 --csv curve.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			start := time.Now()
			approx, err := buildSine(cmd, app)
			if err != nil {
				return err
			}
			legs := approx.Legs()
			logging.LogConstruction(app.Logger, "sine", len(legs), time.Since(start))

			xs, err := app.sampleRange()
			if err != nil {
				return err
			}
			sampler := app.sampler()
			target := approx.Target()

			start = time.Now()
			got := sampler.Values(approx.Evaluate, xs)
			want := sampler.Values(target, xs)
			logging.LogSample(app.Logger, "sine", len(xs), sampler.Workers(), time.Since(start), nil)

			dev, err := sampling.Compare(got, want)
			if err != nil {
				return err
			}

			if path, _ := cmd.Flags().GetString("csv"); path != "" {
				rows := make([]curveRow, len(xs))
				for i, x := range xs {
					rows[i] = curveRow{X: x, Approximation: got[i], Target: want[i]}
				}
				if err := output.CSV(path, rows); err != nil {
					return err
				}
				if path == "-" {
					return nil
				}
			}

			atExprs, _ := cmd.Flags().GetStringSlice("at")
			var breakdowns []pointBreakdown
			for _, s := range atExprs {
				x, err := expr.ParseScalar(s)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				breakdowns = append(breakdowns, breakdown(approx, x))
			}

			if output.IsJSON() {
				return output.JSON(sineReport{
					Params:    approx.Params(),
					Chains:    len(approx.Chains()),
					Legs:      len(legs),
					Terms:     approx.Terms(),
					Weights:   approx.Weights(),
					Deviation: dev,
					At:        breakdowns,
				})
			}

			p := approx.Params()
			output.Bold("Sine approximation: %d terms, %d legs", p.Terms, len(legs))
			output.Dim("period %s, phase %s, domain [%s, %s], magnitude %s",
				FormatNumber(p.Period), FormatNumber(p.Phase),
				FormatNumber(p.Domain.Lo), FormatNumber(p.Domain.Hi), FormatNumber(p.Magnitude))
			if rng, err := app.Config.Sampling.Range(); err == nil && !(p.Domain.Contains(rng.Lo) && p.Domain.Contains(rng.Hi)) {
				output.Warning("Sample range [%s, %s] leaves the tiled domain; deviation includes edge effects",
					FormatNumber(rng.Lo), FormatNumber(rng.Hi))
			}
			output.Println()

			weights := approx.Weights()
			table := NewTable(output, "Term", "Half Width", "Weight", "Share", "Position Size")
			for i, term := range approx.Terms() {
				table.AddRow(
					fmt.Sprintf("%d", term.Index),
					FormatNumber(term.HalfWidth),
					FormatNumber(term.Weight),
					FormatNumber(weights[i]),
					FormatNumber(term.PositionSize),
				)
			}
			table.Render()
			output.Println()

			output.Printf("Deviation over %d points: euclidean %s, max %s, mean %s\n",
				len(xs), FormatDeviation(dev.Euclidean), FormatDeviation(dev.Max), FormatDeviation(dev.MeanAbs))

			for _, b := range breakdowns {
				output.Println()
				renderBreakdown(output, b)
			}
			return nil
		},
	}

	addSineFlags(cmd)
	cmd.Flags().StringSlice("at", nil, "Show each chain's contribution at these points")
	cmd.Flags().String("csv", "", "Write the sampled curve and target to a CSV file ('-' for stdout)")
	return cmd
}

func breakdown(approx *payoff.SineApproximation, x float64) pointBreakdown {
	b := pointBreakdown{
		X:             x,
		Approximation: approx.Evaluate(x),
		Target:        approx.Target()(x),
	}
	norm := approx.Normalization()
	for i, chain := range approx.Chains() {
		b.Contributions = append(b.Contributions, contribution{Term: i + 1, Value: norm * chain.Evaluate(x)})
	}
	return b
}

func renderBreakdown(output *Output, b pointBreakdown) {
	output.Bold("At x = %s: approximation %s, target %s", FormatNumber(b.X), FormatNumber(b.Approximation), FormatNumber(b.Target))
	table := NewTable(output, "Term", "Contribution")
	for _, c := range b.Contributions {
		if c.Value == 0 {
			continue
		}
		table.AddRow(fmt.Sprintf("%d", c.Term), FormatNumber(c.Value))
	}
	table.Render()
}

type convergeReport struct {
	Target     string              `json:"target"`
	Points     int                 `json:"points"`
	Rows       []sampling.StudyRow `json:"rows"`
	Converging bool                `json:"converging"`
}

func newConvergeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "converge",
		Short: "Measure how the approximation improves with more terms",
		Example: `  condor-synth converge
  condor-synth converge --terms 5,10,20,50 --target "0.5*sin(x)+0.5"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := app.Config

			terms := cfg.Study.Terms
			if cmd.Flags().Changed("terms") {
				terms, _ = cmd.Flags().GetIntSlice("terms")
			}
			tolerance := cfg.Study.Tolerance
			if cmd.Flags().Changed("tolerance") {
				tolerance, _ = cmd.Flags().GetFloat64("tolerance")
			}
			targetExpr := cfg.Sampling.Target
			if cmd.Flags().Changed("target") {
				targetExpr, _ = cmd.Flags().GetString("target")
			}

			target, err := expr.Compile(targetExpr)
			if err != nil {
				return err
			}
			base, err := sineParams(cmd, app, app.Config.Approximation.Terms)
			if err != nil {
				return err
			}
			rng, err := cfg.Sampling.Range()
			if err != nil {
				return err
			}

			runner := sampling.NewRunner(app.sampler(), logging.FromContext(cmd.Context()))
			rows, err := runner.Run(cmd.Context(), sampling.Study{
				Base:   base,
				Terms:  terms,
				Range:  rng,
				Points: cfg.Sampling.Points,
				Target: target.Evaluate,
			})
			if err != nil {
				return err
			}
			converging := sampling.Converging(rows, tolerance)

			if path, _ := cmd.Flags().GetString("csv"); path != "" {
				if err := output.CSV(path, rows); err != nil {
					return err
				}
				if path == "-" {
					return nil
				}
			}

			if output.IsJSON() {
				return output.JSON(convergeReport{
					Target:     target.String(),
					Points:     cfg.Sampling.Points,
					Rows:       rows,
					Converging: converging,
				})
			}

			output.Bold("Convergence against %s over %d points", target.String(), cfg.Sampling.Points)
			output.Println()

			table := NewTable(output, "Terms", "Chains", "Legs", "Euclidean", "Max", "Mean", "Elapsed")
			prev := math.Inf(1)
			for _, row := range rows {
				euclidean := FormatDeviation(row.Euclidean)
				if row.Euclidean > prev+tolerance {
					euclidean = output.ColoredString(ColorRed, euclidean)
				}
				prev = row.Euclidean
				table.AddRow(
					fmt.Sprintf("%d", row.Terms),
					fmt.Sprintf("%d", row.Chains),
					fmt.Sprintf("%d", row.Legs),
					euclidean,
					FormatDeviation(row.Max),
					FormatDeviation(row.MeanAbs),
					FormatDuration(row.Elapsed),
				)
			}
			table.Render()
			output.Println()

			if converging {
				output.Success("Deviation decreases with every added term")
			} else {
				output.Warning("Deviation does not decrease monotonically (tolerance %s)", FormatNumber(tolerance))
			}
			return nil
		},
	}

	addShapeFlags(cmd)
	cmd.Flags().IntSlice("terms", nil, "Term counts to compare (default from config)")
	cmd.Flags().String("target", "", "Target function of x (default from config)")
	cmd.Flags().Float64("tolerance", 0, "Allowed deviation increase between rows (default from config)")
	cmd.Flags().String("csv", "", "Write the study rows to a CSV file ('-' for stdout)")
	return cmd
}

func newLegsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legs",
		Short: "List the option legs of a strategy",
		Long:  "Flatten a strategy into the individual options that replicate it, ordered left to right.",
	}

	legs := func(use, short string, addFlags func(*cobra.Command), build func(*cobra.Command) (payoff.Strategy, error)) *cobra.Command {
		sub := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := build(cmd)
				if err != nil {
					return err
				}
				return renderLegList(cmd, s.Legs())
			},
		}
		addFlags(sub)
		sub.Flags().String("csv", "", "Write the legs to a CSV file ('-' for stdout)")
		return sub
	}

	cmd.AddCommand(legs("option", "Legs of a single option", addOptionFlags,
		func(cmd *cobra.Command) (payoff.Strategy, error) { return buildOption(cmd) }))
	cmd.AddCommand(legs("condor", "Legs of a condor or butterfly", addCondorFlags,
		func(cmd *cobra.Command) (payoff.Strategy, error) { return buildCondor(cmd) }))
	cmd.AddCommand(legs("chain", "Legs of a condor chain", addChainFlags,
		func(cmd *cobra.Command) (payoff.Strategy, error) { return buildChain(cmd, app) }))
	cmd.AddCommand(legs("sine", "Legs of a sine approximation", addSineFlags,
		func(cmd *cobra.Command) (payoff.Strategy, error) { return buildSine(cmd, app) }))

	return cmd
}

func renderLegList(cmd *cobra.Command, legs []payoff.Option) error {
	output := NewOutput(cmd)
	rows := newLegRows(legs)

	if path, _ := cmd.Flags().GetString("csv"); path != "" {
		if len(rows) == 0 {
			return apperrors.NewValidationError("legs", 0, "strategy has no legs")
		}
		if err := output.CSV(path, rows); err != nil {
			return err
		}
		if path == "-" {
			return nil
		}
	}

	if output.IsJSON() {
		return output.JSON(rows)
	}

	renderLegs(output, legs)
	output.Println()
	output.Dim("%d legs", len(legs))
	return nil
}
