package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apperrors "condor-synth/internal/errors"
	"condor-synth/internal/logging"
	"condor-synth/internal/payoff"
	"condor-synth/internal/sampling"
)

// legRow is one option leg in table, JSON and CSV output.
type legRow struct {
	Index   int     `json:"index" csv:"index"`
	Side    string  `json:"side" csv:"side"`
	Kind    string  `json:"kind" csv:"kind"`
	Strike  float64 `json:"strike" csv:"strike"`
	Size    float64 `json:"size" csv:"size"`
	Premium float64 `json:"premium" csv:"premium"`
}

func newLegRows(legs []payoff.Option) []legRow {
	rows := make([]legRow, len(legs))
	for i, leg := range legs {
		rows[i] = legRow{
			Index:   i + 1,
			Side:    string(leg.Side()),
			Kind:    string(leg.Kind()),
			Strike:  leg.Strike(),
			Size:    leg.Size(),
			Premium: leg.Premium(),
		}
	}
	return rows
}

// condorRow describes one repetition of a chain.
type condorRow struct {
	Index   int     `json:"k" csv:"k"`
	Lower   float64 `json:"lower" csv:"lower"`
	Center  float64 `json:"center" csv:"center"`
	Upper   float64 `json:"upper" csv:"upper"`
	Plateau float64 `json:"plateau" csv:"plateau"`
}

type strategyReport struct {
	Strategy string           `json:"strategy"`
	Legs     []legRow         `json:"legs"`
	Condors  []condorRow      `json:"condors,omitempty"`
	Points   []sampling.Point `json:"points,omitempty"`
}

func addStrategyCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newOptionCmd(app))
	rootCmd.AddCommand(newCondorCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
}

func newOptionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "option",
		Short: "Show the payoff of a single option",
		Example: `  condor-synth option --kind call --side long --strike 110 --premium 10
  condor-synth option --kind PE --side sell --strike 95 --from 80 --to 120 --points 9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := buildOption(cmd)
			if err != nil {
				return err
			}
			fallback := payoff.Domain{Lo: opt.Strike() - 20, Hi: opt.Strike() + 20}
			return renderStrategy(cmd, app, "option", opt.String(), opt, nil, fallback)
		},
	}

	addOptionFlags(cmd)
	addSampleFlags(cmd, 9)
	return cmd
}

func newCondorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "condor",
		Short: "Show the payoff of a vertical condor or butterfly",
		Example: `  condor-synth condor --lower 90 --diff 7.5 --upper 110
  condor-synth condor --butterfly --inner 100 --spread 7.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			condor, err := buildCondor(cmd)
			if err != nil {
				return err
			}
			logging.LogConstruction(app.Logger, "condor", len(condor.Legs()), time.Since(start))

			fallback := payoff.Domain{Lo: condor.Lower() - condor.Diff(), Hi: condor.Upper() + condor.Diff()}
			return renderStrategy(cmd, app, "condor", describeCondor(condor), condor, []condorRow{newCondorRow(0, condor)}, fallback)
		},
	}

	addCondorFlags(cmd)
	addSampleFlags(cmd, 9)
	return cmd
}

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Tile a condor periodically over a domain",
		Long: `Build a chain of identical condors repeated every period, centred on
phase + k*period, and keep the repetitions whose support touches the domain.`,
		Example: `  condor-synth chain --period 2*pi --phase pi/2 --half-width 1
  condor-synth chain --period 25 --phase 100 --half-width 5 --domain-lo 0 --domain-hi 200 --points 41`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			chain, err := buildChain(cmd, app)
			if err != nil {
				return err
			}
			logging.LogConstruction(app.Logger, "condor_chain", len(chain.Legs()), time.Since(start))

			first, last := chain.Indices()
			p := chain.Params()
			title := fmt.Sprintf("Condor chain: period %s, phase %s, half width %s, k = %d..%d",
				FormatNumber(p.Period), FormatNumber(p.Phase), FormatNumber(p.HalfWidth), first, last)

			var rows []condorRow
			for i, condor := range chain.Condors() {
				rows = append(rows, newCondorRow(first+i, condor))
			}
			return renderStrategy(cmd, app, "condor_chain", title, chain, rows, p.Domain)
		},
	}

	addChainFlags(cmd)
	addSampleFlags(cmd, 0)
	return cmd
}

func newCondorRow(k int, c *payoff.Condor) condorRow {
	return condorRow{Index: k, Lower: c.Lower(), Center: c.Center(), Upper: c.Upper(), Plateau: c.Plateau()}
}

func describeCondor(c *payoff.Condor) string {
	return fmt.Sprintf("Condor %s/%s/%s/%s x%s, plateau %s",
		FormatNumber(c.Lower()), FormatNumber(c.Lower()+c.Diff()),
		FormatNumber(c.Upper()-c.Diff()), FormatNumber(c.Upper()),
		FormatNumber(c.Size()), FormatNumber(c.Plateau()))
}

// renderStrategy prints a strategy's legs, its condors if any, and its
// payoff over the sample grid.
func renderStrategy(cmd *cobra.Command, app *App, kind, title string, s payoff.Strategy, condors []condorRow, fallback payoff.Domain) error {
	output := NewOutput(cmd)

	xs, err := sampleGrid(cmd, fallback)
	if err != nil {
		return err
	}
	points := app.sample(kind, s, xs)

	if path, _ := cmd.Flags().GetString("csv"); path != "" {
		if len(points) == 0 {
			return apperrors.NewValidationError("points", 0, "--csv needs a positive --points")
		}
		if err := output.CSV(path, points); err != nil {
			return err
		}
		if path == "-" {
			return nil
		}
	}

	if output.IsJSON() {
		return output.JSON(strategyReport{
			Strategy: title,
			Legs:     newLegRows(s.Legs()),
			Condors:  condors,
			Points:   points,
		})
	}

	output.Bold(title)
	output.Println()

	if len(condors) > 1 {
		renderCondors(output, condors)
		output.Println()
		output.Dim("%d legs", len(s.Legs()))
	} else {
		renderLegs(output, s.Legs())
	}

	if len(points) > 0 {
		output.Println()
		table := NewTable(output, "Underlying", "Payoff")
		for _, p := range points {
			table.AddRow(FormatNumber(p.X), output.FormatPayoff(p.Y))
		}
		table.Render()
	}
	return nil
}

func renderLegs(output *Output, legs []payoff.Option) {
	table := NewTable(output, "#", "Side", "Kind", "Strike", "Size", "Premium")
	for _, row := range newLegRows(legs) {
		side := row.Side
		if row.Side == string(payoff.Long) {
			side = output.ColoredString(ColorGreen, side)
		} else {
			side = output.ColoredString(ColorRed, side)
		}
		table.AddRow(
			fmt.Sprintf("%d", row.Index),
			side,
			row.Kind,
			FormatNumber(row.Strike),
			FormatNumber(row.Size),
			FormatNumber(row.Premium),
		)
	}
	table.Render()
}

func renderCondors(output *Output, rows []condorRow) {
	table := NewTable(output, "k", "Lower", "Center", "Upper", "Plateau")
	for _, row := range rows {
		table.AddRow(
			fmt.Sprintf("%d", row.Index),
			FormatNumber(row.Lower),
			FormatNumber(row.Center),
			FormatNumber(row.Upper),
			FormatNumber(row.Plateau),
		)
	}
	table.Render()
}
