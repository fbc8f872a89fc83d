// Package cli provides the command-line interface for condor-synth.
package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"condor-synth/internal/config"
	"condor-synth/internal/logging"
	"condor-synth/internal/payoff"
	"condor-synth/internal/sampling"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	ConfigDir string
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ConfigDir: config.DefaultConfigDir(),
	}

	rootCmd := &cobra.Command{
		Use:   "condor-synth",
		Short: "Synthesize payoff curves from vanilla options",
		Long: `condor-synth builds payoff diagrams out of calls and puts.

Options combine into vertical condors, condors tile into periodic chains,
and weighted sums of chains approximate a sine wave. Every strategy can be
sampled, tabulated, exported as CSV or flattened into its option legs.

Numeric flags accept expressions such as 2*pi, -3*pi or tau/4.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" {
				cfg, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = cfg
				app.ConfigDir = dir
				app.Logger = logging.NewLoggerWithConfig(cfg.Logging)
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			app.Logger = logging.WithOperation(app.Logger, cmd.Name())
			cmd.SetContext(logging.WithLogger(cmd.Context(), app.Logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/condor-synth)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addStrategyCommands(rootCmd, app)
	addSineCommands(rootCmd, app)

	return rootCmd
}

func (a *App) sampler() *sampling.Sampler {
	return sampling.NewSampler(a.Config.Sampling.Workers)
}

// sample evaluates s over xs, returning nil for an empty grid.
func (a *App) sample(kind string, s payoff.Strategy, xs []float64) []sampling.Point {
	if len(xs) == 0 {
		return nil
	}
	sampler := a.sampler()
	start := time.Now()
	points := sampler.Points(payoff.Func(s), xs)
	logging.LogSample(a.Logger, kind, len(points), sampler.Workers(), time.Since(start), nil)
	return points
}

// sampleRange returns the configured measurement grid.
func (a *App) sampleRange() ([]float64, error) {
	rng, err := a.Config.Sampling.Range()
	if err != nil {
		return nil, err
	}
	return sampling.Linspace(rng.Lo, rng.Hi, a.Config.Sampling.Points)
}

func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("condor-synth v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := filepath.Join(app.ConfigDir, config.FileName+".toml")
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration template",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, err := config.WriteTemplate(app.ConfigDir)
			created := err == nil
			if errors.Is(err, config.ErrTemplateExists) {
				err = nil
			}
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"path": path, "created": created})
			}
			if created {
				output.Success("Configuration template written to %s", path)
			} else {
				output.Info("Configuration file already exists at %s", path)
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	if cfg.Source != "" {
		output.Dim("Loaded from %s", cfg.Source)
	} else {
		output.Dim("Using built-in defaults")
	}
	output.Println()

	a := cfg.Approximation
	output.Bold("Approximation")
	output.Printf("  Period:     %s\n", a.Period)
	output.Printf("  Phase:      %s\n", a.Phase)
	output.Printf("  Terms:      %d\n", a.Terms)
	output.Printf("  Domain:     [%s, %s]\n", a.DomainLo, a.DomainHi)
	output.Printf("  Magnitude:  %s\n", FormatNumber(a.Magnitude))
	output.Println()

	s := cfg.Sampling
	output.Bold("Sampling")
	output.Printf("  Points:     %d\n", s.Points)
	output.Printf("  Range:      [%s, %s]\n", s.RangeLo, s.RangeHi)
	output.Printf("  Workers:    %s\n", workersLabel(s.Workers))
	output.Printf("  Target:     %s\n", s.Target)
	output.Println()

	output.Bold("Study")
	output.Printf("  Terms:      %v\n", cfg.Study.Terms)
	output.Printf("  Tolerance:  %s\n", FormatNumber(cfg.Study.Tolerance))
	output.Println()

	l := cfg.Logging
	output.Bold("Logging")
	output.Printf("  Level:      %s\n", l.Level)
	output.Printf("  Console:    %v\n", l.Console)
	output.Printf("  File:       %v\n", l.File)
	if l.File {
		output.Printf("  File Path:  %s\n", l.FilePath)
	}

	return nil
}

func workersLabel(workers int) string {
	if workers == 0 {
		return "all CPUs"
	}
	return fmt.Sprintf("%d", workers)
}
