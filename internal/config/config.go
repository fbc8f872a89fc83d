// Package config provides configuration management for condor-synth.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apperrors "condor-synth/internal/errors"
	"condor-synth/internal/expr"
	"condor-synth/internal/logging"
	"condor-synth/internal/payoff"
)

// FileName is the configuration file name without extension.
const FileName = "condor-synth"

// EnvPrefix prefixes environment overrides, e.g. CONDOR_SYNTH_APPROXIMATION_TERMS.
const EnvPrefix = "CONDOR_SYNTH"

// Config holds all application configuration.
type Config struct {
	Approximation ApproximationConfig `mapstructure:"approximation" json:"approximation"`
	Sampling      SamplingConfig      `mapstructure:"sampling" json:"sampling"`
	Study         StudyConfig         `mapstructure:"study" json:"study"`
	Logging       logging.LogConfig   `mapstructure:"logging" json:"logging"`

	// Source is the file the configuration was read from, empty if only
	// defaults and environment were used.
	Source string `mapstructure:"-" json:"source,omitempty"`
}

// ApproximationConfig holds the default sine approximation parameters.
// Period, phase and domain bounds are expressions.
type ApproximationConfig struct {
	Period    string  `mapstructure:"period" json:"period"`
	Phase     string  `mapstructure:"phase" json:"phase"`
	Terms     int     `mapstructure:"terms" json:"terms"`
	DomainLo  string  `mapstructure:"domain_lo" json:"domain_lo"`
	DomainHi  string  `mapstructure:"domain_hi" json:"domain_hi"`
	Magnitude float64 `mapstructure:"magnitude" json:"magnitude"`
}

// SamplingConfig holds batch evaluation settings.
type SamplingConfig struct {
	Points  int    `mapstructure:"points" json:"points"`
	RangeLo string `mapstructure:"range_lo" json:"range_lo"`
	RangeHi string `mapstructure:"range_hi" json:"range_hi"`
	Workers int    `mapstructure:"workers" json:"workers"`
	Target  string `mapstructure:"target" json:"target"`
}

// StudyConfig holds convergence study settings.
type StudyConfig struct {
	Terms     []int   `mapstructure:"terms" json:"terms"`
	Tolerance float64 `mapstructure:"tolerance" json:"tolerance"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/condor-synth"
	}
	return filepath.Join(home, ".config", "condor-synth")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("approximation.period", "2*pi")
	v.SetDefault("approximation.phase", "pi/2")
	v.SetDefault("approximation.terms", 20)
	v.SetDefault("approximation.domain_lo", "-3*pi")
	v.SetDefault("approximation.domain_hi", "3*pi")
	v.SetDefault("approximation.magnitude", 1.0)

	v.SetDefault("sampling.points", 1000)
	v.SetDefault("sampling.range_lo", "-2*pi")
	v.SetDefault("sampling.range_hi", "2*pi")
	v.SetDefault("sampling.workers", 0)
	v.SetDefault("sampling.target", "0.5*sin(x)+0.5")

	v.SetDefault("study.terms", []int{5, 10, 20, 50})
	v.SetDefault("study.tolerance", 0.0)

	logDefaults := logging.DefaultLogConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.console", logDefaults.Console)
	v.SetDefault("logging.file", logDefaults.File)
	v.SetDefault("logging.file_path", logDefaults.FilePath)
	v.SetDefault("logging.max_size", logDefaults.MaxSize)
	v.SetDefault("logging.max_backups", logDefaults.MaxBackups)
	v.SetDefault("logging.max_age", logDefaults.MaxAge)
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing file
// is not an error: a commented template is written in its place when
// possible, and defaults and environment overrides apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s.toml: %w", FileName, err)
		}
		_, _ = WriteTemplate(configDir)
	} else {
		cfg.Source = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.Approximation.Params(); err != nil {
		return err
	}
	if c.Approximation.Terms < 1 {
		return invalid("approximation.terms", c.Approximation.Terms, "must be at least 1")
	}

	if c.Sampling.Points < 2 {
		return invalid("sampling.points", c.Sampling.Points, "must be at least 2")
	}
	if c.Sampling.Workers < 0 {
		return invalid("sampling.workers", c.Sampling.Workers, "must be non-negative")
	}
	rng, err := c.Sampling.Range()
	if err != nil {
		return err
	}
	if rng.Lo > rng.Hi {
		return invalid("sampling.range_lo", c.Sampling.RangeLo, "exceeds range_hi")
	}
	if _, err := expr.Compile(c.Sampling.Target); err != nil {
		return invalid("sampling.target", c.Sampling.Target, err.Error())
	}

	if len(c.Study.Terms) == 0 {
		return invalid("study.terms", c.Study.Terms, "must list at least one term count")
	}
	for _, n := range c.Study.Terms {
		if n < 1 {
			return invalid("study.terms", c.Study.Terms, "term counts must be at least 1")
		}
	}
	if c.Study.Tolerance < 0 {
		return invalid("study.tolerance", c.Study.Tolerance, "must be non-negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}

	return nil
}

// Params resolves the expressions into sine approximation parameters.
func (a ApproximationConfig) Params() (payoff.SineParams, error) {
	period, err := scalar("approximation.period", a.Period)
	if err != nil {
		return payoff.SineParams{}, err
	}
	if period <= 0 {
		return payoff.SineParams{}, invalid("approximation.period", a.Period, "must be positive")
	}
	phase, err := scalar("approximation.phase", a.Phase)
	if err != nil {
		return payoff.SineParams{}, err
	}
	lo, err := scalar("approximation.domain_lo", a.DomainLo)
	if err != nil {
		return payoff.SineParams{}, err
	}
	hi, err := scalar("approximation.domain_hi", a.DomainHi)
	if err != nil {
		return payoff.SineParams{}, err
	}
	if lo > hi {
		return payoff.SineParams{}, invalid("approximation.domain_lo", a.DomainLo, "exceeds domain_hi")
	}

	return payoff.SineParams{
		Period:    period,
		Phase:     phase,
		Terms:     a.Terms,
		Domain:    payoff.Domain{Lo: lo, Hi: hi},
		Magnitude: a.Magnitude,
	}, nil
}

// Range resolves the sample range expressions.
func (s SamplingConfig) Range() (payoff.Domain, error) {
	lo, err := scalar("sampling.range_lo", s.RangeLo)
	if err != nil {
		return payoff.Domain{}, err
	}
	hi, err := scalar("sampling.range_hi", s.RangeHi)
	if err != nil {
		return payoff.Domain{}, err
	}
	return payoff.Domain{Lo: lo, Hi: hi}, nil
}

func scalar(field, value string) (float64, error) {
	f, err := expr.ParseScalar(value)
	if err != nil {
		return 0, &apperrors.ValidationError{Field: field, Value: value, Message: "not a numeric expression", Err: apperrors.ErrConfigInvalid}
	}
	return f, nil
}

func invalid(field string, value interface{}, message string) error {
	return &apperrors.ValidationError{Field: field, Value: value, Message: message, Err: apperrors.ErrConfigInvalid}
}
