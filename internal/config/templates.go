package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrTemplateExists is returned by WriteTemplate when the file is already there.
var ErrTemplateExists = errors.New("config file already exists")

const configTemplate = `# condor-synth configuration
#
# Numeric values given as strings are expressions: pi, tau and e are
# available, e.g. "2*pi" or "-3*pi".

[approximation]
# Period of the target wave and of every condor chain
period = "2*pi"
# Where the target wave peaks
phase = "pi/2"
# Number of condor chains in the series
terms = 20
# Chains are materialised over [domain_lo, domain_hi]
domain_lo = "-3*pi"
domain_hi = "3*pi"
# Peak-to-trough height of the approximation
magnitude = 1.0

[sampling]
# Number of evenly spaced sample points
points = 1000
# Sample range; keep it inside the approximation domain
range_lo = "-2*pi"
range_hi = "2*pi"
# Goroutines used for batch evaluation (0 = number of CPUs)
workers = 0
# Target function of x used by convergence studies
target = "0.5*sin(x)+0.5"

[study]
# Term counts compared by 'condor-synth converge'
terms = [5, 10, 20, 50]
# Allowed increase of the deviation between consecutive term counts
tolerance = 0.0

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to stderr
console = true
# Log to a rotating file
file = false
file_path = ""
# Rotation settings (megabytes, files, days)
max_size = 20
max_backups = 3
max_age = 14
`

// WriteTemplate writes a commented configuration file into configDir and
// returns its path. An existing file is left untouched.
func WriteTemplate(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, FileName+".toml")
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%w at %s", ErrTemplateExists, path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}
