package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"condor-synth/internal/config"
	apperrors "condor-synth/internal/errors"
	"condor-synth/internal/sampling"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(config.Default(), zerolog.Nop())
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func executeJSON(t *testing.T, v interface{}, args ...string) {
	t.Helper()
	out, err := execute(t, append(args, "--json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestOptionCmd_JSON(t *testing.T) {
	var report strategyReport
	executeJSON(t, &report, "option", "--kind", "call", "--strike", "100", "--premium", "2",
		"--from", "90", "--to", "110", "--points", "3")

	require.Len(t, report.Legs, 1)
	require.Equal(t, "CALL", report.Legs[0].Kind)
	require.Equal(t, "LONG", report.Legs[0].Side)
	require.Equal(t, []sampling.Point{{X: 90, Y: -2}, {X: 100, Y: -2}, {X: 110, Y: 8}}, report.Points)
}

func TestOptionCmd_Table(t *testing.T) {
	out, err := execute(t, "option", "--kind", "PE", "--side", "sell", "--strike", "95")
	require.NoError(t, err)
	require.Contains(t, out, "SHORT PUT")
	require.Contains(t, out, "Underlying")
	require.Contains(t, out, "-20")
}

func TestOptionCmd_InvalidKind(t *testing.T) {
	_, err := execute(t, "option", "--kind", "straddle")
	require.ErrorIs(t, err, apperrors.ErrInputValidation)
}

func TestCondorCmd(t *testing.T) {
	var report strategyReport
	executeJSON(t, &report, "condor", "--lower", "90", "--diff", "7.5", "--upper", "110",
		"--from", "80", "--to", "120", "--points", "5")

	require.Len(t, report.Legs, 4)
	require.Equal(t, []sampling.Point{{X: 80, Y: 0}, {X: 90, Y: 0}, {X: 100, Y: 7.5}, {X: 110, Y: 0}, {X: 120, Y: 0}}, report.Points)

	executeJSON(t, &report, "condor", "--butterfly", "--inner", "100", "--spread", "5", "--points", "0")
	require.Len(t, report.Legs, 4)
	require.Equal(t, 95.0, report.Legs[0].Strike)
	require.Equal(t, 105.0, report.Legs[3].Strike)
}

func TestCondorCmd_Crossing(t *testing.T) {
	_, err := execute(t, "condor", "--lower", "100", "--diff", "20", "--upper", "110")
	require.ErrorIs(t, err, apperrors.ErrConstruction)
}

func TestChainCmd_Tiling(t *testing.T) {
	var report strategyReport
	executeJSON(t, &report, "chain", "--period", "25", "--phase", "100", "--half-width", "5",
		"--domain-lo", "0", "--domain-hi", "200")

	require.Len(t, report.Condors, 9)
	require.Equal(t, -4, report.Condors[0].Index)
	require.Equal(t, 4, report.Condors[8].Index)
	require.Len(t, report.Legs, 36)
	require.Empty(t, report.Points)
}

func TestChainCmd_ExpressionFlags(t *testing.T) {
	out, err := execute(t, "chain", "--period", "2*pi", "--phase", "pi/2", "--half-width", "pi/4",
		"--domain-lo", "-3*pi", "--domain-hi", "3*pi", "--points", "5")
	require.NoError(t, err)
	require.Contains(t, out, "period 6.2832")
	require.Contains(t, out, "Payoff")
}

func TestChainCmd_CSVNeedsPoints(t *testing.T) {
	_, err := execute(t, "chain", "--csv", "-")
	require.ErrorIs(t, err, apperrors.ErrInputValidation)
}

func TestSineCmd_JSON(t *testing.T) {
	var report sineReport
	executeJSON(t, &report, "sine", "--terms", "20", "--at", "pi/2")

	require.Equal(t, 20, report.Chains)
	require.Len(t, report.Terms, 20)
	require.Less(t, report.Deviation.Euclidean, 1.0)

	var sum float64
	for _, w := range report.Weights {
		sum += w
	}
	require.InDelta(t, 1, sum, 1e-9)

	require.Len(t, report.At, 1)
	at := report.At[0]
	require.InDelta(t, 1, at.Target, 1e-12)
	var total float64
	for _, c := range at.Contributions {
		total += c.Value
	}
	require.InDelta(t, at.Approximation, total, 1e-9)
}

func TestSineCmd_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.csv")
	_, err := execute(t, "sine", "--terms", "5", "--csv", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rows []curveRow
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, config.Default().Sampling.Points)
	require.InDelta(t, 0.5, rows[0].Target, 1e-9)
}

func TestSineCmd_InvalidTerms(t *testing.T) {
	_, err := execute(t, "sine", "--terms", "0")
	require.ErrorIs(t, err, apperrors.ErrConstruction)
}

func TestConvergeCmd(t *testing.T) {
	var report convergeReport
	executeJSON(t, &report, "converge", "--terms", "5,10,20")

	require.True(t, report.Converging)
	require.Len(t, report.Rows, 3)
	require.Equal(t, 5, report.Rows[0].Terms)
	require.Equal(t, 20, report.Rows[2].Terms)
	require.Greater(t, report.Rows[0].Euclidean, report.Rows[2].Euclidean)
}

func TestConvergeCmd_ShapeFlags(t *testing.T) {
	var report convergeReport
	executeJSON(t, &report, "converge", "--terms", "4,8", "--magnitude", "2",
		"--period", "2*pi", "--target", "sin(x)+1")

	require.Len(t, report.Rows, 2)
	require.Equal(t, 8, report.Rows[1].Terms)
	require.True(t, report.Converging)
}

func TestRootCmd_TermsFlagTypes(t *testing.T) {
	root := NewRootCmd(config.Default(), zerolog.Nop())

	converge, _, err := root.Find([]string{"converge"})
	require.NoError(t, err)
	require.Equal(t, "intSlice", converge.Flags().Lookup("terms").Value.Type())
	require.NotNil(t, converge.Flags().Lookup("magnitude"))

	sine, _, err := root.Find([]string{"sine"})
	require.NoError(t, err)
	require.Equal(t, "int", sine.Flags().Lookup("terms").Value.Type())
}

func TestOutputCSV_File(t *testing.T) {
	output := &Output{writer: &bytes.Buffer{}}
	rows := []curveRow{{X: 0, Approximation: 0.5, Target: 0.5}, {X: 1, Approximation: 0.9, Target: 0.92}}

	path := filepath.Join(t.TempDir(), "curve.csv")
	require.NoError(t, output.CSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []curveRow
	require.NoError(t, gocsv.UnmarshalBytes(data, &got))
	require.Equal(t, rows, got)

	err = output.CSV(filepath.Join(t.TempDir(), "missing", "curve.csv"), rows)
	require.Error(t, err)
	require.Contains(t, err.Error(), "creating")
}

func TestConvergeCmd_BadTarget(t *testing.T) {
	_, err := execute(t, "converge", "--target", "sin(y)")
	require.Error(t, err)
}

func TestLegsCmd(t *testing.T) {
	var rows []legRow
	executeJSON(t, &rows, "legs", "chain", "--period", "25", "--phase", "100", "--half-width", "5",
		"--domain-lo", "0", "--domain-hi", "200")
	require.Len(t, rows, 36)
	require.Equal(t, 1, rows[0].Index)
	require.LessOrEqual(t, rows[0].Strike, rows[35].Strike)

	out, err := execute(t, "legs", "sine", "--terms", "2", "--csv", "-")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "index,side,kind,strike,size,premium"), out)
}

func TestConfigCmds(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "config", "path", "--config", dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, config.FileName+".toml"), strings.TrimSpace(out))

	// Loading the directory writes the template, so init finds it.
	var initResult map[string]interface{}
	executeJSON(t, &initResult, "config", "init", "--config", dir)
	require.Equal(t, false, initResult["created"])

	out, err = execute(t, "config", "validate", "--config", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Configuration is valid")

	var cfg config.Config
	executeJSON(t, &cfg, "config", "show", "--config", dir)
	require.Equal(t, 20, cfg.Approximation.Terms)
	require.Equal(t, filepath.Join(dir, config.FileName+".toml"), cfg.Source)
}

func TestVersionCmd(t *testing.T) {
	var v map[string]string
	executeJSON(t, &v, "version")
	require.Equal(t, Version, v["version"])
}
