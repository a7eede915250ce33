package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shippedScenarios = "../harness/testdata/scenarios"

const passingScenario = `name: bars_power
chart: energy_bars
fixtures:
  energy:
    - {metric: "Power (W)", bulb_type: led, value: 10}
    - {metric: "Power (W)", bulb_type: incandescent, value: 60}
    - {metric: "Power (W)", bulb_type: cfl, value: 14}
flow:
  - set: {param: Attribute, values: {metric: "Power (W)"}}
    expect:
      views:
        - layer: bars
          columns:
            value: [60, 14, 10]
`

const failingScenario = `name: bars_wrong_order
chart: energy_bars
fixtures:
  energy:
    - {metric: "Power (W)", bulb_type: led, value: 10}
    - {metric: "Power (W)", bulb_type: incandescent, value: 60}
flow:
  - set: {param: Attribute, values: {metric: "Power (W)"}}
assertions:
  - type: final_view
    layer: bars
    columns:
      value: [10, 60]
`

func writeScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandShippedScenarios(t *testing.T) {
	out, err := runTestCommand(t, "text", shippedScenarios)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ history_usa_led")
	assert.Contains(t, out, "✓ energy_metric")
	assert.Contains(t, out, "✓ market_hover")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := runTestCommand(t, "text", shippedScenarios, "--filter", "energy_*")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ energy_metric")
	assert.NotContains(t, out, "market_hover")
	assert.Contains(t, out, "1 total")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := runTestCommand(t, "text", shippedScenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass.yaml", passingScenario)
	writeScenario(t, dir, "fail.yaml", failingScenario)

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✓ bars_power")
	assert.Contains(t, out, "✗ bars_wrong_order")
	assert.Contains(t, out, "Assertion failed: final_view")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass.yaml", passingScenario)
	writeScenario(t, dir, "fail.yaml", failingScenario)

	out, err := runTestCommand(t, "json", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)
	for _, s := range resp.Data.Scenarios {
		assert.Len(t, s.TraceID, 64, s.Name)
	}
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass.yaml", passingScenario)

	out, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bars_power (golden updated)")

	golden := filepath.Join(dir, "golden", "bars_power.golden")
	require.FileExists(t, golden)

	out, err = runTestCommand(t, "text", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ bars_power")

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"bars_power"}`), 0o644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bars_power")
	assert.Contains(t, out, "--update")
}

func TestFindScenarioFilesSkipsGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)
	writeScenario(t, dir, "b.yml", passingScenario)
	writeScenario(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	writeScenario(t, filepath.Join(dir, "golden"), "c.yaml", passingScenario)

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)
}
