package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/jiaxingx0718/ledstory/internal/engine"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// GoldenDir is the default fixture directory for trace goldens.
const GoldenDir = "testdata/golden"

// GoldenSuffix is appended to the scenario name to form the golden file name.
const GoldenSuffix = ".golden"

// TraceSnapshot captures the trace and final selections of a scenario run.
// Serialized with canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string                      `json:"scenario_name"`
	Chart        string                      `json:"chart"`
	Trace        []TraceEvent                `json:"trace"`
	Params       map[string]engine.Selection `json:"params"`
}

// NewSnapshot builds the snapshot of a finished run.
func NewSnapshot(scenario *Scenario, result *Result) TraceSnapshot {
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		Chart:        scenario.Chart,
		Trace:        result.Trace,
		Params:       map[string]engine.Selection{},
	}
	if final := result.Final(); final != nil && final.Params != nil {
		snap.Params = final.Params
	}
	return snap
}

// GoldenBytes returns the canonical JSON of the run's snapshot.
func GoldenBytes(scenario *Scenario, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(NewSnapshot(scenario, result))
}

// TraceID returns the content hash of the run's snapshot.
func TraceID(scenario *Scenario, result *Result) (string, error) {
	return ir.TraceHash(NewSnapshot(scenario, result))
}

// GoldenPath returns the golden file for scenario under dir.
func GoldenPath(dir string, scenario *Scenario) string {
	return filepath.Join(dir, scenario.Name+GoldenSuffix)
}

// CompareGolden checks a run against its golden file outside of go test.
// When update is set the golden file is (re)written instead.
func CompareGolden(dir string, scenario *Scenario, result *Result, update bool) error {
	got, err := GoldenBytes(scenario, result)
	if err != nil {
		return err
	}
	path := GoldenPath(dir, scenario)

	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create golden dir: %w", err)
		}
		return os.WriteFile(path, got, 0o644)
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read golden: %w", err)
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("trace for %s differs from %s", scenario.Name, path)
	}
	return nil
}

// RunWithGolden executes a scenario and compares the snapshot against a
// golden file in dir (GoldenDir when empty).
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, dir string) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, dir, scenario, result)
}

// AssertGolden compares a finished run against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, dir string, scenario *Scenario, result *Result) error {
	t.Helper()

	if dir == "" {
		dir = GoldenDir
	}
	data, err := GoldenBytes(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
