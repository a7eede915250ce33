package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/testutil"
)

func energyScenario() *Scenario {
	return &Scenario{
		Name:  "energy",
		Chart: "energy_bars",
		Fixtures: Fixtures{Energy: []EnergyFixture{
			{Metric: "Power (W)", BulbType: "led", Value: 10},
			{Metric: "Power (W)", BulbType: "incandescent", Value: 60},
			{Metric: "Power (W)", BulbType: "cfl", Value: 14},
		}},
	}
}

func TestRunReportsUnexpectedRejection(t *testing.T) {
	sc := energyScenario()
	sc.Flow = []FlowStep{
		{Set: &SetStep{Param: "Attribute", Values: map[string]any{"metric": "Weight (g)"}}},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow[0]: unexpected rejection")
}

func TestRunReportsMissingRejection(t *testing.T) {
	sc := energyScenario()
	sc.Flow = []FlowStep{
		{
			Set:    &SetStep{Param: "Attribute", Values: map[string]any{"metric": "Power (W)"}},
			Expect: &ExpectClause{Error: "INVALID_VALUE"},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "event was applied")
}

func TestRunReportsWrongRejectionCode(t *testing.T) {
	sc := energyScenario()
	sc.Flow = []FlowStep{
		{
			Set:    &SetStep{Param: "Nope", Values: map[string]any{"metric": "Power (W)"}},
			Expect: &ExpectClause{Error: "INVALID_VALUE"},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "UNKNOWN_PARAM")
}

func TestRunChecksViews(t *testing.T) {
	three := 3
	sc := energyScenario()
	sc.Flow = []FlowStep{
		{
			Set: &SetStep{Param: "Attribute", Values: map[string]any{"metric": "Power (W)"}},
			Expect: &ExpectClause{Views: []ViewExpect{
				{Layer: "bars", Rows: &three, Columns: map[string][]any{"bulb_type": {"incandescent", "cfl", "led"}}},
				{Layer: "bars", Where: map[string]any{"bulb_type": "led"}, Fields: map[string]any{"value": 11}},
			}},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow[0].views[1]")
}

func TestRunFailsOnUnknownChartInputs(t *testing.T) {
	sc := energyScenario()
	sc.Fixtures.Energy = nil
	sc.Flow = []FlowStep{{Clear: "Attribute"}}

	_, err := Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compose energy_bars")
}

func TestRunRejectsBadFixtureType(t *testing.T) {
	sc := energyScenario()
	sc.Fixtures.Energy[0].BulbType = "gaslight"
	sc.Flow = []FlowStep{{Clear: "Attribute"}}

	_, err := Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixtures.energy[0]")
}

func TestRunLoadsDataDir(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteHistoryFixture(t, dir)
	testutil.WriteEnergyFixture(t, dir)

	sc := &Scenario{
		Name:    "from_files",
		Chart:   "history_map",
		DataDir: dir,
		Fixtures: Fixtures{Events: []EventFixture{
			{Year: 2014, Code: "JPN", Type: "led", People: "Akasaki, Amano, Nakamura", Achievement: "Nobel Prize"},
		}},
		Flow: []FlowStep{{Set: &SetStep{Param: "Year", Values: map[string]any{"year": 2010}}}},
		Assertions: []Assertion{
			{Type: AssertFinalView, ViewExpect: ViewExpect{
				Layer:  "countries",
				Where:  map[string]any{"id": "JPN"},
				Fields: map[string]any{"highlight": true},
			}},
		},
	}

	in, err := sc.Inputs()
	require.NoError(t, err)
	assert.Greater(t, len(in.Events), 1, "spreadsheet events come first")
	assert.Equal(t, "JPN", in.Events[len(in.Events)-1].Code)
	assert.Equal(t, 2010, in.Events[len(in.Events)-1].Decade)
	assert.NotEmpty(t, in.Energy)

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunMissingDataDir(t *testing.T) {
	sc := &Scenario{
		Name:    "missing",
		Chart:   "history_map",
		DataDir: filepath.Join(t.TempDir(), "nope"),
		Flow:    []FlowStep{{Clear: "Year"}},
	}
	_, err := Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load inputs")
}
