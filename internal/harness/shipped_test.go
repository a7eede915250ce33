package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestShippedScenarios runs every scenario under testdata/scenarios.
func TestShippedScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			result, err := Run(sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(sc.Flow))
			assert.Len(t, result.Views, len(sc.Flow)+1)
		})
	}
}

func TestShippedScenarioTraceSeqs(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/history_usa_led.yaml")
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)

	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Contains(t, result.Trace[2].Error, "INVALID_VALUE")
	assert.Empty(t, result.Trace[3].Error)
}
