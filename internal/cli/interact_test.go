package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/engine"
)

// interactView decodes the final view of a JSON interact response.
func interactView(t *testing.T, out string) engine.View {
	t.Helper()
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Trace []json.RawMessage `json:"trace"`
			View  engine.View       `json:"view"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	return resp.Data.View
}

func TestInteractCommandEnergyBars(t *testing.T) {
	ws := newWorkspace(t, false)

	out, _, err := execute(NewInteractCommand(&RootOptions{Format: "json"}),
		"energy_bars", "--data", ws.Data, "--set", `Attribute={"metric":"Power (W)"}`)
	require.NoError(t, err, out)

	view := interactView(t, out)
	bars, ok := view.Layer("bars")
	require.True(t, ok)
	assert.Equal(t, []any{60.0, 14.0, 10.0}, bars.Column("value"))
	assert.Equal(t, []any{map[string]any{"metric": "Power (W)"}}, anyTuples(view.Params["Attribute"].Tuples))
}

func anyTuples(rows []chartir.Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = map[string]any(r)
	}
	return out
}

func TestInteractCommandRejectedEvent(t *testing.T) {
	ws := newWorkspace(t, false)

	out, _, err := execute(NewInteractCommand(&RootOptions{Format: "text"}),
		"energy_bars", "--data", ws.Data,
		"--set", `Attribute={"metric":"Power (W)"}`,
		"--set", `Attribute={"metric":"Weight (g)"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "rejected: INVALID_VALUE")
	assert.Contains(t, out, "layer bars (bar): 3 row(s)")
}

func TestInteractCommandHistoryMap(t *testing.T) {
	ws := newWorkspace(t, false)

	out, _, err := execute(NewInteractCommand(&RootOptions{Format: "json"}),
		"history_map", "--data", ws.Data, "--set", `Year={"year":1990}`)
	require.NoError(t, err, out)

	view := interactView(t, out)
	countries, ok := view.Layer("countries")
	require.True(t, ok)

	found := false
	for _, row := range countries.Rows {
		if row["id"] == "392" {
			found = true
			assert.Equal(t, true, row["highlight"])
		} else {
			assert.Equal(t, false, row["highlight"], "id %v", row["id"])
		}
	}
	assert.True(t, found, "Japan joined to its 1993 milestone")
}

func TestInteractCommandBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown chart", []string{"pie_chart"}},
		{"set without equals", []string{"energy_bars", "--set", "Attribute"}},
		{"set with bad json", []string{"energy_bars", "--set", "Attribute={metric}"}},
		{"zoom without range", []string{"market_series", "--zoom", "pan=2015"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LEDSTORY_CONFIG", "")
			out, _, err := execute(NewInteractCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeBadInput, resp.Error.Code)
		})
	}
}

func TestInteractEventsOrder(t *testing.T) {
	opts := &InteractOptions{
		Sets:    []string{`Region={"continent":"Asia"}`},
		Clears:  []string{"Region"},
		Zooms:   []string{"pan=2015-01-01,2020-12-31"},
		Pointer: "2020-02-12",
	}

	events, err := opts.events()
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, engine.Set("Region", chartir.Row{"continent": "Asia"}), events[0])
	assert.Equal(t, engine.Clear("Region"), events[1])
	assert.Equal(t, engine.Zoom("pan", "2015-01-01", "2020-12-31"), events[2])
	assert.Equal(t, engine.Pointer("2020-02-12"), events[3])
}

func TestScalar(t *testing.T) {
	assert.Equal(t, 1990.0, scalar("1990"))
	assert.Equal(t, 2.5, scalar(" 2.5 "))
	assert.Equal(t, "2020-02-12", scalar("2020-02-12"))
}
