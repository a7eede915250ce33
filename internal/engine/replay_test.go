package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

func TestReplay_RecordsViewPerStep(t *testing.T) {
	events := []Event{
		Set("Year", chartir.Row{"year": 1970}),
		Set("Year", chartir.Row{"year": 1975}),
		Clear("Year"),
	}
	data := map[string][]chartir.Row{"world": worldRows()}

	res, err := Replay(context.Background(), decadeChart(), data, events)
	require.Error(t, err, "the off-grid step is reported")
	assert.True(t, IsInvalidValue(err))

	require.Len(t, res.Views, 4)
	require.Len(t, res.Trace, 3)
	assert.Empty(t, res.Trace[0].Err)
	assert.NotEmpty(t, res.Trace[1].Err)

	assert.Equal(t, res.Views[1].Layers, res.Views[2].Layers, "rejected step repeats the previous view")

	final, _ := res.Final().Layer("map")
	assert.Equal(t, []any{false, false, false, false}, final.Column("highlight"), "cleared Year matches nothing")
}

func TestReplay_Deterministic(t *testing.T) {
	events := []Event{Pointer("2020-02-03"), Zoom("pan", "2020-01", "2020-02")}

	a, err := Replay(context.Background(), priceChart(), nil, events)
	require.NoError(t, err)
	b, err := Replay(context.Background(), priceChart(), nil, events)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestReplay_InvalidChart(t *testing.T) {
	c := priceChart()
	c.Layers = nil

	_, err := Replay(context.Background(), c, nil, nil)
	require.Error(t, err)
}
