package market

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
	"github.com/jiaxingx0718/ledstory/internal/store"
)

// fakeProvider serves canned histories and records call order.
type fakeProvider struct {
	series map[string][]Bar
	errs   map[string]error
	calls  []string
}

func (f *fakeProvider) History(_ context.Context, symbol string) ([]Bar, error) {
	f.calls = append(f.calls, symbol)
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.series[symbol], nil
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var testTickers = []ir.Ticker{
	{Symbol: "WOLF", Company: "Wolfspeed", Region: RegionNorthAmerica},
	{Symbol: "OSAGF", Company: "OSRAM Licht AG", Region: RegionEurope},
	{Symbol: "AYI", Company: "Acuity Brands, Inc.", Region: RegionNorthAmerica},
}

func TestBuilder_Build(t *testing.T) {
	p := &fakeProvider{
		series: map[string][]Bar{
			"WOLF": {
				{Time: day("2020-01-02"), Close: 10},
				{Time: day("2020-01-03"), Close: 20},
			},
			"AYI": {
				{Time: day("2020-01-02"), Close: -5},
			},
		},
		errs: map[string]error{"OSAGF": ErrNoData},
	}
	m := metrics.NewManager()
	b := NewBuilder(p, openTestStore(t), m)

	snap, err := b.Build(context.Background(), testTickers)
	require.NoError(t, err)

	assert.Equal(t, []string{"WOLF", "OSAGF", "AYI"}, p.calls, "fetched in list order")
	assert.Equal(t, []string{"WOLF", "AYI"}, snap.Fetched)
	assert.Equal(t, []string{"OSAGF"}, snap.Skipped)
	assert.Equal(t, 3, snap.Observations)

	require.Len(t, snap.Monthly, 2)
	assert.Equal(t, "WOLF", snap.Monthly[0].Ticker)
	assert.Equal(t, 15.0, snap.Monthly[0].Close, "monthly close is the mean of daily closes")
	assert.Equal(t, 2, snap.Monthly[0].Days)
	assert.Equal(t, "AYI", snap.Monthly[1].Ticker)
	assert.Equal(t, 5.0, snap.Monthly[1].Close, "negative close aggregates as its absolute value")
	assert.Equal(t, RegionNorthAmerica, snap.Monthly[1].Region)
}

func TestBuilder_RebuildDropsStaleRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")
	ctx := context.Background()

	build := func(p *fakeProvider) *Snapshot {
		s, err := store.Open(path)
		require.NoError(t, err)
		defer s.Close()
		snap, err := NewBuilder(p, s, nil).Build(ctx, testTickers)
		require.NoError(t, err)
		return snap
	}

	first := build(&fakeProvider{series: map[string][]Bar{
		"WOLF": {
			{Time: day("2020-01-02"), Close: 10},
			{Time: day("2020-01-03"), Close: 30},
		},
		"OSAGF": {{Time: day("2020-01-02"), Close: 99}},
		"AYI":   {{Time: day("2020-01-02"), Close: 4}},
	}})
	require.Equal(t, []string{"WOLF", "OSAGF", "AYI"}, first.Fetched)
	require.Equal(t, 4, first.Observations)

	// OSAGF has no history anymore and WOLF no longer returns Jan 3.
	second := build(&fakeProvider{
		series: map[string][]Bar{
			"WOLF": {{Time: day("2020-01-02"), Close: 10}},
			"AYI":  {{Time: day("2020-01-02"), Close: 4}},
		},
		errs: map[string]error{"OSAGF": ErrNoData},
	})

	assert.Equal(t, []string{"WOLF", "AYI"}, second.Fetched)
	assert.Equal(t, []string{"OSAGF"}, second.Skipped)
	assert.Equal(t, 2, second.Observations, "skipped ticker contributes zero rows")
	require.Len(t, second.Monthly, 2)
	for _, m := range second.Monthly {
		assert.NotEqual(t, "OSAGF", m.Ticker, "no monthly row for the skipped ticker")
	}
	assert.Equal(t, "WOLF", second.Monthly[0].Ticker)
	assert.Equal(t, 10.0, second.Monthly[0].Close, "dropped day no longer averages in")
	assert.Equal(t, 1, second.Monthly[0].Days)
}

func TestBuilder_EmptySeriesIsSkipped(t *testing.T) {
	p := &fakeProvider{series: map[string][]Bar{"WOLF": {}}}
	b := NewBuilder(p, openTestStore(t), nil)

	snap, err := b.Build(context.Background(), testTickers[:1])
	require.NoError(t, err)
	assert.Equal(t, []string{"WOLF"}, snap.Skipped)
	assert.Empty(t, snap.Monthly)
}

func TestBuilder_OtherErrorsAbort(t *testing.T) {
	boom := errors.New("connection reset")
	p := &fakeProvider{errs: map[string]error{"OSAGF": boom}}
	b := NewBuilder(p, openTestStore(t), nil)

	_, err := b.Build(context.Background(), testTickers)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"WOLF", "OSAGF"}, p.calls, "no fetch after the failure")
}

func TestBuilder_RejectsDuplicateTickers(t *testing.T) {
	b := NewBuilder(&fakeProvider{}, openTestStore(t), nil)
	_, err := b.Build(context.Background(), []ir.Ticker{testTickers[0], testTickers[0]})
	assert.Error(t, err)
}

func TestBuilder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{}
	b := NewBuilder(p, openTestStore(t), nil)
	_, err := b.Build(ctx, testTickers)
	assert.Error(t, err)
	assert.Empty(t, p.calls)
}

func TestBuilder_LoadOffline(t *testing.T) {
	s := openTestStore(t)
	p := &fakeProvider{series: map[string][]Bar{"WOLF": {{Time: day("2021-06-01"), Close: 3}}}}
	_, err := NewBuilder(p, s, nil).Build(context.Background(), testTickers[:1])
	require.NoError(t, err)

	offline := NewBuilder(nil, s, nil)
	snap, err := offline.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"WOLF"}, snap.Fetched)
	require.Len(t, snap.Monthly, 1)
	assert.Equal(t, "2021-06", snap.Monthly[0].YearMonth)

	_, err = offline.Build(context.Background(), testTickers)
	assert.Error(t, err, "offline builder cannot fetch")
}

func TestNormalize(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	bars := []Bar{{Time: time.Date(2020, 1, 31, 22, 0, 0, 0, est), Close: -1.5}}

	obs := Normalize(testTickers[0], bars)
	require.Len(t, obs, 1)
	assert.Equal(t, 1.5, obs[0].Close)
	assert.Equal(t, time.UTC, obs[0].Date.Location())
	assert.Equal(t, "2020-02", ir.YearMonthOf(obs[0].Date))
	assert.Equal(t, "Wolfspeed", obs[0].Company)
}

func TestDefaultTickers(t *testing.T) {
	tickers := DefaultTickers()
	require.Len(t, tickers, 11)
	assert.Equal(t, "NICFF", tickers[0].Symbol)
	assert.Equal(t, "OSAGF", tickers[10].Symbol)
	require.NoError(t, checkTickers(tickers))
	for _, tk := range tickers {
		assert.Contains(t, DefaultRegions, tk.Region)
	}
}
