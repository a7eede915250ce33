package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecadeOf(t *testing.T) {
	tests := []struct {
		year, want int
	}{
		{1962, 1960},
		{1960, 1960},
		{1879, 1870},
		{2020, 2020},
		{9, 0},
		{-5, -10},
		{-10, -10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecadeOf(tt.year), "year %d", tt.year)
	}
}

func TestParseLightType(t *testing.T) {
	lt, err := ParseLightType("  LED ")
	require.NoError(t, err)
	assert.Equal(t, LED, lt)

	lt, err = ParseLightType("Incandescent")
	require.NoError(t, err)
	assert.Equal(t, Incandescent, lt)

	_, err = ParseLightType("halogen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "halogen")
}

func TestYearMonthOfUsesUTC(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	// 2020-03-01 05:00 in Seoul is still February in UTC.
	ts := time.Date(2020, 3, 1, 5, 0, 0, 0, seoul)
	assert.Equal(t, "2020-02", YearMonthOf(ts))
}

func TestStoryChartNamesAndImages(t *testing.T) {
	s := Story{
		Sections: []Section{
			{ID: "a", Charts: []ChartEmbed{{Name: ChartHistoryMap, Height: 500}}},
			{ID: "b",
				ImageRows: []ImageRow{{Images: []Image{{Path: "img1.jpg"}, {Path: "img2.jpg"}}}},
				Charts:    []ChartEmbed{{Name: ChartEnergyBars, Height: 500}, {Name: ChartHistoryMap, Height: 300}},
			},
		},
	}
	assert.Equal(t, []string{ChartHistoryMap, ChartEnergyBars}, s.ChartNames())
	assert.Equal(t, []string{"img1.jpg", "img2.jpg"}, s.ImagePaths())
}

func TestIsKnownChart(t *testing.T) {
	assert.True(t, IsKnownChart(ChartMarketSeries))
	assert.False(t, IsKnownChart("viz3"))
}

func TestManifestLookup(t *testing.T) {
	m := Manifest{Charts: []ManifestEntry{{Name: "energy_bars", ID: "abc"}}}
	e, ok := m.Lookup("energy_bars")
	require.True(t, ok)
	assert.Equal(t, "abc", e.ID)
	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}
