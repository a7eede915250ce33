package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name   string
		v      any
		typ    chartir.FieldType
		format string
		want   any
	}{
		{"two decimals", 12.254, chartir.Quantitative, ".2f", "12.25"},
		{"zero decimals", 3.6, chartir.Quantitative, ".0f", "4"},
		{"integer", 3.0, chartir.Quantitative, "d", "3"},
		{"no format", 3.5, chartir.Quantitative, "", 3.5},
		{"nil", nil, chartir.Quantitative, ".2f", nil},
		{"month and year", "2020-02", chartir.Temporal, "%b %Y", "Feb 2020"},
		{"full date", "2014-07-09", chartir.Temporal, "%Y-%m-%d", "2014-07-09"},
		{"unparseable date", "soon", chartir.Temporal, "%Y", "soon"},
		{"non numeric", "abc", chartir.Quantitative, ".2f", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.v, tt.typ, tt.format))
		})
	}
}

func TestFormatTime_Directives(t *testing.T) {
	ts := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "March 21 05:06:07", formatTime(ts, "%B %y %H:%M:%S"))
	assert.Equal(t, "100% %q", formatTime(ts, "100%% %q"))
	assert.Equal(t, "trailing %", formatTime(ts, "trailing %"))
}
