package compose

import (
	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// Visible time range of the market chart before any panning.
var marketDomain = []any{"2014-01-01", "2023-12-31"}

func monthX() *chartir.Channel {
	return &chartir.Channel{Field: "YearMonth", Type: chartir.Temporal}
}

func closeY() *chartir.Channel {
	return &chartir.Channel{Field: "Close", Type: chartir.Quantitative}
}

func corporationColor() *chartir.Channel {
	return &chartir.Channel{Field: "corporation", Type: chartir.Nominal}
}

// hoverOpacity is 1 at the hovered month and 0 elsewhere.
func hoverOpacity() *chartir.Channel {
	return &chartir.Channel{
		Value:     0,
		Condition: &chartir.Condition{Param: "hover", Then: chartir.Channel{Value: 1}},
	}
}

func byRegion() []chartir.Transform {
	return []chartir.Transform{chartir.Filter{Param: "Region"}}
}

// MarketSeries builds the monthly closing price chart. The Region dropdown
// filters every layer but the guide rule; hovering snaps a guide, a marker
// and two labels to the nearest month.
func MarketSeries(monthly []ir.MonthlyPrice, opts Options) (*chartir.Chart, error) {
	regions := opts.regions()

	lines := chartir.Layer{
		Name: "lines",
		Data: DataMonthly,
		Mark: chartir.Mark{Type: chartir.MarkLine},
		Params: []chartir.Param{
			{
				Name:      "pan",
				Select:    chartir.SelectInterval,
				Encodings: []string{"x"},
				Bind:      chartir.ScalesBinding{},
			},
			{
				Name:   "Region",
				Select: chartir.SelectPoint,
				Fields: []string{"continent"},
				Bind:   chartir.SelectBinding{Options: regions, Label: "Continent:"},
				Value:  chartir.Row{"continent": regions[0]},
			},
		},
		Transforms: byRegion(),
		Encoding: chartir.Encoding{
			X: &chartir.Channel{
				Field:   "YearMonth",
				Type:    chartir.Temporal,
				NoTitle: true,
				Scale:   &chartir.Scale{Domain: marketDomain},
				Axis:    &chartir.Axis{Format: "%Y", LabelAngle: chartir.Float(0), TickCount: "year"},
			},
			Y:     &chartir.Channel{Field: "Close", Type: chartir.Quantitative, Title: "Closing Price"},
			Color: &chartir.Channel{Field: "corporation", Type: chartir.Nominal, Title: "Corporation"},
			Tooltip: []chartir.Channel{
				{Field: "YearMonth", Type: chartir.Temporal},
				{Field: "Close", Type: chartir.Quantitative},
				{Field: "corporation", Type: chartir.Nominal},
			},
		},
	}

	guide := chartir.Layer{
		Name: "guide",
		Data: DataMonthly,
		Mark: chartir.Mark{Type: chartir.MarkRule, Color: "lightgray", Size: chartir.Float(2)},
		Params: []chartir.Param{{
			Name:      "hover",
			Select:    chartir.SelectPoint,
			Encodings: []string{"x"},
			On:        "pointermove",
			Nearest:   true,
			EmptyNone: true,
		}},
		Encoding: chartir.Encoding{
			X:       monthX(),
			Opacity: hoverOpacity(),
		},
	}

	marker := chartir.Layer{
		Name:       "marker",
		Data:       DataMonthly,
		Mark:       chartir.Mark{Type: chartir.MarkPoint, Size: chartir.Float(50), Opacity: chartir.Float(0), Fill: "white"},
		Transforms: byRegion(),
		Encoding: chartir.Encoding{
			X:       monthX(),
			Y:       closeY(),
			Color:   corporationColor(),
			Opacity: hoverOpacity(),
		},
	}

	closeLabel := chartir.Layer{
		Name:       "close_label",
		Data:       DataMonthly,
		Mark:       chartir.Mark{Type: chartir.MarkText, FontSize: chartir.Float(12), Align: "left", DX: chartir.Float(7)},
		Transforms: byRegion(),
		Encoding: chartir.Encoding{
			X:     monthX(),
			Y:     closeY(),
			Color: corporationColor(),
			Text: &chartir.Channel{
				Value: "",
				Condition: &chartir.Condition{
					Param: "hover",
					Then:  chartir.Channel{Field: "Close", Type: chartir.Quantitative, Format: ".2f"},
				},
			},
			Opacity: hoverOpacity(),
		},
	}

	timeLabel := chartir.Layer{
		Name: "time_label",
		Data: DataMonthly,
		Mark: chartir.Mark{
			Type:     chartir.MarkText,
			FontSize: chartir.Float(12),
			Align:    "left",
			DX:       chartir.Float(7),
			DY:       chartir.Float(-130),
			Color:    "lightgray",
		},
		Transforms: byRegion(),
		Encoding: chartir.Encoding{
			X: monthX(),
			Text: &chartir.Channel{
				Value: "",
				Condition: &chartir.Condition{
					Param: "hover",
					Then:  chartir.Channel{Field: "YearMonth", Type: chartir.Temporal, Format: "%b %Y"},
				},
			},
		},
	}

	c := &chartir.Chart{
		Name:   ir.ChartMarketSeries,
		Width:  550,
		Height: 300,
		Datasets: map[string]*chartir.Dataset{
			DataMonthly: {Rows: MonthlyRows(monthly)},
		},
		Layers:          []chartir.Layer{lines, guide, marker, closeLabel, timeLabel},
		ViewStrokeWidth: chartir.Float(0),
	}
	return finish(c, opts)
}
