package engine

import "github.com/jiaxingx0718/ledstory/internal/chartir"

// decadeChart is a slider-driven map: countries whose decade matches the
// Year slider are highlighted.
func decadeChart() *chartir.Chart {
	return &chartir.Chart{
		Name: "decades",
		Datasets: map[string]*chartir.Dataset{
			"events": {Rows: []chartir.Row{
				{"id": "840", "decade": 1960, "event": "first visible LED"},
				{"id": "250", "decade": 1970, "event": "LED calculators"},
				{"id": 392, "decade": 1960, "event": "red LED display"},
			}},
			"world": {URL: "https://example.test/countries-110m.json", Format: &chartir.DataFormat{Type: "topojson", Feature: "countries"}},
		},
		Layers: []chartir.Layer{{
			Name: "map",
			Data: "world",
			Mark: chartir.Mark{Type: chartir.MarkGeoshape},
			Params: []chartir.Param{{
				Name:   "Year",
				Select: chartir.SelectPoint,
				Fields: []string{"year"},
				Bind:   chartir.RangeBinding{Min: 1800, Max: 2020, Step: 10, Label: "Year"},
				Value:  chartir.Row{"year": 1960.0},
			}},
			Transforms: []chartir.Transform{
				chartir.Filter{Predicate: chartir.Compare{Op: chartir.OpLooseNeq, Left: chartir.FieldRef{Field: "id"}, Right: chartir.Literal{Value: "010"}}},
				chartir.Lookup{Key: "id", From: chartir.LookupData{Data: "events", Key: "id", Fields: []string{"decade", "event"}}},
				chartir.Calculate{As: "highlight", Expr: chartir.Compare{Op: chartir.OpStrictEq, Left: chartir.FieldRef{Field: "decade"}, Right: chartir.ParamRef{Param: "Year", Field: "year"}}},
			},
			Encoding: chartir.Encoding{
				Color: &chartir.Channel{
					Value:     "lightgray",
					Condition: &chartir.Condition{Test: chartir.FieldRef{Field: "highlight"}, Then: chartir.Channel{Value: "orange"}},
				},
			},
		}},
	}
}

func worldRows() []chartir.Row {
	return []chartir.Row{
		{"id": "840"},
		{"id": "250"},
		{"id": "392"},
		{"id": "010"},
		{"id": "076"},
	}
}

// priceChart is a monthly line with a nearest-point hover label and a
// scales-bound pan interval.
func priceChart() *chartir.Chart {
	return &chartir.Chart{
		Name: "prices",
		Datasets: map[string]*chartir.Dataset{
			"monthly": {Rows: []chartir.Row{
				{"YearMonth": "2020-01", "Close": 10.5, "continent": "Asia"},
				{"YearMonth": "2020-02", "Close": 12.254, "continent": "Asia"},
				{"YearMonth": "2020-03", "Close": 11.0, "continent": "Europe"},
			}},
		},
		Layers: []chartir.Layer{
			{
				Name: "line",
				Data: "monthly",
				Mark: chartir.Mark{Type: chartir.MarkLine},
				Params: []chartir.Param{
					{Name: "hover", Select: chartir.SelectPoint, Encodings: []string{"x"}, On: "pointermove", Nearest: true, EmptyNone: true},
					{Name: "pan", Select: chartir.SelectInterval, Encodings: []string{"x"}, Bind: chartir.ScalesBinding{}},
					{Name: "Region", Select: chartir.SelectPoint, Fields: []string{"continent"}, Bind: chartir.SelectBinding{Options: []string{"Asia", "Europe"}}, Value: chartir.Row{"continent": "Asia"}},
				},
				Transforms: []chartir.Transform{chartir.Filter{Param: "Region"}},
				Encoding: chartir.Encoding{
					X: &chartir.Channel{Field: "YearMonth", Type: chartir.Temporal},
					Y: &chartir.Channel{Field: "Close", Type: chartir.Quantitative},
				},
			},
			{
				Name:       "label",
				Data:       "monthly",
				Mark:       chartir.Mark{Type: chartir.MarkText},
				Transforms: []chartir.Transform{chartir.Filter{Param: "hover"}},
				Encoding: chartir.Encoding{
					X:    &chartir.Channel{Field: "YearMonth", Type: chartir.Temporal, Scale: &chartir.Scale{Domain: []any{"2020-01", "2020-03"}}},
					Text: &chartir.Channel{Field: "Close", Type: chartir.Quantitative, Format: ".2f"},
					Tooltip: []chartir.Channel{
						{Field: "YearMonth", Type: chartir.Temporal, Format: "%b %Y"},
					},
				},
			},
		},
	}
}
