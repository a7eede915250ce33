package compose

import (
	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// Year slider bounds of the history map.
const (
	YearMin  = 1800
	YearMax  = 2020
	YearStep = 10
)

func worldDataset(opts Options) *chartir.Dataset {
	return &chartir.Dataset{
		URL:    opts.worldURL(),
		Format: &chartir.DataFormat{Type: "topojson", Feature: "countries"},
	}
}

func excludeCountry() chartir.Transform {
	return chartir.Filter{Predicate: chartir.Compare{
		Op:    chartir.OpLooseNeq,
		Left:  chartir.FieldRef{Field: "id"},
		Right: chartir.Literal{Value: ExcludedCountry},
	}}
}

func typeColor() *chartir.Channel {
	return &chartir.Channel{
		Field: "type",
		Type:  chartir.Nominal,
		Title: "Light",
		Scale: &chartir.Scale{Domain: lightDomain(), Range: TypePalette},
	}
}

// HistoryMap builds the decade-highlight world map. Moving the Year
// slider highlights every country whose event decade equals the slider
// value, colored by the event's light type.
func HistoryMap(events []ir.Event, opts Options) (*chartir.Chart, error) {
	c := &chartir.Chart{
		Name:   ir.ChartHistoryMap,
		Width:  800,
		Height: 400,
		Datasets: map[string]*chartir.Dataset{
			DataWorld:  worldDataset(opts),
			DataEvents: {Rows: EventRows(events)},
		},
		Layers: []chartir.Layer{{
			Name:       "countries",
			Data:       DataWorld,
			Mark:       chartir.Mark{Type: chartir.MarkGeoshape, Stroke: "white"},
			Projection: &chartir.Projection{Type: "equirectangular"},
			Params: []chartir.Param{{
				Name:   "Year",
				Select: chartir.SelectPoint,
				Fields: []string{"year"},
				Bind:   chartir.RangeBinding{Min: YearMin, Max: YearMax, Step: YearStep, Label: "Year"},
				Value:  chartir.Row{"year": float64(YearMin)},
			}},
			Transforms: []chartir.Transform{
				excludeCountry(),
				chartir.Lookup{
					Key:  "id",
					From: chartir.LookupData{Data: DataEvents, Key: "code", Fields: []string{"decade", "type"}},
				},
				chartir.Calculate{
					As: "highlight",
					Expr: chartir.Compare{
						Op:    chartir.OpStrictEq,
						Left:  chartir.FieldRef{Field: "decade"},
						Right: chartir.ParamRef{Param: "Year", Field: "year"},
					},
				},
			},
			Encoding: chartir.Encoding{
				Color: &chartir.Channel{
					Value: "lightgray",
					Condition: &chartir.Condition{
						Test: chartir.FieldRef{Field: "highlight"},
						Then: *typeColor(),
					},
				},
			},
		}},
	}
	return finish(c, opts)
}

// EventPointMap builds the static milestone map: a gray world with one
// circle per event at its coordinates.
func EventPointMap(events []ir.Event, opts Options) (*chartir.Chart, error) {
	c := &chartir.Chart{
		Name:   ir.ChartEventPoints,
		Width:  800,
		Height: 400,
		Datasets: map[string]*chartir.Dataset{
			DataWorld:  worldDataset(opts),
			DataEvents: {Rows: EventRows(events)},
		},
		Layers: []chartir.Layer{
			{
				Name:       "countries",
				Data:       DataWorld,
				Mark:       chartir.Mark{Type: chartir.MarkGeoshape, Fill: "lightgray", Stroke: "white"},
				Projection: &chartir.Projection{Type: "equirectangular"},
				Transforms: []chartir.Transform{excludeCountry()},
			},
			{
				Name:       "events",
				Data:       DataEvents,
				Mark:       chartir.Mark{Type: chartir.MarkCircle, Size: chartir.Float(60), Opacity: chartir.Float(0.9)},
				Projection: &chartir.Projection{Type: "equirectangular"},
				Encoding: chartir.Encoding{
					Longitude: &chartir.Channel{Field: "lon", Type: chartir.Quantitative},
					Latitude:  &chartir.Channel{Field: "lat", Type: chartir.Quantitative},
					Color:     typeColor(),
					Tooltip: []chartir.Channel{
						{Field: "year", Type: chartir.Quantitative, Title: "Year"},
						{Field: "people", Type: chartir.Nominal, Title: "People"},
						{Field: "achievement", Type: chartir.Nominal, Title: "Achievement"},
					},
				},
			},
		},
	}
	return finish(c, opts)
}
