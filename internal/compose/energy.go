package compose

import (
	"fmt"
	"strings"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/dataset"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// EnergyBars builds the bulb comparison: one bar per light type for the
// metric picked in the Attribute dropdown.
func EnergyBars(records []ir.EnergyRecord, opts Options) (*chartir.Chart, error) {
	metrics := dataset.Metrics(records)
	if len(metrics) == 0 {
		return nil, fmt.Errorf("compose %s: energy table has no metrics", ir.ChartEnergyBars)
	}
	def, err := defaultMetric(metrics, opts.DefaultMetric)
	if err != nil {
		return nil, fmt.Errorf("compose %s: %w", ir.ChartEnergyBars, err)
	}

	c := &chartir.Chart{
		Name:   ir.ChartEnergyBars,
		Width:  500,
		Height: 300,
		Datasets: map[string]*chartir.Dataset{
			DataEnergy: {Rows: EnergyRows(records)},
		},
		Layers: []chartir.Layer{{
			Name: "bars",
			Data: DataEnergy,
			Mark: chartir.Mark{Type: chartir.MarkBar, Size: chartir.Float(60)},
			Params: []chartir.Param{{
				Name:   "Attribute",
				Select: chartir.SelectPoint,
				Fields: []string{"metric"},
				Bind:   chartir.SelectBinding{Options: metrics, Label: "Attribute "},
				Value:  chartir.Row{"metric": def},
			}},
			Transforms: []chartir.Transform{chartir.Filter{Param: "Attribute"}},
			Encoding: chartir.Encoding{
				X: &chartir.Channel{
					Field:   "bulb_type",
					Type:    chartir.Nominal,
					NoTitle: true,
					Axis:    &chartir.Axis{LabelAngle: chartir.Float(0)},
					Sort:    lightSort(),
				},
				Y: &chartir.Channel{Field: "value", Type: chartir.Quantitative, NoTitle: true},
				Color: &chartir.Channel{
					Field: "bulb_type",
					Type:  chartir.Nominal,
					Title: "Light",
					Scale: &chartir.Scale{Domain: lightDomain(), Range: TypePalette},
				},
			},
		}},
	}
	return finish(c, opts)
}

// defaultMetric picks want when given, else the lifespan metric, else the
// first metric.
func defaultMetric(metrics []string, want string) (string, error) {
	if want != "" {
		for _, m := range metrics {
			if m == want {
				return m, nil
			}
		}
		return "", fmt.Errorf("default metric %q is not in the energy table", want)
	}
	for _, m := range metrics {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(m)), "lifespan") {
			return m, nil
		}
	}
	return metrics[0], nil
}
