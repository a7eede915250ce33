package compose

import (
	"errors"
	"fmt"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// Inputs are the tables the charts are built from.
type Inputs struct {
	Events  []ir.Event
	Energy  []ir.EnergyRecord
	Monthly []ir.MonthlyPrice
}

// Build composes the chart named name.
func Build(name string, in Inputs, opts Options) (*chartir.Chart, error) {
	switch name {
	case ir.ChartHistoryMap:
		return HistoryMap(in.Events, opts)
	case ir.ChartEventPoints:
		return EventPointMap(in.Events, opts)
	case ir.ChartEnergyBars:
		return EnergyBars(in.Energy, opts)
	case ir.ChartMarketSeries:
		return MarketSeries(in.Monthly, opts)
	}
	return nil, fmt.Errorf("unknown chart %q", name)
}

// BuildAll composes the named charts one after another, in order.
func BuildAll(names []string, in Inputs, opts Options) ([]*chartir.Chart, error) {
	charts := make([]*chartir.Chart, 0, len(names))
	for _, name := range names {
		c, err := Build(name, in, opts)
		if err != nil {
			return nil, err
		}
		charts = append(charts, c)
	}
	return charts, nil
}

// EvalData returns the rows an evaluator needs for c beyond its inline
// datasets: the stand-in world features for map charts.
func EvalData(c *chartir.Chart, events []ir.Event) map[string][]chartir.Row {
	data := make(map[string][]chartir.Row)
	if ds, ok := c.Datasets[DataWorld]; ok && ds.IsExternal() {
		data[DataWorld] = WorldRows(events)
	}
	return data
}

// finish validates c and records it.
func finish(c *chartir.Chart, opts Options) (*chartir.Chart, error) {
	if errs := chartir.Validate(c); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("compose %s: %w", c.Name, errors.Join(joined...))
	}
	opts.Metrics.ChartBuilt(c.Name)
	return c, nil
}
