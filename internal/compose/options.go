package compose

import (
	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/market"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
)

// DefaultWorldURL is the 110m world TopoJSON from vega-datasets.
const DefaultWorldURL = "https://cdn.jsdelivr.net/npm/vega-datasets@v1.29.0/data/world-110m.json"

// ExcludedCountry is the map id filtered out of every world layer (Antarctica).
const ExcludedCountry = "010"

// TypePalette colors incandescent, cfl and led, in ir.LightOrder.
var TypePalette = []string{"#F6C6AD", "#A6CAEC", "#B4E5A2"}

// Dataset names used inside composed charts.
const (
	DataWorld   = "world"
	DataEvents  = "events"
	DataEnergy  = "energy"
	DataMonthly = "monthly"
)

// Options configures the composer.
type Options struct {
	// WorldURL is the TopoJSON the maps load in the browser.
	WorldURL string

	// Regions are the options of the market region dropdown; the first is
	// the default.
	Regions []string

	// DefaultMetric preselects an energy metric. Empty picks the first
	// metric starting with "lifespan", else the first metric.
	DefaultMetric string

	// Metrics counts built charts. May be nil.
	Metrics *metrics.Manager
}

// DefaultOptions returns the options of the built-in story.
func DefaultOptions() Options {
	return Options{
		WorldURL: DefaultWorldURL,
		Regions:  append([]string(nil), market.DefaultRegions...),
	}
}

func (o Options) worldURL() string {
	if o.WorldURL == "" {
		return DefaultWorldURL
	}
	return o.WorldURL
}

func (o Options) regions() []string {
	if len(o.Regions) == 0 {
		return market.DefaultRegions
	}
	return o.Regions
}

func lightDomain() []any {
	out := make([]any, len(ir.LightOrder))
	for i, t := range ir.LightOrder {
		out[i] = string(t)
	}
	return out
}

func lightSort() []string {
	out := make([]string, len(ir.LightOrder))
	for i, t := range ir.LightOrder {
		out[i] = string(t)
	}
	return out
}
