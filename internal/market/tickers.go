package market

import "github.com/jiaxingx0718/ledstory/internal/ir"

// Region groups used by the market chart's dropdown, in dropdown order.
const (
	RegionNorthAmerica = "North America"
	RegionSeoulSamsung = "Seoul Semi & Samsung"
	RegionAsia         = "Asia"
	RegionEurope       = "Europe"
)

// DefaultRegions is the dropdown order of the region filter.
var DefaultRegions = []string{RegionNorthAmerica, RegionSeoulSamsung, RegionAsia, RegionEurope}

// DefaultTickers returns the LED-related companies tracked by the story.
func DefaultTickers() []ir.Ticker {
	return []ir.Ticker{
		{Symbol: "NICFF", Company: "Nichia Corporation", Region: RegionAsia},
		{Symbol: "046890.KQ", Company: "Seoul Semiconductor Co., Ltd.", Region: RegionSeoulSamsung},
		{Symbol: "005930.KS", Company: "Samsung Electronics Co., Ltd.", Region: RegionSeoulSamsung},
		{Symbol: "WOLF", Company: "Wolfspeed Inc. (formerly Cree Inc.)", Region: RegionNorthAmerica},
		{Symbol: "600703.SS", Company: "San'an Optoelectronics Co., Ltd.", Region: RegionAsia},
		{Symbol: "002745.SZ", Company: "MLS Co., Ltd.", Region: RegionAsia},
		{Symbol: "LIGHT.AS", Company: "Signify (formerly Philips Lighting)", Region: RegionEurope},
		{Symbol: "300323.SZ", Company: "HC Semitek Corporation", Region: RegionAsia},
		{Symbol: "LEDS", Company: "SemiLEDs Corporation", Region: RegionNorthAmerica},
		{Symbol: "AYI", Company: "Acuity Brands, Inc.", Region: RegionNorthAmerica},
		{Symbol: "OSAGF", Company: "OSRAM Licht AG", Region: RegionEurope},
	}
}
