package ir

import (
	"fmt"
	"strings"
	"time"
)

// LightType is one of the three electric light source families.
type LightType string

const (
	Incandescent LightType = "incandescent"
	CFL          LightType = "cfl"
	LED          LightType = "led"
)

// LightOrder is the fixed left-to-right order used by every chart that
// groups by light source.
var LightOrder = []LightType{Incandescent, CFL, LED}

// ParseLightType normalizes s and returns the matching LightType.
func ParseLightType(s string) (LightType, error) {
	switch LightType(strings.ToLower(strings.TrimSpace(s))) {
	case Incandescent:
		return Incandescent, nil
	case CFL:
		return CFL, nil
	case LED:
		return LED, nil
	}
	return "", fmt.Errorf("unknown light type %q", s)
}

// Event is one milestone row from the history spreadsheet.
type Event struct {
	Year        int       `json:"year"`
	Code        string    `json:"code"`
	Type        LightType `json:"type"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
	People      string    `json:"people"`
	Achievement string    `json:"achievement"`
	Decade      int       `json:"decade"`
}

// DecadeOf buckets a year to the start of its decade using floor division.
func DecadeOf(year int) int {
	d := year / 10
	if year%10 != 0 && year < 0 {
		d--
	}
	return d * 10
}

// EnergyRecord is one long-form row of the energy comparison table.
type EnergyRecord struct {
	BulbType LightType `json:"bulb_type"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
}

// Ticker pairs a market symbol with its display name and region group.
type Ticker struct {
	Symbol  string `json:"symbol" validate:"required"`
	Company string `json:"company" validate:"required"`
	Region  string `json:"region" validate:"required"`
}

// Observation is one daily price row for a ticker.
// Date is always UTC and Close is never negative.
type Observation struct {
	Date    time.Time `json:"date"`
	Ticker  string    `json:"ticker"`
	Company string    `json:"company"`
	Region  string    `json:"region"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Volume  float64   `json:"volume"`
}

// MonthlyPrice is the per (month, ticker) average of daily observations.
type MonthlyPrice struct {
	YearMonth string  `json:"year_month"`
	Ticker    string  `json:"ticker"`
	Company   string  `json:"company"`
	Region    string  `json:"region"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Days      int     `json:"days"`
}

// YearMonthOf formats t in UTC as "YYYY-MM".
func YearMonthOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Chart names understood by the composer and referenced by stories.
const (
	ChartHistoryMap   = "history_map"
	ChartEventPoints  = "event_points"
	ChartEnergyBars   = "energy_bars"
	ChartMarketSeries = "market_series"
)

// KnownCharts lists every chart the composer can build, in build order.
var KnownCharts = []string{ChartHistoryMap, ChartEventPoints, ChartEnergyBars, ChartMarketSeries}

// IsKnownChart reports whether name is one of KnownCharts.
func IsKnownChart(name string) bool {
	for _, c := range KnownCharts {
		if c == name {
			return true
		}
	}
	return false
}

// Story is a compiled narrative definition.
type Story struct {
	Title         string    `json:"title" validate:"required"`
	Intro         []string  `json:"intro"`
	Data          DataFiles `json:"data"`
	DefaultMetric string    `json:"default_metric"`
	Regions       []string  `json:"regions" validate:"required,min=1,dive,required"`
	Tickers       []Ticker  `json:"tickers" validate:"dive"`
	Sections      []Section `json:"sections" validate:"required,min=1,dive"`
}

// DataFiles names the input spreadsheets relative to the data directory.
type DataFiles struct {
	History string `json:"history" validate:"required"`
	Energy  string `json:"energy" validate:"required"`
}

// Section is one headed block of the narrative page.
type Section struct {
	ID         string       `json:"id" validate:"required"`
	Heading    string       `json:"heading" validate:"required"`
	Paragraphs []string     `json:"paragraphs"`
	ImageRows  []ImageRow   `json:"image_rows" validate:"dive"`
	Charts     []ChartEmbed `json:"charts" validate:"dive"`
}

// ImageRow is a horizontal row of images rendered side by side.
type ImageRow struct {
	Images []Image `json:"images" validate:"required,min=1,dive"`
}

// Image is a static picture shipped with the story.
type Image struct {
	Path    string `json:"path" validate:"required"`
	Caption string `json:"caption"`
	Width   int    `json:"width" validate:"gte=0"`
}

// ChartEmbed places a generated chart document in a section.
type ChartEmbed struct {
	Name   string `json:"name" validate:"required"`
	Height int    `json:"height" validate:"gt=0"`
}

// ChartNames returns the distinct chart names embedded by the story, in page order.
func (s *Story) ChartNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, sec := range s.Sections {
		for _, c := range sec.Charts {
			if !seen[c.Name] {
				seen[c.Name] = true
				names = append(names, c.Name)
			}
		}
	}
	return names
}

// ImagePaths returns every image path referenced by the story, in page order.
func (s *Story) ImagePaths() []string {
	var paths []string
	for _, sec := range s.Sections {
		for _, row := range sec.ImageRows {
			for _, img := range row.Images {
				paths = append(paths, img.Path)
			}
		}
	}
	return paths
}

// ManifestEntry records one generated chart document.
type ManifestEntry struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Spec     string `json:"spec"`
	ID       string `json:"id"`
	Bytes    int    `json:"bytes"`
}

// Manifest describes the artifacts produced by one run.
type Manifest struct {
	RunID       string          `json:"run_id"`
	ToolVersion string          `json:"tool_version"`
	IRVersion   string          `json:"ir_version"`
	GeneratedAt string          `json:"generated_at"`
	Story       string          `json:"story,omitempty"`
	Charts      []ManifestEntry `json:"charts"`
	Page        string          `json:"page,omitempty"`
}

// Lookup returns the entry for name.
func (m *Manifest) Lookup(name string) (ManifestEntry, bool) {
	for _, e := range m.Charts {
		if e.Name == name {
			return e, true
		}
	}
	return ManifestEntry{}, false
}
