package compose

import (
	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// EventRows converts history events to chart rows.
func EventRows(events []ir.Event) []chartir.Row {
	rows := make([]chartir.Row, len(events))
	for i, e := range events {
		rows[i] = chartir.Row{
			"year":        e.Year,
			"code":        e.Code,
			"type":        string(e.Type),
			"lon":         e.Lon,
			"lat":         e.Lat,
			"people":      e.People,
			"achievement": e.Achievement,
			"decade":      e.Decade,
		}
	}
	return rows
}

// EnergyRows converts long-form energy records to chart rows.
func EnergyRows(records []ir.EnergyRecord) []chartir.Row {
	rows := make([]chartir.Row, len(records))
	for i, r := range records {
		rows[i] = chartir.Row{
			"metric":    r.Metric,
			"bulb_type": string(r.BulbType),
			"value":     r.Value,
		}
	}
	return rows
}

// MonthlyRows converts monthly averages to chart rows.
func MonthlyRows(monthly []ir.MonthlyPrice) []chartir.Row {
	rows := make([]chartir.Row, len(monthly))
	for i, m := range monthly {
		rows[i] = chartir.Row{
			"YearMonth":   m.YearMonth,
			"code":        m.Ticker,
			"corporation": m.Company,
			"continent":   m.Region,
			"Open":        m.Open,
			"High":        m.High,
			"Low":         m.Low,
			"Close":       m.Close,
			"Volume":      m.Volume,
		}
	}
	return rows
}

// WorldRows stands in for the world map's features when a chart is
// evaluated without a browser: one row per distinct event country code,
// plus the excluded country.
func WorldRows(events []ir.Event) []chartir.Row {
	seen := map[string]bool{ExcludedCountry: true}
	rows := []chartir.Row{{"id": ExcludedCountry}}
	for _, e := range events {
		if e.Code == "" || seen[e.Code] {
			continue
		}
		seen[e.Code] = true
		rows = append(rows, chartir.Row{"id": e.Code})
	}
	return rows
}
