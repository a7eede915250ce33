package dataset

import (
	"fmt"

	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// Event sheet columns.
var eventColumns = []string{"year", "code", "type", "lon", "lat", "people", "achievement"}

// LoadEvents reads the milestone spreadsheet at path.
//
// Year must be an integer, lon and lat numbers, and type one of the three
// light types in any letter case. Code is kept as text so zero padding in
// text cells survives. Decade is derived from year.
func LoadEvents(path string) ([]ir.Event, error) {
	s, err := readFirstSheet(path)
	if err != nil {
		return nil, err
	}
	cols, err := s.require(eventColumns...)
	if err != nil {
		return nil, err
	}

	events := make([]ir.Event, 0, len(s.rows))
	for i := range s.rows {
		var e ir.Event
		if e.Year, err = s.integer(i, cols["year"], "year"); err != nil {
			return nil, err
		}
		if e.Code, err = s.text(i, cols["code"], "code"); err != nil {
			return nil, err
		}
		raw, err := s.text(i, cols["type"], "type")
		if err != nil {
			return nil, err
		}
		if e.Type, err = ir.ParseLightType(raw); err != nil {
			return nil, s.errorAt(ErrUnknownType, i, "type", err)
		}
		if e.Lon, err = s.float(i, cols["lon"], "lon"); err != nil {
			return nil, err
		}
		if e.Lat, err = s.float(i, cols["lat"], "lat"); err != nil {
			return nil, err
		}
		e.People = s.cell(i, cols["people"])
		e.Achievement = s.cell(i, cols["achievement"])
		e.Decade = ir.DecadeOf(e.Year)
		events = append(events, e)
	}
	return events, nil
}

// EnergyTable is the wide energy comparison sheet: one row per metric, one
// column per light type.
type EnergyTable struct {
	Metrics   []string
	BulbTypes []ir.LightType

	// Values[i][j] is metric i for bulb type j.
	Values [][]float64
}

// LoadEnergyTable reads the wide energy spreadsheet at path. The first
// column holds metric names; every other non-empty header must be a light
// type.
func LoadEnergyTable(path string) (*EnergyTable, error) {
	s, err := readFirstSheet(path)
	if err != nil {
		return nil, err
	}
	if len(s.header) < 2 {
		return nil, &LoadError{Code: ErrMissingColumn, Path: path, Sheet: s.name,
			Err: fmt.Errorf("need a metric column and at least one light type column")}
	}

	t := &EnergyTable{}
	var cols []int
	for j := 1; j < len(s.header); j++ {
		if s.header[j] == "" {
			continue
		}
		lt, err := ir.ParseLightType(s.header[j])
		if err != nil {
			return nil, &LoadError{Code: ErrUnknownType, Path: path, Sheet: s.name, Row: 1, Column: s.header[j], Err: err}
		}
		t.BulbTypes = append(t.BulbTypes, lt)
		cols = append(cols, j)
	}

	for i := range s.rows {
		metric, err := s.text(i, 0, s.header[0])
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(cols))
		for k, j := range cols {
			if values[k], err = s.float(i, j, s.header[j]); err != nil {
				return nil, err
			}
		}
		t.Metrics = append(t.Metrics, metric)
		t.Values = append(t.Values, values)
	}
	return t, nil
}

// LoadEnergy reads the energy spreadsheet and returns it in long form.
func LoadEnergy(path string) ([]ir.EnergyRecord, error) {
	t, err := LoadEnergyTable(path)
	if err != nil {
		return nil, err
	}
	return Melt(t), nil
}

// Melt reshapes the wide table to long form, row-major: for each metric in
// sheet order, one record per light type in column order.
func Melt(t *EnergyTable) []ir.EnergyRecord {
	out := make([]ir.EnergyRecord, 0, len(t.Metrics)*len(t.BulbTypes))
	for i, m := range t.Metrics {
		for j, bt := range t.BulbTypes {
			out = append(out, ir.EnergyRecord{BulbType: bt, Metric: m, Value: t.Values[i][j]})
		}
	}
	return out
}

// Metrics returns the distinct metric names of records in first-appearance order.
func Metrics(records []ir.EnergyRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Metric] {
			seen[r.Metric] = true
			out = append(out, r.Metric)
		}
	}
	return out
}
