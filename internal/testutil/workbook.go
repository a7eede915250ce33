package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes rows to the first sheet of a new workbook in dir and
// returns its path. rows[0] is the header row. A nil cell is left empty.
func WriteWorkbook(t testing.TB, dir, name string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// HistoryRows is a small milestone table in the layout of history.xlsx.
// Codes are ISO 3166 numeric country codes; the first row's code is a
// number cell, the rest are text.
func HistoryRows() [][]any {
	return [][]any{
		{"year", "code", "type", "lon", "lat", "people", "achievement"},
		{1879, 840, "incandescent", -74.0, 40.7, "Thomas Edison", "Practical incandescent lamp"},
		{1878, "826", "Incandescent", -1.6, 54.9, "Joseph Swan", "Carbon filament lamp"},
		{1976, "840", "cfl", -81.7, 41.5, "Edward Hammer", "Spiral compact fluorescent lamp"},
		{1962, "840", "led", -73.9, 42.8, "Nick Holonyak", "First visible-spectrum LED"},
		{1993, "392", "led", 134.5, 34.1, "Shuji Nakamura", "High-brightness blue LED"},
	}
}

// EnergyRows is the wide energy comparison table in the layout of energy.xlsx.
func EnergyRows() [][]any {
	return [][]any{
		{"type", "incandescent", "cfl", "led"},
		{"Lifespan (h)", 1200, 8000, 25000},
		{"Power (W)", 60, 14, 10},
		{"Annual cost ($)", 4.8, 1.2, 1.0},
	}
}

// WriteHistoryFixture writes HistoryRows as history.xlsx in dir.
func WriteHistoryFixture(t testing.TB, dir string) string {
	t.Helper()
	return WriteWorkbook(t, dir, "history.xlsx", HistoryRows())
}

// WriteEnergyFixture writes EnergyRows as energy.xlsx in dir.
func WriteEnergyFixture(t testing.TB, dir string) string {
	t.Helper()
	return WriteWorkbook(t, dir, "energy.xlsx", EnergyRows())
}
