package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheet is the first worksheet of a workbook read into memory.
type sheet struct {
	path   string
	name   string
	header []string
	index  map[string]int
	rows   [][]string // data rows, trailing blank rows removed
}

// readFirstSheet opens path and reads its first sheet with raw cell values.
func readFirstSheet(path string) (*sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrOpenWorkbook, Path: path, Err: err}
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, &LoadError{Code: ErrEmptySheet, Path: path, Err: fmt.Errorf("workbook has no sheets")}
	}
	name := names[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Code: ErrOpenWorkbook, Path: path, Sheet: name, Err: err}
	}
	for len(rows) > 0 && isBlank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, &LoadError{Code: ErrEmptySheet, Path: path, Sheet: name, Err: fmt.Errorf("no header row")}
	}

	s := &sheet{path: path, name: name, index: make(map[string]int), rows: rows[1:]}
	for i, h := range rows[0] {
		key := normalizeHeader(h)
		s.header = append(s.header, key)
		if _, dup := s.index[key]; !dup && key != "" {
			s.index[key] = i
		}
	}

	for i, r := range s.rows {
		if isBlank(r) {
			return nil, s.errorAt(ErrBlankRow, i, "", fmt.Errorf("blank row inside data"))
		}
	}
	return s, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// require returns the column index of each named header.
func (s *sheet) require(columns ...string) (map[string]int, error) {
	out := make(map[string]int, len(columns))
	for _, c := range columns {
		i, ok := s.index[c]
		if !ok {
			return nil, &LoadError{Code: ErrMissingColumn, Path: s.path, Sheet: s.name, Column: c,
				Err: fmt.Errorf("required column not found")}
		}
		out[c] = i
	}
	return out, nil
}

// cell returns the trimmed text of data row i, column col. Short rows read
// as blank.
func (s *sheet) cell(i, col int) string {
	row := s.rows[i]
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// errorAt builds a LoadError for data row i (0-based, excluding the header).
func (s *sheet) errorAt(code string, i int, column string, err error) *LoadError {
	return &LoadError{Code: code, Path: s.path, Sheet: s.name, Row: i + 2, Column: column, Err: err}
}

func (s *sheet) float(i, col int, column string) (float64, error) {
	raw := s.cell(i, col)
	if raw == "" {
		return 0, s.errorAt(ErrBadCell, i, column, fmt.Errorf("empty cell"))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, s.errorAt(ErrBadCell, i, column, fmt.Errorf("not a number: %q", raw))
	}
	return v, nil
}

func (s *sheet) integer(i, col int, column string) (int, error) {
	v, err := s.float(i, col, column)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, s.errorAt(ErrBadCell, i, column, fmt.Errorf("not an integer: %v", v))
	}
	return int(v), nil
}

// text returns a required text cell. Number cells read as their stored
// decimal text, so a numeric 840 and a text "840" are the same value.
func (s *sheet) text(i, col int, column string) (string, error) {
	raw := s.cell(i, col)
	if raw == "" {
		return "", s.errorAt(ErrBadCell, i, column, fmt.Errorf("empty cell"))
	}
	return raw, nil
}
