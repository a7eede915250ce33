package dataset

import (
	"fmt"
	"strings"
)

// Load error codes (E200-E299).
const (
	ErrOpenWorkbook  = "E200" // file missing or not a workbook
	ErrEmptySheet    = "E201" // first sheet has no header row
	ErrMissingColumn = "E202" // required header not present
	ErrBadCell       = "E203" // cell cannot be parsed
	ErrUnknownType   = "E204" // light type outside incandescent/cfl/led
	ErrBlankRow      = "E205" // blank row followed by data
)

// LoadError reports why a spreadsheet could not be loaded.
// Row is 1-based as shown by spreadsheet applications; zero when the
// error is not tied to a row.
type LoadError struct {
	Code   string
	Path   string
	Sheet  string
	Row    int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Path)
	if e.Sheet != "" {
		fmt.Fprintf(&b, " sheet %q", e.Sheet)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
