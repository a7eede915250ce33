// Package dataset loads the milestone and energy spreadsheets.
//
// Both loaders read the first sheet of an .xlsx workbook. Header names are
// matched case-insensitively after trimming. Any missing column or
// unparseable cell fails the whole load with a *LoadError that names the
// sheet, row and column; there is no partial result.
package dataset
