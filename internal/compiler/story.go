package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/jiaxingx0718/ledstory/internal/ir"
)

//go:embed schema.cue
var schemaSource string

//go:embed story.cue
var defaultStory []byte

// DefaultFilename is the name reported in positions for the built-in story.
const DefaultFilename = "story.cue"

// DefaultSource returns the CUE source of the built-in story.
func DefaultSource() []byte {
	out := make([]byte, len(defaultStory))
	copy(out, defaultStory)
	return out
}

// Load reads and compiles a story file. An empty path selects the built-in story.
func Load(path string) (*ir.Story, error) {
	if path == "" {
		return Compile(DefaultFilename, defaultStory)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story: %w", err)
	}
	return Compile(path, src)
}

// Compile parses CUE source, unifies its top-level story field with the
// embedded #Story schema and decodes the result.
//
// Schema defaults (chart height, data file names) are applied before decoding,
// so the returned Story is always fully populated.
func Compile(filename string, src []byte) (*ir.Story, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("story schema: %w", err)
	}

	file := ctx.CompileBytes(src, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	storyVal := file.LookupPath(cue.ParsePath("story"))
	if !storyVal.Exists() {
		return nil, &CompileError{
			Field:   "story",
			Message: "story is required",
			Pos:     file.Pos(),
		}
	}

	unified := schema.LookupPath(cue.ParsePath("#Story")).Unify(storyVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	return CompileStory(unified)
}

// CompileStory decodes a story value that has already been checked against
// the schema.
func CompileStory(v cue.Value) (*ir.Story, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	s := &ir.Story{}
	var err error

	if s.Title, err = requiredString(v, "title"); err != nil {
		return nil, err
	}
	if s.Intro, err = stringList(v, "intro"); err != nil {
		return nil, err
	}
	if s.Data.History, err = requiredString(v, "data.history"); err != nil {
		return nil, err
	}
	if s.Data.Energy, err = requiredString(v, "data.energy"); err != nil {
		return nil, err
	}
	if s.DefaultMetric, err = optionalString(v, "default_metric"); err != nil {
		return nil, err
	}
	if s.Regions, err = stringList(v, "regions"); err != nil {
		return nil, err
	}
	if s.Tickers, err = parseTickers(v); err != nil {
		return nil, err
	}
	if s.Sections, err = parseSections(v); err != nil {
		return nil, err
	}
	if len(s.Sections) == 0 {
		return nil, &CompileError{
			Field:   "sections",
			Message: "at least one section is required",
			Pos:     v.Pos(),
		}
	}

	return s, nil
}

func parseTickers(v cue.Value) ([]ir.Ticker, error) {
	list := v.LookupPath(cue.ParsePath("tickers"))
	if !list.Exists() {
		return nil, nil
	}
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var tickers []ir.Ticker
	for iter.Next() {
		tv := iter.Value()
		var t ir.Ticker
		if t.Symbol, err = requiredString(tv, "symbol"); err != nil {
			return nil, err
		}
		if t.Company, err = requiredString(tv, "company"); err != nil {
			return nil, err
		}
		if t.Region, err = requiredString(tv, "region"); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, nil
}

func parseSections(v cue.Value) ([]ir.Section, error) {
	iter, err := v.LookupPath(cue.ParsePath("sections")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var sections []ir.Section
	for iter.Next() {
		sv := iter.Value()
		var sec ir.Section
		if sec.ID, err = requiredString(sv, "id"); err != nil {
			return nil, err
		}
		if sec.Heading, err = requiredString(sv, "heading"); err != nil {
			return nil, err
		}
		if sec.Paragraphs, err = stringList(sv, "paragraphs"); err != nil {
			return nil, err
		}
		if sec.ImageRows, err = parseImageRows(sv); err != nil {
			return nil, err
		}
		if sec.Charts, err = parseCharts(sv); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func parseImageRows(v cue.Value) ([]ir.ImageRow, error) {
	rowsVal := v.LookupPath(cue.ParsePath("images"))
	if !rowsVal.Exists() {
		return nil, nil
	}
	rows, err := rowsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.ImageRow
	for rows.Next() {
		imgs, err := rows.Value().List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var row ir.ImageRow
		for imgs.Next() {
			iv := imgs.Value()
			var img ir.Image
			if img.Path, err = requiredString(iv, "path"); err != nil {
				return nil, err
			}
			if img.Caption, err = optionalString(iv, "caption"); err != nil {
				return nil, err
			}
			w, err := optionalInt(iv, "width", 0)
			if err != nil {
				return nil, err
			}
			img.Width = w
			row.Images = append(row.Images, img)
		}
		if len(row.Images) == 0 {
			return nil, &CompileError{
				Field:   "images",
				Message: "image row must not be empty",
				Pos:     rows.Value().Pos(),
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func parseCharts(v cue.Value) ([]ir.ChartEmbed, error) {
	list := v.LookupPath(cue.ParsePath("charts"))
	if !list.Exists() {
		return nil, nil
	}
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var charts []ir.ChartEmbed
	for iter.Next() {
		cv := iter.Value()
		var c ir.ChartEmbed
		if c.Name, err = requiredString(cv, "name"); err != nil {
			return nil, err
		}
		h, err := optionalInt(cv, "height", 500)
		if err != nil {
			return nil, err
		}
		c.Height = h
		charts = append(charts, c)
	}
	return charts, nil
}

// lookup resolves a path and applies its default, if the field has one.
func lookup(v cue.Value, path string) cue.Value {
	f := v.LookupPath(cue.ParsePath(path))
	if d, ok := f.Default(); ok {
		return d
	}
	return f
}

func requiredString(v cue.Value, path string) (string, error) {
	f := lookup(v, path)
	if !f.Exists() {
		return "", &CompileError{
			Field:   path,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	f := lookup(v, path)
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalInt(v cue.Value, path string, def int) (int, error) {
	f := lookup(v, path)
	if !f.Exists() {
		return def, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError is a story compilation failure with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// First error with a position wins; schema positions are skipped so the
	// report points into the story file.
	for _, e := range errs {
		for _, p := range errors.Positions(e) {
			if p.Filename() != "schema.cue" {
				return &CompileError{Field: "cue", Message: e.Error(), Pos: p}
			}
		}
	}
	if positions := errors.Positions(errs[0]); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: errs[0].Error(), Pos: positions[0]}
	}
	return err
}
