package compiler

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrConstraint       = "E100" // struct constraint from validate tags
	ErrTitleEmpty       = "E101" // title is required
	ErrDuplicateSection = "E102" // section ids must be unique
	ErrUnknownChart     = "E103" // chart name not produced by the composer
	ErrDuplicateTicker  = "E104" // ticker symbols must be unique
	ErrUnknownRegion    = "E105" // ticker region not listed in regions
	ErrDuplicateRegion  = "E106" // region listed twice
	ErrBadImagePath     = "E107" // image path must be relative and inside the asset dir
)

// ValidationError represents a story validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one story.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when there are no errors.
func (errs ValidationErrors) Err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

var (
	structOnce sync.Once
	structV    *validator.Validate
)

func structValidator() *validator.Validate {
	structOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		structV = v
	})
	return structV
}

// ValidateStory checks a compiled story against the rules the schema cannot
// express. Returns all errors found (does not fail-fast).
func ValidateStory(s *ir.Story) ValidationErrors {
	if s == nil {
		return ValidationErrors{{Field: "story", Message: "story is nil", Code: ErrConstraint}}
	}

	var errs ValidationErrors

	if strings.TrimSpace(s.Title) == "" {
		errs = append(errs, ValidationError{
			Field:   "title",
			Message: "title is required",
			Code:    ErrTitleEmpty,
		})
	}

	if err := structValidator().Struct(s); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				// title already has its own code
				if fe.Namespace() == "Story.title" {
					continue
				}
				errs = append(errs, ValidationError{
					Field:   strings.TrimPrefix(fe.Namespace(), "Story."),
					Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
					Code:    ErrConstraint,
				})
			}
		}
	}

	errs = append(errs, validateSections(s.Sections)...)
	errs = append(errs, validateMarket(s.Regions, s.Tickers)...)

	return errs
}

func validateSections(sections []ir.Section) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool)

	for i, sec := range sections {
		field := fmt.Sprintf("sections[%d]", i)
		if sec.ID != "" {
			if seen[sec.ID] {
				errs = append(errs, ValidationError{
					Field:   field + ".id",
					Message: fmt.Sprintf("duplicate section id %q", sec.ID),
					Code:    ErrDuplicateSection,
				})
			}
			seen[sec.ID] = true
		}

		for j, c := range sec.Charts {
			if !ir.IsKnownChart(c.Name) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.charts[%d].name", field, j),
					Message: fmt.Sprintf("unknown chart %q (known: %s)", c.Name, strings.Join(ir.KnownCharts, ", ")),
					Code:    ErrUnknownChart,
				})
			}
		}

		for r, row := range sec.ImageRows {
			for j, img := range row.Images {
				if msg := checkImagePath(img.Path); msg != "" {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("%s.images[%d][%d].path", field, r, j),
						Message: msg,
						Code:    ErrBadImagePath,
					})
				}
			}
		}
	}

	return errs
}

func checkImagePath(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return fmt.Sprintf("image path %q must be relative", p)
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Sprintf("image path %q escapes the asset directory", p)
	}
	return ""
}

func validateMarket(regions []string, tickers []ir.Ticker) ValidationErrors {
	var errs ValidationErrors

	known := make(map[string]bool)
	for i, r := range regions {
		if known[r] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("regions[%d]", i),
				Message: fmt.Sprintf("duplicate region %q", r),
				Code:    ErrDuplicateRegion,
			})
		}
		known[r] = true
	}

	symbols := make(map[string]bool)
	for i, t := range tickers {
		field := fmt.Sprintf("tickers[%d]", i)
		if symbols[t.Symbol] {
			errs = append(errs, ValidationError{
				Field:   field + ".symbol",
				Message: fmt.Sprintf("duplicate ticker %q", t.Symbol),
				Code:    ErrDuplicateTicker,
			})
		}
		symbols[t.Symbol] = true

		if t.Region != "" && !known[t.Region] {
			errs = append(errs, ValidationError{
				Field:   field + ".region",
				Message: fmt.Sprintf("region %q is not listed in regions", t.Region),
				Code:    ErrUnknownRegion,
			})
		}
	}

	return errs
}
