package cli

import (
	"errors"
	"io/fs"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/compiler"
	"github.com/jiaxingx0718/ledstory/internal/config"
	"github.com/jiaxingx0718/ledstory/internal/dataset"
	"github.com/jiaxingx0718/ledstory/internal/page"
)

// Error code constants shared by all commands. Packages below the CLI own
// their ranges: E1xx story, E2xx dataset, E3xx chart IR.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeConfig        = "E002" // Config file or environment invalid
	ErrCodeNotFound      = "E003" // Path not found
	ErrCodeMarketFailed  = "E004" // Market fetch or snapshot read failed
	ErrCodeCompileFailed = "E005" // Chart could not be serialized
	ErrCodeMissing       = "E006" // Chart document or image missing at assembly
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeBadInput      = "E008" // Malformed flag value

	// ErrCodeStoryCompile reports CUE that does not parse or unify with #Story.
	ErrCodeStoryCompile = "E110"

	ErrCodeTestFailed = "E_TEST_FAILED"
)

// codedError tags err with an error code and exit status.
type codedError struct {
	code string
	exit int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, exit: ExitCommandError, err: err}
}

// classify maps err to its error code and exit status.
//
// Story and chart validation failures exit 1 like failed scenarios; missing
// inputs, missing artifacts and bad configuration exit 2.
func classify(err error) (string, int) {
	var (
		exitErr    *ExitError
		compileErr *compiler.CompileError
		storyErrs  compiler.ValidationErrors
		loadErr    *dataset.LoadError
		chartErr   chartir.ValidationError
		missing    *page.MissingArtifactError
		coded      *codedError
	)
	switch {
	case errors.As(err, &coded):
		return coded.code, coded.exit
	case errors.As(err, &compileErr):
		return ErrCodeStoryCompile, ExitFailure
	case errors.As(err, &storyErrs) && len(storyErrs) > 0:
		return storyErrs[0].Code, ExitFailure
	case errors.As(err, &chartErr):
		return chartErr.Code, ExitFailure
	case errors.As(err, &loadErr):
		return loadErr.Code, ExitCommandError
	case errors.As(err, &missing):
		return ErrCodeMissing, ExitCommandError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrLoadConfig):
		return ErrCodeConfig, ExitCommandError
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound, ExitCommandError
	case errors.As(err, &exitErr):
		return ErrCodeGeneric, exitErr.Code
	}
	return ErrCodeGeneric, ExitCommandError
}

// details returns structured context for JSON error output.
func details(err error) any {
	var (
		compileErr *compiler.CompileError
		storyErrs  compiler.ValidationErrors
		loadErr    *dataset.LoadError
		missing    *page.MissingArtifactError
	)
	switch {
	case errors.As(err, &compileErr):
		d := map[string]any{"field": compileErr.Field}
		if compileErr.Pos.IsValid() {
			d["file"] = compileErr.Pos.Filename()
			d["line"] = compileErr.Pos.Line()
			d["column"] = compileErr.Pos.Column()
		}
		return d
	case errors.As(err, &storyErrs):
		return []compiler.ValidationError(storyErrs)
	case errors.As(err, &loadErr):
		d := map[string]any{"path": loadErr.Path}
		if loadErr.Sheet != "" {
			d["sheet"] = loadErr.Sheet
		}
		if loadErr.Row > 0 {
			d["row"] = loadErr.Row
		}
		if loadErr.Column != "" {
			d["column"] = loadErr.Column
		}
		return d
	case errors.As(err, &missing):
		return map[string]any{"kind": missing.Kind, "name": missing.Name, "path": missing.Path}
	}
	return nil
}
