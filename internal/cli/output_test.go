package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/compiler"
	"github.com/jiaxingx0718/ledstory/internal/config"
	"github.com/jiaxingx0718/ledstory/internal/dataset"
	"github.com/jiaxingx0718/ledstory/internal/page"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf, RunID: "run-1"}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, "run-1", resp.TraceID)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E200", "history.xlsx missing", map[string]string{"path": "data/history.xlsx"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E200", resp.Error.Code)
	assert.Equal(t, "history.xlsx missing", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("✓ page -> out/index.html"))
	assert.Equal(t, "✓ page -> out/index.html\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E006", "missing chart", map[string]string{"name": "energy_bars"}))
	assert.Contains(t, buf.String(), "Error [E006]: missing chart")
	assert.NotContains(t, buf.String(), "Details:")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("E006", "missing chart", map[string]string{"name": "energy_bars"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			formatter.VerboseLog("Loading %s", "history.xlsx")

			assert.Empty(t, out.String(), "verbose output must not corrupt stdout")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Loading history.xlsx")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	loadErr := &dataset.LoadError{Code: dataset.ErrMissingColumn, Path: "data/history.xlsx", Row: 1, Column: "Year"}
	err := formatter.Fail("load inputs", fmt.Errorf("wrapped: %w", loadErr))

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, loadErr)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dataset.ErrMissingColumn, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "load inputs")
	assert.Equal(t, map[string]any{"path": "data/history.xlsx", "row": float64(1), "column": "Year"}, resp.Error.Details)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"compile", &compiler.CompileError{Field: "cue", Message: "bad"}, ErrCodeStoryCompile, ExitFailure},
		{"story validation", compiler.ValidationErrors{{Field: "title", Code: compiler.ErrTitleEmpty}}, compiler.ErrTitleEmpty, ExitFailure},
		{"chart validation", fmt.Errorf("compose: %w", errors.Join(chartir.ValidationError{Code: chartir.ErrNoLayers})), chartir.ErrNoLayers, ExitFailure},
		{"dataset", &dataset.LoadError{Code: dataset.ErrOpenWorkbook}, dataset.ErrOpenWorkbook, ExitCommandError},
		{"missing artifact", &page.MissingArtifactError{Kind: "image", Name: "icons.png", Err: errors.New("gone")}, ErrCodeMissing, ExitCommandError},
		{"config", fmt.Errorf("%w: bad", config.ErrInvalidConfig), ErrCodeConfig, ExitCommandError},
		{"coded", withCode(ErrCodeMarketFailed, errors.New("timeout")), ErrCodeMarketFailed, ExitCommandError},
		{"generic", errors.New("boom"), ErrCodeGeneric, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "write manifest", inner)

	assert.Equal(t, "write manifest: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, "2 scenario(s) failed", NewExitError(ExitFailure, "2 scenario(s) failed").Error())
}
