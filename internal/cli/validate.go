package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jiaxingx0718/ledstory/internal/compiler"
	"github.com/jiaxingx0718/ledstory/internal/compose"
	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/vegalite"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Story    string
	DataDir  string
	Snapshot string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Title  string                     `json:"title,omitempty"`
	Charts []string                   `json:"charts,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the story and every chart without writing files",
		Long: `Compile the story definition against its schema, check it, then load the
spreadsheets and compose and serialize every chart the story embeds. Nothing
is written. The market chart uses the stored snapshot when one exists.

Exit codes:
  0 - Story and charts valid
  1 - Story or chart validation failed
  2 - Command error (missing spreadsheet, bad config)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Story, "story", "", "CUE story file (default: built-in story)")
	cmd.Flags().StringVar(&opts.DataDir, "data", "", "directory holding history.xlsx and energy.xlsx")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "market snapshot database")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg, err := opts.Config()
	if err != nil {
		return formatter.Fail("load config", err)
	}
	if opts.Story != "" {
		cfg.Story = opts.Story
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Snapshot != "" {
		cfg.Snapshot = opts.Snapshot
	}
	ctx := runContext(cmd.Context(), cfg, cmd, "")

	story, err := compiler.Load(cfg.Story)
	if err != nil {
		return formatter.Fail("compile story", err)
	}
	if errs := compiler.ValidateStory(story); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	formatter.VerboseLog("Story %q compiled: %d section(s)", story.Title, len(story.Sections))

	p := &pipeline{cfg: cfg, story: story, log: logger.C(ctx)}
	var in compose.Inputs
	if err := p.tables(&in); err != nil {
		return formatter.Fail("load inputs", err)
	}
	if p.needs(ir.ChartMarketSeries) {
		if in.Monthly, err = storedMonthly(ctx, p); err != nil {
			return formatter.Fail("read snapshot", withCode(ErrCodeMarketFailed, err))
		}
	}

	names := story.ChartNames()
	for _, name := range names {
		c, err := compose.Build(name, in, p.composeOptions())
		if err != nil {
			return formatter.Fail("compose "+name, err)
		}
		if _, err := vegalite.Compile(c); err != nil {
			return formatter.Fail("compile "+name, withCode(ErrCodeCompileFailed, err))
		}
		formatter.VerboseLog("Chart %s valid", name)
	}

	return outputValidateSuccess(formatter, ValidationResult{Valid: true, Title: story.Title, Charts: names})
}

// storedMonthly reads the monthly series from an existing snapshot without
// creating one.
func storedMonthly(ctx context.Context, p *pipeline) ([]ir.MonthlyPrice, error) {
	if _, err := os.Stat(p.cfg.Snapshot); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	snap, err := p.market(ctx, true)
	if err != nil {
		return nil, err
	}
	return snap.Monthly, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Story valid: %s\n", result.Title)
	for _, name := range result.Charts {
		fmt.Fprintf(formatter.Writer, "✓ %s\n", name)
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs compiler.ValidationErrors) error {
	if formatter.Format == "json" {
		err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		})
		if err != nil {
			return err
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)), errs)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
	}

	return WrapExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)), errs)
}
