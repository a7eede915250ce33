package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jiaxingx0718/ledstory/internal/config"
	"github.com/jiaxingx0718/ledstory/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	LogFormat  string // "console" | "json"; empty keeps the configured format
	LogLevel   string
	ConfigFile string

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ledstory CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ledstory",
		Short: "ledstory - The Evolution of LED",
		Long: `Generate the LED narrative page: interactive Vega-Lite charts built from
the history and energy spreadsheets and a market snapshot, assembled into a
single static page.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (console|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML config file (default $LEDSTORY_CONFIG)")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewChartsCommand(opts))
	cmd.AddCommand(NewPageCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewInteractCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Config returns the layered configuration: defaults, the config file
// (--config, else $LEDSTORY_CONFIG), LEDSTORY_* variables, then the log
// flags. The result is cached for the life of the command.
func (o *RootOptions) Config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigFile != "" {
		cfg, err = config.LoadFile(o.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.Verbose && o.LogLevel == "" {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// runContext carries the logger and run ID of one invocation.
func runContext(parent context.Context, cfg *config.Config, cmd *cobra.Command, runID string) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	l := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	ctx := logger.Into(parent, &l)
	return logger.WithRun(ctx, runID)
}
