package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
	"github.com/jiaxingx0718/ledstory/internal/page"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	OutDir string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated site locally",
		Long: `Serve a built output directory over HTTP: the page at /, chart documents
under /charts, images under /assets, the manifest, and Prometheus metrics at
/metrics. Stops on SIGINT or SIGTERM.

Examples:
  ledstory serve
  ledstory serve --addr :9000 --out ./site`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "directory to serve")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg, err := opts.Config()
	if err != nil {
		return formatter.Fail("load config", err)
	}
	if opts.Addr != "" {
		cfg.Serve.Addr = opts.Addr
	}
	if opts.OutDir != "" {
		cfg.OutDir = opts.OutDir
	}
	if _, err := os.Stat(cfg.OutDir); err != nil {
		return formatter.Fail("serve", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx := runContext(sigCtx, cfg, cmd, newRunID())
	formatter.VerboseLog("Serving %s on http://%s", cfg.OutDir, cfg.Serve.Addr)

	err = page.Serve(ctx, cfg.OutDir, page.ServeOptions{
		Addr:           cfg.Serve.Addr,
		AllowedOrigins: cfg.Serve.AllowedOrigins,
		Metrics:        metrics.NewManager(),
		Logger:         logger.C(ctx),
	})
	if err != nil {
		return formatter.Fail("serve", err)
	}
	return nil
}
