package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jiaxingx0718/ledstory/internal/artifact"
	"github.com/jiaxingx0718/ledstory/internal/compose"
	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/page"
)

// BuildOptions holds flags shared by build and charts.
type BuildOptions struct {
	*RootOptions
	DataDir  string
	AssetDir string
	OutDir   string
	Story    string
	Snapshot string
	Offline  bool
}

// BuildResult is the output of build, charts and page.
type BuildResult struct {
	RunID    string         `json:"run_id"`
	OutDir   string         `json:"out_dir"`
	Charts   []ChartSummary `json:"charts,omitempty"`
	Page     string         `json:"page,omitempty"`
	Manifest string         `json:"manifest,omitempty"`
}

func (r BuildResult) String() string {
	var b strings.Builder
	for _, c := range r.Charts {
		fmt.Fprintf(&b, "✓ %s -> %s (%d bytes)\n", c.Name, c.Document, c.Bytes)
	}
	if r.Page != "" {
		fmt.Fprintf(&b, "✓ page -> %s\n", r.Page)
	}
	fmt.Fprintf(&b, "run %s", r.RunID)
	return b.String()
}

func (o *BuildOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.DataDir, "data", "", "directory holding history.xlsx and energy.xlsx")
	cmd.Flags().StringVar(&o.AssetDir, "assets", "", "directory holding the story images")
	cmd.Flags().StringVarP(&o.OutDir, "out", "o", "", "output directory")
	cmd.Flags().StringVar(&o.Story, "story", "", "CUE story file (default: built-in story)")
	cmd.Flags().StringVar(&o.Snapshot, "snapshot", "", "market snapshot database")
	cmd.Flags().BoolVar(&o.Offline, "offline", false, "read the market series from the snapshot instead of fetching")
}

// resolve applies the command's flags over the layered configuration.
func (o *BuildOptions) resolve(cmd *cobra.Command) error {
	cfg, err := o.Config()
	if err != nil {
		return err
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.AssetDir != "" {
		cfg.AssetDir = o.AssetDir
	}
	if o.OutDir != "" {
		cfg.OutDir = o.OutDir
	}
	if o.Story != "" {
		cfg.Story = o.Story
	}
	if o.Snapshot != "" {
		cfg.Snapshot = o.Snapshot
	}
	if cmd.Flags().Changed("offline") {
		cfg.Offline = o.Offline
	}
	return nil
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate charts and the narrative page",
		Long: `Load the spreadsheets, build the market snapshot, compose and write every
chart the story embeds, then assemble index.html with its images.

Exit codes:
  0 - Page written
  1 - Story or chart validation failed
  2 - Command error (missing spreadsheet, missing image, bad config)

Examples:
  ledstory build
  ledstory build --data ./data --assets ./assets --out ./site
  ledstory build --offline --snapshot ./data/market.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd, true)
		},
	}
	opts.bind(cmd)
	return cmd
}

// NewChartsCommand creates the charts command.
func NewChartsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Generate chart documents only",
		Long: `Compose and write the charts the story embeds without assembling the page.

Examples:
  ledstory charts --offline
  ledstory charts --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd, false)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runBuild(opts *BuildOptions, cmd *cobra.Command, assemble bool) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if err := opts.resolve(cmd); err != nil {
		return formatter.Fail("load config", err)
	}
	cfg := opts.cfg

	runID := newRunID()
	formatter.RunID = runID
	ctx := runContext(cmd.Context(), cfg, cmd, runID)

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return formatter.Fail("load story", err)
	}
	formatter.VerboseLog("Story %q: %d section(s), charts %v", p.story.Title, len(p.story.Sections), p.story.ChartNames())

	in, err := p.inputs(ctx, cfg.Offline)
	if err != nil {
		return formatter.Fail("load inputs", err)
	}

	charts, err := compose.BuildAll(p.story.ChartNames(), in, p.composeOptions())
	if err != nil {
		return formatter.Fail("compose charts", err)
	}

	w := artifact.NewWriter(cfg.OutDir, runID,
		artifact.WithLogger(p.log),
		artifact.WithMetrics(p.metrics),
	)
	storyID, err := ir.StoryHash(p.story)
	if err != nil {
		return formatter.Fail("hash story", err)
	}
	w.SetStory(storyID)
	summaries, err := writeCharts(w, charts)
	if err != nil {
		return formatter.Fail("write charts", err)
	}

	result := BuildResult{RunID: runID, OutDir: cfg.OutDir, Charts: summaries}

	if assemble {
		res, err := page.Assemble(p.story, page.Options{
			OutDir:   cfg.OutDir,
			AssetDir: cfg.AssetDir,
			Logger:   p.log,
			Metrics:  p.metrics,
		})
		if err != nil {
			return formatter.Fail("assemble page", err)
		}
		w.SetPage(page.IndexFile)
		result.Page = res.Path
	}

	if result.Manifest, err = w.WriteManifest(); err != nil {
		return formatter.Fail("write manifest", withCode(ErrCodeWriteFailed, err))
	}
	if err := p.flushMetrics(); err != nil {
		return formatter.Fail("write metrics", err)
	}

	return formatter.Success(result)
}

// PageOptions holds flags for the page command.
type PageOptions struct {
	*RootOptions
	AssetDir string
	OutDir   string
	Story    string
}

// NewPageCommand creates the page command.
func NewPageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Assemble the page from existing chart documents",
		Long: `Assemble index.html from chart documents already written under <out>/charts.
Fails without writing anything when a chart or image is missing, or when the
charts were built from another story.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPage(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.AssetDir, "assets", "", "directory holding the story images")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "output directory")
	cmd.Flags().StringVar(&opts.Story, "story", "", "CUE story file (default: built-in story)")
	return cmd
}

func runPage(opts *PageOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg, err := opts.Config()
	if err != nil {
		return formatter.Fail("load config", err)
	}
	if opts.AssetDir != "" {
		cfg.AssetDir = opts.AssetDir
	}
	if opts.OutDir != "" {
		cfg.OutDir = opts.OutDir
	}
	if opts.Story != "" {
		cfg.Story = opts.Story
	}

	runID := newRunID()
	if m, err := artifact.ReadManifest(cfg.OutDir); err == nil && m.RunID != "" {
		runID = m.RunID
	}
	formatter.RunID = runID
	ctx := runContext(cmd.Context(), cfg, cmd, runID)

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return formatter.Fail("load story", err)
	}
	if _, err := page.CheckStory(cfg.OutDir, p.story); err != nil {
		return formatter.Fail("assemble page", err)
	}

	res, err := page.Assemble(p.story, page.Options{
		OutDir:   cfg.OutDir,
		AssetDir: cfg.AssetDir,
		Logger:   p.log,
		Metrics:  p.metrics,
	})
	if err != nil {
		return formatter.Fail("assemble page", err)
	}
	if err := p.flushMetrics(); err != nil {
		return formatter.Fail("write metrics", err)
	}

	return formatter.Success(BuildResult{RunID: runID, OutDir: cfg.OutDir, Page: res.Path})
}
