package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Snapshot string
	Story    string
	BaseURL  string
}

// FetchResult summarizes a market snapshot build.
type FetchResult struct {
	Snapshot     string   `json:"snapshot"`
	Observations int      `json:"observations"`
	Months       int      `json:"months"`
	Fetched      []string `json:"fetched"`
	Skipped      []string `json:"skipped"`
}

func (r FetchResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %d observation(s), %d monthly row(s) -> %s\n", r.Observations, r.Months, r.Snapshot)
	fmt.Fprintf(&b, "  fetched: %s", strings.Join(r.Fetched, ", "))
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "\n  skipped: %s", strings.Join(r.Skipped, ", "))
	}
	return b.String()
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the market snapshot",
		Long: `Download the full daily history of every ticker in the story, one ticker at
a time in list order, and store it in the snapshot database. Tickers with no
history are skipped and reported.

Examples:
  ledstory fetch
  ledstory fetch --snapshot ./data/market.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "market snapshot database")
	cmd.Flags().StringVar(&opts.Story, "story", "", "CUE story file (default: built-in story)")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "market data endpoint")
	return cmd
}

func runFetch(opts *FetchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg, err := opts.Config()
	if err != nil {
		return formatter.Fail("load config", err)
	}
	if opts.Snapshot != "" {
		cfg.Snapshot = opts.Snapshot
	}
	if opts.Story != "" {
		cfg.Story = opts.Story
	}
	if opts.BaseURL != "" {
		cfg.Provider.BaseURL = opts.BaseURL
	}

	runID := newRunID()
	formatter.RunID = runID
	ctx := runContext(cmd.Context(), cfg, cmd, runID)

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return formatter.Fail("load story", err)
	}

	snap, err := p.market(ctx, false)
	if err != nil {
		return formatter.Fail("fetch market", withCode(ErrCodeMarketFailed, err))
	}
	if err := p.flushMetrics(); err != nil {
		return formatter.Fail("write metrics", err)
	}

	return formatter.Success(FetchResult{
		Snapshot:     cfg.Snapshot,
		Observations: snap.Observations,
		Months:       len(snap.Monthly),
		Fetched:      snap.Fetched,
		Skipped:      snap.Skipped,
	})
}
