package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/jiaxingx0718/ledstory/internal/artifact"
	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/compiler"
	"github.com/jiaxingx0718/ledstory/internal/compose"
	"github.com/jiaxingx0718/ledstory/internal/config"
	"github.com/jiaxingx0718/ledstory/internal/dataset"
	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/market"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
	"github.com/jiaxingx0718/ledstory/internal/store"
	"github.com/jiaxingx0718/ledstory/internal/vegalite"
)

// pipeline holds what every generating command shares: the configuration,
// the story, and the metrics of the run.
type pipeline struct {
	cfg     *config.Config
	story   *ir.Story
	metrics *metrics.Manager
	log     *logger.Logger
}

// loadStory compiles and validates the configured story.
func loadStory(cfg *config.Config) (*ir.Story, error) {
	story, err := compiler.Load(cfg.Story)
	if err != nil {
		return nil, err
	}
	if err := compiler.ValidateStory(story).Err(); err != nil {
		return nil, err
	}
	return story, nil
}

func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	story, err := loadStory(cfg)
	if err != nil {
		return nil, err
	}
	return &pipeline{
		cfg:     cfg,
		story:   story,
		metrics: metrics.NewManager(),
		log:     logger.C(ctx),
	}, nil
}

// needs reports whether the story embeds chart name.
func (p *pipeline) needs(name string) bool {
	return slices.Contains(p.story.ChartNames(), name)
}

func (p *pipeline) tickers() []ir.Ticker {
	if len(p.story.Tickers) == 0 {
		return market.DefaultTickers()
	}
	return p.story.Tickers
}

func (p *pipeline) composeOptions() compose.Options {
	opts := compose.DefaultOptions()
	opts.Regions = p.story.Regions
	opts.DefaultMetric = p.story.DefaultMetric
	opts.Metrics = p.metrics
	return opts
}

// tables loads the spreadsheets the story's charts need.
func (p *pipeline) tables(in *compose.Inputs) error {
	var err error
	if p.needs(ir.ChartHistoryMap) || p.needs(ir.ChartEventPoints) {
		path := filepath.Join(p.cfg.DataDir, p.story.Data.History)
		if in.Events, err = dataset.LoadEvents(path); err != nil {
			return err
		}
		p.log.Debug().Str("path", path).Int("events", len(in.Events)).Msg("history loaded")
	}
	if p.needs(ir.ChartEnergyBars) {
		path := filepath.Join(p.cfg.DataDir, p.story.Data.Energy)
		if in.Energy, err = dataset.LoadEnergy(path); err != nil {
			return err
		}
		p.log.Debug().Str("path", path).Int("records", len(in.Energy)).Msg("energy loaded")
	}
	return nil
}

// openSnapshot opens the configured snapshot database, creating its
// directory when needed.
func (p *pipeline) openSnapshot() (*store.Store, error) {
	if dir := filepath.Dir(p.cfg.Snapshot); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return store.Open(p.cfg.Snapshot)
}

// market fetches a fresh snapshot, or reads the stored one when offline.
func (p *pipeline) market(ctx context.Context, offline bool) (*market.Snapshot, error) {
	st, err := p.openSnapshot()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if offline {
		b := market.NewBuilder(nil, st, p.metrics)
		return b.Load(ctx)
	}

	provider := market.NewYahooProvider(market.YahooOptions{
		BaseURL:   p.cfg.Provider.BaseURL,
		UserAgent: p.cfg.Provider.UserAgent,
		Timeout:   p.cfg.Provider.Timeout,
	})
	return market.NewBuilder(provider, st, p.metrics).Build(ctx, p.tickers())
}

// inputs loads everything the story's charts are composed from.
func (p *pipeline) inputs(ctx context.Context, offline bool) (compose.Inputs, error) {
	var in compose.Inputs
	if err := p.tables(&in); err != nil {
		return in, err
	}
	if p.needs(ir.ChartMarketSeries) {
		snap, err := p.market(ctx, offline)
		if err != nil {
			return in, withCode(ErrCodeMarketFailed, fmt.Errorf("market snapshot: %w", err))
		}
		in.Monthly = snap.Monthly
		p.log.Info().
			Int("observations", snap.Observations).
			Strs("skipped", snap.Skipped).
			Msg("market snapshot ready")
	}
	return in, nil
}

// ChartSummary describes one written chart.
type ChartSummary struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	ID       string `json:"id"`
	Bytes    int    `json:"bytes"`
}

// writeCharts compiles and writes every composed chart, in order.
func writeCharts(w *artifact.Writer, charts []*chartir.Chart) ([]ChartSummary, error) {
	out := make([]ChartSummary, 0, len(charts))
	for _, c := range charts {
		spec, err := vegalite.Compile(c)
		if err != nil {
			return nil, err
		}
		entry, err := w.WriteChart(c.Name, spec)
		if err != nil {
			return nil, withCode(ErrCodeWriteFailed, err)
		}
		out = append(out, ChartSummary{Name: entry.Name, Document: entry.Document, ID: entry.ID, Bytes: entry.Bytes})
	}
	return out, nil
}

// flushMetrics writes the Prometheus textfile when one is configured.
func (p *pipeline) flushMetrics() error {
	if p.cfg.MetricsFile == "" {
		return nil
	}
	if err := p.metrics.WriteTextfile(p.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func newRunID() string {
	return artifact.UUIDv7Generator{}.Generate()
}
