package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
	"github.com/jiaxingx0718/ledstory/internal/store"
)

// Snapshot is the result of one market build.
type Snapshot struct {
	// Observations is the number of daily rows in the snapshot.
	Observations int

	// Monthly holds one row per (month, ticker), ordered by month then
	// ticker list position.
	Monthly []ir.MonthlyPrice

	// Fetched and Skipped partition the ticker list, each in list order.
	Fetched []string
	Skipped []string
}

// Builder fetches tickers into a snapshot store and aggregates them.
type Builder struct {
	provider Provider
	store    *store.Store
	metrics  *metrics.Manager
	now      func() time.Time
}

// NewBuilder creates a builder. provider may be nil for offline use; m may
// be nil to disable metrics.
func NewBuilder(provider Provider, s *store.Store, m *metrics.Manager) *Builder {
	return &Builder{provider: provider, store: s, metrics: m, now: time.Now}
}

// Build fetches every ticker strictly in list order, one at a time.
//
// A ticker with no history is recorded as skipped and contributes no rows.
// Any other provider or store error aborts the build. Closes are stored as
// absolute values and timestamps in UTC.
func (b *Builder) Build(ctx context.Context, tickers []ir.Ticker) (*Snapshot, error) {
	if b.provider == nil {
		return nil, fmt.Errorf("market build: no provider configured")
	}
	if err := checkTickers(tickers); err != nil {
		return nil, err
	}
	if err := b.store.RegisterTickers(ctx, tickers); err != nil {
		return nil, fmt.Errorf("market build: %w", err)
	}

	log := logger.C(ctx).With().Str("component", "market").Logger()
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := b.now()
		bars, err := b.provider.History(ctx, t.Symbol)
		elapsed := b.now().Sub(start)

		if errors.Is(err, ErrNoData) || (err == nil && len(bars) == 0) {
			log.Warn().Str("ticker", t.Symbol).Str("company", t.Company).Msg("no price history, skipping")
			b.metrics.TickerSkipped(elapsed)
			if err := b.store.ReplaceObservations(ctx, t.Symbol, nil); err != nil {
				return nil, fmt.Errorf("market build: %w", err)
			}
			if err := b.store.MarkTicker(ctx, t.Symbol, store.StatusSkipped); err != nil {
				return nil, fmt.Errorf("market build: %w", err)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("market build: ticker %s: %w", t.Symbol, err)
		}

		obs := Normalize(t, bars)
		if err := b.store.ReplaceObservations(ctx, t.Symbol, obs); err != nil {
			return nil, fmt.Errorf("market build: %w", err)
		}
		if err := b.store.MarkTicker(ctx, t.Symbol, store.StatusFetched); err != nil {
			return nil, fmt.Errorf("market build: %w", err)
		}
		b.metrics.TickerFetched(elapsed)
		b.metrics.ObservationsStored(len(obs))
		log.Debug().Str("ticker", t.Symbol).Int("rows", len(obs)).Dur("elapsed", elapsed).Msg("fetched price history")
	}

	return b.Load(ctx)
}

// Load reads the snapshot as currently stored, without fetching. It is
// used directly in offline mode and as the last step of Build.
func (b *Builder) Load(ctx context.Context) (*Snapshot, error) {
	statuses, err := b.store.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("market load: %w", err)
	}
	snap := &Snapshot{Fetched: []string{}, Skipped: []string{}}
	for _, ts := range statuses {
		switch ts.Status {
		case store.StatusFetched:
			snap.Fetched = append(snap.Fetched, ts.Symbol)
		case store.StatusSkipped:
			snap.Skipped = append(snap.Skipped, ts.Symbol)
		}
	}

	if snap.Observations, err = b.store.CountObservations(ctx); err != nil {
		return nil, fmt.Errorf("market load: %w", err)
	}
	if snap.Monthly, err = b.store.MonthlyAverages(ctx); err != nil {
		return nil, fmt.Errorf("market load: %w", err)
	}
	return snap, nil
}

// Normalize converts provider bars to observations tagged with the
// ticker's company and region. Close is made non-negative and the date
// converted to UTC.
func Normalize(t ir.Ticker, bars []Bar) []ir.Observation {
	out := make([]ir.Observation, len(bars))
	for i, bar := range bars {
		out[i] = ir.Observation{
			Date:    bar.Time.UTC(),
			Ticker:  t.Symbol,
			Company: t.Company,
			Region:  t.Region,
			Open:    bar.Open,
			High:    bar.High,
			Low:     bar.Low,
			Close:   math.Abs(bar.Close),
			Volume:  bar.Volume,
		}
	}
	return out
}

func checkTickers(tickers []ir.Ticker) error {
	seen := make(map[string]bool, len(tickers))
	for i, t := range tickers {
		if t.Symbol == "" || t.Company == "" || t.Region == "" {
			return fmt.Errorf("market build: ticker %d is incomplete: %+v", i, t)
		}
		if seen[t.Symbol] {
			return fmt.Errorf("market build: ticker %s listed twice", t.Symbol)
		}
		seen[t.Symbol] = true
	}
	return nil
}
