package store

import (
	"context"
	"fmt"

	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// dayLayout is the text form of observation timestamps. SQLite date
// functions parse it directly.
const dayLayout = "2006-01-02 15:04:05"

// Ticker statuses recorded by MarkTicker.
const (
	StatusPending = "pending"
	StatusFetched = "fetched"
	StatusSkipped = "skipped"
)

// RegisterTickers replaces the ticker list of the snapshot. Position is the
// index in tickers and fixes the ordering of every read. Observations of
// symbols no longer listed are removed.
func (s *Store) RegisterTickers(ctx context.Context, tickers []ir.Ticker) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("register tickers: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `UPDATE tickers SET position = -1 - position`); err != nil {
		return fmt.Errorf("register tickers: %w", err)
	}

	for i, t := range tickers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tickers (symbol, company, region, position)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(symbol) DO UPDATE SET
				company = excluded.company,
				region = excluded.region,
				position = excluded.position
		`, t.Symbol, t.Company, t.Region, i)
		if err != nil {
			return fmt.Errorf("register ticker %s: %w", t.Symbol, err)
		}
	}

	// Symbols absent from the new list still carry a negative position.
	if _, err := tx.ExecContext(ctx, `DELETE FROM tickers WHERE position < 0`); err != nil {
		return fmt.Errorf("register tickers: prune: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("register tickers: commit: %w", err)
	}
	return nil
}

// ReplaceObservations makes obs the complete daily history of symbol: rows
// stored by earlier runs are deleted in the same transaction. An empty obs
// leaves the ticker with no rows. Every row must belong to symbol, which
// must be registered.
func (s *Store) ReplaceObservations(ctx context.Context, symbol string, obs []ir.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace observations: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM observations WHERE ticker = ?`, symbol); err != nil {
		return fmt.Errorf("replace observations %s: clear: %w", symbol, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations
		(ticker, day, company, region, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, day) DO UPDATE SET
			company = excluded.company,
			region = excluded.region,
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`)
	if err != nil {
		return fmt.Errorf("replace observations: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if o.Ticker != symbol {
			return fmt.Errorf("replace observations %s: row for %s", symbol, o.Ticker)
		}
		_, err := stmt.ExecContext(ctx,
			o.Ticker,
			o.Date.UTC().Format(dayLayout),
			o.Company,
			o.Region,
			o.Open,
			o.High,
			o.Low,
			o.Close,
			o.Volume,
		)
		if err != nil {
			return fmt.Errorf("write observation %s %s: %w", o.Ticker, o.Date.UTC().Format(dayLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace observations: commit: %w", err)
	}
	return nil
}

// MarkTicker records the fetch outcome of a registered ticker.
func (s *Store) MarkTicker(ctx context.Context, symbol, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tickers
		SET status = ?,
		    row_count = (SELECT COUNT(*) FROM observations WHERE ticker = ?)
		WHERE symbol = ?
	`, status, symbol, symbol)
	if err != nil {
		return fmt.Errorf("mark ticker %s: %w", symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark ticker %s: %w", symbol, err)
	}
	if n == 0 {
		return fmt.Errorf("mark ticker %s: not registered", symbol)
	}
	return nil
}
