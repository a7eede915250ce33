package store

import (
	"context"
	"fmt"

	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// TickerStatus is a registered ticker with its recorded fetch outcome.
type TickerStatus struct {
	ir.Ticker
	Status string
	Rows   int
}

// Tickers returns the registered tickers in list order.
//
// Returns an empty slice (not nil) if none are registered.
func (s *Store) Tickers(ctx context.Context) ([]TickerStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, company, region, status, row_count
		FROM tickers
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	out := []TickerStatus{}
	for rows.Next() {
		var ts TickerStatus
		if err := rows.Scan(&ts.Symbol, &ts.Company, &ts.Region, &ts.Status, &ts.Rows); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickers: %w", err)
	}
	return out, nil
}

// CountObservations returns the number of stored daily rows of registered tickers.
func (s *Store) CountObservations(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM observations o
		JOIN tickers t ON t.symbol = o.ticker
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// MonthlyAverages aggregates observations per (calendar month in UTC,
// ticker, company, region). Each numeric column is the arithmetic mean of
// the month's daily rows and Days is the row count.
//
// Results are ordered by month, then ticker list position, then symbol.
// Returns an empty slice (not nil) when there are no observations.
func (s *Store) MonthlyAverages(ctx context.Context) ([]ir.MonthlyPrice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', o.day) AS year_month,
		       o.ticker, o.company, o.region,
		       AVG(o.open), AVG(o.high), AVG(o.low), AVG(o.close), AVG(o.volume),
		       COUNT(*)
		FROM observations o
		JOIN tickers t ON t.symbol = o.ticker
		GROUP BY year_month, o.ticker, o.company, o.region
		ORDER BY year_month ASC, MIN(t.position) ASC, o.ticker COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query monthly averages: %w", err)
	}
	defer rows.Close()

	out := []ir.MonthlyPrice{}
	for rows.Next() {
		var m ir.MonthlyPrice
		err := rows.Scan(&m.YearMonth, &m.Ticker, &m.Company, &m.Region,
			&m.Open, &m.High, &m.Low, &m.Close, &m.Volume, &m.Days)
		if err != nil {
			return nil, fmt.Errorf("scan monthly average: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly averages: %w", err)
	}
	return out, nil
}
