package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// registerTestTickers registers tickers and fails the test on error.
func registerTestTickers(t *testing.T, s *Store, tickers ...ir.Ticker) {
	t.Helper()
	if err := s.RegisterTickers(context.Background(), tickers); err != nil {
		t.Fatalf("RegisterTickers() failed: %v", err)
	}
}

// createTestObservation creates a daily row on the given UTC date.
func createTestObservation(tk ir.Ticker, date string, close float64) ir.Observation {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return ir.Observation{
		Date:    d,
		Ticker:  tk.Symbol,
		Company: tk.Company,
		Region:  tk.Region,
		Open:    close,
		High:    close,
		Low:     close,
		Close:   close,
		Volume:  100,
	}
}

var (
	tickerWolf = ir.Ticker{Symbol: "WOLF", Company: "Wolfspeed Inc. (formerly Cree Inc.)", Region: "North America"}
	tickerAYI  = ir.Ticker{Symbol: "AYI", Company: "Acuity Brands, Inc.", Region: "North America"}
	tickerNich = ir.Ticker{Symbol: "NICFF", Company: "Nichia Corporation", Region: "Asia"}
)
