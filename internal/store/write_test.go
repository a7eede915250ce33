package store

import (
	"context"
	"testing"

	"github.com/jiaxingx0718/ledstory/internal/ir"
)

func TestReplaceObservations_DropsEarlierRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	registerTestTickers(t, s, tickerWolf)

	first := []ir.Observation{
		createTestObservation(tickerWolf, "2020-01-02", 10),
		createTestObservation(tickerWolf, "2020-01-03", 10),
	}
	if err := s.ReplaceObservations(ctx, "WOLF", first); err != nil {
		t.Fatalf("ReplaceObservations() failed: %v", err)
	}
	// The second run no longer returns Jan 3.
	again := []ir.Observation{createTestObservation(tickerWolf, "2020-01-02", 12)}
	if err := s.ReplaceObservations(ctx, "WOLF", again); err != nil {
		t.Fatalf("ReplaceObservations() second write failed: %v", err)
	}

	n, err := s.CountObservations(ctx)
	if err != nil {
		t.Fatalf("CountObservations() failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("CountObservations() = %d, want 1", n)
	}
	got, err := s.MonthlyAverages(ctx)
	if err != nil {
		t.Fatalf("MonthlyAverages() failed: %v", err)
	}
	if len(got) != 1 || got[0].Close != 12 || got[0].Days != 1 {
		t.Errorf("MonthlyAverages() = %+v, want one day closing at 12", got)
	}
}

func TestReplaceObservations_EmptyClearsTicker(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	registerTestTickers(t, s, tickerWolf, tickerAYI)

	if err := s.ReplaceObservations(ctx, "WOLF", []ir.Observation{createTestObservation(tickerWolf, "2020-01-02", 10)}); err != nil {
		t.Fatalf("ReplaceObservations(WOLF) failed: %v", err)
	}
	if err := s.ReplaceObservations(ctx, "AYI", []ir.Observation{createTestObservation(tickerAYI, "2020-01-02", 4)}); err != nil {
		t.Fatalf("ReplaceObservations(AYI) failed: %v", err)
	}
	if err := s.ReplaceObservations(ctx, "WOLF", nil); err != nil {
		t.Fatalf("ReplaceObservations(WOLF, nil) failed: %v", err)
	}

	got, err := s.MonthlyAverages(ctx)
	if err != nil {
		t.Fatalf("MonthlyAverages() failed: %v", err)
	}
	if len(got) != 1 || got[0].Ticker != "AYI" {
		t.Errorf("MonthlyAverages() = %+v, want only AYI", got)
	}
}

func TestReplaceObservations_RejectsRowOfOtherTicker(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	registerTestTickers(t, s, tickerWolf, tickerAYI)

	if err := s.ReplaceObservations(ctx, "WOLF", []ir.Observation{createTestObservation(tickerWolf, "2020-01-02", 10)}); err != nil {
		t.Fatalf("ReplaceObservations() failed: %v", err)
	}
	mixed := []ir.Observation{createTestObservation(tickerAYI, "2020-01-02", 4)}
	if err := s.ReplaceObservations(ctx, "WOLF", mixed); err == nil {
		t.Fatal("expected error for a row of another ticker")
	}

	// The failed replace rolls back, leaving the earlier row.
	n, err := s.CountObservations(ctx)
	if err != nil {
		t.Fatalf("CountObservations() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountObservations() = %d, want 1", n)
	}
}

func TestReplaceObservations_RejectsUnregisteredTicker(t *testing.T) {
	s := createTestStore(t)

	o := createTestObservation(tickerWolf, "2020-01-02", 10)
	if err := s.ReplaceObservations(context.Background(), "WOLF", []ir.Observation{o}); err == nil {
		t.Fatal("expected foreign key error for unregistered ticker")
	}
}

func TestReplaceObservations_RejectsNegativeClose(t *testing.T) {
	s := createTestStore(t)
	registerTestTickers(t, s, tickerWolf)

	o := createTestObservation(tickerWolf, "2020-01-02", -3)
	if err := s.ReplaceObservations(context.Background(), "WOLF", []ir.Observation{o}); err == nil {
		t.Fatal("expected check constraint error for negative close")
	}
}

func TestRegisterTickers_PrunesDroppedSymbols(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	registerTestTickers(t, s, tickerWolf, tickerAYI)

	o := createTestObservation(tickerAYI, "2020-01-02", 10)
	if err := s.ReplaceObservations(ctx, "AYI", []ir.Observation{o}); err != nil {
		t.Fatalf("ReplaceObservations() failed: %v", err)
	}

	registerTestTickers(t, s, tickerNich, tickerWolf)

	got, err := s.Tickers(ctx)
	if err != nil {
		t.Fatalf("Tickers() failed: %v", err)
	}
	if len(got) != 2 || got[0].Symbol != "NICFF" || got[1].Symbol != "WOLF" {
		t.Fatalf("Tickers() = %+v, want [NICFF WOLF]", got)
	}

	n, err := s.CountObservations(ctx)
	if err != nil {
		t.Fatalf("CountObservations() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("observations of dropped ticker survived: %d", n)
	}
}

func TestMarkTicker(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	registerTestTickers(t, s, tickerWolf, tickerAYI)

	obs := []ir.Observation{
		createTestObservation(tickerWolf, "2020-01-02", 10),
		createTestObservation(tickerWolf, "2020-01-03", 11),
	}
	if err := s.ReplaceObservations(ctx, "WOLF", obs); err != nil {
		t.Fatalf("ReplaceObservations() failed: %v", err)
	}
	if err := s.MarkTicker(ctx, "WOLF", StatusFetched); err != nil {
		t.Fatalf("MarkTicker() failed: %v", err)
	}
	if err := s.MarkTicker(ctx, "AYI", StatusSkipped); err != nil {
		t.Fatalf("MarkTicker() failed: %v", err)
	}

	got, err := s.Tickers(ctx)
	if err != nil {
		t.Fatalf("Tickers() failed: %v", err)
	}
	if got[0].Status != StatusFetched || got[0].Rows != 2 {
		t.Errorf("WOLF = %+v, want fetched with 2 rows", got[0])
	}
	if got[1].Status != StatusSkipped || got[1].Rows != 0 {
		t.Errorf("AYI = %+v, want skipped with 0 rows", got[1])
	}

	if err := s.MarkTicker(ctx, "NOPE", StatusFetched); err == nil {
		t.Error("expected error for unregistered ticker")
	}
}
