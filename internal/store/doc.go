// Package store provides the SQLite-backed snapshot of fetched market data.
//
// The snapshot holds two tables:
//   - Tickers: the ticker list of the run, with list position and fetch status
//   - Observations: one row per (ticker, trading day), UTC timestamps
//
// Monthly aggregation is done in SQL: observations are grouped by calendar
// month in UTC, ticker, company and region, and averaged.
//
// # Ordering
//
// Every read has a total order. Monthly rows are ordered by month, then by
// the ticker's position in the run's list, then by symbol COLLATE BINARY.
// Observations are ordered by list position, then date.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
